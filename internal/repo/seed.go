package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-invoice-dashboard/internal/domain"
)

var demoCustomers = []domain.Customer{
	{ID: "d6e15727-9fe1-4961-8c5b-ea44a9bd81aa", Name: "Evil Rabbit", Email: "evil@rabbit.com", ImageURL: "/customers/evil-rabbit.png"},
	{ID: "3958dc9e-712f-4377-85e9-fec4b6a6442a", Name: "Delba de Oliveira", Email: "delba@oliveira.com", ImageURL: "/customers/delba-de-oliveira.png"},
	{ID: "3958dc9e-742f-4377-85e9-fec4b6a6442a", Name: "Lee Robinson", Email: "lee@robinson.com", ImageURL: "/customers/lee-robinson.png"},
	{ID: "76d65c26-f784-44a2-ac19-586678f7c2f2", Name: "Michael Novotny", Email: "michael@novotny.com", ImageURL: "/customers/michael-novotny.png"},
	{ID: "cc27c14a-0acf-4f4a-a6c9-d45682c144b9", Name: "Amy Burns", Email: "amy@burns.com", ImageURL: "/customers/amy-burns.png"},
	{ID: "13d07535-c59e-4157-a011-f8d2ef4e0cbb", Name: "Balazs Orban", Email: "balazs@orban.com", ImageURL: "/customers/balazs-orban.png"},
}

var demoInvoices = []domain.Invoice{
	{ID: "0b6f2a3e-1c43-4b8e-9d43-6a2f3a0d6c01", CustomerID: demoCustomers[0].ID, Amount: 15795, Status: domain.StatusPending, Date: "2022-12-06"},
	{ID: "0b6f2a3e-1c43-4b8e-9d43-6a2f3a0d6c02", CustomerID: demoCustomers[1].ID, Amount: 20348, Status: domain.StatusPending, Date: "2022-11-14"},
	{ID: "0b6f2a3e-1c43-4b8e-9d43-6a2f3a0d6c03", CustomerID: demoCustomers[4].ID, Amount: 3040, Status: domain.StatusPaid, Date: "2022-10-29"},
	{ID: "0b6f2a3e-1c43-4b8e-9d43-6a2f3a0d6c04", CustomerID: demoCustomers[3].ID, Amount: 44800, Status: domain.StatusPaid, Date: "2023-09-10"},
	{ID: "0b6f2a3e-1c43-4b8e-9d43-6a2f3a0d6c05", CustomerID: demoCustomers[5].ID, Amount: 34577, Status: domain.StatusPending, Date: "2023-08-05"},
	{ID: "0b6f2a3e-1c43-4b8e-9d43-6a2f3a0d6c06", CustomerID: demoCustomers[2].ID, Amount: 54246, Status: domain.StatusPending, Date: "2023-07-16"},
	{ID: "0b6f2a3e-1c43-4b8e-9d43-6a2f3a0d6c07", CustomerID: demoCustomers[0].ID, Amount: 666, Status: domain.StatusPending, Date: "2023-06-27"},
	{ID: "0b6f2a3e-1c43-4b8e-9d43-6a2f3a0d6c08", CustomerID: demoCustomers[3].ID, Amount: 32545, Status: domain.StatusPaid, Date: "2023-06-09"},
	{ID: "0b6f2a3e-1c43-4b8e-9d43-6a2f3a0d6c09", CustomerID: demoCustomers[4].ID, Amount: 1250, Status: domain.StatusPaid, Date: "2023-06-17"},
	{ID: "0b6f2a3e-1c43-4b8e-9d43-6a2f3a0d6c10", CustomerID: demoCustomers[5].ID, Amount: 8546, Status: domain.StatusPaid, Date: "2023-06-07"},
	{ID: "0b6f2a3e-1c43-4b8e-9d43-6a2f3a0d6c11", CustomerID: demoCustomers[1].ID, Amount: 500, Status: domain.StatusPaid, Date: "2023-08-19"},
	{ID: "0b6f2a3e-1c43-4b8e-9d43-6a2f3a0d6c12", CustomerID: demoCustomers[5].ID, Amount: 8945, Status: domain.StatusPaid, Date: "2023-06-03"},
	{ID: "0b6f2a3e-1c43-4b8e-9d43-6a2f3a0d6c13", CustomerID: demoCustomers[2].ID, Amount: 1000, Status: domain.StatusPaid, Date: "2022-06-05"},
}

// SeedDemo fills an empty store with demo customers and invoices. It does
// nothing, and reports false, when any customer already exists.
func SeedDemo(ctx context.Context, db *gorm.DB) (bool, error) {
	seeded := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.Customer{}).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		if err := tx.Create(&demoCustomers).Error; err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&demoInvoices).Error; err != nil {
			return err
		}
		seeded = true
		return nil
	})
	return seeded, err
}
