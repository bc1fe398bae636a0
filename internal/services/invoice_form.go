package services

import (
	"errors"
	"math"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Form field names as submitted by the dashboard forms.
const (
	FieldCustomerID = "customerId"
	FieldAmount     = "amount"
	FieldStatus     = "status"
)

// InvoiceForm is the raw, untrusted payload of the create and edit forms.
// The invoice id and date are never taken from the form.
type InvoiceForm struct {
	CustomerID string `form:"customerId" validate:"required"`
	Amount     string `form:"amount"     validate:"required"`
	Status     string `form:"status"     validate:"required,oneof=pending paid"`
}

// ValidatedInvoice is an InvoiceForm that passed the schema, with the amount
// converted to minor units.
type ValidatedInvoice struct {
	CustomerID  string
	AmountCents int64
	Status      string
}

// FormFromValues extracts the invoice fields from submitted form values.
func FormFromValues(v url.Values) InvoiceForm {
	return InvoiceForm{
		CustomerID: strings.TrimSpace(v.Get(FieldCustomerID)),
		Amount:     strings.TrimSpace(v.Get(FieldAmount)),
		Status:     strings.TrimSpace(v.Get(FieldStatus)),
	}
}

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(math.MaxInt64)

	formValidator = newFormValidator()
)

func newFormValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report issues under the submitted field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks f against the invoice schema: customerId present, status
// pending or paid, amount a finite non-negative decimal. On success the
// amount is returned as round(amount * 100) minor units. Issues come back in
// form field order.
func (f InvoiceForm) Validate() (ValidatedInvoice, error) {
	issues := map[string]string{}
	if err := formValidator.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return ValidatedInvoice{}, err
		}
		for _, fe := range verrs {
			issues[fe.Field()] = issueMessage(fe)
		}
	}

	var cents int64
	if _, missing := issues[FieldAmount]; !missing {
		var err error
		if cents, err = toMinorUnits(f.Amount); err != nil {
			issues[FieldAmount] = err.Error()
		}
	}

	if len(issues) > 0 {
		out := &ValidationError{}
		for _, field := range []string{FieldCustomerID, FieldAmount, FieldStatus} {
			if msg, ok := issues[field]; ok {
				out.Issues = append(out.Issues, FieldIssue{Field: field, Message: msg})
			}
		}
		return ValidatedInvoice{}, out
	}
	return ValidatedInvoice{CustomerID: f.CustomerID, AmountCents: cents, Status: f.Status}, nil
}

var errBadAmount = errors.New("must be a non-negative number")

// maxAmountExponent bounds the decimal exponent toMinorUnits accepts. Inputs
// like "1e-50000000" otherwise cost a rescale proportional to the exponent;
// anything past 1e20 overflows int64 cents and anything finer than 1e-20
// carries precision no invoice has.
const maxAmountExponent = 20

// toMinorUnits parses a decimal amount and returns round(amount * 100).
// Halves round away from zero. Work is bounded by the input length.
func toMinorUnits(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() {
		return 0, errBadAmount
	}
	if exp := d.Exponent(); exp > maxAmountExponent || exp < -maxAmountExponent {
		return 0, errBadAmount
	}
	cents := d.Mul(hundred).Round(0)
	if cents.GreaterThan(maxCents) {
		return 0, errBadAmount
	}
	return cents.IntPart(), nil
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}
