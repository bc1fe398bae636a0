package services

import "github.com/prometheus/client_golang/prometheus"

// Action outcomes recorded by ActionsTotal.
const (
	outcomeOK      = "ok"
	outcomeInvalid = "invalid"
	outcomeError   = "error"
)

// ActionsTotal counts invoice write actions by action (create|update|delete)
// and outcome (ok|invalid|error).
var ActionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "invoice_actions_total",
		Help: "Invoice write actions by action and outcome.",
	},
	[]string{"action", "outcome"},
)

func init() {
	prometheus.MustRegister(ActionsTotal)
}
