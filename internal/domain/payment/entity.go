// internal/domain/payment/entity.go
package payment

import (
	"time"

	"squadhub-service/internal/domain/entitlement"
)

type Status string

const StatusCompleted Status = "completed"

// Record is one completed payment. Records are append-only.
type Record struct {
	PaymentID       string                      `json:"payment_id"`
	UserID          string                      `json:"user_id"`
	PlanID          string                      `json:"plan_id"`
	Amount          float64                     `json:"amount"`
	Currency        string                      `json:"currency"`
	BillingInterval entitlement.BillingInterval `json:"billing_interval"`
	PayerID         string                      `json:"payer_id,omitempty"`
	Timestamp       time.Time                   `json:"timestamp"`
	Status          Status                      `json:"status"`
}

// Pending is a checkout that has not been verified yet.
type Pending struct {
	PaymentID       string                      `json:"payment_id"`
	UserID          string                      `json:"user_id"`
	PlanID          string                      `json:"plan_id"`
	PlanName        string                      `json:"plan_name"`
	Amount          float64                     `json:"amount"`
	Currency        string                      `json:"currency"`
	BillingInterval entitlement.BillingInterval `json:"billing_interval"`
	CreatedAt       time.Time                   `json:"created_at"`
}

// Complete turns a verified pending payment into its ledger record.
func (p Pending) Complete(payerID string, at time.Time) Record {
	return Record{
		PaymentID:       p.PaymentID,
		UserID:          p.UserID,
		PlanID:          p.PlanID,
		Amount:          p.Amount,
		Currency:        p.Currency,
		BillingInterval: p.BillingInterval,
		PayerID:         payerID,
		Timestamp:       at,
		Status:          StatusCompleted,
	}
}
