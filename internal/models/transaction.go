package models

import "time"

// Transaction statuses. A transaction only ever moves pending -> paid or
// pending -> failed; once settled it is immutable and kept as audit trail.
const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusFailed  = "failed"
)

// Transaction is the durable record of a payment attempt. PaymentID is the
// provider-agnostic correlation key: it goes out inside the payment link
// (label/account/order id, depending on the provider) and comes back in the
// callback, and its unique index is what makes settlement at-most-once.
type Transaction struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	PaymentID      string    `gorm:"size:64;not null;uniqueIndex" json:"payment_id"`
	UserID         int64     `gorm:"not null;index" json:"user_id"`
	Status         string    `gorm:"size:20;not null;index" json:"status"`
	AmountRub      float64   `gorm:"not null" json:"amount_rub"`
	AmountCurrency *float64  `json:"amount_currency,omitempty"`
	CurrencyName   string    `gorm:"size:16" json:"currency_name,omitempty"`
	PaymentMethod  string    `gorm:"size:32" json:"payment_method"`
	Intent         string    `gorm:"type:text" json:"intent"` // JSON, see models.Intent
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}
