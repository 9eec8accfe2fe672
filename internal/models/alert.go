package models

import "time"

// Alert reasons.
const (
	AlertProvisioningFailed = "provisioning_failed"
)

// ReconciliationAlert is raised when money settled but the entitlement could
// not be granted (panel down, key missing). The transaction stays paid; the
// alert is the operator's queue for manual or scheduled repair.
type ReconciliationAlert struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PaymentID string    `gorm:"size:64;not null;index" json:"payment_id"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	Reason    string    `gorm:"size:64;not null" json:"reason"`
	Detail    string    `gorm:"type:text" json:"detail"`
	Resolved  bool      `gorm:"not null;default:false;index" json:"resolved"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ReconciliationAlert) TableName() string {
	return "reconciliation_alerts"
}
