package models

import "time"

type User struct {
	TelegramID  int64     `gorm:"primaryKey" json:"telegram_id"`
	Username    string    `gorm:"size:255" json:"username"`
	Balance     float64   `gorm:"not null;default:0" json:"balance"`
	ReferredBy  *int64    `gorm:"index" json:"referred_by,omitempty"`
	TotalSpent  float64   `gorm:"not null;default:0" json:"total_spent"`
	TotalMonths int       `gorm:"not null;default:0" json:"total_months"`
	TrialUsed   bool      `gorm:"not null;default:false" json:"trial_used"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
