package models

import "time"

// PromoCode. Code is stored normalized uppercase. UsedTotal is a cached
// counter; the usage rows are the source of truth for per-user limits.
// A zero limit means unlimited.
type PromoCode struct {
	Code              string     `gorm:"primaryKey;size:64" json:"code"`
	DiscountPercent   float64    `gorm:"not null;default:0" json:"discount_percent"`
	DiscountAmount    float64    `gorm:"not null;default:0" json:"discount_amount"`
	UsageLimitTotal   int        `gorm:"not null;default:0" json:"usage_limit_total"`
	UsageLimitPerUser int        `gorm:"not null;default:0" json:"usage_limit_per_user"`
	ValidFrom         *time.Time `json:"valid_from,omitempty"`
	ValidUntil        *time.Time `json:"valid_until,omitempty"`
	IsActive          bool       `gorm:"not null;default:true" json:"is_active"`
	UsedTotal         int        `gorm:"not null;default:0" json:"used_total"`
	Description       string     `gorm:"size:255" json:"description,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

func (PromoCode) TableName() string {
	return "promo_codes"
}

// PromoCodeUsage is an append-only redemption fact. The (code, order_id)
// unique index makes a retried redemption for the same settled order a
// no-op instead of a double count.
type PromoCodeUsage struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Code          string    `gorm:"size:64;not null;index:idx_promo_usage_user;uniqueIndex:idx_promo_usage_order" json:"code"`
	UserID        int64     `gorm:"not null;index:idx_promo_usage_user" json:"user_id"`
	AppliedAmount float64   `gorm:"not null" json:"applied_amount"`
	OrderID       string    `gorm:"size:64;not null;uniqueIndex:idx_promo_usage_order" json:"order_id"`
	UsedAt        time.Time `gorm:"autoCreateTime" json:"used_at"`
}

func (PromoCodeUsage) TableName() string {
	return "promo_code_usages"
}
