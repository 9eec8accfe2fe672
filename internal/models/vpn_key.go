package models

import "time"

// VPNKey records an access credential issued on a panel host. ClientUUID is
// the panel-side client identifier; KeyEmail is the stable handle used when
// extending the same client.
type VPNKey struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     int64     `gorm:"not null;index" json:"user_id"`
	HostName   string    `gorm:"size:128;not null" json:"host_name"`
	ClientUUID string    `gorm:"size:64;not null" json:"client_uuid"`
	KeyEmail   string    `gorm:"size:128;not null;index" json:"key_email"`
	ExpiresAt  time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (VPNKey) TableName() string {
	return "vpn_keys"
}
