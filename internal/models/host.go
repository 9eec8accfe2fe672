package models

import "time"

type Host struct {
	HostName  string    `gorm:"primaryKey;size:128" json:"host_name"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (Host) TableName() string {
	return "hosts"
}

type Plan struct {
	ID        uint      `gorm:"primaryKey" json:"plan_id"`
	HostName  string    `gorm:"size:128;not null;index" json:"host_name"`
	PlanName  string    `gorm:"size:128;not null" json:"plan_name"`
	Months    int       `gorm:"not null" json:"months"`
	Price     float64   `gorm:"not null" json:"price"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (Plan) TableName() string {
	return "plans"
}
