package repository

import (
	"errors"

	"vpnshop/internal/models"

	"gorm.io/gorm"
)

var ErrAlertNotFound = errors.New("alert not found")

type AlertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) Create(alert *models.ReconciliationAlert) error {
	return r.db.Create(alert).Error
}

func (r *AlertRepository) ListOpen() ([]models.ReconciliationAlert, error) {
	var alerts []models.ReconciliationAlert
	err := r.db.Where("resolved = ?", false).Order("created_at ASC").Find(&alerts).Error
	return alerts, err
}

func (r *AlertRepository) Resolve(id uint) error {
	res := r.db.Model(&models.ReconciliationAlert{}).
		Where("id = ? AND resolved = ?", id, false).
		Update("resolved", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlertNotFound
	}
	return nil
}
