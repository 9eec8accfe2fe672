package repository

import (
	"errors"

	"vpnshop/internal/models"

	"gorm.io/gorm"
)

var ErrPlanNotFound = errors.New("plan not found")

type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) GetByID(id uint) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Where("id = ? AND is_active = ?", id, true).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *PlanRepository) ListForHost(hostName string) ([]models.Plan, error) {
	var plans []models.Plan
	err := r.db.Where("host_name = ? AND is_active = ?", hostName, true).
		Order("months ASC").Find(&plans).Error
	return plans, err
}

func (r *PlanRepository) ListHosts() ([]models.Host, error) {
	var hosts []models.Host
	err := r.db.Where("is_active = ?", true).Order("host_name ASC").Find(&hosts).Error
	return hosts, err
}
