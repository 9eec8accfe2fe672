package repository

import (
	"errors"
	"time"

	"vpnshop/internal/models"

	"gorm.io/gorm"
)

type KeyRepository struct {
	db *gorm.DB
}

func NewKeyRepository(db *gorm.DB) *KeyRepository {
	return &KeyRepository{db: db}
}

func (r *KeyRepository) Create(key *models.VPNKey) error {
	return r.db.Create(key).Error
}

func (r *KeyRepository) GetByID(id uint) (*models.VPNKey, error) {
	var key models.VPNKey
	err := r.db.First(&key, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func (r *KeyRepository) UpdateExpiry(id uint, expiresAt time.Time) error {
	res := r.db.Model(&models.VPNKey{}).Where("id = ?", id).Update("expires_at", expiresAt)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrKeyNotFound
	}
	return nil
}

func (r *KeyRepository) ListByUser(userID int64) ([]models.VPNKey, error) {
	var keys []models.VPNKey
	err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&keys).Error
	return keys, err
}
