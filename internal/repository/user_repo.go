package repository

import (
	"errors"

	"vpnshop/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByTelegramID(telegramID int64) (*models.User, error) {
	var u models.User
	err := r.db.Where("telegram_id = ?", telegramID).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Register creates the user on first contact. referredBy is ignored for
// existing users and for self-referrals.
func (r *UserRepository) Register(telegramID int64, username string, referredBy *int64) (*models.User, error) {
	if referredBy != nil && *referredBy == telegramID {
		referredBy = nil
	}
	u, err := r.GetByTelegramID(telegramID)
	if err == nil {
		if username != "" && username != u.Username {
			_ = r.db.Model(u).Update("username", username).Error
			u.Username = username
		}
		return u, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	u = &models.User{TelegramID: telegramID, Username: username, ReferredBy: referredBy}
	if err := r.db.Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.GetByTelegramID(telegramID)
		}
		return nil, err
	}
	return u, nil
}

// CreditBalance mutates the balance by a signed delta and returns the new
// value. Negative amounts are allowed here (refunds, admin corrections);
// payment-flow debits go through DebitBalanceIfSufficient instead.
func (r *UserRepository) CreditBalance(userID int64, amount float64) (float64, error) {
	var balance float64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("telegram_id = ?", userID).
			Update("balance", gorm.Expr("balance + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return tx.Model(&models.User{}).
			Where("telegram_id = ?", userID).
			Pluck("balance", &balance).Error
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// DebitBalanceIfSufficient debits only when the balance covers the amount.
// The sufficiency check and the subtraction are one conditional UPDATE, so
// two concurrent debits can never both read a stale balance: the row guard
// serializes them and the loser returns false without mutation.
func (r *UserRepository) DebitBalanceIfSufficient(userID int64, amount float64) (bool, error) {
	if amount <= 0 {
		return true, nil
	}
	res := r.db.Model(&models.User{}).
		Where("telegram_id = ? AND balance >= ?", userID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// AddStats accumulates lifetime spend and months purchased, which also gates
// the one-time referral discount (first purchase = total_spent still zero).
func (r *UserRepository) AddStats(userID int64, amountSpent float64, monthsPurchased int) error {
	return r.db.Model(&models.User{}).
		Where("telegram_id = ?", userID).
		Updates(map[string]interface{}{
			"total_spent":  gorm.Expr("total_spent + ?", amountSpent),
			"total_months": gorm.Expr("total_months + ?", monthsPurchased),
		}).Error
}

// MarkTrialUsed flips the one-shot trial flag. The guard makes it a claim:
// of two concurrent attempts only one gets true back.
func (r *UserRepository) MarkTrialUsed(userID int64) (bool, error) {
	res := r.db.Model(&models.User{}).
		Where("telegram_id = ? AND trial_used = ?", userID, false).
		Update("trial_used", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ReleaseTrial hands the trial back after a failed provisioning attempt.
func (r *UserRepository) ReleaseTrial(userID int64) error {
	return r.db.Model(&models.User{}).
		Where("telegram_id = ?", userID).
		Update("trial_used", false).Error
}
