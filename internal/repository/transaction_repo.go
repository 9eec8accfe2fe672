package repository

import (
	"errors"

	"vpnshop/internal/models"

	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Settlement carries the provider-reported values applied when a pending
// transaction is completed. Nil/empty fields keep what was stored at intent
// time.
type Settlement struct {
	FinalAmount    *float64
	Method         string
	AmountCurrency *float64
	CurrencyName   string
}

// CreatePending records the payment intent before any money moves. The
// unique index on payment_id turns a replayed insert into
// ErrDuplicatePaymentID.
func (r *TransactionRepository) CreatePending(paymentID string, userID int64, amountRub float64, intent models.Intent) (*models.Transaction, error) {
	if err := intent.Validate(); err != nil {
		return nil, err
	}
	raw, err := intent.Marshal()
	if err != nil {
		return nil, err
	}
	txn := &models.Transaction{
		PaymentID: paymentID,
		UserID:    userID,
		Status:    models.StatusPending,
		AmountRub: amountRub,
		Intent:    raw,
	}
	if err := r.db.Create(txn).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicatePaymentID
		}
		return nil, err
	}
	return txn, nil
}

// CreatePaid records a transaction that settled synchronously (balance
// payments): the money already moved, so the row is born paid.
func (r *TransactionRepository) CreatePaid(paymentID string, userID int64, amountRub float64, method string, intent models.Intent) (*models.Transaction, error) {
	raw, err := intent.Marshal()
	if err != nil {
		return nil, err
	}
	txn := &models.Transaction{
		PaymentID:     paymentID,
		UserID:        userID,
		Status:        models.StatusPaid,
		AmountRub:     amountRub,
		PaymentMethod: method,
		Intent:        raw,
	}
	if err := r.db.Create(txn).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicatePaymentID
		}
		return nil, err
	}
	return txn, nil
}

// CompleteIfPending is the single authoritative idempotency checkpoint for
// money movement. The transition runs as one conditional UPDATE guarded on
// status = pending, so under any interleaving of replayed callbacks exactly
// one caller observes RowsAffected == 1 and receives the stored intent;
// every other caller gets ErrAlreadySettled without mutating anything.
func (r *TransactionRepository) CompleteIfPending(paymentID string, s Settlement) (*models.Transaction, models.Intent, error) {
	var txn models.Transaction
	err := r.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"status": models.StatusPaid}
		if s.FinalAmount != nil {
			updates["amount_rub"] = *s.FinalAmount
		}
		if s.Method != "" {
			updates["payment_method"] = s.Method
		}
		if s.AmountCurrency != nil {
			updates["amount_currency"] = *s.AmountCurrency
		}
		if s.CurrencyName != "" {
			updates["currency_name"] = s.CurrencyName
		}
		res := tx.Model(&models.Transaction{}).
			Where("payment_id = ? AND status = ?", paymentID, models.StatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Transaction{}).Where("payment_id = ?", paymentID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrTransactionNotFound
			}
			return ErrAlreadySettled
		}
		return tx.Where("payment_id = ?", paymentID).First(&txn).Error
	})
	if err != nil {
		return nil, models.Intent{}, err
	}
	intent, err := models.UnmarshalIntent(txn.Intent)
	if err != nil {
		return nil, models.Intent{}, err
	}
	return &txn, intent, nil
}

// MarkFailed moves a pending transaction to failed. Settled transactions are
// immutable, so the same status guard applies.
func (r *TransactionRepository) MarkFailed(paymentID string) error {
	res := r.db.Model(&models.Transaction{}).
		Where("payment_id = ? AND status = ?", paymentID, models.StatusPending).
		Update("status", models.StatusFailed)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadySettled
	}
	return nil
}

func (r *TransactionRepository) GetByPaymentID(paymentID string) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.Where("payment_id = ?", paymentID).First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *TransactionRepository) ListByUser(userID int64, limit int) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&txns).Error
	return txns, err
}
