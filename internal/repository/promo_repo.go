package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"vpnshop/internal/models"

	"gorm.io/gorm"
)

// Promo unavailability reasons, in evaluation order.
const (
	PromoNotFound          = "not_found"
	PromoInactive          = "inactive"
	PromoNotStarted        = "not_started"
	PromoExpired           = "expired"
	PromoTotalLimitReached = "total_limit_reached"
	PromoUserLimitReached  = "user_limit_reached"
)

// PromoUnavailableError reports why a code cannot be applied. It never
// blocks money movement that has already been decided; the fulfillment
// processor logs it and keeps the granted effect.
type PromoUnavailableError struct {
	Code   string
	Reason string
}

func (e *PromoUnavailableError) Error() string {
	return fmt.Sprintf("promo %q unavailable: %s", e.Code, e.Reason)
}

// errDuplicateOrder aborts the redeem transaction when the (code, order_id)
// usage row already exists, rolling back the counter increment.
var errDuplicateOrder = errors.New("promo already redeemed for order")

type PromoRepository struct {
	db *gorm.DB
}

func NewPromoRepository(db *gorm.DB) *PromoRepository {
	return &PromoRepository{db: db}
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (r *PromoRepository) Create(promo *models.PromoCode) error {
	promo.Code = NormalizeCode(promo.Code)
	return r.db.Create(promo).Error
}

func (r *PromoRepository) Get(code string) (*models.PromoCode, error) {
	var promo models.PromoCode
	err := r.db.Where("code = ?", NormalizeCode(code)).First(&promo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &PromoUnavailableError{Code: NormalizeCode(code), Reason: PromoNotFound}
	}
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

// CheckAvailable evaluates eligibility in a fixed order: not_found,
// inactive, not_started, expired, total_limit_reached, user_limit_reached.
// The first failing condition wins. This is advisory only; Redeem
// re-validates everything atomically.
func (r *PromoRepository) CheckAvailable(code string, userID int64) (*models.PromoCode, error) {
	promo, err := r.Get(code)
	if err != nil {
		return nil, err
	}
	if reason := staticUnavailability(promo, time.Now().UTC()); reason != "" {
		return nil, &PromoUnavailableError{Code: promo.Code, Reason: reason}
	}
	if promo.UsageLimitTotal > 0 && promo.UsedTotal >= promo.UsageLimitTotal {
		return nil, &PromoUnavailableError{Code: promo.Code, Reason: PromoTotalLimitReached}
	}
	if promo.UsageLimitPerUser > 0 {
		count, err := r.userUsageCount(r.db, promo.Code, userID, false)
		if err != nil {
			return nil, err
		}
		if count >= int64(promo.UsageLimitPerUser) {
			return nil, &PromoUnavailableError{Code: promo.Code, Reason: PromoUserLimitReached}
		}
	}
	return promo, nil
}

// Redeem re-validates every condition inside one database transaction and
// records the usage fact. The guarded counter update both enforces the
// total limit and serializes concurrent redemptions of the same code; the
// (code, order_id) unique index makes a retried redemption for an already
// settled order return the promo without counting it twice.
func (r *PromoRepository) Redeem(code string, userID int64, appliedAmount float64, orderID string) (*models.PromoCode, error) {
	codeN := NormalizeCode(code)
	var promo models.PromoCode
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("code = ?", codeN).First(&promo).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &PromoUnavailableError{Code: codeN, Reason: PromoNotFound}
			}
			return err
		}
		if reason := staticUnavailability(&promo, time.Now().UTC()); reason != "" {
			return &PromoUnavailableError{Code: codeN, Reason: reason}
		}

		// Total limit: check-and-increment as one guarded UPDATE. Exactly
		// one of N concurrent redemptions of the last slot gets a row here;
		// the rest roll back with total_limit_reached. This also takes the
		// promo row lock, anchoring the per-user count below.
		res := tx.Model(&models.PromoCode{}).
			Where("code = ? AND (usage_limit_total = 0 OR used_total < usage_limit_total)", codeN).
			Update("used_total", gorm.Expr("used_total + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &PromoUnavailableError{Code: codeN, Reason: PromoTotalLimitReached}
		}

		if promo.UsageLimitPerUser > 0 {
			count, err := r.userUsageCount(tx, codeN, userID, true)
			if err != nil {
				return err
			}
			if count >= int64(promo.UsageLimitPerUser) {
				return &PromoUnavailableError{Code: codeN, Reason: PromoUserLimitReached}
			}
		}

		usage := &models.PromoCodeUsage{
			Code:          codeN,
			UserID:        userID,
			AppliedAmount: appliedAmount,
			OrderID:       orderID,
			UsedAt:        time.Now().UTC(),
		}
		if err := tx.Create(usage).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errDuplicateOrder
			}
			return err
		}
		promo.UsedTotal++
		return nil
	})
	if errors.Is(err, errDuplicateOrder) {
		// Retried redemption for the same order: the original usage stands.
		return r.Get(codeN)
	}
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

// Discount returns the amount a promo takes off the given price, floored so
// the payable amount never goes below zero. Percent and fixed parts combine
// when a code carries both.
func Discount(promo *models.PromoCode, price float64) float64 {
	d := price * promo.DiscountPercent / 100
	d += promo.DiscountAmount
	if d > price {
		d = price
	}
	if d < 0 {
		d = 0
	}
	return d
}

func staticUnavailability(promo *models.PromoCode, now time.Time) string {
	if !promo.IsActive {
		return PromoInactive
	}
	if promo.ValidFrom != nil && promo.ValidFrom.After(now) {
		return PromoNotStarted
	}
	if promo.ValidUntil != nil && promo.ValidUntil.Before(now) {
		return PromoExpired
	}
	return ""
}

// userUsageCount counts redemption facts for (code, user). Inside a redeem
// transaction on MySQL the count must be a locking read, otherwise a
// repeatable-read snapshot can miss a concurrently committed usage row;
// SQLite serializes writers so the plain form is already exact there.
func (r *PromoRepository) userUsageCount(tx *gorm.DB, code string, userID int64, locking bool) (int64, error) {
	query := "SELECT COUNT(*) FROM promo_code_usages WHERE code = ? AND user_id = ?"
	if locking && r.db.Dialector.Name() == "mysql" {
		query += " FOR UPDATE"
	}
	var count int64
	err := tx.Raw(query, code, userID).Scan(&count).Error
	return count, err
}
