package repository

import (
	"sync"
	"testing"
	"time"

	"vpnshop/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func promoReason(t *testing.T, err error) string {
	t.Helper()
	var unavailable *PromoUnavailableError
	require.ErrorAs(t, err, &unavailable)
	return unavailable.Reason
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SALE10", NormalizeCode("  sale10 "))
}

func TestCheckAvailableReasonOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewPromoRepository(db)

	_, err := repo.CheckAvailable("NOPE", 1)
	assert.Equal(t, PromoNotFound, promoReason(t, err))

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	// Inactive wins over every other condition.
	require.NoError(t, repo.Create(&models.PromoCode{
		Code: "DEAD", IsActive: false, ValidUntil: &past, UsageLimitTotal: 1, UsedTotal: 1,
	}))
	_, err = repo.CheckAvailable("DEAD", 1)
	assert.Equal(t, PromoInactive, promoReason(t, err))

	require.NoError(t, repo.Create(&models.PromoCode{Code: "SOON", IsActive: true, ValidFrom: &future}))
	_, err = repo.CheckAvailable("SOON", 1)
	assert.Equal(t, PromoNotStarted, promoReason(t, err))

	require.NoError(t, repo.Create(&models.PromoCode{Code: "GONE", IsActive: true, ValidUntil: &past}))
	_, err = repo.CheckAvailable("GONE", 1)
	assert.Equal(t, PromoExpired, promoReason(t, err))

	require.NoError(t, repo.Create(&models.PromoCode{
		Code: "FULL", IsActive: true, UsageLimitTotal: 1, UsedTotal: 1,
	}))
	_, err = repo.CheckAvailable("FULL", 1)
	assert.Equal(t, PromoTotalLimitReached, promoReason(t, err))

	require.NoError(t, repo.Create(&models.PromoCode{
		Code: "ONCE", IsActive: true, UsageLimitPerUser: 1, DiscountPercent: 5,
	}))
	_, err = repo.Redeem("ONCE", 1, 5, "ord-prev")
	require.NoError(t, err)
	_, err = repo.CheckAvailable("ONCE", 1)
	assert.Equal(t, PromoUserLimitReached, promoReason(t, err))

	// Another user is still eligible.
	promo, err := repo.CheckAvailable("ONCE", 2)
	require.NoError(t, err)
	assert.Equal(t, "ONCE", promo.Code)
}

func TestRedeemTotalLimit(t *testing.T) {
	repo := NewPromoRepository(newTestDB(t))
	require.NoError(t, repo.Create(&models.PromoCode{
		Code: "LAST", IsActive: true, UsageLimitTotal: 1, DiscountPercent: 10,
	}))

	_, err := repo.Redeem("LAST", 1, 10, "ord-1")
	require.NoError(t, err)

	_, err = repo.Redeem("LAST", 2, 10, "ord-2")
	assert.Equal(t, PromoTotalLimitReached, promoReason(t, err))

	promo, err := repo.Get("LAST")
	require.NoError(t, err)
	assert.Equal(t, 1, promo.UsedTotal)
}

func TestRedeemPerUserLimit(t *testing.T) {
	repo := NewPromoRepository(newTestDB(t))
	require.NoError(t, repo.Create(&models.PromoCode{
		Code: "PERUSER", IsActive: true, UsageLimitPerUser: 1, DiscountAmount: 50,
	}))

	_, err := repo.Redeem("PERUSER", 1, 50, "ord-1")
	require.NoError(t, err)

	_, err = repo.Redeem("PERUSER", 1, 50, "ord-2")
	assert.Equal(t, PromoUserLimitReached, promoReason(t, err))

	// The failed attempt's counter increment rolled back with it.
	promo, err := repo.Get("PERUSER")
	require.NoError(t, err)
	assert.Equal(t, 1, promo.UsedTotal)

	_, err = repo.Redeem("PERUSER", 2, 50, "ord-3")
	require.NoError(t, err)
}

func TestRedeemSameOrderIsIdempotent(t *testing.T) {
	repo := NewPromoRepository(newTestDB(t))
	require.NoError(t, repo.Create(&models.PromoCode{
		Code: "RETRY", IsActive: true, DiscountPercent: 10,
	}))

	_, err := repo.Redeem("RETRY", 1, 10, "ord-same")
	require.NoError(t, err)

	// A replayed settlement retries the redemption with the same order id;
	// the original usage stands and nothing is counted twice.
	promo, err := repo.Redeem("RETRY", 1, 10, "ord-same")
	require.NoError(t, err)
	assert.Equal(t, 1, promo.UsedTotal)

	var usages int64
	require.NoError(t, repo.db.Model(&models.PromoCodeUsage{}).Where("code = ?", "RETRY").Count(&usages).Error)
	assert.Equal(t, int64(1), usages)
}

func TestRedeemConcurrentLastSlot(t *testing.T) {
	repo := NewPromoRepository(newTestDB(t))
	require.NoError(t, repo.Create(&models.PromoCode{
		Code: "RACE", IsActive: true, UsageLimitTotal: 1, DiscountPercent: 10,
	}))

	const callers = 5
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := repo.Redeem("RACE", int64(n+1), 10, "ord-race-"+string(rune('a'+n)))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	var wins int
	for err := range errs {
		if err == nil {
			wins++
		} else {
			assert.Equal(t, PromoTotalLimitReached, promoReason(t, err))
		}
	}
	assert.Equal(t, 1, wins)

	promo, err := repo.Get("RACE")
	require.NoError(t, err)
	assert.Equal(t, 1, promo.UsedTotal)
}

func TestDiscount(t *testing.T) {
	// Percent and fixed combine; the result never exceeds the price.
	p := &models.PromoCode{DiscountPercent: 10, DiscountAmount: 50}
	assert.Equal(t, 150.0, Discount(p, 1000))
	assert.Equal(t, 40.0, Discount(&models.PromoCode{DiscountAmount: 100}, 40))
	assert.Equal(t, 0.0, Discount(&models.PromoCode{}, 40))
}
