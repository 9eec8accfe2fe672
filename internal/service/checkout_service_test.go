package service

import (
	"context"
	"testing"

	"vpnshop/internal/models"
	"vpnshop/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateKeyPurchasePricesPlan(t *testing.T) {
	f := newFixture(t)
	planID := f.seedHostAndPlan(t, "nl-1", 2, 300)

	quote, err := f.checkout.CreateKeyPurchase(KeyPurchaseRequest{
		UserID: 1, Username: "alice", PlanID: planID,
	})
	require.NoError(t, err)
	assert.Equal(t, 300.0, quote.Amount)
	assert.Equal(t, models.ActionBuyKey, quote.Intent.Action)
	assert.Equal(t, "nl-1", quote.Intent.HostName)
	assert.Equal(t, 2, quote.Intent.Months)
	assert.Equal(t, models.StatusPending, f.txnStatus(t, quote.PaymentID))
}

func TestReferralFirstPurchaseDiscount(t *testing.T) {
	f := newFixture(t)
	planID := f.seedHostAndPlan(t, "nl-1", 1, 300)
	f.seedUser(t, 100, 0)
	f.seedReferredUser(t, 2, 100)

	quote, err := f.checkout.CreateKeyPurchase(KeyPurchaseRequest{UserID: 2, PlanID: planID})
	require.NoError(t, err)
	assert.Equal(t, 270.0, quote.Amount) // 10% off

	// Once the user has spent anything, the discount is gone.
	require.NoError(t, f.users.AddStats(2, 270, 1))
	quote, err = f.checkout.CreateKeyPurchase(KeyPurchaseRequest{UserID: 2, PlanID: planID})
	require.NoError(t, err)
	assert.Equal(t, 300.0, quote.Amount)
}

func TestPromoDiscountApplied(t *testing.T) {
	f := newFixture(t)
	planID := f.seedHostAndPlan(t, "nl-1", 1, 200)
	require.NoError(t, f.promos.Create(&models.PromoCode{
		Code: "HALF", IsActive: true, DiscountPercent: 50,
	}))

	quote, err := f.checkout.CreateKeyPurchase(KeyPurchaseRequest{
		UserID: 3, PlanID: planID, PromoCode: "half",
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, quote.Amount)
	assert.Equal(t, "HALF", quote.Intent.PromoCode)
	assert.Equal(t, 100.0, quote.Intent.PromoDiscountAmount)
}

func TestPromoDiscountNeverBelowZero(t *testing.T) {
	f := newFixture(t)
	planID := f.seedHostAndPlan(t, "nl-1", 1, 50)
	require.NoError(t, f.promos.Create(&models.PromoCode{
		Code: "BIG", IsActive: true, DiscountAmount: 500,
	}))

	quote, err := f.checkout.CreateKeyPurchase(KeyPurchaseRequest{
		UserID: 4, PlanID: planID, PromoCode: "BIG",
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, quote.Amount)
}

func TestPromoUnavailableBlocksCheckout(t *testing.T) {
	f := newFixture(t)
	planID := f.seedHostAndPlan(t, "nl-1", 1, 200)
	require.NoError(t, f.promos.Create(&models.PromoCode{Code: "DEAD", IsActive: false}))

	_, err := f.checkout.CreateKeyPurchase(KeyPurchaseRequest{
		UserID: 5, PlanID: planID, PromoCode: "DEAD",
	})
	var unavailable *repository.PromoUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, repository.PromoInactive, unavailable.Reason)

	// Nothing was recorded.
	var count int64
	require.NoError(t, f.db.Model(&models.Transaction{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRenewRequiresOwnedKey(t *testing.T) {
	f := newFixture(t)
	planID := f.seedHostAndPlan(t, "nl-1", 1, 200)
	f.seedUser(t, 6, 0)
	f.seedUser(t, 7, 0)
	key := &models.VPNKey{UserID: 6, HostName: "nl-1", ClientUUID: "c", KeyEmail: "e"}
	require.NoError(t, f.keys.Create(key))

	_, err := f.checkout.CreateKeyPurchase(KeyPurchaseRequest{
		UserID: 7, PlanID: planID, KeyID: key.ID,
	})
	assert.ErrorIs(t, err, repository.ErrKeyNotFound)

	quote, err := f.checkout.CreateKeyPurchase(KeyPurchaseRequest{
		UserID: 6, PlanID: planID, KeyID: key.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ActionRenewKey, quote.Intent.Action)
	assert.Equal(t, key.ID, quote.Intent.KeyID)
}

func TestCreateTopUpRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)
	_, err := f.checkout.CreateTopUp(8, "bob", 0)
	assert.ErrorIs(t, err, ErrAmountNotPositive)
	_, err = f.checkout.CreateTopUp(8, "bob", -5)
	assert.ErrorIs(t, err, ErrAmountNotPositive)

	quote, err := f.checkout.CreateTopUp(8, "bob", 500)
	require.NoError(t, err)
	assert.Equal(t, 500.0, quote.Amount)
	assert.Equal(t, models.ActionTopUp, quote.Intent.Action)
}

func TestPayWithBalance(t *testing.T) {
	f := newFixture(t)
	planID := f.seedHostAndPlan(t, "nl-1", 1, 300)
	f.seedUser(t, 9, 1000)

	txn, err := f.checkout.PayWithBalance(context.Background(), KeyPurchaseRequest{
		UserID: 9, PlanID: planID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, txn.Status)
	assert.Equal(t, MethodBalance, txn.PaymentMethod)
	assert.Equal(t, 700.0, f.balance(t, 9))

	// Fulfillment ran inline.
	keys, err := f.keys.ListByUser(9)
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestPayWithBalanceInsufficient(t *testing.T) {
	f := newFixture(t)
	planID := f.seedHostAndPlan(t, "nl-1", 1, 300)
	f.seedUser(t, 10, 100)

	_, err := f.checkout.PayWithBalance(context.Background(), KeyPurchaseRequest{
		UserID: 10, PlanID: planID,
	})
	assert.ErrorIs(t, err, repository.ErrInsufficientBalance)
	assert.Equal(t, 100.0, f.balance(t, 10))

	var count int64
	require.NoError(t, f.db.Model(&models.Transaction{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUnknownPlan(t *testing.T) {
	f := newFixture(t)
	_, err := f.checkout.CreateKeyPurchase(KeyPurchaseRequest{UserID: 11, PlanID: 42})
	assert.ErrorIs(t, err, repository.ErrPlanNotFound)
}
