package service

import (
	"context"
	"errors"
	"fmt"

	"vpnshop/config"
	"vpnshop/internal/models"
	"vpnshop/internal/repository"

	"github.com/google/uuid"
)

// MethodBalance marks transactions paid from the internal balance; they are
// born settled because the debit happens synchronously.
const MethodBalance = "Balance"

var ErrAmountNotPositive = errors.New("amount must be positive")

// CheckoutService turns a user's choice into a priced Intent and a pending
// transaction. Pricing applies the first-purchase referral discount and the
// promo discount here, at link-creation time; settlement later re-reads the
// stored intent and never re-prices.
type CheckoutService struct {
	cfg         config.ReferralConfig
	userRepo    *repository.UserRepository
	planRepo    *repository.PlanRepository
	keyRepo     *repository.KeyRepository
	promoRepo   *repository.PromoRepository
	txnRepo     *repository.TransactionRepository
	fulfillment *FulfillmentService
}

func NewCheckoutService(
	cfg config.ReferralConfig,
	userRepo *repository.UserRepository,
	planRepo *repository.PlanRepository,
	keyRepo *repository.KeyRepository,
	promoRepo *repository.PromoRepository,
	txnRepo *repository.TransactionRepository,
	fulfillment *FulfillmentService,
) *CheckoutService {
	return &CheckoutService{
		cfg:         cfg,
		userRepo:    userRepo,
		planRepo:    planRepo,
		keyRepo:     keyRepo,
		promoRepo:   promoRepo,
		txnRepo:     txnRepo,
		fulfillment: fulfillment,
	}
}

// KeyPurchaseRequest describes a buy or renew choice handed over by the
// chat layer. KeyID set means renewal.
type KeyPurchaseRequest struct {
	UserID        int64
	Username      string
	PlanID        uint
	KeyID         uint
	PromoCode     string
	CustomerEmail string
	ReferredBy    *int64
}

// Quote is a priced intent with its pending transaction. The payment link
// for the chosen provider is built from PaymentID and Amount.
type Quote struct {
	PaymentID   string
	Amount      float64
	Intent      models.Intent
	Transaction *models.Transaction
}

// CreateKeyPurchase prices the purchase and records the pending
// transaction before any money moves.
func (s *CheckoutService) CreateKeyPurchase(req KeyPurchaseRequest) (*Quote, error) {
	intent, amount, err := s.buildKeyIntent(req)
	if err != nil {
		return nil, err
	}
	return s.createPending(req.UserID, amount, intent)
}

// CreateTopUp records a pending balance top-up.
func (s *CheckoutService) CreateTopUp(userID int64, username string, amount float64) (*Quote, error) {
	if amount <= 0 {
		return nil, ErrAmountNotPositive
	}
	if _, err := s.userRepo.Register(userID, username, nil); err != nil {
		return nil, err
	}
	return s.createPending(userID, round2(amount), models.Intent{Action: models.ActionTopUp})
}

// PayWithBalance settles a key purchase synchronously from the internal
// balance: conditional debit, a transaction born paid, then fulfillment
// inline. Returns repository.ErrInsufficientBalance without mutation when
// the balance does not cover the price.
func (s *CheckoutService) PayWithBalance(ctx context.Context, req KeyPurchaseRequest) (*models.Transaction, error) {
	intent, amount, err := s.buildKeyIntent(req)
	if err != nil {
		return nil, err
	}
	ok, err := s.userRepo.DebitBalanceIfSufficient(req.UserID, amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repository.ErrInsufficientBalance
	}
	txn, err := s.txnRepo.CreatePaid(uuid.New().String(), req.UserID, amount, MethodBalance, intent)
	if err != nil {
		// The debit went through but the audit row did not; put the money
		// back rather than leave an unaccounted deduction.
		if _, refundErr := s.userRepo.CreditBalance(req.UserID, amount); refundErr != nil {
			return nil, fmt.Errorf("record balance payment: %v (refund also failed: %w)", err, refundErr)
		}
		return nil, err
	}
	if err := s.fulfillment.Process(ctx, txn, intent); err != nil {
		return txn, err
	}
	return txn, nil
}

func (s *CheckoutService) buildKeyIntent(req KeyPurchaseRequest) (models.Intent, float64, error) {
	plan, err := s.planRepo.GetByID(req.PlanID)
	if err != nil {
		return models.Intent{}, 0, err
	}
	user, err := s.userRepo.Register(req.UserID, req.Username, req.ReferredBy)
	if err != nil {
		return models.Intent{}, 0, err
	}

	intent := models.Intent{
		Months:        plan.Months,
		CustomerEmail: req.CustomerEmail,
	}
	if req.KeyID != 0 {
		key, err := s.keyRepo.GetByID(req.KeyID)
		if err != nil {
			return models.Intent{}, 0, err
		}
		if key.UserID != req.UserID {
			return models.Intent{}, 0, repository.ErrKeyNotFound
		}
		intent.Action = models.ActionRenewKey
		intent.KeyID = key.ID
	} else {
		intent.Action = models.ActionBuyKey
		intent.HostName = plan.HostName
		intent.PlanID = plan.ID
	}

	price := plan.Price
	if user.ReferredBy != nil && user.TotalSpent == 0 && s.cfg.DiscountPercent > 0 {
		price = round2(price - price*s.cfg.DiscountPercent/100)
	}
	if req.PromoCode != "" {
		promo, err := s.promoRepo.CheckAvailable(req.PromoCode, req.UserID)
		if err != nil {
			return models.Intent{}, 0, err
		}
		discount := repository.Discount(promo, price)
		price = round2(price - discount)
		intent.PromoCode = promo.Code
		intent.PromoDiscountPercent = promo.DiscountPercent
		intent.PromoDiscountAmount = discount
	}
	if price < 0 {
		price = 0
	}
	return intent, price, nil
}

func (s *CheckoutService) createPending(userID int64, amount float64, intent models.Intent) (*Quote, error) {
	// payment_id collisions do not happen with random UUIDs, but the
	// contract on DuplicatePaymentId is regenerate-and-retry, not reuse.
	for attempt := 0; attempt < 3; attempt++ {
		paymentID := uuid.New().String()
		txn, err := s.txnRepo.CreatePending(paymentID, userID, amount, intent)
		if errors.Is(err, repository.ErrDuplicatePaymentID) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &Quote{PaymentID: paymentID, Amount: amount, Intent: intent, Transaction: txn}, nil
	}
	return nil, repository.ErrDuplicatePaymentID
}
