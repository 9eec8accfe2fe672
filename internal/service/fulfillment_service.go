package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"vpnshop/internal/models"
	"vpnshop/internal/notifier"
	"vpnshop/internal/panel"
	"vpnshop/internal/repository"

	"github.com/google/uuid"
)

// daysPerMonth converts purchased months into panel days.
const daysPerMonth = 30

// FulfillmentService applies the effect of a settled transaction exactly
// once: balance credit, key issuance or key renewal. It runs after the
// money-state transition has committed, so nothing here may roll a payment
// back; when the panel call fails the transaction stays paid and the
// failure goes to the reconciliation alert queue instead.
type FulfillmentService struct {
	userRepo     *repository.UserRepository
	keyRepo      *repository.KeyRepository
	promoRepo    *repository.PromoRepository
	provisioner  panel.Provisioner
	alerts       *AlertService
	referral     *ReferralService
	notif        notifier.Notifier
	panelTimeout time.Duration
}

func NewFulfillmentService(
	userRepo *repository.UserRepository,
	keyRepo *repository.KeyRepository,
	promoRepo *repository.PromoRepository,
	provisioner panel.Provisioner,
	alerts *AlertService,
	referral *ReferralService,
	notif notifier.Notifier,
	panelTimeout time.Duration,
) *FulfillmentService {
	return &FulfillmentService{
		userRepo:     userRepo,
		keyRepo:      keyRepo,
		promoRepo:    promoRepo,
		provisioner:  provisioner,
		alerts:       alerts,
		referral:     referral,
		notif:        notif,
		panelTimeout: panelTimeout,
	}
}

// Process interprets the claimed intent. Called exactly once per settled
// transaction by the settlement gate (or inline for balance payments).
func (s *FulfillmentService) Process(ctx context.Context, txn *models.Transaction, intent models.Intent) error {
	log.Printf("[fulfillment] processing payment_id=%s user_id=%d action=%s amount=%.2f",
		txn.PaymentID, txn.UserID, intent.Action, txn.AmountRub)
	switch intent.Action {
	case models.ActionTopUp:
		return s.processTopUp(ctx, txn)
	case models.ActionBuyKey:
		return s.processBuyKey(ctx, txn, intent)
	case models.ActionRenewKey:
		return s.processRenewKey(ctx, txn, intent)
	default:
		return fmt.Errorf("unknown intent action %q for payment %s", intent.Action, txn.PaymentID)
	}
}

func (s *FulfillmentService) processTopUp(ctx context.Context, txn *models.Transaction) error {
	newBalance, err := s.userRepo.CreditBalance(txn.UserID, txn.AmountRub)
	if err != nil {
		return fmt.Errorf("credit balance for payment %s: %w", txn.PaymentID, err)
	}
	s.notifyUser(ctx, txn.UserID, fmt.Sprintf(
		"✅ Баланс пополнен на %.2f RUB.\nТекущий баланс: %.2f RUB", txn.AmountRub, newBalance))
	return nil
}

func (s *FulfillmentService) processBuyKey(ctx context.Context, txn *models.Transaction, intent models.Intent) error {
	buyer, err := s.userRepo.GetByTelegramID(txn.UserID)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}

	email := intent.CustomerEmail
	if email == "" {
		email = GenerateKeyEmail(txn.UserID)
	}
	days := intent.Months * daysPerMonth

	result, err := s.provision(ctx, func(cctx context.Context) (*panel.ProvisionResult, error) {
		return s.provisioner.Issue(cctx, intent.HostName, email, days)
	})
	if err != nil {
		s.reportProvisioningFailure(ctx, txn, fmt.Sprintf("issue on host %s: %v", intent.HostName, err))
		return nil
	}

	key := &models.VPNKey{
		UserID:     txn.UserID,
		HostName:   intent.HostName,
		ClientUUID: result.ClientUUID,
		KeyEmail:   email,
		ExpiresAt:  result.ExpiresAt,
	}
	if err := s.keyRepo.Create(key); err != nil {
		// Key exists on the panel but not in the ledger - same operator
		// escalation as a failed panel call.
		s.reportProvisioningFailure(ctx, txn, fmt.Sprintf("panel client %s created but key record failed: %v", result.ClientUUID, err))
		return nil
	}

	s.notifyUser(ctx, txn.UserID, fmt.Sprintf(
		"✅ Оплата прошла успешно!\n\nВаш ключ доступа:\n<code>%s</code>\n\nИнструкции по настройке доступны в главном меню.",
		result.ConnectionString))

	s.finishKeyPurchase(ctx, txn, intent, buyer)
	return nil
}

func (s *FulfillmentService) processRenewKey(ctx context.Context, txn *models.Transaction, intent models.Intent) error {
	buyer, err := s.userRepo.GetByTelegramID(txn.UserID)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}

	key, err := s.keyRepo.GetByID(intent.KeyID)
	if err != nil {
		s.reportProvisioningFailure(ctx, txn, fmt.Sprintf("renew target key %d: %v", intent.KeyID, err))
		return nil
	}
	days := intent.Months * daysPerMonth

	result, err := s.provision(ctx, func(cctx context.Context) (*panel.ProvisionResult, error) {
		return s.provisioner.Extend(cctx, key.HostName, key.KeyEmail, days)
	})
	if err != nil {
		s.reportProvisioningFailure(ctx, txn, fmt.Sprintf("extend %s on host %s: %v", key.KeyEmail, key.HostName, err))
		return nil
	}

	if err := s.keyRepo.UpdateExpiry(key.ID, result.ExpiresAt); err != nil {
		s.reportProvisioningFailure(ctx, txn, fmt.Sprintf("panel extended %s but expiry update failed: %v", key.KeyEmail, err))
		return nil
	}

	s.notifyUser(ctx, txn.UserID, fmt.Sprintf(
		"✅ Ключ продлён на %d мес.\nНовая дата окончания: %s",
		intent.Months, result.ExpiresAt.Format("2006-01-02 15:04")))

	s.finishKeyPurchase(ctx, txn, intent, buyer)
	return nil
}

// finishKeyPurchase handles the bookkeeping shared by both key paths once
// the entitlement is granted: spend stats, promo redemption, referral
// bonus. The key is already delivered; nothing here may take it back, so
// every failure below is a logged policy branch, not a rollback.
func (s *FulfillmentService) finishKeyPurchase(ctx context.Context, txn *models.Transaction, intent models.Intent, buyer *models.User) {
	if err := s.userRepo.AddStats(txn.UserID, txn.AmountRub, intent.Months); err != nil {
		log.Printf("[fulfillment] stats update failed for payment %s: %v", txn.PaymentID, err)
	}

	if intent.PromoCode != "" {
		_, err := s.promoRepo.Redeem(intent.PromoCode, txn.UserID, txn.AmountRub, txn.PaymentID)
		var unavailable *repository.PromoUnavailableError
		switch {
		case err == nil:
		case errors.As(err, &unavailable):
			// Deliberate: the key is delivered even when the discount
			// bookkeeping loses the race. The payable amount was already
			// discounted at checkout; only the usage accounting is off.
			log.Printf("[fulfillment] promo %s not redeemed for payment %s: %s",
				intent.PromoCode, txn.PaymentID, unavailable.Reason)
		default:
			log.Printf("[fulfillment] promo %s redemption error for payment %s: %v",
				intent.PromoCode, txn.PaymentID, err)
		}
	}

	if buyer != nil {
		s.referral.RewardPurchase(ctx, buyer, txn)
	}
}

func (s *FulfillmentService) provision(ctx context.Context, call func(context.Context) (*panel.ProvisionResult, error)) (*panel.ProvisionResult, error) {
	cctx, cancel := context.WithTimeout(ctx, s.panelTimeout)
	defer cancel()
	return call(cctx)
}

func (s *FulfillmentService) reportProvisioningFailure(ctx context.Context, txn *models.Transaction, detail string) {
	log.Printf("[fulfillment] provisioning failed for payment %s: %s", txn.PaymentID, detail)
	s.alerts.RaiseProvisioningFailed(ctx, txn.PaymentID, txn.UserID, detail)
	s.notifyUser(ctx, txn.UserID,
		"✅ Оплата прошла, но возникла ошибка при выдаче ключа. Мы уже разбираемся — поддержка свяжется с вами.")
}

func (s *FulfillmentService) notifyUser(ctx context.Context, userID int64, text string) {
	if err := s.notif.NotifyUser(ctx, userID, text); err != nil {
		log.Printf("[fulfillment] notify user %d: %v", userID, err)
	}
}

// GenerateKeyEmail produces the panel-side client handle for users who did
// not supply one.
func GenerateKeyEmail(userID int64) string {
	return fmt.Sprintf("user_%d_%s", userID, uuid.New().String()[:6])
}
