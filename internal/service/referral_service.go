package service

import (
	"context"
	"fmt"
	"log"

	"vpnshop/config"
	"vpnshop/internal/models"
	"vpnshop/internal/notifier"
	"vpnshop/internal/repository"
)

// ReferralService credits the referrer when a referred user's first key
// purchase settles. Either a fixed bonus or a percentage of the payment,
// chosen by config.
type ReferralService struct {
	cfg      config.ReferralConfig
	userRepo *repository.UserRepository
	notif    notifier.Notifier
}

func NewReferralService(cfg config.ReferralConfig, userRepo *repository.UserRepository, notif notifier.Notifier) *ReferralService {
	return &ReferralService{cfg: cfg, userRepo: userRepo, notif: notif}
}

// RewardPurchase runs after a key purchase is fulfilled. buyer must be the
// state loaded before the purchase's stats were applied, so TotalSpent == 0
// still means "first purchase". Bonus failures are logged only - they never
// affect the buyer's already-granted key.
func (s *ReferralService) RewardPurchase(ctx context.Context, buyer *models.User, txn *models.Transaction) {
	if buyer.ReferredBy == nil || buyer.TotalSpent > 0 {
		return
	}
	bonus := s.cfg.FixedBonus
	if bonus <= 0 {
		bonus = round2(txn.AmountRub * s.cfg.BonusPercent / 100)
	}
	if bonus <= 0 {
		return
	}
	referrerID := *buyer.ReferredBy
	if _, err := s.userRepo.CreditBalance(referrerID, bonus); err != nil {
		log.Printf("[referral] failed to credit referrer %d with %.2f for payment %s: %v",
			referrerID, bonus, txn.PaymentID, err)
		return
	}
	if err := s.notif.NotifyUser(ctx, referrerID, fmt.Sprintf(
		"🎉 Ваш реферал совершил первую покупку! Бонус %.2f RUB зачислен на баланс.", bonus)); err != nil {
		log.Printf("[referral] notify referrer %d: %v", referrerID, err)
	}
}
