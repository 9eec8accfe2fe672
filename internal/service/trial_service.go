package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"vpnshop/config"
	"vpnshop/internal/models"
	"vpnshop/internal/notifier"
	"vpnshop/internal/panel"
	"vpnshop/internal/repository"
)

var (
	ErrTrialDisabled    = errors.New("trial period is disabled")
	ErrTrialAlreadyUsed = errors.New("trial period already used")
	ErrNoActiveHosts    = errors.New("no active hosts available")
)

// TrialService hands out one free short-lived key per user. The trial_used
// flag is flipped first as the claim gate, so two concurrent requests cannot
// both reach the panel; it is flipped back if provisioning fails so the user
// can retry.
type TrialService struct {
	cfg          config.TrialConfig
	userRepo     *repository.UserRepository
	planRepo     *repository.PlanRepository
	keyRepo      *repository.KeyRepository
	provisioner  panel.Provisioner
	notif        notifier.Notifier
	panelTimeout time.Duration
}

func NewTrialService(
	cfg config.TrialConfig,
	userRepo *repository.UserRepository,
	planRepo *repository.PlanRepository,
	keyRepo *repository.KeyRepository,
	provisioner panel.Provisioner,
	notif notifier.Notifier,
	panelTimeout time.Duration,
) *TrialService {
	return &TrialService{
		cfg:          cfg,
		userRepo:     userRepo,
		planRepo:     planRepo,
		keyRepo:      keyRepo,
		provisioner:  provisioner,
		notif:        notif,
		panelTimeout: panelTimeout,
	}
}

// Claim issues a trial key to the user, once.
func (s *TrialService) Claim(ctx context.Context, userID int64, username string) (*models.VPNKey, error) {
	if !s.cfg.Enabled {
		return nil, ErrTrialDisabled
	}
	if _, err := s.userRepo.Register(userID, username, nil); err != nil {
		return nil, err
	}
	claimed, err := s.userRepo.MarkTrialUsed(userID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, ErrTrialAlreadyUsed
	}

	hosts, err := s.planRepo.ListHosts()
	if err != nil {
		s.releaseTrial(userID)
		return nil, err
	}
	if len(hosts) == 0 {
		s.releaseTrial(userID)
		return nil, ErrNoActiveHosts
	}
	host := hosts[0]

	email := GenerateKeyEmail(userID)
	cctx, cancel := context.WithTimeout(ctx, s.panelTimeout)
	defer cancel()
	result, err := s.provisioner.Issue(cctx, host.HostName, email, s.cfg.DurationDays)
	if err != nil {
		s.releaseTrial(userID)
		return nil, fmt.Errorf("issue trial key on host %s: %w", host.HostName, err)
	}

	key := &models.VPNKey{
		UserID:     userID,
		HostName:   host.HostName,
		ClientUUID: result.ClientUUID,
		KeyEmail:   email,
		ExpiresAt:  result.ExpiresAt,
	}
	if err := s.keyRepo.Create(key); err != nil {
		// Panel client exists but the record does not; do not release the
		// flag, a second claim would duplicate the panel client.
		log.Printf("[trial] key record failed for user %d (client %s): %v", userID, result.ClientUUID, err)
		return nil, err
	}

	if err := s.notif.NotifyUser(ctx, userID, fmt.Sprintf(
		"🎁 Ваш пробный ключ на %d дн.:\n<code>%s</code>", s.cfg.DurationDays, result.ConnectionString)); err != nil {
		log.Printf("[trial] notify user %d: %v", userID, err)
	}
	return key, nil
}

func (s *TrialService) releaseTrial(userID int64) {
	if err := s.userRepo.ReleaseTrial(userID); err != nil {
		log.Printf("[trial] failed to release trial flag for user %d: %v", userID, err)
	}
}
