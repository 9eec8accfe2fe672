package service

import (
	"context"
	"fmt"
	"log"

	"vpnshop/internal/models"
	"vpnshop/internal/notifier"
	"vpnshop/internal/repository"
	"vpnshop/internal/ws"
)

// AlertService is the operator-facing end of the reconciliation path: money
// settled but the entitlement was not granted. The alert row is the durable
// record; the websocket feed and the admin message are delivery.
type AlertService struct {
	alertRepo *repository.AlertRepository
	hub       *ws.AlertHub
	notif     notifier.Notifier
}

func NewAlertService(alertRepo *repository.AlertRepository, hub *ws.AlertHub, notif notifier.Notifier) *AlertService {
	return &AlertService{alertRepo: alertRepo, hub: hub, notif: notif}
}

// RaiseProvisioningFailed records that a paid transaction could not be
// fulfilled. It must never fail the caller: the settlement already
// happened and the processor has nothing left to roll back.
func (s *AlertService) RaiseProvisioningFailed(ctx context.Context, paymentID string, userID int64, detail string) {
	alert := &models.ReconciliationAlert{
		PaymentID: paymentID,
		UserID:    userID,
		Reason:    models.AlertProvisioningFailed,
		Detail:    detail,
	}
	if err := s.alertRepo.Create(alert); err != nil {
		// Worst case: settled, unfulfilled AND unrecorded. Make the log
		// line carry everything an operator needs to reconstruct it.
		log.Printf("[alert] FAILED to persist reconciliation alert payment_id=%s user_id=%d detail=%s err=%v",
			paymentID, userID, detail, err)
	}
	if s.hub != nil {
		s.hub.Broadcast(alert)
	}
	if err := s.notif.NotifyAdmin(ctx, fmt.Sprintf(
		"⚠️ Provisioning failed for paid transaction\npayment_id: <code>%s</code>\nuser: <code>%d</code>\n%s",
		paymentID, userID, detail)); err != nil {
		log.Printf("[alert] admin notification failed for payment_id=%s: %v", paymentID, err)
	}
}

func (s *AlertService) ListOpen() ([]models.ReconciliationAlert, error) {
	return s.alertRepo.ListOpen()
}

func (s *AlertService) Resolve(id uint) error {
	return s.alertRepo.Resolve(id)
}
