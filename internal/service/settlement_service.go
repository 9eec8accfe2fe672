package service

import (
	"context"
	"log"

	"vpnshop/internal/repository"
)

// SettlementService is the idempotency gate in front of fulfillment. Given
// N concurrent or replayed callbacks for the same payment_id, exactly one
// claims the pending transaction and reaches the processor; the rest get
// repository.ErrAlreadySettled, which webhook handlers translate into the
// provider's success acknowledgment so retries stop.
type SettlementService struct {
	txnRepo     *repository.TransactionRepository
	fulfillment *FulfillmentService
}

func NewSettlementService(txnRepo *repository.TransactionRepository, fulfillment *FulfillmentService) *SettlementService {
	return &SettlementService{txnRepo: txnRepo, fulfillment: fulfillment}
}

// Settle claims the transaction and applies its effect. Returns
// repository.ErrAlreadySettled / ErrTransactionNotFound when there is
// nothing to claim. Once the claim succeeds the settlement stands no matter
// what fulfillment does: processor failures are alerted, not unwound, so
// they are not surfaced as settlement errors.
func (s *SettlementService) Settle(ctx context.Context, paymentID string, settlement repository.Settlement) error {
	txn, intent, err := s.txnRepo.CompleteIfPending(paymentID, settlement)
	if err != nil {
		return err
	}
	if err := s.fulfillment.Process(ctx, txn, intent); err != nil {
		log.Printf("[settlement] fulfillment error for payment %s (transaction stays paid): %v", paymentID, err)
	}
	return nil
}

// Fail moves a pending transaction to failed (provider reported a
// definitive failure). Settled transactions are left untouched.
func (s *SettlementService) Fail(paymentID string) error {
	return s.txnRepo.MarkFailed(paymentID)
}
