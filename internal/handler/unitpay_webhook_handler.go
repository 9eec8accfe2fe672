package handler

import (
	"errors"
	"log"
	"net/http"

	"vpnshop/internal/models"
	"vpnshop/internal/payments"
	"vpnshop/internal/repository"
	"vpnshop/internal/service"

	"github.com/gin-gonic/gin"
)

// UnitpayWebhookHandler answers the Unitpay callback protocol: every request
// carries a method (check, pay, error) and a params[...] map, and expects a
// JSON envelope back. Anything other than {"result": ...} makes Unitpay
// retry, so replays are answered with result too.
type UnitpayWebhookHandler struct {
	provider   *payments.Unitpay
	txnRepo    *repository.TransactionRepository
	settlement *service.SettlementService
}

func NewUnitpayWebhookHandler(provider *payments.Unitpay, txnRepo *repository.TransactionRepository, settlement *service.SettlementService) *UnitpayWebhookHandler {
	return &UnitpayWebhookHandler{provider: provider, txnRepo: txnRepo, settlement: settlement}
}

func (h *UnitpayWebhookHandler) Handle(c *gin.Context) {
	method := c.Query("method")
	account := c.Query("params[account]")
	desc := c.Query("params[desc]")
	sum := c.Query("params[sum]")
	signature := c.Query("params[signature]")

	if !h.provider.Verify(account, desc, sum, signature) {
		log.Printf("[unitpay] invalid signature for account %q method %q", account, method)
		unitpayError(c, "invalid signature")
		return
	}
	if account == "" {
		unitpayError(c, "account required")
		return
	}

	switch method {
	case "check":
		// Pre-payment probe: confirm the order exists and is payable.
		txn, err := h.txnRepo.GetByPaymentID(account)
		if errors.Is(err, repository.ErrTransactionNotFound) {
			unitpayError(c, "order not found")
			return
		}
		if err != nil {
			unitpayError(c, "internal error")
			return
		}
		if txn.Status != models.StatusPending {
			unitpayResult(c, "already processed")
			return
		}
		unitpayResult(c, "order is payable")

	case "pay":
		err := h.settlement.Settle(c.Request.Context(), account, repository.Settlement{Method: payments.MethodUnitpay})
		switch {
		case err == nil:
			log.Printf("[unitpay] settled payment %s", account)
			unitpayResult(c, "payment processed")
		case errors.Is(err, repository.ErrAlreadySettled):
			unitpayResult(c, "already processed")
		case errors.Is(err, repository.ErrTransactionNotFound):
			unitpayError(c, "order not found")
		default:
			log.Printf("[unitpay] settlement error for %s: %v", account, err)
			unitpayError(c, "internal error")
		}

	case "error":
		if err := h.settlement.Fail(account); err != nil && !errors.Is(err, repository.ErrAlreadySettled) {
			log.Printf("[unitpay] fail mark error for %s: %v", account, err)
		}
		unitpayResult(c, "error acknowledged")

	default:
		unitpayError(c, "unknown method")
	}
}

func unitpayResult(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"result": gin.H{"message": message}})
}

func unitpayError(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"error": gin.H{"message": message}})
}
