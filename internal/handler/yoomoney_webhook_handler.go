package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"vpnshop/internal/payments"
	"vpnshop/internal/repository"
	"vpnshop/internal/service"

	"github.com/gin-gonic/gin"
)

// YooMoneyWebhookHandler receives wallet-transfer notifications. YooMoney
// posts an urlencoded form and retries until it sees HTTP 200; the payment
// id travels in the label field.
type YooMoneyWebhookHandler struct {
	provider   *payments.YooMoney
	settlement *service.SettlementService
}

func NewYooMoneyWebhookHandler(provider *payments.YooMoney, settlement *service.SettlementService) *YooMoneyWebhookHandler {
	return &YooMoneyWebhookHandler{provider: provider, settlement: settlement}
}

func (h *YooMoneyWebhookHandler) Handle(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "bad form")
		return
	}
	n := payments.ParseYooMoneyNotification(c.Request.PostForm)

	// Signature first: nothing below runs on an unauthenticated payload.
	if !h.provider.Verify(n) {
		log.Printf("[yoomoney] invalid sha1_hash for operation %s", n.OperationID)
		c.String(http.StatusBadRequest, "invalid signature")
		return
	}
	if n.Codepro == "true" {
		// Protected transfers need a code on the sender side; the money is
		// not ours yet.
		log.Printf("[yoomoney] ignoring codepro transfer, operation %s", n.OperationID)
		c.Status(http.StatusOK)
		return
	}
	if n.Label == "" {
		// Transfer without a label is not a shop payment.
		c.Status(http.StatusOK)
		return
	}

	settlement := repository.Settlement{Method: payments.MethodYooMoney, CurrencyName: n.Currency}
	if amount, err := strconv.ParseFloat(n.Amount, 64); err == nil {
		settlement.AmountCurrency = &amount
	}

	err := h.settlement.Settle(c.Request.Context(), n.Label, settlement)
	switch {
	case err == nil:
		log.Printf("[yoomoney] settled payment %s (operation %s)", n.Label, n.OperationID)
	case errors.Is(err, repository.ErrAlreadySettled):
		// Replay. Acknowledge so the retries stop.
	case errors.Is(err, repository.ErrTransactionNotFound):
		log.Printf("[yoomoney] no transaction for label %q (operation %s)", n.Label, n.OperationID)
	default:
		log.Printf("[yoomoney] settlement error for %s: %v", n.Label, err)
		c.String(http.StatusInternalServerError, "error")
		return
	}
	c.Status(http.StatusOK)
}
