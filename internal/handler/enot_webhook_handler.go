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

// EnotWebhookHandler receives the Enot result callback; the expected
// acknowledgment body is "OK".
type EnotWebhookHandler struct {
	provider   *payments.Enot
	settlement *service.SettlementService
}

func NewEnotWebhookHandler(provider *payments.Enot, settlement *service.SettlementService) *EnotWebhookHandler {
	return &EnotWebhookHandler{provider: provider, settlement: settlement}
}

func (h *EnotWebhookHandler) Handle(c *gin.Context) {
	orderID := c.PostForm("merchant_id")
	amountStr := c.PostForm("amount")
	sign := c.PostForm("sign")

	amount, err := strconv.ParseFloat(amountStr, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "bad amount")
		return
	}
	if !h.provider.Verify(amount, orderID, sign) {
		log.Printf("[enot] invalid sign for order %q", orderID)
		c.String(http.StatusBadRequest, "wrong sign")
		return
	}

	err = h.settlement.Settle(c.Request.Context(), orderID, repository.Settlement{
		Method:      payments.MethodEnot,
		FinalAmount: &amount,
	})
	switch {
	case err == nil:
		log.Printf("[enot] settled payment %s", orderID)
	case errors.Is(err, repository.ErrAlreadySettled):
		// Replay: acknowledge again.
	case errors.Is(err, repository.ErrTransactionNotFound):
		log.Printf("[enot] no transaction for order %q", orderID)
	default:
		log.Printf("[enot] settlement error for %s: %v", orderID, err)
		c.String(http.StatusInternalServerError, "error")
		return
	}
	c.String(http.StatusOK, "OK")
}
