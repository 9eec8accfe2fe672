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

// FreekassaWebhookHandler receives the merchant result callback. Freekassa
// considers the notification delivered only when the body is exactly "YES".
type FreekassaWebhookHandler struct {
	provider   *payments.Freekassa
	settlement *service.SettlementService
}

func NewFreekassaWebhookHandler(provider *payments.Freekassa, settlement *service.SettlementService) *FreekassaWebhookHandler {
	return &FreekassaWebhookHandler{provider: provider, settlement: settlement}
}

func (h *FreekassaWebhookHandler) Handle(c *gin.Context) {
	orderID := c.PostForm("MERCHANT_ORDER_ID")
	amountStr := c.PostForm("AMOUNT")
	sign := c.PostForm("SIGN")

	amount, err := strconv.ParseFloat(amountStr, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "bad amount")
		return
	}
	if !h.provider.Verify(amount, orderID, sign) {
		log.Printf("[freekassa] invalid sign for order %q", orderID)
		c.String(http.StatusBadRequest, "wrong sign")
		return
	}

	err = h.settlement.Settle(c.Request.Context(), orderID, repository.Settlement{
		Method:      payments.MethodFreekassa,
		FinalAmount: &amount,
	})
	switch {
	case err == nil:
		log.Printf("[freekassa] settled payment %s", orderID)
	case errors.Is(err, repository.ErrAlreadySettled):
		// Replay: acknowledge again.
	case errors.Is(err, repository.ErrTransactionNotFound):
		log.Printf("[freekassa] no transaction for order %q", orderID)
	default:
		log.Printf("[freekassa] settlement error for %s: %v", orderID, err)
		c.String(http.StatusInternalServerError, "error")
		return
	}
	c.String(http.StatusOK, "YES")
}
