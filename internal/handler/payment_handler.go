package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"vpnshop/internal/payments"
	"vpnshop/internal/repository"
	"vpnshop/internal/service"

	"github.com/gin-gonic/gin"
)

// Providers holds the configured payment link builders. A nil entry means
// the provider is disabled and requests naming it are rejected.
type Providers struct {
	YooMoney  *payments.YooMoney
	Unitpay   *payments.Unitpay
	Freekassa *payments.Freekassa
	Enot      *payments.Enot
}

// PaymentHandler is the internal intent API used by the chat layer: price a
// purchase, record the pending transaction, hand back a payment link.
type PaymentHandler struct {
	checkout  *service.CheckoutService
	trial     *service.TrialService
	keyRepo   *repository.KeyRepository
	txnRepo   *repository.TransactionRepository
	providers Providers
}

func NewPaymentHandler(
	checkout *service.CheckoutService,
	trial *service.TrialService,
	keyRepo *repository.KeyRepository,
	txnRepo *repository.TransactionRepository,
	providers Providers,
) *PaymentHandler {
	return &PaymentHandler{
		checkout:  checkout,
		trial:     trial,
		keyRepo:   keyRepo,
		txnRepo:   txnRepo,
		providers: providers,
	}
}

type createPaymentRequest struct {
	UserID        int64  `json:"user_id" binding:"required"`
	Username      string `json:"username"`
	PlanID        uint   `json:"plan_id" binding:"required"`
	KeyID         uint   `json:"key_id"`
	PromoCode     string `json:"promo_code"`
	CustomerEmail string `json:"customer_email"`
	ReferredBy    *int64 `json:"referred_by"`
	Provider      string `json:"provider" binding:"required"`
	Description   string `json:"description"`
}

// CreatePayment prices a key purchase or renewal and returns the provider
// payment link for it.
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	quote, err := h.checkout.CreateKeyPurchase(service.KeyPurchaseRequest{
		UserID:        req.UserID,
		Username:      req.Username,
		PlanID:        req.PlanID,
		KeyID:         req.KeyID,
		PromoCode:     req.PromoCode,
		CustomerEmail: req.CustomerEmail,
		ReferredBy:    req.ReferredBy,
	})
	if err != nil {
		h.writeCheckoutError(c, err)
		return
	}
	h.writeQuote(c, quote, req.Provider, req.Description)
}

type createTopUpRequest struct {
	UserID      int64   `json:"user_id" binding:"required"`
	Username    string  `json:"username"`
	Amount      float64 `json:"amount" binding:"required"`
	Provider    string  `json:"provider" binding:"required"`
	Description string  `json:"description"`
}

// CreateTopUp records a pending balance top-up and returns its payment link.
func (h *PaymentHandler) CreateTopUp(c *gin.Context) {
	var req createTopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	quote, err := h.checkout.CreateTopUp(req.UserID, req.Username, req.Amount)
	if err != nil {
		h.writeCheckoutError(c, err)
		return
	}
	h.writeQuote(c, quote, req.Provider, req.Description)
}

type balancePaymentRequest struct {
	UserID        int64  `json:"user_id" binding:"required"`
	Username      string `json:"username"`
	PlanID        uint   `json:"plan_id" binding:"required"`
	KeyID         uint   `json:"key_id"`
	PromoCode     string `json:"promo_code"`
	CustomerEmail string `json:"customer_email"`
}

// PayWithBalance settles a key purchase from the internal balance.
func (h *PaymentHandler) PayWithBalance(c *gin.Context) {
	var req balancePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	txn, err := h.checkout.PayWithBalance(c.Request.Context(), service.KeyPurchaseRequest{
		UserID:        req.UserID,
		Username:      req.Username,
		PlanID:        req.PlanID,
		KeyID:         req.KeyID,
		PromoCode:     req.PromoCode,
		CustomerEmail: req.CustomerEmail,
	})
	if errors.Is(err, repository.ErrInsufficientBalance) {
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient balance"})
		return
	}
	if err != nil && txn == nil {
		h.writeCheckoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"payment_id": txn.PaymentID,
		"amount":     txn.AmountRub,
		"status":     txn.Status,
	})
}

type trialRequest struct {
	UserID   int64  `json:"user_id" binding:"required"`
	Username string `json:"username"`
}

// ClaimTrial issues the one-time trial key.
func (h *PaymentHandler) ClaimTrial(c *gin.Context) {
	var req trialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	key, err := h.trial.Claim(c.Request.Context(), req.UserID, req.Username)
	switch {
	case errors.Is(err, service.ErrTrialDisabled):
		c.JSON(http.StatusForbidden, gin.H{"error": "trial is disabled"})
	case errors.Is(err, service.ErrTrialAlreadyUsed):
		c.JSON(http.StatusConflict, gin.H{"error": "trial already used"})
	case errors.Is(err, service.ErrNoActiveHosts):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no active hosts"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "trial provisioning failed"})
	default:
		c.JSON(http.StatusOK, key)
	}
}

// ListUserKeys returns the user's keys.
func (h *PaymentHandler) ListUserKeys(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	keys, err := h.keyRepo.ListByUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list keys"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

// ListUserTransactions returns the user's recent transactions.
func (h *PaymentHandler) ListUserTransactions(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	txns, err := h.txnRepo.ListByUser(userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list transactions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txns})
}

func (h *PaymentHandler) writeQuote(c *gin.Context, quote *service.Quote, provider, description string) {
	if description == "" {
		description = fmt.Sprintf("Order %s", quote.PaymentID)
	}
	link, err := h.paymentLink(provider, quote, description)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"payment_id":  quote.PaymentID,
		"amount":      quote.Amount,
		"provider":    provider,
		"payment_url": link,
	})
}

func (h *PaymentHandler) paymentLink(provider string, quote *service.Quote, description string) (string, error) {
	switch strings.ToLower(provider) {
	case "yoomoney":
		if h.providers.YooMoney == nil {
			return "", errors.New("yoomoney is not enabled")
		}
		return h.providers.YooMoney.PaymentURL(quote.Amount, quote.PaymentID, description), nil
	case "unitpay":
		if h.providers.Unitpay == nil {
			return "", errors.New("unitpay is not enabled")
		}
		return h.providers.Unitpay.PaymentURL(quote.Amount, quote.PaymentID, description), nil
	case "freekassa":
		if h.providers.Freekassa == nil {
			return "", errors.New("freekassa is not enabled")
		}
		return h.providers.Freekassa.PaymentURL(quote.Amount, quote.PaymentID), nil
	case "enot":
		if h.providers.Enot == nil {
			return "", errors.New("enot is not enabled")
		}
		return h.providers.Enot.PaymentURL(quote.Amount, quote.PaymentID), nil
	default:
		return "", fmt.Errorf("unknown provider %q", provider)
	}
}

func (h *PaymentHandler) writeCheckoutError(c *gin.Context, err error) {
	var unavailable *repository.PromoUnavailableError
	switch {
	case errors.As(err, &unavailable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "promo code unavailable",
			"code":   unavailable.Code,
			"reason": unavailable.Reason,
		})
	case errors.Is(err, repository.ErrPlanNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
	case errors.Is(err, repository.ErrKeyNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "key not found"})
	case errors.Is(err, service.ErrAmountNotPositive):
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
