package router

import (
	"time"

	"vpnshop/config"
	"vpnshop/internal/handler"
	"vpnshop/internal/middleware"
	"vpnshop/internal/notifier"
	"vpnshop/internal/panel"
	"vpnshop/internal/payments"
	"vpnshop/internal/repository"
	"vpnshop/internal/service"
	"vpnshop/internal/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, provisioner panel.Provisioner, notif notifier.Notifier) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	txnRepo := repository.NewTransactionRepository(db)
	promoRepo := repository.NewPromoRepository(db)
	keyRepo := repository.NewKeyRepository(db)
	planRepo := repository.NewPlanRepository(db)
	alertRepo := repository.NewAlertRepository(db)

	alertHub := ws.NewAlertHub()

	// Services
	alertSvc := service.NewAlertService(alertRepo, alertHub, notif)
	referralSvc := service.NewReferralService(cfg.Referral, userRepo, notif)
	fulfillmentSvc := service.NewFulfillmentService(
		userRepo, keyRepo, promoRepo, provisioner, alertSvc, referralSvc, notif, cfg.Panel.RequestTimeout)
	settlementSvc := service.NewSettlementService(txnRepo, fulfillmentSvc)
	checkoutSvc := service.NewCheckoutService(
		cfg.Referral, userRepo, planRepo, keyRepo, promoRepo, txnRepo, fulfillmentSvc)
	trialSvc := service.NewTrialService(
		cfg.Trial, userRepo, planRepo, keyRepo, provisioner, notif, cfg.Panel.RequestTimeout)

	// Providers; nil means disabled and the intent API rejects requests for it.
	providers := handler.Providers{}
	if cfg.YooMoney.Enabled {
		providers.YooMoney = payments.NewYooMoney(cfg.YooMoney)
	}
	if cfg.Unitpay.Enabled {
		providers.Unitpay = payments.NewUnitpay(cfg.Unitpay)
	}
	if cfg.Freekassa.Enabled {
		providers.Freekassa = payments.NewFreekassa(cfg.Freekassa)
	}
	if cfg.Enot.Enabled {
		providers.Enot = payments.NewEnot(cfg.Enot)
	}

	// Handlers
	paymentHandler := handler.NewPaymentHandler(checkoutSvc, trialSvc, keyRepo, txnRepo, providers)
	alertHandler := handler.NewAlertHandler(alertSvc)

	authMw := middleware.ServiceAuth(&cfg.Auth)

	// Provider callbacks authenticate with payload signatures, not tokens.
	webhooks := r.Group("/webhooks")
	{
		if providers.YooMoney != nil {
			h := handler.NewYooMoneyWebhookHandler(providers.YooMoney, settlementSvc)
			webhooks.POST("/yoomoney", h.Handle)
		}
		if providers.Unitpay != nil {
			h := handler.NewUnitpayWebhookHandler(providers.Unitpay, txnRepo, settlementSvc)
			webhooks.GET("/unitpay", h.Handle)
			webhooks.POST("/unitpay", h.Handle)
		}
		if providers.Freekassa != nil {
			h := handler.NewFreekassaWebhookHandler(providers.Freekassa, settlementSvc)
			webhooks.POST("/freekassa", h.Handle)
		}
		if providers.Enot != nil {
			h := handler.NewEnotWebhookHandler(providers.Enot, settlementSvc)
			webhooks.POST("/enot", h.Handle)
		}
	}

	api := r.Group("/api/v1")
	api.Use(authMw)
	{
		api.POST("/payments", paymentHandler.CreatePayment)
		api.POST("/payments/balance", paymentHandler.PayWithBalance)
		api.POST("/topups", paymentHandler.CreateTopUp)
		api.POST("/trial", paymentHandler.ClaimTrial)
		api.GET("/users/:id/keys", paymentHandler.ListUserKeys)
		api.GET("/users/:id/transactions", paymentHandler.ListUserTransactions)
		api.GET("/alerts", alertHandler.ListOpen)
		api.POST("/alerts/:id/resolve", alertHandler.Resolve)
	}

	r.GET("/ws/alerts", handler.UpgradeAlertWS(&cfg.Auth, alertHub))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
