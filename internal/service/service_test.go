package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"vpnshop/config"
	"vpnshop/internal/models"
	"vpnshop/internal/panel"
	"vpnshop/internal/repository"
	"vpnshop/internal/ws"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeProvisioner stands in for the panel. Flip failIssue / failExtend to
// simulate an unreachable panel.
type fakeProvisioner struct {
	mu          sync.Mutex
	failIssue   bool
	failExtend  bool
	issueCalls  int
	extendCalls int
}

func (f *fakeProvisioner) Issue(ctx context.Context, hostName, email string, days int) (*panel.ProvisionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issueCalls++
	if f.failIssue {
		return nil, errors.New("panel unreachable")
	}
	return &panel.ProvisionResult{
		ClientUUID:       uuid.New().String(),
		ExpiresAt:        time.Now().Add(time.Duration(days) * 24 * time.Hour),
		ConnectionString: "vless://test@" + hostName + ":443#" + email,
	}, nil
}

func (f *fakeProvisioner) Extend(ctx context.Context, hostName, email string, days int) (*panel.ProvisionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extendCalls++
	if f.failExtend {
		return nil, errors.New("panel unreachable")
	}
	return &panel.ProvisionResult{
		ExpiresAt: time.Now().Add(time.Duration(days) * 24 * time.Hour),
	}, nil
}

func (f *fakeProvisioner) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issueCalls, f.extendCalls
}

// recordingNotifier captures outbound messages instead of hitting Telegram.
type recordingNotifier struct {
	mu    sync.Mutex
	user  map[int64][]string
	admin []string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{user: make(map[int64][]string)}
}

func (r *recordingNotifier) NotifyUser(ctx context.Context, userID int64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.user[userID] = append(r.user[userID], text)
	return nil
}

func (r *recordingNotifier) NotifyAdmin(ctx context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.admin = append(r.admin, text)
	return nil
}

func (r *recordingNotifier) userMessages(userID int64) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.user[userID]...)
}

func (r *recordingNotifier) adminMessages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.admin...)
}

type fixture struct {
	db         *gorm.DB
	users      *repository.UserRepository
	txns       *repository.TransactionRepository
	promos     *repository.PromoRepository
	keys       *repository.KeyRepository
	plans      *repository.PlanRepository
	alertRepo  *repository.AlertRepository
	prov       *fakeProvisioner
	notif      *recordingNotifier
	alerts     *AlertService
	settlement *SettlementService
	checkout   *CheckoutService
	trial      *TrialService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Transaction{},
		&models.PromoCode{},
		&models.PromoCodeUsage{},
		&models.VPNKey{},
		&models.Host{},
		&models.Plan{},
		&models.ReconciliationAlert{},
	))

	f := &fixture{
		db:        db,
		users:     repository.NewUserRepository(db),
		txns:      repository.NewTransactionRepository(db),
		promos:    repository.NewPromoRepository(db),
		keys:      repository.NewKeyRepository(db),
		plans:     repository.NewPlanRepository(db),
		alertRepo: repository.NewAlertRepository(db),
		prov:      &fakeProvisioner{},
		notif:     newRecordingNotifier(),
	}

	referralCfg := config.ReferralConfig{DiscountPercent: 10, BonusPercent: 10}
	f.alerts = NewAlertService(f.alertRepo, ws.NewAlertHub(), f.notif)
	referral := NewReferralService(referralCfg, f.users, f.notif)
	fulfillment := NewFulfillmentService(
		f.users, f.keys, f.promos, f.prov, f.alerts, referral, f.notif, time.Second)
	f.settlement = NewSettlementService(f.txns, fulfillment)
	f.checkout = NewCheckoutService(
		referralCfg, f.users, f.plans, f.keys, f.promos, f.txns, fulfillment)
	f.trial = NewTrialService(
		config.TrialConfig{Enabled: true, DurationDays: 3}, f.users, f.plans, f.keys, f.prov, f.notif, time.Second)
	return f
}

func (f *fixture) seedUser(t *testing.T, id int64, balance float64) {
	t.Helper()
	require.NoError(t, f.db.Create(&models.User{TelegramID: id, Username: "user", Balance: balance}).Error)
}

func (f *fixture) seedReferredUser(t *testing.T, id, referrer int64) {
	t.Helper()
	require.NoError(t, f.db.Create(&models.User{TelegramID: id, Username: "user", ReferredBy: &referrer}).Error)
}

func (f *fixture) seedHostAndPlan(t *testing.T, host string, months int, price float64) uint {
	t.Helper()
	require.NoError(t, f.db.FirstOrCreate(&models.Host{HostName: host, IsActive: true}).Error)
	plan := &models.Plan{HostName: host, PlanName: "plan", Months: months, Price: price, IsActive: true}
	require.NoError(t, f.db.Create(plan).Error)
	return plan.ID
}

func (f *fixture) balance(t *testing.T, id int64) float64 {
	t.Helper()
	u, err := f.users.GetByTelegramID(id)
	require.NoError(t, err)
	return u.Balance
}

func (f *fixture) txnStatus(t *testing.T, paymentID string) string {
	t.Helper()
	txn, err := f.txns.GetByPaymentID(paymentID)
	require.NoError(t, err)
	return txn.Status
}
