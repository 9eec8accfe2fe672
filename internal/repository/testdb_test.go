package repository

import (
	"testing"

	"vpnshop/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory SQLite database limited to a single
// connection, so concurrent test goroutines serialize at the pool instead of
// hitting SQLITE_BUSY. The conditional-UPDATE guards under test do not depend
// on the dialect.
func newTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id int64, balance float64) {
	t.Helper()
	require.NoError(t, db.Create(&models.User{TelegramID: id, Username: "user", Balance: balance}).Error)
}
