package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	YooMoney  YooMoneyConfig
	Unitpay   UnitpayConfig
	Freekassa FreekassaConfig
	Enot      EnotConfig
	Panel     PanelConfig
	Telegram  TelegramConfig
	Referral  ReferralConfig
	Trial     TrialConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// AuthConfig holds the shared secret for the internal intent API. The chat
// layer signs a short-lived HS256 token with it; webhook endpoints are not
// behind this auth (they authenticate via provider signatures).
type AuthConfig struct {
	ServiceSecret string
	Issuer        string
}

type YooMoneyConfig struct {
	Enabled            bool
	Wallet             string
	NotificationSecret string
}

type UnitpayConfig struct {
	Enabled   bool
	Domain    string
	PublicKey string
	SecretKey string
}

type FreekassaConfig struct {
	Enabled   bool
	ShopID    string
	SecretKey string
}

type EnotConfig struct {
	Enabled   bool
	ShopID    string
	SecretKey string
}

// PanelConfig points at the VPN panel that issues and extends access
// credentials.
type PanelConfig struct {
	BaseURL        string
	Username       string
	Password       string
	InboundID      int
	RequestTimeout time.Duration
}

type TelegramConfig struct {
	BotToken    string
	AdminChatID int64
}

type ReferralConfig struct {
	DiscountPercent float64 // first-purchase discount for referred users
	BonusPercent    float64 // referrer cut of the referred user's payment
	FixedBonus      float64 // used instead of BonusPercent when > 0
}

type TrialConfig struct {
	Enabled      bool
	DurationDays int
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Env:          getEnv("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             getEnv("DB_DSN", "vpnshop:vpnshop@tcp(localhost:3306)/vpnshop?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		Auth: AuthConfig{
			ServiceSecret: getEnv("SERVICE_TOKEN_SECRET", "change-me-in-production"),
			Issuer:        getEnv("SERVICE_TOKEN_ISSUER", "vpnshop-bot"),
		},
		YooMoney: YooMoneyConfig{
			Enabled:            getEnv("YOOMONEY_WALLET", "") != "",
			Wallet:             getEnv("YOOMONEY_WALLET", ""),
			NotificationSecret: getEnv("YOOMONEY_NOTIFICATION_SECRET", ""),
		},
		Unitpay: UnitpayConfig{
			Enabled:   getEnv("UNITPAY_PUBLIC_KEY", "") != "",
			Domain:    getEnv("UNITPAY_DOMAIN", "unitpay.money"),
			PublicKey: getEnv("UNITPAY_PUBLIC_KEY", ""),
			SecretKey: getEnv("UNITPAY_SECRET_KEY", ""),
		},
		Freekassa: FreekassaConfig{
			Enabled:   getEnv("FREEKASSA_SHOP_ID", "") != "",
			ShopID:    getEnv("FREEKASSA_SHOP_ID", ""),
			SecretKey: getEnv("FREEKASSA_SECRET_KEY", ""),
		},
		Enot: EnotConfig{
			Enabled:   getEnv("ENOT_SHOP_ID", "") != "",
			ShopID:    getEnv("ENOT_SHOP_ID", ""),
			SecretKey: getEnv("ENOT_SECRET_KEY", ""),
		},
		Panel: PanelConfig{
			BaseURL:        getEnv("PANEL_BASE_URL", ""),
			Username:       getEnv("PANEL_USERNAME", ""),
			Password:       getEnv("PANEL_PASSWORD", ""),
			InboundID:      getEnvInt("PANEL_INBOUND_ID", 1),
			RequestTimeout: time.Duration(getEnvInt("PANEL_TIMEOUT_SEC", 20)) * time.Second,
		},
		Telegram: TelegramConfig{
			BotToken:    getEnv("BOT_TOKEN", ""),
			AdminChatID: getEnvInt64("ADMIN_CHAT_ID", 0),
		},
		Referral: ReferralConfig{
			DiscountPercent: getEnvFloat("REFERRAL_DISCOUNT_PERCENT", 10),
			BonusPercent:    getEnvFloat("REFERRAL_BONUS_PERCENT", 10),
			FixedBonus:      getEnvFloat("REFERRAL_FIXED_BONUS", 0),
		},
		Trial: TrialConfig{
			Enabled:      getEnv("TRIAL_ENABLED", "true") == "true",
			DurationDays: getEnvInt("TRIAL_DURATION_DAYS", 3),
		},
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
