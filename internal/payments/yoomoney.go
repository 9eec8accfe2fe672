package payments

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"vpnshop/config"
)

const MethodYooMoney = "YooMoney"

// YooMoney implements the wallet-transfer provider. Payment links are
// quickpay URLs with the payment id in the label field; callbacks carry a
// sha1_hash over the notification fields joined with '&', with the
// notification secret in place of the hash field.
type YooMoney struct {
	wallet string
	secret string
}

func NewYooMoney(cfg config.YooMoneyConfig) *YooMoney {
	return &YooMoney{wallet: cfg.Wallet, secret: cfg.NotificationSecret}
}

func (y *YooMoney) Name() string { return MethodYooMoney }

// YooMoneyNotification holds the callback fields that participate in the
// signature, in their wire (string) form.
type YooMoneyNotification struct {
	NotificationType string
	OperationID      string
	Amount           string
	Currency         string
	Datetime         string
	Sender           string
	Codepro          string
	Label            string
	SHA1Hash         string
}

func ParseYooMoneyNotification(form url.Values) YooMoneyNotification {
	return YooMoneyNotification{
		NotificationType: form.Get("notification_type"),
		OperationID:      form.Get("operation_id"),
		Amount:           form.Get("amount"),
		Currency:         form.Get("currency"),
		Datetime:         form.Get("datetime"),
		Sender:           form.Get("sender"),
		Codepro:          form.Get("codepro"),
		Label:            form.Get("label"),
		SHA1Hash:         form.Get("sha1_hash"),
	}
}

// Hash computes the notification signature:
// sha1(type&operation_id&amount&currency&datetime&sender&codepro&secret&label).
func (y *YooMoney) Hash(n YooMoneyNotification) string {
	s := strings.Join([]string{
		n.NotificationType,
		n.OperationID,
		n.Amount,
		n.Currency,
		n.Datetime,
		n.Sender,
		n.Codepro,
		y.secret,
		n.Label,
	}, "&")
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func (y *YooMoney) Verify(n YooMoneyNotification) bool {
	if n.SHA1Hash == "" {
		return false
	}
	return strings.EqualFold(y.Hash(n), n.SHA1Hash)
}

// PaymentURL builds the quickpay link. The label is the payment id and is
// echoed back verbatim in the callback.
func (y *YooMoney) PaymentURL(amount float64, paymentID, description string) string {
	qs := url.Values{}
	qs.Set("receiver", y.wallet)
	qs.Set("quickpay-form", "shop")
	qs.Set("targets", description)
	qs.Set("paymentType", "PC")
	qs.Set("sum", FormatAmount(amount))
	qs.Set("label", paymentID)
	return fmt.Sprintf("https://yoomoney.ru/quickpay/confirm.xml?%s", qs.Encode())
}
