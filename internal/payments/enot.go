package payments

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"vpnshop/config"
)

const MethodEnot = "Enot"

// Enot card PSP. Same colon-joined MD5 shape as Freekassa but without the
// currency field: md5(shop_id:amount:secret:order_id).
type Enot struct {
	shopID    string
	secretKey string
}

func NewEnot(cfg config.EnotConfig) *Enot {
	return &Enot{shopID: cfg.ShopID, secretKey: cfg.SecretKey}
}

func (e *Enot) Name() string { return MethodEnot }

func (e *Enot) Sign(amount float64, orderID string) string {
	raw := fmt.Sprintf("%s:%s:%s:%s", e.shopID, FormatAmount(amount), e.secretKey, orderID)
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func (e *Enot) Verify(amount float64, orderID, signature string) bool {
	if signature == "" {
		return false
	}
	return strings.EqualFold(e.Sign(amount, orderID), signature)
}

func (e *Enot) PaymentURL(amount float64, orderID string) string {
	qs := url.Values{}
	qs.Set("oa", FormatAmount(amount))
	qs.Set("o", orderID)
	qs.Set("s", e.Sign(amount, orderID))
	return fmt.Sprintf("https://enot.io/pay/%s?%s", e.shopID, qs.Encode())
}
