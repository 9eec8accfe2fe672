package payments

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"vpnshop/config"
)

const MethodFreekassa = "Freekassa"

const freekassaCurrency = "RUB"

// Freekassa card PSP. Signature: md5(shop_id:amount:secret:currency:order_id)
// with a fixed field order and colon separators.
type Freekassa struct {
	shopID    string
	secretKey string
}

func NewFreekassa(cfg config.FreekassaConfig) *Freekassa {
	return &Freekassa{shopID: cfg.ShopID, secretKey: cfg.SecretKey}
}

func (f *Freekassa) Name() string { return MethodFreekassa }

func (f *Freekassa) Sign(amount float64, orderID string) string {
	raw := fmt.Sprintf("%s:%s:%s:%s:%s", f.shopID, FormatAmount(amount), f.secretKey, freekassaCurrency, orderID)
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func (f *Freekassa) Verify(amount float64, orderID, signature string) bool {
	if signature == "" {
		return false
	}
	return strings.EqualFold(f.Sign(amount, orderID), signature)
}

func (f *Freekassa) PaymentURL(amount float64, orderID string) string {
	qs := url.Values{}
	qs.Set("m", f.shopID)
	qs.Set("oa", FormatAmount(amount))
	qs.Set("o", orderID)
	qs.Set("s", f.Sign(amount, orderID))
	qs.Set("currency", freekassaCurrency)
	return fmt.Sprintf("https://pay.freekassa.ru/?%s", qs.Encode())
}
