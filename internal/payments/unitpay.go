package payments

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"vpnshop/config"
)

const MethodUnitpay = "Unitpay"

// unitpaySeparator joins the signature parts; the secret key is appended as
// the last part with the same separator.
const unitpaySeparator = "{up}"

// Unitpay card PSP. Signature: sha256 over the values of
// {account, desc, sum} sorted by key name, joined with "{up}", secret last.
// account carries the payment id.
type Unitpay struct {
	domain    string
	publicKey string
	secretKey string
}

func NewUnitpay(cfg config.UnitpayConfig) *Unitpay {
	return &Unitpay{domain: cfg.Domain, publicKey: cfg.PublicKey, secretKey: cfg.SecretKey}
}

func (u *Unitpay) Name() string { return MethodUnitpay }

func (u *Unitpay) Sign(account, desc, sum string) string {
	params := map[string]string{
		"account": account,
		"desc":    desc,
		"sum":     sum,
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	vals := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		vals = append(vals, params[k])
	}
	vals = append(vals, u.secretKey)
	sum256 := sha256.Sum256([]byte(strings.Join(vals, unitpaySeparator)))
	return hex.EncodeToString(sum256[:])
}

func (u *Unitpay) Verify(account, desc, sum, signature string) bool {
	if signature == "" {
		return false
	}
	return strings.EqualFold(u.Sign(account, desc, sum), signature)
}

func (u *Unitpay) PaymentURL(amount float64, paymentID, description string) string {
	sum := FormatAmount(amount)
	qs := url.Values{}
	qs.Set("sum", sum)
	qs.Set("account", paymentID)
	qs.Set("desc", description)
	qs.Set("signature", u.Sign(paymentID, description, sum))
	return fmt.Sprintf("https://%s/pay/%s?%s", u.domain, u.publicKey, qs.Encode())
}
