package models

import (
	"encoding/json"
	"fmt"
)

// Intent actions.
const (
	ActionTopUp    = "top_up"
	ActionBuyKey   = "buy_key"
	ActionRenewKey = "renew_key"
)

// Intent describes what a settled payment should accomplish. It is captured
// when the payment link is created and re-read at settlement time, so the
// webhook path never depends on chat state. Serialized as JSON into the
// transaction row; only the fields relevant to the action are set.
type Intent struct {
	Action string `json:"action"`

	// buy_key
	HostName      string `json:"host_name,omitempty"`
	PlanID        uint   `json:"plan_id,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`

	// buy_key and renew_key
	Months int `json:"months,omitempty"`

	// renew_key
	KeyID uint `json:"key_id,omitempty"`

	// optional promo, applied after the key is granted
	PromoCode            string  `json:"promo_code,omitempty"`
	PromoDiscountPercent float64 `json:"promo_discount_percent,omitempty"`
	PromoDiscountAmount  float64 `json:"promo_discount_amount,omitempty"`
}

func (i Intent) Validate() error {
	switch i.Action {
	case ActionTopUp:
		return nil
	case ActionBuyKey:
		if i.HostName == "" {
			return fmt.Errorf("buy_key intent requires host_name")
		}
		if i.Months <= 0 {
			return fmt.Errorf("buy_key intent requires months > 0")
		}
		return nil
	case ActionRenewKey:
		if i.KeyID == 0 {
			return fmt.Errorf("renew_key intent requires key_id")
		}
		if i.Months <= 0 {
			return fmt.Errorf("renew_key intent requires months > 0")
		}
		return nil
	default:
		return fmt.Errorf("unknown intent action %q", i.Action)
	}
}

func (i Intent) Marshal() (string, error) {
	b, err := json.Marshal(i)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func UnmarshalIntent(raw string) (Intent, error) {
	var i Intent
	if err := json.Unmarshal([]byte(raw), &i); err != nil {
		return Intent{}, err
	}
	if err := i.Validate(); err != nil {
		return Intent{}, err
	}
	return i, nil
}
