// Package payments implements the payment-link builders and callback
// signature schemes for the supported providers. Each provider has its own
// canonical-string-then-hash formula; all amounts are rendered with exactly
// two decimal digits before hashing, because a "100" where the provider
// hashed "100.00" fails verification with no other symptom.
package payments

import "fmt"

// FormatAmount renders an amount the way every provider hashes it.
func FormatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}
