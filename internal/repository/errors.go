package repository

import "errors"

var (
	// ErrDuplicatePaymentID means the payment_id already exists; the caller
	// must generate a fresh identifier rather than reuse the row.
	ErrDuplicatePaymentID = errors.New("payment_id already exists")

	// ErrAlreadySettled means the transaction left pending before this call.
	// Webhook handlers treat it as success so providers stop retrying.
	ErrAlreadySettled = errors.New("transaction already settled")

	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUserNotFound        = errors.New("user not found")
	ErrKeyNotFound         = errors.New("vpn key not found")
)
