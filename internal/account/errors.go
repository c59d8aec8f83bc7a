package account

import "errors"

var (
	// ErrInsufficientFunds occurs when a withdrawal asks for more than the
	// current balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrWithdrawalLimitExceeded occurs when a checking account has already
	// used up its allowed number of withdrawals for the period.
	ErrWithdrawalLimitExceeded = errors.New("withdrawal count limit reached")

	// ErrAmountExceedsCap occurs when a single withdrawal exceeds the
	// checking account's per-withdrawal cap.
	ErrAmountExceedsCap = errors.New("amount exceeds per-withdrawal cap")
)
