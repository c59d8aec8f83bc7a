package bank

import "errors"

var (
	// ErrDuplicateCustomer occurs when the natural key is already registered.
	ErrDuplicateCustomer = errors.New("customer already registered")

	// ErrCustomerNotFound occurs when no customer matches the natural key.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrAccountNotFound occurs when no account matches the given number.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountNotOwned occurs when a customer operates on an account that
	// is not in their account set.
	ErrAccountNotOwned = errors.New("account not owned by customer")
)
