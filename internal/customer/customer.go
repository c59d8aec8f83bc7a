// Package customer holds the registered account holders and the rules for
// their natural keys.
package customer

import (
	"errors"
	"time"
)

// ErrInvalidIdentifier occurs when a natural key is not a well-formed CPF.
var ErrInvalidIdentifier = errors.New("invalid customer identifier")

// Customer represents a registered account holder. The CPF is the natural
// key; accounts are referenced by number and owned by the bank registry.
type Customer struct {
	CPF          string
	Name         string
	Address      string
	PasswordHash []byte
	Accounts     []string // owned account numbers, in creation order
	TokenVersion int
	CreatedAt    time.Time
}

// Owns reports whether the customer owns the given account number.
func (c *Customer) Owns(number string) bool {
	for _, n := range c.Accounts {
		if n == number {
			return true
		}
	}
	return false
}

// AddAccount links an account number to the customer.
func (c *Customer) AddAccount(number string) {
	c.Accounts = append(c.Accounts, number)
}

// ValidateCPF checks the natural-key shape: exactly eleven digits.
func ValidateCPF(cpf string) error {
	if len(cpf) != 11 {
		return ErrInvalidIdentifier
	}
	for _, r := range cpf {
		if r < '0' || r > '9' {
			return ErrInvalidIdentifier
		}
	}
	return nil
}
