package customer

import (
	"errors"
	"testing"
)

func TestValidateCPF(t *testing.T) {
	if err := ValidateCPF("12345678901"); err != nil {
		t.Fatalf("valid cpf rejected: %v", err)
	}
	for _, bad := range []string{"", "123", "123456789012", "1234567890a", "123.456.789"} {
		if err := ValidateCPF(bad); !errors.Is(err, ErrInvalidIdentifier) {
			t.Fatalf("expected invalid identifier for %q, got %v", bad, err)
		}
	}
}

func TestOwns(t *testing.T) {
	c := Customer{CPF: "12345678901"}
	if c.Owns("0001") {
		t.Fatalf("empty customer should own nothing")
	}
	c.AddAccount("0001")
	c.AddAccount("0002")
	if !c.Owns("0001") || !c.Owns("0002") {
		t.Fatalf("expected ownership of linked accounts: %+v", c.Accounts)
	}
	if c.Owns("0003") {
		t.Fatalf("unexpected ownership of unlinked account")
	}
}
