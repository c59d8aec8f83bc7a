package account

import (
	"time"

	"github.com/meridianbank/meridian/internal/money"
)

// OperationKind labels an entry in an account's history.
type OperationKind string

const (
	OpDeposit     OperationKind = "deposit"
	OpWithdrawal  OperationKind = "withdrawal"
	OpTransferOut OperationKind = "transfer_out"
	OpTransferIn  OperationKind = "transfer_in"
)

// Operation is one completed movement against an account. Amounts are always
// positive; direction is carried by the kind. Immutable once appended.
type Operation struct {
	ID           string
	Kind         OperationKind
	Amount       money.Money
	At           time.Time
	Counterparty string // account number of the other leg, transfers only
}

// History is the append-only record of an account's completed operations,
// kept in the order they happened. It is owned by exactly one Account.
type History struct {
	ops []Operation
}

// NewHistory builds an empty history.
func NewHistory() *History {
	return &History{}
}

// Append adds a record at the end. Existing entries are never touched.
func (h *History) Append(op Operation) {
	h.ops = append(h.ops, op)
}

// Len reports the number of recorded operations.
func (h *History) Len() int {
	return len(h.ops)
}

// List returns copies of the records in insertion order. When kinds are
// given, only matching records are included.
func (h *History) List(kinds ...OperationKind) []Operation {
	if len(kinds) == 0 {
		out := make([]Operation, len(h.ops))
		copy(out, h.ops)
		return out
	}
	var out []Operation
	for _, op := range h.ops {
		for _, k := range kinds {
			if op.Kind == k {
				out = append(out, op)
				break
			}
		}
	}
	return out
}

// Recent returns copies of the last n records in insertion order, or all of
// them when fewer exist.
func (h *History) Recent(n int) []Operation {
	if n <= 0 || n >= len(h.ops) {
		return h.List()
	}
	out := make([]Operation, n)
	copy(out, h.ops[len(h.ops)-n:])
	return out
}

// dropLast removes the newest record. Only the transfer compensation path
// uses it; history stays append-only for every caller outside this package.
func (h *History) dropLast() {
	if len(h.ops) > 0 {
		h.ops = h.ops[:len(h.ops)-1]
	}
}
