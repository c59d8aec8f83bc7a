// Package statement renders read-only views over an account's history.
// Nothing here mutates state; it is purely a formatting projection.
package statement

import (
	"time"

	"github.com/meridianbank/meridian/internal/account"
	"github.com/meridianbank/meridian/internal/bank"
	"github.com/meridianbank/meridian/internal/money"
)

// Mode selects between the short recent view and the full annotated one.
type Mode string

const (
	ModeSimple   Mode = "simple"
	ModeDetailed Mode = "detailed"
)

// DefaultSimpleWindow is the number of records shown by the simple view.
const DefaultSimpleWindow = 10

// Entry is one rendered history record. RunningBalance is only populated in
// detailed mode.
type Entry struct {
	ID             string    `json:"id"`
	Kind           string    `json:"kind"`
	Amount         string    `json:"amount"`
	At             time.Time `json:"at"`
	Counterparty   string    `json:"counterparty,omitempty"`
	RunningBalance string    `json:"running_balance,omitempty"`
}

// Statement is a rendered view of an account at a point in time.
type Statement struct {
	Account     string    `json:"account"`
	Agency      string    `json:"agency"`
	Mode        Mode      `json:"mode"`
	Balance     string    `json:"balance"`
	Entries     []Entry   `json:"entries"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Simple renders a bounded window of the most recent records. A non-positive
// limit falls back to DefaultSimpleWindow.
func Simple(view bank.AccountView, ops []account.Operation, limit int) Statement {
	if limit <= 0 {
		limit = DefaultSimpleWindow
	}
	if len(ops) > limit {
		ops = ops[len(ops)-limit:]
	}
	st := newStatement(view, ModeSimple)
	for _, op := range ops {
		st.Entries = append(st.Entries, Entry{
			ID:           op.ID,
			Kind:         string(op.Kind),
			Amount:       op.Amount.String(),
			At:           op.At,
			Counterparty: op.Counterparty,
		})
	}
	return st
}

// Detailed renders the full history with a running balance per entry. The
// balance is reconstructed forward from zero, which holds because accounts
// open empty and every mutation is recorded.
func Detailed(view bank.AccountView, ops []account.Operation) Statement {
	st := newStatement(view, ModeDetailed)
	running := money.Money{}
	for _, op := range ops {
		switch op.Kind {
		case account.OpDeposit, account.OpTransferIn:
			running = running.Add(op.Amount)
		case account.OpWithdrawal, account.OpTransferOut:
			next, err := running.Sub(op.Amount)
			if err != nil {
				// A history that dips below zero is corrupt; render what we
				// can rather than fail a read-only view.
				next = money.Money{}
			}
			running = next
		}
		st.Entries = append(st.Entries, Entry{
			ID:             op.ID,
			Kind:           string(op.Kind),
			Amount:         op.Amount.String(),
			At:             op.At,
			Counterparty:   op.Counterparty,
			RunningBalance: running.String(),
		})
	}
	return st
}

func newStatement(view bank.AccountView, mode Mode) Statement {
	return Statement{
		Account:     view.Number,
		Agency:      view.Agency,
		Mode:        mode,
		Balance:     view.Balance.String(),
		Entries:     []Entry{},
		GeneratedAt: time.Now().UTC(),
	}
}
