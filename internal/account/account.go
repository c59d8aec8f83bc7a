// Package account implements the ledger's account state machine: balance
// mutations, checking-account withdrawal policy and the per-account
// operation history.
package account

import (
	"errors"
	"fmt"
	"time"

	"github.com/meridianbank/meridian/internal/ids"
	"github.com/meridianbank/meridian/internal/money"
)

// Kind discriminates account variants.
type Kind string

const (
	// KindSavings is the base account with no withdrawal policy.
	KindSavings Kind = "savings"
	// KindChecking carries a per-withdrawal cap and a withdrawal counter.
	KindChecking Kind = "checking"
)

// ParseKind validates a textual account kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindSavings, KindChecking:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown account kind %q", s)
}

// CheckingPolicy holds the withdrawal constraints of a checking account.
// ResetPeriod of zero means the counter never resets, which matches the
// default product configuration.
type CheckingPolicy struct {
	WithdrawalCap   money.Money
	MaxWithdrawals  int
	ResetPeriod     time.Duration
	WithdrawalsUsed int
	PeriodStart     time.Time
}

// allow checks the policy against a pending withdrawal. The count check runs
// before the cap check so a fully spent counter is reported first.
func (p *CheckingPolicy) allow(amount money.Money, now time.Time) error {
	if p.ResetPeriod > 0 && now.Sub(p.PeriodStart) >= p.ResetPeriod {
		p.WithdrawalsUsed = 0
		p.PeriodStart = now
	}
	if p.WithdrawalsUsed >= p.MaxWithdrawals {
		return ErrWithdrawalLimitExceeded
	}
	if amount.GreaterThan(p.WithdrawalCap) {
		return ErrAmountExceedsCap
	}
	return nil
}

// Account is a single ledger account. Checking accounts carry a non-nil
// Policy; savings accounts do not. Balance never goes negative, and every
// successful mutation appends exactly one history record.
type Account struct {
	Number  string
	Agency  string
	Owner   string // owning customer's natural key
	Kind    Kind
	Balance money.Money
	History *History
	Policy  *CheckingPolicy
}

// New builds an account with a zero balance and empty history. policy must
// be non-nil exactly when kind is KindChecking.
func New(number, agency, owner string, kind Kind, policy *CheckingPolicy) *Account {
	if policy != nil && policy.PeriodStart.IsZero() {
		policy.PeriodStart = time.Now().UTC()
	}
	return &Account{
		Number:  number,
		Agency:  agency,
		Owner:   owner,
		Kind:    kind,
		History: NewHistory(),
		Policy:  policy,
	}
}

// Deposit credits the account. Fails with money.ErrInvalidAmount unless the
// amount is strictly positive.
func (a *Account) Deposit(amount money.Money) error {
	return a.credit(amount, OpDeposit, "")
}

// Withdraw debits the account. The checking policy, when present, is applied
// before the balance check; the withdrawal counter only advances on success.
func (a *Account) Withdraw(amount money.Money) error {
	return a.debit(amount, OpWithdrawal, "")
}

// TransferTo moves amount from a to dst, recording a transfer_out leg on the
// source and a transfer_in leg on the destination. Checking policy applies
// to the outgoing leg exactly as it does to a plain withdrawal.
func (a *Account) TransferTo(dst *Account, amount money.Money) error {
	if dst == nil || dst == a {
		return fmt.Errorf("%w: invalid transfer destination", money.ErrInvalidAmount)
	}
	if err := a.debit(amount, OpTransferOut, dst.Number); err != nil {
		return err
	}
	if err := dst.credit(amount, OpTransferIn, a.Number); err != nil {
		// Unreachable once the debit validated the amount, but the source
		// leg must never stay applied without the matching credit.
		a.Balance = a.Balance.Add(amount)
		a.History.dropLast()
		return err
	}
	return nil
}

func (a *Account) credit(amount money.Money, kind OperationKind, counterparty string) error {
	if !amount.IsPositive() {
		return money.ErrInvalidAmount
	}
	a.Balance = a.Balance.Add(amount)
	a.record(kind, amount, counterparty)
	return nil
}

func (a *Account) debit(amount money.Money, kind OperationKind, counterparty string) error {
	if !amount.IsPositive() {
		return money.ErrInvalidAmount
	}
	if a.Policy != nil {
		if err := a.Policy.allow(amount, time.Now().UTC()); err != nil {
			return err
		}
	}
	next, err := a.Balance.Sub(amount)
	if err != nil {
		if errors.Is(err, money.ErrNegativeResult) {
			return ErrInsufficientFunds
		}
		return err
	}
	a.Balance = next
	if a.Policy != nil {
		a.Policy.WithdrawalsUsed++
	}
	a.record(kind, amount, counterparty)
	return nil
}

func (a *Account) record(kind OperationKind, amount money.Money, counterparty string) {
	a.History.Append(Operation{
		ID:           ids.New(),
		Kind:         kind,
		Amount:       amount,
		At:           time.Now().UTC(),
		Counterparty: counterparty,
	})
}
