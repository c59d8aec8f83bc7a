// Package store persists the full bank state as a snapshot: every mutation
// rewrites the whole document, and startup loads it back in one piece.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/meridianbank/meridian/internal/account"
	"github.com/meridianbank/meridian/internal/customer"
	"github.com/meridianbank/meridian/internal/money"
)

// SchemaVersion identifies the snapshot layout for future migrations.
const SchemaVersion = 1

// Store is the persistence contract. Load returns an error satisfying
// errors.Is(err, fs.ErrNotExist) when no snapshot has ever been written.
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
}

// Meta carries snapshot bookkeeping, useful when inspecting the file by hand.
type Meta struct {
	Storage   string    `json:"storage"`
	Version   int       `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// Customer is the serialized form of a registered customer.
type Customer struct {
	CPF          string    `json:"cpf"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	PasswordHash string    `json:"password_hash"`
	TokenVersion int       `json:"token_version"`
	CreatedAt    time.Time `json:"created_at"`
}

// Account is the serialized form of an account with its embedded history.
// The owner is referenced by natural key, never embedded.
type Account struct {
	Agency          string      `json:"agency"`
	Number          string      `json:"number"`
	OwnerCPF        string      `json:"owner_cpf"`
	Kind            string      `json:"kind"`
	Balance         int64       `json:"balance"`
	WithdrawalCap   int64       `json:"withdrawal_cap,omitempty"`
	MaxWithdrawals  int         `json:"max_withdrawals,omitempty"`
	ResetPeriodSec  int64       `json:"reset_period_sec,omitempty"`
	WithdrawalsUsed int         `json:"withdrawals_used,omitempty"`
	PeriodStart     time.Time   `json:"period_start,omitempty"`
	Operations      []Operation `json:"operations"`
}

// Operation is one serialized history record.
type Operation struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Amount       int64     `json:"amount"`
	At           time.Time `json:"at"`
	Counterparty string    `json:"counterparty,omitempty"`
}

// Snapshot is the complete persisted state of the bank.
type Snapshot struct {
	Meta           Meta       `json:"_meta"`
	NextAccountSeq uint64     `json:"next_account_seq"`
	Customers      []Customer `json:"customers"`
	Accounts       []Account  `json:"accounts"`
}

// Build serializes the in-memory state into a snapshot.
func Build(nextAccountSeq uint64, customers []*customer.Customer, accounts []*account.Account) Snapshot {
	snap := Snapshot{
		Meta:           Meta{Version: SchemaVersion, Timestamp: time.Now().UTC()},
		NextAccountSeq: nextAccountSeq,
		Customers:      make([]Customer, 0, len(customers)),
		Accounts:       make([]Account, 0, len(accounts)),
	}
	for _, c := range customers {
		snap.Customers = append(snap.Customers, Customer{
			CPF:          c.CPF,
			Name:         c.Name,
			Address:      c.Address,
			PasswordHash: string(c.PasswordHash),
			TokenVersion: c.TokenVersion,
			CreatedAt:    c.CreatedAt,
		})
	}
	for _, a := range accounts {
		pa := Account{
			Agency:   a.Agency,
			Number:   a.Number,
			OwnerCPF: a.Owner,
			Kind:     string(a.Kind),
			Balance:  a.Balance.Cents(),
		}
		if p := a.Policy; p != nil {
			pa.WithdrawalCap = p.WithdrawalCap.Cents()
			pa.MaxWithdrawals = p.MaxWithdrawals
			pa.ResetPeriodSec = int64(p.ResetPeriod / time.Second)
			pa.WithdrawalsUsed = p.WithdrawalsUsed
			pa.PeriodStart = p.PeriodStart
		}
		for _, op := range a.History.List() {
			pa.Operations = append(pa.Operations, Operation{
				ID:           op.ID,
				Kind:         string(op.Kind),
				Amount:       op.Amount.Cents(),
				At:           op.At,
				Counterparty: op.Counterparty,
			})
		}
		snap.Accounts = append(snap.Accounts, pa)
	}
	return snap
}

// Restore rebuilds the in-memory state from a snapshot. Customers come back
// keyed by CPF in their serialized order; accounts keep insertion order.
func (s Snapshot) Restore() (uint64, []*customer.Customer, []*account.Account, error) {
	customers := make([]*customer.Customer, 0, len(s.Customers))
	for _, pc := range s.Customers {
		customers = append(customers, &customer.Customer{
			CPF:          pc.CPF,
			Name:         pc.Name,
			Address:      pc.Address,
			PasswordHash: []byte(pc.PasswordHash),
			TokenVersion: pc.TokenVersion,
			CreatedAt:    pc.CreatedAt,
		})
	}

	byCPF := make(map[string]*customer.Customer, len(customers))
	for _, c := range customers {
		byCPF[c.CPF] = c
	}

	accounts := make([]*account.Account, 0, len(s.Accounts))
	for _, pa := range s.Accounts {
		owner, ok := byCPF[pa.OwnerCPF]
		if !ok {
			return 0, nil, nil, fmt.Errorf("account %s references unknown customer %s", pa.Number, pa.OwnerCPF)
		}
		kind, err := account.ParseKind(pa.Kind)
		if err != nil {
			return 0, nil, nil, fmt.Errorf("account %s: %w", pa.Number, err)
		}
		balance, err := money.FromCents(pa.Balance)
		if err != nil {
			return 0, nil, nil, fmt.Errorf("account %s balance: %w", pa.Number, err)
		}

		var policy *account.CheckingPolicy
		if kind == account.KindChecking {
			capAmount, err := money.FromCents(pa.WithdrawalCap)
			if err != nil {
				return 0, nil, nil, fmt.Errorf("account %s withdrawal cap: %w", pa.Number, err)
			}
			policy = &account.CheckingPolicy{
				WithdrawalCap:   capAmount,
				MaxWithdrawals:  pa.MaxWithdrawals,
				ResetPeriod:     time.Duration(pa.ResetPeriodSec) * time.Second,
				WithdrawalsUsed: pa.WithdrawalsUsed,
				PeriodStart:     pa.PeriodStart,
			}
		}

		acc := account.New(pa.Number, pa.Agency, pa.OwnerCPF, kind, policy)
		acc.Balance = balance
		for _, op := range pa.Operations {
			amount, err := money.FromCents(op.Amount)
			if err != nil {
				return 0, nil, nil, fmt.Errorf("account %s operation %s: %w", pa.Number, op.ID, err)
			}
			acc.History.Append(account.Operation{
				ID:           op.ID,
				Kind:         account.OperationKind(op.Kind),
				Amount:       amount,
				At:           op.At,
				Counterparty: op.Counterparty,
			})
		}
		owner.AddAccount(acc.Number)
		accounts = append(accounts, acc)
	}

	return s.NextAccountSeq, customers, accounts, nil
}
