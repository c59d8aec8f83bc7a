// Package bank is the registry owning every customer and account, and the
// orchestrator for all monetary operations performed against them. Each
// successful mutation is followed by a synchronous snapshot flush.
package bank

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/meridianbank/meridian/internal/account"
	"github.com/meridianbank/meridian/internal/customer"
	"github.com/meridianbank/meridian/internal/money"
	"github.com/meridianbank/meridian/internal/obs"
	"github.com/meridianbank/meridian/internal/store"
)

// Config carries the product parameters applied to new accounts.
type Config struct {
	Agency                 string
	CheckingCap            money.Money
	CheckingMaxWithdrawals int
	CheckingResetPeriod    time.Duration
}

// Bootstrap describes the administrative customer created when no snapshot
// exists yet.
type Bootstrap struct {
	AdminCPF          string
	AdminName         string
	AdminPasswordHash []byte
}

// Service owns the in-memory state and serializes every mutation behind one
// write lock, which also keeps the two legs of a transfer atomic.
type Service struct {
	mu     sync.RWMutex
	store  store.Store
	logger *slog.Logger
	cfg    Config

	customers  map[string]*customer.Customer
	order      []string // customer CPFs in registration order
	accounts   []*account.Account
	byNumber   map[string]*account.Account
	nextSeq    uint64
	saveFailed bool
}

// Load restores the service from the snapshot store. When no snapshot exists
// or it cannot be read, a fresh state with the bootstrap admin is created and
// persisted immediately.
func Load(ctx context.Context, st store.Store, cfg Config, boot Bootstrap, logger *slog.Logger) (*Service, error) {
	s := &Service{
		store:     st,
		logger:    logger,
		cfg:       cfg,
		customers: make(map[string]*customer.Customer),
		byNumber:  make(map[string]*account.Account),
		nextSeq:   1,
	}

	snap, err := st.Load(ctx)
	if err != nil {
		logger.Warn("snapshot unavailable, starting fresh", "error", err)
		return s.bootstrap(ctx, boot)
	}

	seq, customers, accounts, err := snap.Restore()
	if err != nil {
		logger.Warn("snapshot unreadable, starting fresh", "error", err)
		return s.bootstrap(ctx, boot)
	}

	s.nextSeq = seq
	if s.nextSeq == 0 {
		s.nextSeq = 1
	}
	for _, c := range customers {
		s.customers[c.CPF] = c
		s.order = append(s.order, c.CPF)
	}
	s.accounts = accounts
	for _, a := range accounts {
		s.byNumber[a.Number] = a
	}
	logger.Info("snapshot restored", "customers", len(customers), "accounts", len(accounts))
	return s, nil
}

func (s *Service) bootstrap(ctx context.Context, boot Bootstrap) (*Service, error) {
	if boot.AdminCPF != "" {
		admin := &customer.Customer{
			CPF:          boot.AdminCPF,
			Name:         boot.AdminName,
			Address:      "",
			PasswordHash: boot.AdminPasswordHash,
			CreatedAt:    time.Now().UTC(),
		}
		s.customers[admin.CPF] = admin
		s.order = append(s.order, admin.CPF)
	}
	s.flush(ctx)
	return s, nil
}

// RegisterInput carries the fields needed to register a customer. The
// password arrives already hashed; the bank never sees raw credentials.
type RegisterInput struct {
	CPF          string
	Name         string
	Address      string
	PasswordHash []byte
}

// RegisterCustomer adds a customer keyed by CPF.
func (s *Service) RegisterCustomer(ctx context.Context, in RegisterInput) (customer.Customer, error) {
	if err := customer.ValidateCPF(in.CPF); err != nil {
		return customer.Customer{}, err
	}
	if in.Name == "" {
		return customer.Customer{}, fmt.Errorf("%w: name is required", customer.ErrInvalidIdentifier)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customers[in.CPF]; exists {
		return customer.Customer{}, ErrDuplicateCustomer
	}
	c := &customer.Customer{
		CPF:          in.CPF,
		Name:         in.Name,
		Address:      in.Address,
		PasswordHash: in.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	s.customers[c.CPF] = c
	s.order = append(s.order, c.CPF)
	s.flush(ctx)
	obs.CountOperation("register_customer", nil)
	return *c, nil
}

// CustomerByCPF returns a copy of the customer with the given natural key.
func (s *Service) CustomerByCPF(_ context.Context, cpf string) (customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[cpf]
	if !ok {
		return customer.Customer{}, ErrCustomerNotFound
	}
	out := *c
	out.Accounts = append([]string(nil), c.Accounts...)
	return out, nil
}

// BumpTokenVersion invalidates previously issued tokens for the customer.
func (s *Service) BumpTokenVersion(ctx context.Context, cpf string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[cpf]
	if !ok {
		return 0, ErrCustomerNotFound
	}
	c.TokenVersion++
	s.flush(ctx)
	return c.TokenVersion, nil
}

// AccountView is a read-only projection of an account.
type AccountView struct {
	Number          string
	Agency          string
	Owner           string
	Kind            account.Kind
	Balance         money.Money
	WithdrawalsUsed int
	MaxWithdrawals  int
}

func viewOf(a *account.Account) AccountView {
	v := AccountView{
		Number:  a.Number,
		Agency:  a.Agency,
		Owner:   a.Owner,
		Kind:    a.Kind,
		Balance: a.Balance,
	}
	if a.Policy != nil {
		v.WithdrawalsUsed = a.Policy.WithdrawalsUsed
		v.MaxWithdrawals = a.Policy.MaxWithdrawals
	}
	return v
}

// OpenAccount creates an account of the requested kind for the customer,
// registers it and links it to the owner. Account numbers come from a
// monotonic counter persisted with the snapshot.
func (s *Service) OpenAccount(ctx context.Context, cpf string, kind account.Kind) (AccountView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, ok := s.customers[cpf]
	if !ok {
		return AccountView{}, ErrCustomerNotFound
	}

	var policy *account.CheckingPolicy
	if kind == account.KindChecking {
		policy = &account.CheckingPolicy{
			WithdrawalCap:  s.cfg.CheckingCap,
			MaxWithdrawals: s.cfg.CheckingMaxWithdrawals,
			ResetPeriod:    s.cfg.CheckingResetPeriod,
		}
	}

	number := fmt.Sprintf("%07d", s.nextSeq)
	s.nextSeq++

	acc := account.New(number, s.cfg.Agency, owner.CPF, kind, policy)
	s.accounts = append(s.accounts, acc)
	s.byNumber[number] = acc
	owner.AddAccount(number)

	s.flush(ctx)
	obs.CountOperation("open_account", nil)
	return viewOf(acc), nil
}

// Account returns a read-only view of any account, without ownership checks.
// Lookups for missing accounts report ErrAccountNotFound rather than panic.
func (s *Service) Account(_ context.Context, number string) (AccountView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byNumber[number]
	if !ok {
		return AccountView{}, ErrAccountNotFound
	}
	return viewOf(a), nil
}

// AccountsByOwner lists the accounts owned by the given customer, in
// creation order. Unknown customers yield an empty list, not an error.
func (s *Service) AccountsByOwner(_ context.Context, cpf string) []AccountView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[cpf]
	if !ok {
		return nil
	}
	out := make([]AccountView, 0, len(c.Accounts))
	for _, number := range c.Accounts {
		if a, ok := s.byNumber[number]; ok {
			out = append(out, viewOf(a))
		}
	}
	return out
}

// authorized resolves an account and enforces that the customer owns it.
// Callers must hold the lock.
func (s *Service) authorized(cpf, number string) (*account.Account, error) {
	c, ok := s.customers[cpf]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	a, ok := s.byNumber[number]
	if !ok {
		return nil, ErrAccountNotFound
	}
	if !c.Owns(number) {
		return nil, ErrAccountNotOwned
	}
	return a, nil
}

// Deposit credits an owned account.
func (s *Service) Deposit(ctx context.Context, cpf, number string, amount money.Money) (AccountView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.authorized(cpf, number)
	if err != nil {
		return AccountView{}, err
	}
	if err := a.Deposit(amount); err != nil {
		obs.CountOperation("deposit", err)
		return AccountView{}, err
	}
	s.flush(ctx)
	obs.CountOperation("deposit", nil)
	return viewOf(a), nil
}

// Withdraw debits an owned account, applying the checking policy when present.
func (s *Service) Withdraw(ctx context.Context, cpf, number string, amount money.Money) (AccountView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.authorized(cpf, number)
	if err != nil {
		return AccountView{}, err
	}
	if err := a.Withdraw(amount); err != nil {
		obs.CountOperation("withdraw", err)
		return AccountView{}, err
	}
	s.flush(ctx)
	obs.CountOperation("withdraw", nil)
	return viewOf(a), nil
}

// TransferResult reports both sides of a completed transfer.
type TransferResult struct {
	From        AccountView
	To          AccountView
	Amount      money.Money
	CompletedAt time.Time
}

// Transfer moves funds from an owned source account to any registered
// destination. Both legs run under the same critical section, so the total
// balance across the pair is invariant whether the transfer succeeds or fails.
func (s *Service) Transfer(ctx context.Context, cpf, fromNumber, toNumber string, amount money.Money) (TransferResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, err := s.authorized(cpf, fromNumber)
	if err != nil {
		return TransferResult{}, err
	}
	dst, ok := s.byNumber[toNumber]
	if !ok {
		return TransferResult{}, ErrAccountNotFound
	}

	if err := src.TransferTo(dst, amount); err != nil {
		obs.CountOperation("transfer", err)
		return TransferResult{}, err
	}
	s.flush(ctx)
	obs.CountOperation("transfer", nil)
	return TransferResult{
		From:        viewOf(src),
		To:          viewOf(dst),
		Amount:      amount,
		CompletedAt: time.Now().UTC(),
	}, nil
}

// Operations returns copies of an owned account's history records, optionally
// filtered by kind, in the order the operations happened.
func (s *Service) Operations(_ context.Context, cpf, number string, kinds ...account.OperationKind) ([]account.Operation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, err := s.authorized(cpf, number)
	if err != nil {
		return nil, err
	}
	return a.History.List(kinds...), nil
}

// flush rewrites the full snapshot. A failed save is logged and remembered
// but does not undo the in-memory mutation: memory stays the source of truth
// for the rest of the session. Callers must hold the write lock.
func (s *Service) flush(ctx context.Context) {
	customers := make([]*customer.Customer, 0, len(s.order))
	for _, cpf := range s.order {
		customers = append(customers, s.customers[cpf])
	}
	snap := store.Build(s.nextSeq, customers, s.accounts)
	if err := s.store.Save(ctx, snap); err != nil {
		s.saveFailed = true
		s.logger.Error("snapshot save failed, in-memory state remains authoritative", "error", err)
		return
	}
	s.saveFailed = false
}

// Degraded reports whether the most recent snapshot save failed.
func (s *Service) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saveFailed
}
