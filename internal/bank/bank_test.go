package bank

import (
	"context"
	"errors"
	"io/fs"
	"testing"

	"github.com/meridianbank/meridian/internal/account"
	"github.com/meridianbank/meridian/internal/customer"
	"github.com/meridianbank/meridian/internal/logging"
	"github.com/meridianbank/meridian/internal/money"
	"github.com/meridianbank/meridian/internal/store"
)

// memStore keeps the last snapshot in memory and counts saves.
type memStore struct {
	snap     *store.Snapshot
	saves    int
	failSave bool
}

func (m *memStore) Load(context.Context) (store.Snapshot, error) {
	if m.snap == nil {
		return store.Snapshot{}, fs.ErrNotExist
	}
	return *m.snap, nil
}

func (m *memStore) Save(_ context.Context, snap store.Snapshot) error {
	m.saves++
	if m.failSave {
		return errors.New("disk full")
	}
	m.snap = &snap
	return nil
}

func cents(v int64) money.Money { return money.MustFromCents(v) }

func testConfig() Config {
	return Config{
		Agency:                 "0001",
		CheckingCap:            cents(50_000),
		CheckingMaxWithdrawals: 3,
	}
}

func newService(t *testing.T, st store.Store) *Service {
	t.Helper()
	svc, err := Load(context.Background(), st, testConfig(), Bootstrap{
		AdminCPF:          "00000000000",
		AdminName:         "admin",
		AdminPasswordHash: []byte("hash"),
	}, logging.Discard())
	if err != nil {
		t.Fatalf("load bank: %v", err)
	}
	return svc
}

func register(t *testing.T, svc *Service, cpf string) customer.Customer {
	t.Helper()
	c, err := svc.RegisterCustomer(context.Background(), RegisterInput{
		CPF:          cpf,
		Name:         "Ana",
		Address:      "Rua A, 1",
		PasswordHash: []byte("hash"),
	})
	if err != nil {
		t.Fatalf("register customer: %v", err)
	}
	return c
}

func TestBootstrapCreatesAdminAndPersists(t *testing.T) {
	st := &memStore{}
	svc := newService(t, st)

	if st.saves != 1 {
		t.Fatalf("bootstrap must persist immediately, saves=%d", st.saves)
	}
	admin, err := svc.CustomerByCPF(context.Background(), "00000000000")
	if err != nil {
		t.Fatalf("admin not present: %v", err)
	}
	if admin.Name != "admin" {
		t.Fatalf("unexpected admin: %+v", admin)
	}
}

func TestRegisterCustomerDuplicate(t *testing.T) {
	svc := newService(t, &memStore{})
	ctx := context.Background()

	register(t, svc, "11122233344")
	_, err := svc.RegisterCustomer(ctx, RegisterInput{CPF: "11122233344", Name: "Bia"})
	if !errors.Is(err, ErrDuplicateCustomer) {
		t.Fatalf("expected duplicate customer, got %v", err)
	}

	// Admin plus the single registration.
	if _, err := svc.CustomerByCPF(ctx, "11122233344"); err != nil {
		t.Fatalf("first registration lost: %v", err)
	}
}

func TestRegisterCustomerValidatesCPF(t *testing.T) {
	svc := newService(t, &memStore{})
	_, err := svc.RegisterCustomer(context.Background(), RegisterInput{CPF: "123", Name: "Ana"})
	if !errors.Is(err, customer.ErrInvalidIdentifier) {
		t.Fatalf("expected invalid identifier, got %v", err)
	}
}

func TestOpenAccountNumbersAreUnique(t *testing.T) {
	svc := newService(t, &memStore{})
	ctx := context.Background()
	register(t, svc, "11122233344")

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		v, err := svc.OpenAccount(ctx, "11122233344", account.KindSavings)
		if err != nil {
			t.Fatalf("open account: %v", err)
		}
		if seen[v.Number] {
			t.Fatalf("duplicate account number %s", v.Number)
		}
		seen[v.Number] = true
		if v.Agency != "0001" {
			t.Fatalf("unexpected agency %s", v.Agency)
		}
	}

	owned := svc.AccountsByOwner(ctx, "11122233344")
	if len(owned) != 5 {
		t.Fatalf("expected 5 owned accounts, got %d", len(owned))
	}
}

func TestOperationsRequireOwnership(t *testing.T) {
	svc := newService(t, &memStore{})
	ctx := context.Background()
	register(t, svc, "11122233344")
	register(t, svc, "55566677788")

	acc, err := svc.OpenAccount(ctx, "11122233344", account.KindSavings)
	if err != nil {
		t.Fatalf("open account: %v", err)
	}

	if _, err := svc.Deposit(ctx, "55566677788", acc.Number, cents(1_000)); !errors.Is(err, ErrAccountNotOwned) {
		t.Fatalf("expected not-owned error, got %v", err)
	}
	if _, err := svc.Withdraw(ctx, "55566677788", acc.Number, cents(1_000)); !errors.Is(err, ErrAccountNotOwned) {
		t.Fatalf("expected not-owned error, got %v", err)
	}
	if _, err := svc.Operations(ctx, "55566677788", acc.Number); !errors.Is(err, ErrAccountNotOwned) {
		t.Fatalf("expected not-owned error, got %v", err)
	}
}

func TestDepositWithdrawFlushesSnapshot(t *testing.T) {
	st := &memStore{}
	svc := newService(t, st)
	ctx := context.Background()
	register(t, svc, "11122233344")
	acc, _ := svc.OpenAccount(ctx, "11122233344", account.KindSavings)

	before := st.saves
	if _, err := svc.Deposit(ctx, "11122233344", acc.Number, cents(10_000)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if st.saves != before+1 {
		t.Fatalf("deposit must flush exactly once, saves went %d -> %d", before, st.saves)
	}

	// Failed operations must not flush.
	before = st.saves
	if _, err := svc.Withdraw(ctx, "11122233344", acc.Number, cents(99_000)); !errors.Is(err, account.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if st.saves != before {
		t.Fatalf("failed withdrawal must not flush, saves went %d -> %d", before, st.saves)
	}
}

func TestTransferKeepsTotalBalance(t *testing.T) {
	svc := newService(t, &memStore{})
	ctx := context.Background()
	register(t, svc, "11122233344")
	register(t, svc, "55566677788")

	src, _ := svc.OpenAccount(ctx, "11122233344", account.KindSavings)
	dst, _ := svc.OpenAccount(ctx, "55566677788", account.KindSavings)
	if _, err := svc.Deposit(ctx, "11122233344", src.Number, cents(10_000)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	res, err := svc.Transfer(ctx, "11122233344", src.Number, dst.Number, cents(4_000))
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if res.From.Balance.Cents() != 6_000 || res.To.Balance.Cents() != 4_000 {
		t.Fatalf("unexpected balances: %+v", res)
	}

	// Failed transfer leaves both sides untouched.
	if _, err := svc.Transfer(ctx, "11122233344", src.Number, dst.Number, cents(99_000)); !errors.Is(err, account.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	a, _ := svc.Account(ctx, src.Number)
	b, _ := svc.Account(ctx, dst.Number)
	if a.Balance.Cents()+b.Balance.Cents() != 10_000 {
		t.Fatalf("total balance drifted: %d", a.Balance.Cents()+b.Balance.Cents())
	}
}

func TestTransferSourceMustBeOwned(t *testing.T) {
	svc := newService(t, &memStore{})
	ctx := context.Background()
	register(t, svc, "11122233344")
	register(t, svc, "55566677788")

	src, _ := svc.OpenAccount(ctx, "11122233344", account.KindSavings)
	dst, _ := svc.OpenAccount(ctx, "55566677788", account.KindSavings)

	if _, err := svc.Transfer(ctx, "55566677788", src.Number, dst.Number, cents(100)); !errors.Is(err, ErrAccountNotOwned) {
		t.Fatalf("expected not-owned error, got %v", err)
	}
	if _, err := svc.Transfer(ctx, "11122233344", src.Number, "9999999", cents(100)); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected account not found, got %v", err)
	}
}

func TestCheckingAccountScenario(t *testing.T) {
	// Cap 500.00, max 3 withdrawals: the canonical checking walkthrough.
	svc := newService(t, &memStore{})
	ctx := context.Background()
	register(t, svc, "11122233344")
	acc, err := svc.OpenAccount(ctx, "11122233344", account.KindChecking)
	if err != nil {
		t.Fatalf("open checking account: %v", err)
	}

	if _, err := svc.Deposit(ctx, "11122233344", acc.Number, cents(100_000)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if v, err := svc.Withdraw(ctx, "11122233344", acc.Number, cents(40_000)); err != nil || v.Balance.Cents() != 60_000 {
		t.Fatalf("withdraw 400: v=%+v err=%v", v, err)
	}
	if _, err := svc.Withdraw(ctx, "11122233344", acc.Number, cents(60_000)); !errors.Is(err, account.ErrAmountExceedsCap) {
		t.Fatalf("expected cap error, got %v", err)
	}
	if v, err := svc.Withdraw(ctx, "11122233344", acc.Number, cents(50_000)); err != nil || v.Balance.Cents() != 10_000 || v.WithdrawalsUsed != 2 {
		t.Fatalf("withdraw 500: v=%+v err=%v", v, err)
	}
	if v, err := svc.Withdraw(ctx, "11122233344", acc.Number, cents(1_000)); err != nil || v.Balance.Cents() != 9_000 || v.WithdrawalsUsed != 3 {
		t.Fatalf("withdraw 10: v=%+v err=%v", v, err)
	}
	if _, err := svc.Withdraw(ctx, "11122233344", acc.Number, cents(1_000)); !errors.Is(err, account.ErrWithdrawalLimitExceeded) {
		t.Fatalf("expected withdrawal limit error, got %v", err)
	}
}

func TestRestartRoundTrip(t *testing.T) {
	st := &memStore{}
	svc := newService(t, st)
	ctx := context.Background()
	register(t, svc, "11122233344")
	acc, _ := svc.OpenAccount(ctx, "11122233344", account.KindChecking)
	if _, err := svc.Deposit(ctx, "11122233344", acc.Number, cents(100_000)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := svc.Withdraw(ctx, "11122233344", acc.Number, cents(25_000)); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	// Reload from the same store, as a process restart would.
	svc2 := newService(t, st)
	v, err := svc2.Account(ctx, acc.Number)
	if err != nil {
		t.Fatalf("account after reload: %v", err)
	}
	if v.Balance.Cents() != 75_000 || v.WithdrawalsUsed != 1 {
		t.Fatalf("state lost across reload: %+v", v)
	}
	ops, err := svc2.Operations(ctx, "11122233344", acc.Number)
	if err != nil {
		t.Fatalf("operations after reload: %v", err)
	}
	if len(ops) != 2 || ops[0].Kind != account.OpDeposit || ops[1].Kind != account.OpWithdrawal {
		t.Fatalf("history lost across reload: %+v", ops)
	}

	// New accounts must not reuse numbers from before the restart.
	next, err := svc2.OpenAccount(ctx, "11122233344", account.KindSavings)
	if err != nil {
		t.Fatalf("open account after reload: %v", err)
	}
	if next.Number == acc.Number {
		t.Fatalf("account number reused after reload: %s", next.Number)
	}
}

func TestSaveFailureKeepsMemoryAuthoritative(t *testing.T) {
	st := &memStore{}
	svc := newService(t, st)
	ctx := context.Background()
	register(t, svc, "11122233344")
	acc, _ := svc.OpenAccount(ctx, "11122233344", account.KindSavings)

	st.failSave = true
	v, err := svc.Deposit(ctx, "11122233344", acc.Number, cents(5_000))
	if err != nil {
		t.Fatalf("deposit must succeed despite save failure: %v", err)
	}
	if v.Balance.Cents() != 5_000 {
		t.Fatalf("in-memory state must reflect the deposit: %+v", v)
	}
	if !svc.Degraded() {
		t.Fatalf("service should report degraded persistence")
	}

	st.failSave = false
	if _, err := svc.Withdraw(ctx, "11122233344", acc.Number, cents(1_000)); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if svc.Degraded() {
		t.Fatalf("degraded flag should clear after a successful save")
	}
}
