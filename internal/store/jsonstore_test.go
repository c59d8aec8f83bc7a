package store

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianbank/meridian/internal/account"
	"github.com/meridianbank/meridian/internal/customer"
	"github.com/meridianbank/meridian/internal/money"
)

func TestJSONStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.json")
	s := NewJSONStore(path)
	ctx := context.Background()

	owner := &customer.Customer{
		CPF:          "12345678901",
		Name:         "Ana",
		Address:      "Rua A, 1",
		PasswordHash: []byte("$2a$10$fakehash"),
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	acc := account.New("0000001", "0001", owner.CPF, account.KindChecking, &account.CheckingPolicy{
		WithdrawalCap:  money.MustFromCents(50_000),
		MaxWithdrawals: 3,
	})
	require.NoError(t, acc.Deposit(money.MustFromCents(100_000)))
	require.NoError(t, acc.Withdraw(money.MustFromCents(25_000)))

	snap := Build(2, []*customer.Customer{owner}, []*account.Account{acc})
	require.NoError(t, s.Save(ctx, snap))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, loaded.Meta.Version)
	assert.Equal(t, "json_snapshot", loaded.Meta.Storage)

	seq, customers, accounts, err := loaded.Restore()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), seq)
	require.Len(t, customers, 1)
	require.Len(t, accounts, 1)

	got := accounts[0]
	assert.Equal(t, int64(75_000), got.Balance.Cents())
	assert.Equal(t, account.KindChecking, got.Kind)
	require.NotNil(t, got.Policy)
	assert.Equal(t, 1, got.Policy.WithdrawalsUsed)
	assert.Equal(t, int64(50_000), got.Policy.WithdrawalCap.Cents())
	assert.Equal(t, 2, got.History.Len())
	assert.True(t, customers[0].Owns("0000001"))
}

func TestJSONStoreMissingFile(t *testing.T) {
	s := NewJSONStore(filepath.Join(t.TempDir(), "missing.json"))
	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestJSONStoreSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bank.json")
	s := NewJSONStore(path)

	snap := Build(1, nil, nil)
	require.NoError(t, s.Save(context.Background(), snap))

	_, err := os.Stat(path)
	require.NoError(t, err)
	_, err = os.Stat(path + ".tmp")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestRestoreRejectsOrphanAccount(t *testing.T) {
	snap := Snapshot{
		Accounts: []Account{{Number: "1", Agency: "0001", OwnerCPF: "00000000000", Kind: "savings"}},
	}
	_, _, _, err := snap.Restore()
	assert.Error(t, err)
}
