package statement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianbank/meridian/internal/account"
	"github.com/meridianbank/meridian/internal/bank"
	"github.com/meridianbank/meridian/internal/money"
)

func op(kind account.OperationKind, cents int64, id string) account.Operation {
	return account.Operation{
		ID:     id,
		Kind:   kind,
		Amount: money.MustFromCents(cents),
		At:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func view(balanceCents int64) bank.AccountView {
	return bank.AccountView{
		Number:  "0000001",
		Agency:  "0001",
		Kind:    account.KindSavings,
		Balance: money.MustFromCents(balanceCents),
	}
}

func TestSimpleBoundsTheWindow(t *testing.T) {
	var ops []account.Operation
	for i := 0; i < 15; i++ {
		ops = append(ops, op(account.OpDeposit, int64(100+i), ""))
	}

	st := Simple(view(10_000), ops, 0)
	require.Len(t, st.Entries, DefaultSimpleWindow)
	// The window keeps the most recent records, still in order.
	assert.Equal(t, "1.05", st.Entries[0].Amount)
	assert.Equal(t, "1.14", st.Entries[len(st.Entries)-1].Amount)
	assert.Equal(t, ModeSimple, st.Mode)
	assert.Equal(t, "100.00", st.Balance)
	assert.Empty(t, st.Entries[0].RunningBalance)
}

func TestSimpleEmptyHistory(t *testing.T) {
	st := Simple(view(0), nil, 5)
	assert.NotNil(t, st.Entries)
	assert.Empty(t, st.Entries)
}

func TestDetailedRunningBalance(t *testing.T) {
	ops := []account.Operation{
		op(account.OpDeposit, 10_000, "a"),
		op(account.OpWithdrawal, 2_500, "b"),
		op(account.OpTransferOut, 1_500, "c"),
		op(account.OpTransferIn, 500, "d"),
	}

	st := Detailed(view(6_500), ops)
	require.Len(t, st.Entries, 4)
	assert.Equal(t, "100.00", st.Entries[0].RunningBalance)
	assert.Equal(t, "75.00", st.Entries[1].RunningBalance)
	assert.Equal(t, "60.00", st.Entries[2].RunningBalance)
	assert.Equal(t, "65.00", st.Entries[3].RunningBalance)
	assert.Equal(t, ModeDetailed, st.Mode)
}
