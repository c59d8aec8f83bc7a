package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists snapshots in PostgreSQL with the same full-rewrite
// contract as the JSON file store: Save replaces the whole state inside one
// transaction.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a Postgres-backed snapshot store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the snapshot tables when they do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS snapshot_meta (
    id SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
    version INT NOT NULL,
    next_account_seq BIGINT NOT NULL,
    written_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshot_customers (
    cpf TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    address TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    token_version INT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshot_accounts (
    number TEXT PRIMARY KEY,
    agency TEXT NOT NULL,
    owner_cpf TEXT NOT NULL REFERENCES snapshot_customers (cpf),
    kind TEXT NOT NULL,
    balance BIGINT NOT NULL,
    withdrawal_cap BIGINT NOT NULL DEFAULT 0,
    max_withdrawals INT NOT NULL DEFAULT 0,
    reset_period_sec BIGINT NOT NULL DEFAULT 0,
    withdrawals_used INT NOT NULL DEFAULT 0,
    period_start TIMESTAMPTZ,
    position INT NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshot_operations (
    id TEXT PRIMARY KEY,
    account_number TEXT NOT NULL REFERENCES snapshot_accounts (number) ON DELETE CASCADE,
    kind TEXT NOT NULL,
    amount BIGINT NOT NULL,
    at TIMESTAMPTZ NOT NULL,
    counterparty TEXT NOT NULL DEFAULT '',
    position INT NOT NULL
);`
	_, err := s.db.Exec(ctx, ddl)
	return err
}

// Load reassembles the snapshot. When no snapshot row exists the error
// satisfies errors.Is(err, fs.ErrNotExist) so callers bootstrap fresh state.
func (s *PostgresStore) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	row := s.db.QueryRow(ctx, `SELECT version, next_account_seq, written_at FROM snapshot_meta WHERE id = 1`)
	if err := row.Scan(&snap.Meta.Version, &snap.NextAccountSeq, &snap.Meta.Timestamp); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, fmt.Errorf("no snapshot stored: %w", fs.ErrNotExist)
		}
		return Snapshot{}, fmt.Errorf("load snapshot meta: %w", err)
	}
	snap.Meta.Storage = "postgres_snapshot"

	rows, err := s.db.Query(ctx, `SELECT cpf, name, address, password_hash, token_version, created_at
        FROM snapshot_customers ORDER BY created_at, cpf`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load customers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.CPF, &c.Name, &c.Address, &c.PasswordHash, &c.TokenVersion, &c.CreatedAt); err != nil {
			return Snapshot{}, fmt.Errorf("scan customer: %w", err)
		}
		snap.Customers = append(snap.Customers, c)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("load customers: %w", err)
	}

	accRows, err := s.db.Query(ctx, `SELECT number, agency, owner_cpf, kind, balance,
        withdrawal_cap, max_withdrawals, reset_period_sec, withdrawals_used, period_start
        FROM snapshot_accounts ORDER BY position`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load accounts: %w", err)
	}
	defer accRows.Close()
	index := make(map[string]int)
	for accRows.Next() {
		var a Account
		var periodStart *time.Time
		if err := accRows.Scan(&a.Number, &a.Agency, &a.OwnerCPF, &a.Kind, &a.Balance,
			&a.WithdrawalCap, &a.MaxWithdrawals, &a.ResetPeriodSec, &a.WithdrawalsUsed, &periodStart); err != nil {
			return Snapshot{}, fmt.Errorf("scan account: %w", err)
		}
		if periodStart != nil {
			a.PeriodStart = *periodStart
		}
		index[a.Number] = len(snap.Accounts)
		snap.Accounts = append(snap.Accounts, a)
	}
	if err := accRows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("load accounts: %w", err)
	}

	opRows, err := s.db.Query(ctx, `SELECT id, account_number, kind, amount, at, counterparty
        FROM snapshot_operations ORDER BY account_number, position`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load operations: %w", err)
	}
	defer opRows.Close()
	for opRows.Next() {
		var op Operation
		var number string
		if err := opRows.Scan(&op.ID, &number, &op.Kind, &op.Amount, &op.At, &op.Counterparty); err != nil {
			return Snapshot{}, fmt.Errorf("scan operation: %w", err)
		}
		i, ok := index[number]
		if !ok {
			return Snapshot{}, fmt.Errorf("operation %s references unknown account %s", op.ID, number)
		}
		snap.Accounts[i].Operations = append(snap.Accounts[i].Operations, op)
	}
	if err := opRows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("load operations: %w", err)
	}

	return snap, nil
}

// Save rewrites the stored snapshot in a single transaction.
func (s *PostgresStore) Save(ctx context.Context, snap Snapshot) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	for _, table := range []string{"snapshot_operations", "snapshot_accounts", "snapshot_customers", "snapshot_meta"} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if _, err := tx.Exec(ctx, `INSERT INTO snapshot_meta (id, version, next_account_seq, written_at)
        VALUES (1, $1, $2, $3)`, SchemaVersion, snap.NextAccountSeq, time.Now().UTC()); err != nil {
		return fmt.Errorf("write snapshot meta: %w", err)
	}

	for _, c := range snap.Customers {
		if _, err := tx.Exec(ctx, `INSERT INTO snapshot_customers (cpf, name, address, password_hash, token_version, created_at)
            VALUES ($1, $2, $3, $4, $5, $6)`,
			c.CPF, c.Name, c.Address, c.PasswordHash, c.TokenVersion, c.CreatedAt.UTC()); err != nil {
			return fmt.Errorf("write customer %s: %w", c.CPF, err)
		}
	}

	for i, a := range snap.Accounts {
		var periodStart *time.Time
		if !a.PeriodStart.IsZero() {
			t := a.PeriodStart.UTC()
			periodStart = &t
		}
		if _, err := tx.Exec(ctx, `INSERT INTO snapshot_accounts
            (number, agency, owner_cpf, kind, balance, withdrawal_cap, max_withdrawals,
             reset_period_sec, withdrawals_used, period_start, position)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			a.Number, a.Agency, a.OwnerCPF, a.Kind, a.Balance, a.WithdrawalCap,
			a.MaxWithdrawals, a.ResetPeriodSec, a.WithdrawalsUsed, periodStart, i); err != nil {
			return fmt.Errorf("write account %s: %w", a.Number, err)
		}
		for j, op := range a.Operations {
			if _, err := tx.Exec(ctx, `INSERT INTO snapshot_operations
                (id, account_number, kind, amount, at, counterparty, position)
                VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				op.ID, a.Number, op.Kind, op.Amount, op.At.UTC(), op.Counterparty, j); err != nil {
				return fmt.Errorf("write operation %s: %w", op.ID, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}
