// Package payout implements the registry's Transferer by crediting an
// external payee account ledger.
package payout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"policyregistry/pkg/domain"
)

var (
	// ErrPayeeRefused is returned when the payee account does not accept funds.
	ErrPayeeRefused = errors.New("payee refused transfer")
	ErrZeroAmount   = errors.New("transfer amount must be positive")
)

// InMemoryLedger credits payee balances held in process memory.
type InMemoryLedger struct {
	mu       sync.Mutex
	balances map[domain.Address]domain.Amount
	blocked  map[domain.Address]bool
	logger   *slog.Logger
}

func NewInMemoryLedger(logger *slog.Logger, blocked ...domain.Address) *InMemoryLedger {
	l := &InMemoryLedger{
		balances: make(map[domain.Address]domain.Amount),
		blocked:  make(map[domain.Address]bool),
		logger:   logger,
	}
	for _, addr := range blocked {
		l.blocked[addr] = true
	}
	return l
}

func (l *InMemoryLedger) Transfer(ctx context.Context, to domain.Address, amount domain.Amount) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount.IsZero() {
		return ErrZeroAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.blocked[to] {
		return fmt.Errorf("payee %s: %w", to, ErrPayeeRefused)
	}
	next, err := l.balances[to].Add(amount)
	if err != nil {
		return fmt.Errorf("credit payee %s: %w", to, err)
	}
	l.balances[to] = next
	l.logger.InfoContext(ctx, "payout_credited", "payee", to.String(), "amount", amount.String())
	return nil
}

// Balance returns the total credited to addr.
func (l *InMemoryLedger) Balance(addr domain.Address) domain.Amount {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[addr]
}

func (l *InMemoryLedger) SetBlocked(addr domain.Address, blocked bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.blocked[addr] = blocked
}

// PostgresLedger credits the payout_accounts table.
type PostgresLedger struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresLedger(pool *pgxpool.Pool, logger *slog.Logger) *PostgresLedger {
	return &PostgresLedger{pool: pool, logger: logger}
}

func (l *PostgresLedger) Transfer(ctx context.Context, to domain.Address, amount domain.Amount) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount.IsZero() {
		return ErrZeroAmount
	}
	tag, err := l.pool.Exec(ctx, `
		INSERT INTO payout_accounts (address, balance) VALUES ($1, $2)
		ON CONFLICT (address) DO UPDATE
		SET balance = payout_accounts.balance + EXCLUDED.balance, updated_at = now()
		WHERE NOT payout_accounts.blocked`, to.Hex(), int64(amount))
	if err != nil {
		return fmt.Errorf("credit payee %s: %w", to, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payee %s: %w", to, ErrPayeeRefused)
	}
	l.logger.InfoContext(ctx, "payout_credited", "payee", to.String(), "amount", amount.String())
	return nil
}

func (l *PostgresLedger) Balance(ctx context.Context, addr domain.Address) (domain.Amount, error) {
	var balance int64
	err := l.pool.QueryRow(ctx, `SELECT balance FROM payout_accounts WHERE address = $1`, addr.Hex()).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load payee balance: %w", err)
	}
	return domain.Amount(balance), nil
}

// SetBlocked marks addr as refusing or accepting payouts.
func (l *PostgresLedger) SetBlocked(ctx context.Context, addr domain.Address, blocked bool) error {
	_, err := l.pool.Exec(ctx, `
		INSERT INTO payout_accounts (address, blocked) VALUES ($1, $2)
		ON CONFLICT (address) DO UPDATE SET blocked = EXCLUDED.blocked, updated_at = now()`,
		addr.Hex(), blocked)
	if err != nil {
		return fmt.Errorf("set payee blocked: %w", err)
	}
	return nil
}
