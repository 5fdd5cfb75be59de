package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"policyregistry/internal/registry/models"
	"policyregistry/internal/registry/service"
	"policyregistry/pkg/domain"
	dErrors "policyregistry/pkg/domain-errors"
	"policyregistry/pkg/platform/sentinel"
)

// OutboxChannel is the LISTEN/NOTIFY channel signalled when events are appended.
const OutboxChannel = "registry_outbox"

const uniqueViolation = "23505"

const defaultTxTimeout = 5 * time.Second

// PostgresStore persists registry state in PostgreSQL.
//
// Every transaction starts by locking the single registry_state row, which
// serializes mutations across processes sharing the database.
type PostgresStore struct {
	pool      *pgxpool.Pool
	txTimeout time.Duration
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, txTimeout: defaultTxTimeout}
}

func (s *PostgresStore) Bootstrap(ctx context.Context, minimumPremium domain.Amount) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO registry_state (id, policy_counter, minimum_premium, balance)
		VALUES (1, 0, $1, 0)
		ON CONFLICT (id) DO NOTHING`, int64(minimumPremium))
	if err != nil {
		return fmt.Errorf("bootstrap registry state: %w", err)
	}
	return nil
}

// RunInTx bounds transactions without a caller deadline by txTimeout.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(tx service.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var locked int
	err = tx.QueryRow(ctx, `SELECT id FROM registry_state WHERE id = 1 FOR UPDATE`).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("registry state not bootstrapped: %w", sentinel.ErrInvalidState)
	}
	if err != nil {
		return fmt.Errorf("lock registry state: %w", err)
	}

	if err := fn(&postgresTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindPolicy(ctx context.Context, id domain.PolicyID) (*models.Policy, error) {
	return findPolicy(ctx, s.pool, id, false)
}

func (s *PostgresStore) ListPolicyIDs(ctx context.Context, owner domain.Address) ([]domain.PolicyID, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM policies WHERE owner = $1 ORDER BY id`, owner.Hex())
	if err != nil {
		return nil, fmt.Errorf("list policy ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.PolicyID, error) {
		var id int64
		err := row.Scan(&id)
		return domain.PolicyID(id), err
	})
	if err != nil {
		return nil, fmt.Errorf("scan policy ids: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) PendingWithdrawal(ctx context.Context, addr domain.Address) (domain.Amount, error) {
	return pendingWithdrawal(ctx, s.pool, addr)
}

func (s *PostgresStore) State(ctx context.Context) (models.RegistryState, error) {
	return loadState(ctx, s.pool)
}

// PendingEvents returns up to limit undelivered outbox entries in sequence order.
func (s *PostgresStore) PendingEvents(ctx context.Context, limit int) ([]models.OutboxEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT sequence, event_id, event_type, occurred_at, payload
		FROM registry_outbox
		WHERE delivered_at IS NULL
		ORDER BY sequence
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.OutboxEntry, error) {
		var (
			e       models.OutboxEntry
			evType  string
			payload []byte
		)
		if err := row.Scan(&e.Sequence, &e.Event.ID, &evType, &e.Event.OccurredAt, &payload); err != nil {
			return e, err
		}
		e.Event.Type = models.EventType(evType)
		e.Event.Payload = payload
		e.Event.OccurredAt = e.Event.OccurredAt.UTC()
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan outbox: %w", err)
	}
	return entries, nil
}

// MarkDelivered stamps the given sequences as delivered. Already delivered
// entries keep their first timestamp.
func (s *PostgresStore) MarkDelivered(ctx context.Context, sequences []int64, at time.Time) error {
	if len(sequences) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE registry_outbox SET delivered_at = $2
		WHERE sequence = ANY($1) AND delivered_at IS NULL`, sequences, at)
	if err != nil {
		return fmt.Errorf("mark outbox delivered: %w", err)
	}
	return nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func loadState(ctx context.Context, q querier) (models.RegistryState, error) {
	var counter, minimum, balance int64
	err := q.QueryRow(ctx, `
		SELECT policy_counter, minimum_premium, balance
		FROM registry_state WHERE id = 1`).Scan(&counter, &minimum, &balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.RegistryState{}, nil
	}
	if err != nil {
		return models.RegistryState{}, fmt.Errorf("load registry state: %w", err)
	}
	return models.RegistryState{
		PolicyCounter:  domain.PolicyID(counter),
		MinimumPremium: domain.Amount(minimum),
		Balance:        domain.Amount(balance),
	}, nil
}

func findPolicy(ctx context.Context, q querier, id domain.PolicyID, lock bool) (*models.Policy, error) {
	query := `
		SELECT id, owner, coverage, premium, expiry, active, created_at, cancelled_at
		FROM policies WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	var (
		p                        models.Policy
		rawID, coverage, premium int64
		cancelledAt              *time.Time
	)
	err := q.QueryRow(ctx, query, int64(id)).Scan(
		&rawID, &p.Owner, &coverage, &premium, &p.Expiry, &p.Active, &p.CreatedAt, &cancelledAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find policy %d: %w", id, err)
	}
	p.ID = domain.PolicyID(rawID)
	p.Coverage = domain.Amount(coverage)
	p.Premium = domain.Amount(premium)
	p.Expiry = p.Expiry.UTC()
	p.CreatedAt = p.CreatedAt.UTC()
	if cancelledAt != nil {
		at := cancelledAt.UTC()
		p.CancelledAt = &at
	}
	return &p, nil
}

func pendingWithdrawal(ctx context.Context, q querier, addr domain.Address) (domain.Amount, error) {
	var amount int64
	err := q.QueryRow(ctx, `SELECT amount FROM pending_withdrawals WHERE address = $1`, addr.Hex()).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load pending withdrawal: %w", err)
	}
	return domain.Amount(amount), nil
}

// postgresTx runs inside the registry_state row lock taken by RunInTx.
type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) State(ctx context.Context) (models.RegistryState, error) {
	return loadState(ctx, t.tx)
}

func (t *postgresTx) SaveState(ctx context.Context, state models.RegistryState) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE registry_state
		SET policy_counter = $1, minimum_premium = $2, balance = $3
		WHERE id = 1`,
		int64(state.PolicyCounter), int64(state.MinimumPremium), int64(state.Balance))
	if err != nil {
		return fmt.Errorf("save registry state: %w", err)
	}
	return nil
}

func (t *postgresTx) InsertPolicy(ctx context.Context, p *models.Policy) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO policies (id, owner, coverage, premium, expiry, active, created_at, cancelled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		int64(p.ID), p.Owner.Hex(), int64(p.Coverage), int64(p.Premium),
		p.Expiry, p.Active, p.CreatedAt, p.CancelledAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("policy %s: %w", p.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert policy: %w", err)
	}
	return nil
}

func (t *postgresTx) FindPolicy(ctx context.Context, id domain.PolicyID) (*models.Policy, error) {
	return findPolicy(ctx, t.tx, id, true)
}

// UpdatePolicy writes the mutable columns. Identity and terms are immutable.
func (t *postgresTx) UpdatePolicy(ctx context.Context, p *models.Policy) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE policies SET active = $2, cancelled_at = $3 WHERE id = $1`,
		int64(p.ID), p.Active, p.CancelledAt)
	if err != nil {
		return fmt.Errorf("update policy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("policy %s: %w", p.ID, sentinel.ErrNotFound)
	}
	return nil
}

func (t *postgresTx) PendingWithdrawal(ctx context.Context, addr domain.Address) (domain.Amount, error) {
	return pendingWithdrawal(ctx, t.tx, addr)
}

// SetPendingWithdrawal upserts the balance; zero removes the row.
func (t *postgresTx) SetPendingWithdrawal(ctx context.Context, addr domain.Address, amount domain.Amount) error {
	var err error
	if amount.IsZero() {
		_, err = t.tx.Exec(ctx, `DELETE FROM pending_withdrawals WHERE address = $1`, addr.Hex())
	} else {
		_, err = t.tx.Exec(ctx, `
			INSERT INTO pending_withdrawals (address, amount) VALUES ($1, $2)
			ON CONFLICT (address) DO UPDATE SET amount = EXCLUDED.amount`,
			addr.Hex(), int64(amount))
	}
	if err != nil {
		return fmt.Errorf("set pending withdrawal: %w", err)
	}
	return nil
}

func (t *postgresTx) AppendEvent(ctx context.Context, ev models.Event) error {
	id := ev.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO registry_outbox (event_id, event_type, occurred_at, payload)
		VALUES ($1, $2, $3, $4)`,
		id, string(ev.Type), ev.OccurredAt, []byte(ev.Payload))
	if err != nil {
		return fmt.Errorf("append outbox event: %w", err)
	}
	// delivered to listeners on commit only
	if _, err := t.tx.Exec(ctx, `SELECT pg_notify($1, '')`, OutboxChannel); err != nil {
		return fmt.Errorf("notify outbox: %w", err)
	}
	return nil
}
