package access

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"policyregistry/pkg/domain"
)

// InMemoryStore keeps the owner in process memory.
type InMemoryStore struct {
	mu          sync.RWMutex
	owner       domain.Address
	initialized bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Bootstrap(_ context.Context, initial domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		s.owner = initial
		s.initialized = true
	}
	return nil
}

func (s *InMemoryStore) Owner(_ context.Context) (domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner, nil
}

func (s *InMemoryStore) CompareAndSwap(_ context.Context, old, next domain.Address) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner != old {
		return false, nil
	}
	s.owner = next
	return true, nil
}

// PostgresStore keeps the owner in the single-row registry_owner table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Bootstrap(ctx context.Context, initial domain.Address) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO registry_owner (id, owner) VALUES (1, $1)
		ON CONFLICT (id) DO NOTHING`, initial.Hex())
	if err != nil {
		return fmt.Errorf("bootstrap owner: %w", err)
	}
	return nil
}

func (s *PostgresStore) Owner(ctx context.Context) (domain.Address, error) {
	var owner domain.Address
	err := s.pool.QueryRow(ctx, `SELECT owner FROM registry_owner WHERE id = 1`).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ZeroAddress, nil
	}
	if err != nil {
		return domain.ZeroAddress, fmt.Errorf("load owner: %w", err)
	}
	return owner, nil
}

func (s *PostgresStore) CompareAndSwap(ctx context.Context, old, next domain.Address) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE registry_owner SET owner = $2, updated_at = now()
		WHERE id = 1 AND owner = $1`, old.Hex(), next.Hex())
	if err != nil {
		return false, fmt.Errorf("swap owner: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
