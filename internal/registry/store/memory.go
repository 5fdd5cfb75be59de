package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"policyregistry/internal/registry/models"
	"policyregistry/internal/registry/service"
	"policyregistry/pkg/domain"
	dErrors "policyregistry/pkg/domain-errors"
	"policyregistry/pkg/platform/sentinel"
)

// InMemoryStore keeps registry state in process memory.
//
// Transactions are serialized by txMu and buffer their writes in an overlay
// that is applied under mu on commit, so readers never observe a partial
// transaction and a failed transaction leaves no trace.
type InMemoryStore struct {
	txMu sync.Mutex

	mu          sync.RWMutex
	initialized bool
	state       models.RegistryState
	policies    map[domain.PolicyID]*models.Policy
	idsByOwner  map[domain.Address][]domain.PolicyID
	pending     map[domain.Address]domain.Amount
	outbox      []models.OutboxEntry
	outboxHead  int // entries before head are delivered
	nextSeq     int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		policies:   make(map[domain.PolicyID]*models.Policy),
		idsByOwner: make(map[domain.Address][]domain.PolicyID),
		pending:    make(map[domain.Address]domain.Amount),
	}
}

func (s *InMemoryStore) Bootstrap(_ context.Context, minimumPremium domain.Amount) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}
	s.state.MinimumPremium = minimumPremium
	s.initialized = true
	return nil
}

func (s *InMemoryStore) RunInTx(ctx context.Context, fn func(tx service.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	tx := &memoryTx{
		base:     s,
		policies: make(map[domain.PolicyID]*models.Policy),
		pending:  make(map[domain.Address]domain.Amount),
	}
	if err := fn(tx); err != nil {
		return err
	}
	s.commit(tx)
	return nil
}

func (s *InMemoryStore) commit(tx *memoryTx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.state != nil {
		s.state = *tx.state
	}
	for id, p := range tx.policies {
		if _, exists := s.policies[id]; !exists {
			s.idsByOwner[p.Owner] = append(s.idsByOwner[p.Owner], id)
		}
		s.policies[id] = p
	}
	for addr, amount := range tx.pending {
		if amount.IsZero() {
			delete(s.pending, addr)
			continue
		}
		s.pending[addr] = amount
	}
	for _, ev := range tx.events {
		s.nextSeq++
		s.outbox = append(s.outbox, models.OutboxEntry{Sequence: s.nextSeq, Event: ev})
	}
}

func (s *InMemoryStore) FindPolicy(_ context.Context, id domain.PolicyID) (*models.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p.Clone(), nil
}

func (s *InMemoryStore) ListPolicyIDs(_ context.Context, owner domain.Address) ([]domain.PolicyID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.idsByOwner[owner]), nil
}

func (s *InMemoryStore) PendingWithdrawal(_ context.Context, addr domain.Address) (domain.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending[addr], nil
}

func (s *InMemoryStore) State(_ context.Context) (models.RegistryState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, nil
}

// PendingEvents returns up to limit undelivered outbox entries in order.
func (s *InMemoryStore) PendingEvents(_ context.Context, limit int) ([]models.OutboxEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.OutboxEntry
	for _, e := range s.outbox[s.outboxHead:] {
		if len(out) >= limit {
			break
		}
		if e.DeliveredAt == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

// MarkDelivered stamps the given sequences as delivered.
func (s *InMemoryStore) MarkDelivered(_ context.Context, sequences []int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, seq := range sequences {
		// sequences are dense and start at 1
		idx := int(seq - 1)
		if idx < 0 || idx >= len(s.outbox) {
			return fmt.Errorf("outbox sequence %d: %w", seq, sentinel.ErrNotFound)
		}
		if s.outbox[idx].DeliveredAt == nil {
			delivered := at
			s.outbox[idx].DeliveredAt = &delivered
		}
	}
	for s.outboxHead < len(s.outbox) && s.outbox[s.outboxHead].DeliveredAt != nil {
		s.outboxHead++
	}
	return nil
}

// Events returns every recorded event, delivered or not.
func (s *InMemoryStore) Events() []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Event, 0, len(s.outbox))
	for _, e := range s.outbox {
		out = append(out, e.Event)
	}
	return out
}

// memoryTx buffers writes until commit. Reads fall through to the committed
// state, which cannot change while txMu is held.
type memoryTx struct {
	base     *InMemoryStore
	state    *models.RegistryState
	policies map[domain.PolicyID]*models.Policy
	pending  map[domain.Address]domain.Amount
	events   []models.Event
}

func (t *memoryTx) State(ctx context.Context) (models.RegistryState, error) {
	if t.state != nil {
		return *t.state, nil
	}
	return t.base.State(ctx)
}

func (t *memoryTx) SaveState(_ context.Context, state models.RegistryState) error {
	t.state = &state
	return nil
}

func (t *memoryTx) InsertPolicy(ctx context.Context, p *models.Policy) error {
	if _, err := t.FindPolicy(ctx, p.ID); err == nil {
		return fmt.Errorf("policy %s: %w", p.ID, sentinel.ErrConflict)
	}
	t.policies[p.ID] = p.Clone()
	return nil
}

func (t *memoryTx) FindPolicy(ctx context.Context, id domain.PolicyID) (*models.Policy, error) {
	if p, ok := t.policies[id]; ok {
		return p.Clone(), nil
	}
	return t.base.FindPolicy(ctx, id)
}

func (t *memoryTx) UpdatePolicy(ctx context.Context, p *models.Policy) error {
	if _, err := t.FindPolicy(ctx, p.ID); err != nil {
		return err
	}
	t.policies[p.ID] = p.Clone()
	return nil
}

func (t *memoryTx) PendingWithdrawal(ctx context.Context, addr domain.Address) (domain.Amount, error) {
	if amount, ok := t.pending[addr]; ok {
		return amount, nil
	}
	return t.base.PendingWithdrawal(ctx, addr)
}

func (t *memoryTx) SetPendingWithdrawal(_ context.Context, addr domain.Address, amount domain.Amount) error {
	t.pending[addr] = amount
	return nil
}

func (t *memoryTx) AppendEvent(_ context.Context, ev models.Event) error {
	t.events = append(t.events, ev)
	return nil
}
