package service

import (
	"context"

	"policyregistry/internal/registry/models"
	"policyregistry/pkg/domain"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// Store persists registry state. Mutations happen only inside RunInTx; reads
// outside a transaction see committed state.
type Store interface {
	// RunInTx runs fn as one atomic, serialized unit. When fn returns an
	// error nothing it wrote is kept.
	RunInTx(ctx context.Context, fn func(tx Tx) error) error

	// Bootstrap seeds the registry state once. Later calls are no-ops.
	Bootstrap(ctx context.Context, minimumPremium domain.Amount) error

	FindPolicy(ctx context.Context, id domain.PolicyID) (*models.Policy, error)
	ListPolicyIDs(ctx context.Context, owner domain.Address) ([]domain.PolicyID, error)
	PendingWithdrawal(ctx context.Context, addr domain.Address) (domain.Amount, error)
	State(ctx context.Context) (models.RegistryState, error)
}

// Tx is the view of the store inside a transaction. Reads lock what they return.
type Tx interface {
	State(ctx context.Context) (models.RegistryState, error)
	SaveState(ctx context.Context, state models.RegistryState) error

	InsertPolicy(ctx context.Context, p *models.Policy) error
	FindPolicy(ctx context.Context, id domain.PolicyID) (*models.Policy, error)
	UpdatePolicy(ctx context.Context, p *models.Policy) error

	PendingWithdrawal(ctx context.Context, addr domain.Address) (domain.Amount, error)
	SetPendingWithdrawal(ctx context.Context, addr domain.Address, amount domain.Amount) error

	// AppendEvent records an event for the outbox relay.
	AppendEvent(ctx context.Context, ev models.Event) error
}

// AccessController decides who may configure the registry.
type AccessController interface {
	IsAuthorized(ctx context.Context, caller domain.Address) (bool, error)
}

// Transferer moves value out of the registry. It either sends the full
// amount or returns an error.
type Transferer interface {
	Transfer(ctx context.Context, to domain.Address, amount domain.Amount) error
}

// PolicyCache is a read-through cache of policies by id.
type PolicyCache interface {
	Get(ctx context.Context, id domain.PolicyID) (*models.Policy, bool)
	// Add stores p unless an entry for its id already exists.
	Add(ctx context.Context, p *models.Policy)
	// Set stores p unconditionally.
	Set(ctx context.Context, p *models.Policy)
}
