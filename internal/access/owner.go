// Package access implements single-owner authorization for registry
// configuration. The owner may hand the role to another address or renounce
// it, after which nobody is authorized.
package access

import (
	"context"
	"log/slog"

	"policyregistry/pkg/domain"
	dErrors "policyregistry/pkg/domain-errors"
	"policyregistry/pkg/requestcontext"
)

// Store persists the current owner.
type Store interface {
	// Bootstrap records initial unless an owner is already stored.
	Bootstrap(ctx context.Context, initial domain.Address) error
	Owner(ctx context.Context) (domain.Address, error)
	// CompareAndSwap replaces old with next and reports whether old was current.
	CompareAndSwap(ctx context.Context, old, next domain.Address) (bool, error)
}

// Owner is the registry's AccessController.
type Owner struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Owner)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Owner) { o.logger = logger }
}

// New bootstraps the store with initial and returns the controller.
func New(ctx context.Context, store Store, initial domain.Address, opts ...Option) (*Owner, error) {
	if initial.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "initial owner must be a non-zero address")
	}
	o := &Owner{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	if err := store.Bootstrap(ctx, initial); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to bootstrap owner")
	}
	return o, nil
}

// IsAuthorized reports whether caller is the current owner.
func (o *Owner) IsAuthorized(ctx context.Context, caller domain.Address) (bool, error) {
	owner, err := o.store.Owner(ctx)
	if err != nil {
		return false, err
	}
	return !owner.IsZero() && owner == caller, nil
}

func (o *Owner) Owner(ctx context.Context) (domain.Address, error) {
	return o.store.Owner(ctx)
}

// TransferOwnership moves the role from caller to next.
func (o *Owner) TransferOwnership(ctx context.Context, caller, next domain.Address) error {
	if next.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "new owner must be a non-zero address")
	}
	return o.swap(ctx, caller, next)
}

// RenounceOwnership leaves the registry without an owner. It cannot be undone.
func (o *Owner) RenounceOwnership(ctx context.Context, caller domain.Address) error {
	return o.swap(ctx, caller, domain.ZeroAddress)
}

func (o *Owner) swap(ctx context.Context, caller, next domain.Address) error {
	if caller.IsZero() {
		return dErrors.New(dErrors.CodeForbidden, "caller is not the owner")
	}
	ok, err := o.store.CompareAndSwap(ctx, caller, next)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update owner")
	}
	if !ok {
		return dErrors.New(dErrors.CodeForbidden, "caller is not the owner")
	}

	args := []any{
		"previous_owner", caller.String(),
		"new_owner", next.String(),
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	args = append(args, "event", "ownership_transferred", "log_type", "audit")
	o.logger.InfoContext(ctx, "ownership_transferred", args...)
	return nil
}
