package cache

import (
	"context"

	"policyregistry/internal/registry/models"
	"policyregistry/internal/registry/service"
	"policyregistry/pkg/domain"
)

// Tiered checks the local layer before the shared one and backfills the
// local layer on shared hits.
type Tiered struct {
	local  service.PolicyCache
	shared service.PolicyCache
}

func NewTiered(local, shared service.PolicyCache) *Tiered {
	return &Tiered{local: local, shared: shared}
}

func (t *Tiered) Get(ctx context.Context, id domain.PolicyID) (*models.Policy, bool) {
	if p, ok := t.local.Get(ctx, id); ok {
		return p, true
	}
	p, ok := t.shared.Get(ctx, id)
	if !ok {
		return nil, false
	}
	t.local.Add(ctx, p)
	return p, true
}

func (t *Tiered) Add(ctx context.Context, p *models.Policy) {
	t.shared.Add(ctx, p)
	t.local.Add(ctx, p)
}

func (t *Tiered) Set(ctx context.Context, p *models.Policy) {
	t.shared.Set(ctx, p)
	t.local.Set(ctx, p)
}
