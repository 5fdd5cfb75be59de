package service

import (
	"context"
	"errors"

	"policyregistry/internal/registry/models"
	"policyregistry/pkg/domain"
	dErrors "policyregistry/pkg/domain-errors"
	"policyregistry/pkg/platform/sentinel"
	"policyregistry/pkg/requestcontext"
)

// GetPolicyIDs returns the ids of policies opened by addr in creation order.
func (s *Service) GetPolicyIDs(ctx context.Context, addr domain.Address) ([]domain.PolicyID, error) {
	ids, err := s.store.ListPolicyIDs(ctx, addr)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list policy ids")
	}
	if ids == nil {
		ids = []domain.PolicyID{}
	}
	return ids, nil
}

// IsPolicyValid reports whether the policy is active and unexpired at the
// request time. Unknown ids are not valid.
func (s *Service) IsPolicyValid(ctx context.Context, id domain.PolicyID) (bool, error) {
	p, err := s.loadPolicy(ctx, id)
	if err != nil || p == nil {
		return false, err
	}
	return p.IsValidAt(requestcontext.Now(ctx)), nil
}

// GetPolicyDetails returns the policy's details, or zero details when unknown.
func (s *Service) GetPolicyDetails(ctx context.Context, id domain.PolicyID) (models.Details, error) {
	p, err := s.loadPolicy(ctx, id)
	if err != nil {
		return models.Details{}, err
	}
	return models.DetailsOf(p), nil
}

// GetPendingWithdrawal returns the amount addr may withdraw.
func (s *Service) GetPendingWithdrawal(ctx context.Context, addr domain.Address) (domain.Amount, error) {
	amount, err := s.store.PendingWithdrawal(ctx, addr)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pending withdrawal")
	}
	return amount, nil
}

// CurrentPolicy returns the most recently opened policy of addr, or nil.
func (s *Service) CurrentPolicy(ctx context.Context, addr domain.Address) (*models.Policy, error) {
	ids, err := s.GetPolicyIDs(ctx, addr)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	return s.loadPolicy(ctx, ids[len(ids)-1])
}

type ownerReporter interface {
	Owner(ctx context.Context) (domain.Address, error)
}

// Summary returns registry-wide counters and, when known, the configurer.
func (s *Service) Summary(ctx context.Context) (models.Summary, error) {
	state, err := s.store.State(ctx)
	if err != nil {
		return models.Summary{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registry state")
	}
	summary := models.Summary{
		MinimumPremium: state.MinimumPremium,
		PolicyCounter:  state.PolicyCounter,
		Balance:        state.Balance,
	}
	if r, ok := s.access.(ownerReporter); ok {
		owner, err := r.Owner(ctx)
		if err != nil {
			return models.Summary{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load owner")
		}
		summary.Owner = owner
	}
	return summary, nil
}

// loadPolicy reads through the cache. A missing policy returns nil, nil.
func (s *Service) loadPolicy(ctx context.Context, id domain.PolicyID) (*models.Policy, error) {
	if s.cache != nil {
		if p, ok := s.cache.Get(ctx, id); ok {
			return p, nil
		}
	}
	p, err := s.store.FindPolicy(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load policy")
	}
	if s.cache != nil {
		s.cache.Add(ctx, p)
	}
	return p, nil
}
