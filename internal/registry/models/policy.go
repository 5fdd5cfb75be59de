package models

import (
	"time"

	"policyregistry/pkg/domain"
	dErrors "policyregistry/pkg/domain-errors"
)

// TimePrecision is the resolution of stored policy timestamps. Postgres
// TIMESTAMPTZ keeps microseconds, so values are truncated before they are
// returned to callers or persisted.
const TimePrecision = time.Microsecond

// Policy is an insurance policy held by the account that opened it.
//
// Invariants:
//   - ID, Owner, Coverage, Premium and Expiry never change after creation
//   - Coverage > 0 and Expiry > CreatedAt at creation
//   - Active only moves true -> false
type Policy struct {
	ID          domain.PolicyID `json:"policy_id"`
	Owner       domain.Address  `json:"owner"`
	Coverage    domain.Amount   `json:"coverage"`
	Premium     domain.Amount   `json:"premium"`
	Expiry      time.Time       `json:"expiry"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	CancelledAt *time.Time      `json:"cancelled_at,omitempty"`
}

// NewPolicy builds an active policy. Callers validate inputs first; this
// only guards the structural invariants.
func NewPolicy(id domain.PolicyID, owner domain.Address, coverage, premium domain.Amount, duration time.Duration, now time.Time) (*Policy, error) {
	if id.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "policy id must be assigned")
	}
	if coverage.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "coverage must be positive")
	}
	if duration <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "duration must be positive")
	}
	now = now.UTC().Truncate(TimePrecision)
	return &Policy{
		ID:        id,
		Owner:     owner,
		Coverage:  coverage,
		Premium:   premium,
		Expiry:    now.Add(duration),
		Active:    true,
		CreatedAt: now,
	}, nil
}

// IsValidAt reports whether the policy is active and not yet expired.
// The expiry instant itself is already invalid.
func (p *Policy) IsValidAt(now time.Time) bool {
	return p.Active && now.Before(p.Expiry)
}

// IsOwnedBy reports whether addr opened the policy.
func (p *Policy) IsOwnedBy(addr domain.Address) bool {
	return p.Owner == addr
}

// Refund is the amount credited when the policy is cancelled: half the
// premium, rounded down.
func (p *Policy) Refund() domain.Amount {
	return p.Premium.Half()
}

// Cancel deactivates the policy and returns the refund owed to its owner.
func (p *Policy) Cancel(now time.Time) (domain.Amount, error) {
	if !p.Active {
		return 0, dErrors.New(dErrors.CodeAlreadyInactive, "policy already inactive")
	}
	p.Active = false
	at := now.UTC().Truncate(TimePrecision)
	p.CancelledAt = &at
	return p.Refund(), nil
}

// Clone returns a deep copy.
func (p *Policy) Clone() *Policy {
	if p == nil {
		return nil
	}
	c := *p
	if p.CancelledAt != nil {
		at := *p.CancelledAt
		c.CancelledAt = &at
	}
	return &c
}

// Details is the public view of a policy. The zero value describes an
// unknown policy.
type Details struct {
	Coverage domain.Amount `json:"coverage"`
	Premium  domain.Amount `json:"premium"`
	Expiry   time.Time     `json:"expiry"`
	Active   bool          `json:"active"`
}

// DetailsOf returns p's details, or zero details for nil.
func DetailsOf(p *Policy) Details {
	if p == nil {
		return Details{}
	}
	return Details{
		Coverage: p.Coverage,
		Premium:  p.Premium,
		Expiry:   p.Expiry,
		Active:   p.Active,
	}
}

// RegistryState holds the registry-wide counters.
type RegistryState struct {
	PolicyCounter  domain.PolicyID
	MinimumPremium domain.Amount
	Balance        domain.Amount
}

// NextPolicyID advances the counter and returns the new id.
func (s *RegistryState) NextPolicyID() (domain.PolicyID, error) {
	if s.PolicyCounter == domain.PolicyID(domain.MaxAmount) {
		return 0, dErrors.New(dErrors.CodeInvariantViolation, "policy counter exhausted")
	}
	s.PolicyCounter++
	return s.PolicyCounter, nil
}

// Summary is the registry-wide view returned by GET /registry.
type Summary struct {
	Owner          domain.Address  `json:"owner"`
	MinimumPremium domain.Amount   `json:"minimum_premium"`
	PolicyCounter  domain.PolicyID `json:"policy_counter"`
	Balance        domain.Amount   `json:"balance"`
}
