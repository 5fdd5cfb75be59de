// Package service implements the policy registry: opening and cancelling
// policies, crediting refunds to a pull-payment ledger and paying them out.
package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"policyregistry/internal/registry/metrics"
	"policyregistry/internal/registry/models"
	"policyregistry/pkg/domain"
	dErrors "policyregistry/pkg/domain-errors"
	"policyregistry/pkg/platform/sentinel"
	"policyregistry/pkg/requestcontext"
)

const (
	tracerName = "policyregistry/internal/registry/service"

	defaultTransferTimeout = 10 * time.Second
)

// Service orchestrates the policy registry.
type Service struct {
	store      Store
	access     AccessController
	transferer Transferer
	cache      PolicyCache
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer

	transferTimeout time.Duration
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithCache(c PolicyCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithTransferTimeout bounds each outbound payout. Non-positive values are ignored.
func WithTransferTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.transferTimeout = d
		}
	}
}

// New constructs a Service.
func New(store Store, access AccessController, transferer Transferer, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("registry store is required")
	}
	if access == nil {
		return nil, errors.New("access controller is required")
	}
	if transferer == nil {
		return nil, errors.New("transferer is required")
	}
	s := &Service{
		store:      store,
		access:     access,
		transferer: transferer,
		logger:     slog.Default(),
		tracer:     otel.Tracer(tracerName),

		transferTimeout: defaultTransferTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Bootstrap seeds the minimum premium on first start.
func (s *Service) Bootstrap(ctx context.Context, minimumPremium domain.Amount) error {
	if err := s.store.Bootstrap(ctx, minimumPremium); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to bootstrap registry state")
	}
	return nil
}

// OpenPolicyCommand carries the inputs of OpenPolicy.
type OpenPolicyCommand struct {
	Coverage        domain.Amount
	DurationSeconds uint64
	Deposit         domain.Amount
}

const maxDurationSeconds = uint64(math.MaxInt64 / int64(time.Second))

// OpenPolicy creates a policy owned by caller, holding the deposit as premium.
func (s *Service) OpenPolicy(ctx context.Context, caller domain.Address, cmd OpenPolicyCommand) (policy *models.Policy, err error) {
	ctx, span := s.startSpan(ctx, "OpenPolicy", caller)
	start := time.Now()
	defer func() { s.finish(span, "open_policy", start, err) }()

	if cmd.DurationSeconds > maxDurationSeconds {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "duration is too large")
	}
	if cmd.Coverage > domain.MaxAmount {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "coverage exceeds the maximum amount")
	}
	if cmd.Deposit > domain.MaxAmount {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "deposit exceeds the maximum amount")
	}
	duration := time.Duration(cmd.DurationSeconds) * time.Second
	now := requestcontext.Now(ctx)

	err = s.store.RunInTx(ctx, func(tx Tx) error {
		state, err := tx.State(ctx)
		if err != nil {
			return err
		}
		if cmd.Deposit < state.MinimumPremium {
			return dErrors.New(dErrors.CodeInvalidInput, "deposit is below the minimum premium")
		}
		if cmd.Coverage.IsZero() {
			return dErrors.New(dErrors.CodeInvalidInput, "coverage must be greater than zero")
		}
		if duration <= 0 {
			return dErrors.New(dErrors.CodeInvalidInput, "duration must be greater than zero")
		}

		balance, err := state.Balance.Add(cmd.Deposit)
		if err != nil {
			return err
		}
		id, err := state.NextPolicyID()
		if err != nil {
			return err
		}
		p, err := models.NewPolicy(id, caller, cmd.Coverage, cmd.Deposit, duration, now)
		if err != nil {
			return err
		}
		state.Balance = balance

		if err := tx.InsertPolicy(ctx, p); err != nil {
			return err
		}
		if err := tx.SaveState(ctx, state); err != nil {
			return err
		}
		ev, err := models.NewEvent(models.PolicyCreatedPayload{
			Caller:   caller,
			PolicyID: p.ID,
			Coverage: p.Coverage,
			Premium:  p.Premium,
			Expiry:   p.Expiry.Unix(),
		}, now)
		if err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, ev); err != nil {
			return err
		}
		policy = p
		return nil
	})
	if err != nil {
		return nil, translate(err, "failed to open policy")
	}

	span.SetAttributes(attribute.String("policy.id", policy.ID.String()))
	s.logAudit(ctx, string(models.EventPolicyCreated),
		"caller", caller.String(),
		"policy_id", policy.ID.String(),
		"coverage", policy.Coverage.String(),
		"premium", policy.Premium.String(),
		"expiry", policy.Expiry,
	)
	if s.metrics != nil {
		s.metrics.IncrementPolicyOpened()
	}
	return policy, nil
}

// CancelResult reports a completed cancellation.
type CancelResult struct {
	Policy *models.Policy
	Refund domain.Amount
}

// CancelPolicy deactivates a policy owned by caller and credits half its
// premium to caller's pending withdrawal.
func (s *Service) CancelPolicy(ctx context.Context, caller domain.Address, id domain.PolicyID) (result *CancelResult, err error) {
	ctx, span := s.startSpan(ctx, "CancelPolicy", caller)
	span.SetAttributes(attribute.String("policy.id", id.String()))
	start := time.Now()
	defer func() { s.finish(span, "cancel_policy", start, err) }()

	now := requestcontext.Now(ctx)
	err = s.store.RunInTx(ctx, func(tx Tx) error {
		p, err := tx.FindPolicy(ctx, id)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeForbidden, "caller does not own this policy")
		}
		if err != nil {
			return err
		}
		if !p.IsOwnedBy(caller) {
			return dErrors.New(dErrors.CodeForbidden, "caller does not own this policy")
		}

		refund, err := p.Cancel(now)
		if err != nil {
			return err
		}
		if err := tx.UpdatePolicy(ctx, p); err != nil {
			return err
		}
		if refund > 0 {
			pending, err := tx.PendingWithdrawal(ctx, caller)
			if err != nil {
				return err
			}
			pending, err = pending.Add(refund)
			if err != nil {
				return err
			}
			if err := tx.SetPendingWithdrawal(ctx, caller, pending); err != nil {
				return err
			}
		}

		ev, err := models.NewEvent(models.PolicyCancelledPayload{Caller: caller, PolicyID: id}, now)
		if err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, ev); err != nil {
			return err
		}
		result = &CancelResult{Policy: p, Refund: refund}
		return nil
	})
	if err != nil {
		return nil, translate(err, "failed to cancel policy")
	}

	if s.cache != nil {
		s.cache.Set(ctx, result.Policy)
	}
	s.logAudit(ctx, string(models.EventPolicyCancelled),
		"caller", caller.String(),
		"policy_id", id.String(),
		"refund", result.Refund.String(),
	)
	if s.metrics != nil {
		s.metrics.IncrementPolicyCancelled(uint64(result.Refund))
	}
	return result, nil
}

// SetMinimumPremium replaces the minimum premium. Only callers passing the
// access controller may change it.
func (s *Service) SetMinimumPremium(ctx context.Context, caller domain.Address, value domain.Amount) (err error) {
	ctx, span := s.startSpan(ctx, "SetMinimumPremium", caller)
	start := time.Now()
	defer func() { s.finish(span, "set_minimum_premium", start, err) }()

	ok, err := s.access.IsAuthorized(ctx, caller)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check authorization")
	}
	if !ok {
		s.logger.WarnContext(ctx, "unauthorized minimum premium change",
			"caller", caller.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return dErrors.New(dErrors.CodeForbidden, "caller is not authorized to configure the registry")
	}
	if value > domain.MaxAmount {
		return dErrors.New(dErrors.CodeInvalidInput, "minimum premium exceeds the maximum amount")
	}

	now := requestcontext.Now(ctx)
	var old domain.Amount
	err = s.store.RunInTx(ctx, func(tx Tx) error {
		state, err := tx.State(ctx)
		if err != nil {
			return err
		}
		old = state.MinimumPremium
		state.MinimumPremium = value
		if err := tx.SaveState(ctx, state); err != nil {
			return err
		}
		ev, err := models.NewEvent(models.MinimumPremiumUpdatedPayload{Old: old, New: value}, now)
		if err != nil {
			return err
		}
		return tx.AppendEvent(ctx, ev)
	})
	if err != nil {
		return translate(err, "failed to update minimum premium")
	}

	s.logAudit(ctx, string(models.EventMinimumPremiumUpdated),
		"caller", caller.String(),
		"old", old.String(),
		"new", value.String(),
	)
	return nil
}

// Receive records value sent to the registry outside of a policy purchase.
func (s *Service) Receive(ctx context.Context, sender domain.Address, value domain.Amount) (err error) {
	ctx, span := s.startSpan(ctx, "Receive", sender)
	start := time.Now()
	defer func() { s.finish(span, "receive", start, err) }()

	if value.IsZero() {
		return nil
	}
	err = s.store.RunInTx(ctx, func(tx Tx) error {
		state, err := tx.State(ctx)
		if err != nil {
			return err
		}
		state.Balance, err = state.Balance.Add(value)
		if err != nil {
			return err
		}
		return tx.SaveState(ctx, state)
	})
	if err != nil {
		return translate(err, "failed to record receipt")
	}
	s.logAudit(ctx, "value_received",
		"sender", sender.String(),
		"value", value.String(),
	)
	return nil
}

func (s *Service) startSpan(ctx context.Context, name string, caller domain.Address) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "registry."+name,
		trace.WithAttributes(attribute.String("caller", caller.String())),
	)
}

// finish ends span and records the operation outcome.
func (s *Service) finish(span trace.Span, op string, start time.Time, err error) {
	defer span.End()
	if s.metrics != nil {
		s.metrics.ObserveOperation(op, start)
	}
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	if s.metrics != nil {
		s.metrics.IncrementError(op, string(dErrors.CodeOf(err)))
	}
}

// translate keeps domain errors and wraps everything else as internal.
func translate(err error, msg string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	if ip := requestcontext.ClientIP(ctx); ip != "" {
		attributes = append(attributes, "client_ip", ip)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}
