package service

import (
	"context"
	"errors"
	"time"

	"policyregistry/internal/registry/models"
	"policyregistry/pkg/domain"
	dErrors "policyregistry/pkg/domain-errors"
	"policyregistry/pkg/requestcontext"
)

// Withdraw pays caller's pending balance.
//
// The pending balance is zeroed and committed before the transfer runs, and
// the transfer runs outside any transaction, so a transfer that calls back
// into the registry observes zero. A failed transfer is compensated by
// re-crediting the exact amount.
//
// Once the debit commits, the transfer is detached from ctx and bounded by
// the transfer timeout: a cancelled request never reports a credit the payee
// received as failed.
func (s *Service) Withdraw(ctx context.Context, caller domain.Address) (amount domain.Amount, err error) {
	ctx, span := s.startSpan(ctx, "Withdraw", caller)
	start := time.Now()
	defer func() { s.finish(span, "withdraw", start, err) }()

	amount, err = s.debitPending(ctx, caller)
	if err != nil {
		return 0, translate(err, "failed to withdraw")
	}

	if transferErr := s.transfer(ctx, caller, amount); transferErr != nil {
		if s.metrics != nil {
			s.metrics.IncrementTransferFailure()
		}
		// compensation must run even if the caller's context is done
		if restoreErr := s.creditPending(context.WithoutCancel(ctx), caller, amount); restoreErr != nil {
			s.logger.ErrorContext(ctx, "failed to restore pending withdrawal after transfer failure",
				"caller", caller.String(),
				"amount", amount.String(),
				"transfer_error", transferErr,
				"error", restoreErr,
				"request_id", requestcontext.RequestID(ctx),
			)
			return 0, dErrors.Wrap(errors.Join(transferErr, restoreErr), dErrors.CodeInternal, "withdrawal could not be reconciled")
		}
		s.logger.WarnContext(ctx, "withdrawal transfer failed",
			"caller", caller.String(),
			"amount", amount.String(),
			"error", transferErr,
			"request_id", requestcontext.RequestID(ctx),
		)
		return 0, dErrors.Wrap(transferErr, dErrors.CodeTransferFailed, "transfer failed")
	}

	s.recordWithdrawal(ctx, caller, amount)
	s.logAudit(ctx, string(models.EventWithdrawal),
		"caller", caller.String(),
		"amount", amount.String(),
	)
	if s.metrics != nil {
		s.metrics.IncrementWithdrawal(uint64(amount))
	}
	return amount, nil
}

func (s *Service) transfer(ctx context.Context, to domain.Address, amount domain.Amount) error {
	transferCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.transferTimeout)
	defer cancel()
	return s.transferer.Transfer(transferCtx, to, amount)
}

// debitPending zeroes caller's pending balance and releases it from the
// registry balance in one transaction.
func (s *Service) debitPending(ctx context.Context, caller domain.Address) (domain.Amount, error) {
	var amount domain.Amount
	err := s.store.RunInTx(ctx, func(tx Tx) error {
		pending, err := tx.PendingWithdrawal(ctx, caller)
		if err != nil {
			return err
		}
		if pending.IsZero() {
			return dErrors.New(dErrors.CodeNothingToWithdraw, "no pending withdrawal")
		}
		state, err := tx.State(ctx)
		if err != nil {
			return err
		}
		state.Balance, err = state.Balance.Sub(pending)
		if err != nil {
			return err
		}
		if err := tx.SetPendingWithdrawal(ctx, caller, 0); err != nil {
			return err
		}
		if err := tx.SaveState(ctx, state); err != nil {
			return err
		}
		amount = pending
		return nil
	})
	return amount, err
}

// creditPending reverses debitPending.
func (s *Service) creditPending(ctx context.Context, caller domain.Address, amount domain.Amount) error {
	return s.store.RunInTx(ctx, func(tx Tx) error {
		pending, err := tx.PendingWithdrawal(ctx, caller)
		if err != nil {
			return err
		}
		pending, err = pending.Add(amount)
		if err != nil {
			return err
		}
		state, err := tx.State(ctx)
		if err != nil {
			return err
		}
		state.Balance, err = state.Balance.Add(amount)
		if err != nil {
			return err
		}
		if err := tx.SetPendingWithdrawal(ctx, caller, pending); err != nil {
			return err
		}
		return tx.SaveState(ctx, state)
	})
}

// recordWithdrawal appends the Withdrawal event once funds have left. The
// payout already happened, so a failure here is reported but not returned.
func (s *Service) recordWithdrawal(ctx context.Context, caller domain.Address, amount domain.Amount) {
	ev, err := models.NewEvent(models.WithdrawalPayload{Caller: caller, Amount: amount}, requestcontext.Now(ctx))
	if err == nil {
		bg := context.WithoutCancel(ctx)
		err = s.store.RunInTx(bg, func(tx Tx) error {
			return tx.AppendEvent(bg, ev)
		})
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to record withdrawal event",
			"caller", caller.String(),
			"amount", amount.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}
