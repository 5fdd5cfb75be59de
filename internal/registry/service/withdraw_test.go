package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"

	"policyregistry/internal/registry/models"
	"policyregistry/internal/registry/service"
	"policyregistry/internal/registry/service/mocks"
	"policyregistry/pkg/domain"
	dErrors "policyregistry/pkg/domain-errors"
)

func (s *RegistryServiceSuite) TestSingleRefundScenario() {
	p := s.open(alice, 20*finney)

	ids, err := s.service.GetPolicyIDs(s.ctx, alice)
	s.Require().NoError(err)
	s.Equal([]domain.PolicyID{1}, ids)

	_, err = s.service.CancelPolicy(s.ctx, alice, p.ID)
	s.Require().NoError(err)
	s.Equal(10*finney, s.pending(alice))

	before := s.balance()
	s.transferer.EXPECT().Transfer(gomock.Any(), alice, 10*finney).Return(nil)

	paid, err := s.service.Withdraw(s.ctx, alice)
	s.Require().NoError(err)
	s.Equal(10*finney, paid)
	s.Zero(s.pending(alice))
	s.Equal(before-10*finney, s.balance())

	events := s.store.Events()
	last := events[len(events)-1]
	s.Equal(models.EventWithdrawal, last.Type)
	var payload models.WithdrawalPayload
	s.Require().NoError(last.Decode(&payload))
	s.Equal(alice, payload.Caller)
	s.Equal(10*finney, payload.Amount)
}

func (s *RegistryServiceSuite) TestTwoRefundScenario() {
	first := s.open(alice, 20*finney)
	second := s.open(alice, 30*finney)
	_, err := s.service.CancelPolicy(s.ctx, alice, first.ID)
	s.Require().NoError(err)
	_, err = s.service.CancelPolicy(s.ctx, alice, second.ID)
	s.Require().NoError(err)
	s.Equal(25*finney, s.pending(alice))

	s.transferer.EXPECT().Transfer(gomock.Any(), alice, 25*finney).Return(nil)
	paid, err := s.service.Withdraw(s.ctx, alice)
	s.Require().NoError(err)
	s.Equal(25*finney, paid)
	s.Equal(25*finney, s.balance())

	s.Run("second withdraw has nothing to pay", func() {
		_, err := s.service.Withdraw(s.ctx, alice)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeNothingToWithdraw))
	})

	s.Equal(float64(1), testutil.ToFloat64(s.metrics.Withdrawals))
}

func (s *RegistryServiceSuite) TestWithdrawNothingPending() {
	_, err := s.service.Withdraw(s.ctx, bob)
	s.Require().ErrorIs(err, dErrors.New(dErrors.CodeNothingToWithdraw, "no pending withdrawal"))
}

func (s *RegistryServiceSuite) TestWithdrawTransferFailureRestoresBalance() {
	p := s.open(alice, 20*finney)
	_, err := s.service.CancelPolicy(s.ctx, alice, p.ID)
	s.Require().NoError(err)
	before := s.balance()
	eventsBefore := len(s.store.Events())

	cause := errors.New("payee rejected transfer")
	s.transferer.EXPECT().Transfer(gomock.Any(), alice, 10*finney).Return(cause)

	_, err = s.service.Withdraw(s.ctx, alice)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTransferFailed))
	s.ErrorIs(err, cause)

	s.Equal(10*finney, s.pending(alice))
	s.Equal(before, s.balance())
	s.Len(s.store.Events(), eventsBefore, "no Withdrawal event for a failed transfer")
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.TransferFailures))

	s.Run("a later retry succeeds", func() {
		s.transferer.EXPECT().Transfer(gomock.Any(), alice, 10*finney).Return(nil)
		paid, err := s.service.Withdraw(s.ctx, alice)
		s.Require().NoError(err)
		s.Equal(10*finney, paid)
	})
}

func (s *RegistryServiceSuite) TestWithdrawReentrancy() {
	p := s.open(alice, 20*finney)
	_, err := s.service.CancelPolicy(s.ctx, alice, p.ID)
	s.Require().NoError(err)

	var reentrantErr error
	var pendingDuringTransfer domain.Amount
	s.transferer.EXPECT().Transfer(gomock.Any(), alice, 10*finney).
		DoAndReturn(func(ctx context.Context, to domain.Address, _ domain.Amount) error {
			pendingDuringTransfer, _ = s.service.GetPendingWithdrawal(ctx, to)
			_, reentrantErr = s.service.Withdraw(ctx, to)
			return nil
		})

	paid, err := s.service.Withdraw(s.ctx, alice)
	s.Require().NoError(err)
	s.Equal(10*finney, paid)
	s.Zero(pendingDuringTransfer)
	s.True(dErrors.HasCode(reentrantErr, dErrors.CodeNothingToWithdraw))
	s.Zero(s.pending(alice))
}

func (s *RegistryServiceSuite) TestWithdrawTransferOutlivesRequestCancellation() {
	p := s.open(alice, 20*finney)
	_, err := s.service.CancelPolicy(s.ctx, alice, p.ID)
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(s.ctx)
	var credited domain.Amount
	s.transferer.EXPECT().Transfer(gomock.Any(), alice, 10*finney).
		DoAndReturn(func(ctx context.Context, _ domain.Address, amount domain.Amount) error {
			credited += amount
			// the client goes away after the payee was credited
			cancel()
			_, hasDeadline := ctx.Deadline()
			s.True(hasDeadline, "transfer is bounded by its own timeout")
			return ctx.Err()
		})

	paid, err := s.service.Withdraw(ctx, alice)
	s.Require().NoError(err)
	s.Equal(10*finney, paid)
	s.Equal(10*finney, credited)
	s.Zero(s.pending(alice), "a delivered credit is never restored")

	s.Run("no second payout", func() {
		_, err := s.service.Withdraw(s.ctx, alice)
		s.True(dErrors.HasCode(err, dErrors.CodeNothingToWithdraw))
	})
}

func (s *RegistryServiceSuite) TestWithdrawTransferTimeout() {
	svc, err := service.New(s.store, s.access, s.transferer,
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		service.WithTransferTimeout(time.Millisecond),
	)
	s.Require().NoError(err)

	p := s.open(alice, 20*finney)
	_, err = s.service.CancelPolicy(s.ctx, alice, p.ID)
	s.Require().NoError(err)

	s.transferer.EXPECT().Transfer(gomock.Any(), alice, 10*finney).
		DoAndReturn(func(ctx context.Context, _ domain.Address, _ domain.Amount) error {
			<-ctx.Done()
			return ctx.Err()
		})

	_, err = svc.Withdraw(s.ctx, alice)
	s.True(dErrors.HasCode(err, dErrors.CodeTransferFailed))
	s.ErrorIs(err, context.DeadlineExceeded)
	s.Equal(10*finney, s.pending(alice), "an unfinished transfer is compensated")
}

func (s *RegistryServiceSuite) TestWithdrawCompensationFailure() {
	st := mocks.NewMockStore(s.ctrl)
	svc, err := service.New(st, s.access, s.transferer)
	s.Require().NoError(err)

	storeErr := errors.New("database unavailable")
	gomock.InOrder(
		st.EXPECT().RunInTx(gomock.Any(), gomock.Any()).Return(nil),
		st.EXPECT().RunInTx(gomock.Any(), gomock.Any()).Return(storeErr),
	)
	transferErr := errors.New("payee rejected transfer")
	s.transferer.EXPECT().Transfer(gomock.Any(), alice, gomock.Any()).Return(transferErr)

	_, err = svc.Withdraw(s.ctx, alice)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.ErrorIs(err, transferErr)
	s.ErrorIs(err, storeErr)
}

func (s *RegistryServiceSuite) TestStoreFailuresAreInternal() {
	st := mocks.NewMockStore(s.ctrl)
	svc, err := service.New(st, s.access, s.transferer)
	s.Require().NoError(err)

	st.EXPECT().RunInTx(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))
	_, err = svc.OpenPolicy(s.ctx, alice, service.OpenPolicyCommand{Coverage: 1, DurationSeconds: 1, Deposit: minPremium})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	st.EXPECT().FindPolicy(gomock.Any(), domain.PolicyID(1)).Return(nil, errors.New("connection reset"))
	_, err = svc.GetPolicyDetails(s.ctx, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
