package store

import (
	"context"
	"errors"
	"time"

	"github.com/stretchr/testify/suite"

	"policyregistry/internal/registry/models"
	"policyregistry/internal/registry/service"
	"policyregistry/pkg/domain"
	"policyregistry/pkg/platform/sentinel"
)

type registryStore interface {
	service.Store
	PendingEvents(ctx context.Context, limit int) ([]models.OutboxEntry, error)
	MarkDelivered(ctx context.Context, sequences []int64, at time.Time) error
}

// StoreContractSuite runs the same behavioural checks against every store.
// newStore must return an empty, bootstrapped store.
type StoreContractSuite struct {
	suite.Suite
	newStore func() registryStore
	store    registryStore
	ctx      context.Context
}

var (
	alice = domain.MustParseAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	bob   = domain.MustParseAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	t0    = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func (s *StoreContractSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.newStore()
}

func (s *StoreContractSuite) openPolicy(owner domain.Address, premium domain.Amount) *models.Policy {
	var created *models.Policy
	err := s.store.RunInTx(s.ctx, func(tx service.Tx) error {
		state, err := tx.State(s.ctx)
		if err != nil {
			return err
		}
		id, err := state.NextPolicyID()
		if err != nil {
			return err
		}
		p, err := models.NewPolicy(id, owner, 1000, premium, time.Hour, t0)
		if err != nil {
			return err
		}
		state.Balance += premium
		if err := tx.InsertPolicy(s.ctx, p); err != nil {
			return err
		}
		if err := tx.SaveState(s.ctx, state); err != nil {
			return err
		}
		ev, err := models.NewEvent(models.PolicyCreatedPayload{Caller: owner, PolicyID: id}, t0)
		if err != nil {
			return err
		}
		created = p
		return tx.AppendEvent(s.ctx, ev)
	})
	s.Require().NoError(err)
	return created
}

func (s *StoreContractSuite) TestBootstrap() {
	s.Run("later bootstrap calls keep the first value", func() {
		s.Require().NoError(s.store.Bootstrap(s.ctx, 99))
		state, err := s.store.State(s.ctx)
		s.Require().NoError(err)
		s.Equal(domain.Amount(10), state.MinimumPremium)
	})
}

func (s *StoreContractSuite) TestCommit() {
	s.Run("committed policies are visible by id and owner", func() {
		p1 := s.openPolicy(alice, 20)
		p2 := s.openPolicy(bob, 30)
		p3 := s.openPolicy(alice, 40)

		found, err := s.store.FindPolicy(s.ctx, p2.ID)
		s.Require().NoError(err)
		s.Equal(bob, found.Owner)
		s.Equal(domain.Amount(30), found.Premium)
		s.True(found.Expiry.Equal(t0.Add(time.Hour)))

		ids, err := s.store.ListPolicyIDs(s.ctx, alice)
		s.Require().NoError(err)
		s.Equal([]domain.PolicyID{p1.ID, p3.ID}, ids)

		state, err := s.store.State(s.ctx)
		s.Require().NoError(err)
		s.Equal(domain.PolicyID(3), state.PolicyCounter)
		s.Equal(domain.Amount(90), state.Balance)
	})

	s.Run("unknown ids and owners", func() {
		_, err := s.store.FindPolicy(s.ctx, 12345)
		s.ErrorIs(err, sentinel.ErrNotFound)

		ids, err := s.store.ListPolicyIDs(s.ctx, domain.MustParseAddress("0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB"))
		s.Require().NoError(err)
		s.Empty(ids)
	})
}

func (s *StoreContractSuite) TestTimestampsRoundTrip() {
	fine := time.Date(2026, 3, 31, 12, 0, 0, 123456789, time.UTC)
	var created *models.Policy
	err := s.store.RunInTx(s.ctx, func(tx service.Tx) error {
		state, err := tx.State(s.ctx)
		if err != nil {
			return err
		}
		id, err := state.NextPolicyID()
		if err != nil {
			return err
		}
		created, err = models.NewPolicy(id, alice, 1000, 20, time.Hour, fine)
		if err != nil {
			return err
		}
		if err := tx.InsertPolicy(s.ctx, created); err != nil {
			return err
		}
		return tx.SaveState(s.ctx, state)
	})
	s.Require().NoError(err)

	found, err := s.store.FindPolicy(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.Expiry, found.Expiry)
	s.Equal(created.CreatedAt, found.CreatedAt)
	s.True(found.IsValidAt(created.Expiry.Add(-time.Microsecond)))
	s.False(found.IsValidAt(created.Expiry))

	err = s.store.RunInTx(s.ctx, func(tx service.Tx) error {
		p, err := tx.FindPolicy(s.ctx, created.ID)
		if err != nil {
			return err
		}
		if _, err := p.Cancel(fine.Add(time.Minute)); err != nil {
			return err
		}
		created = p
		return tx.UpdatePolicy(s.ctx, p)
	})
	s.Require().NoError(err)

	found, err = s.store.FindPolicy(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found.CancelledAt)
	s.Equal(*created.CancelledAt, *found.CancelledAt)
}

func (s *StoreContractSuite) TestRollback() {
	boom := errors.New("boom")
	before, err := s.store.State(s.ctx)
	s.Require().NoError(err)

	err = s.store.RunInTx(s.ctx, func(tx service.Tx) error {
		state, err := tx.State(s.ctx)
		s.Require().NoError(err)
		id, err := state.NextPolicyID()
		s.Require().NoError(err)
		p, err := models.NewPolicy(id, alice, 1000, 20, time.Hour, t0)
		s.Require().NoError(err)
		s.Require().NoError(tx.InsertPolicy(s.ctx, p))
		s.Require().NoError(tx.SaveState(s.ctx, state))
		s.Require().NoError(tx.SetPendingWithdrawal(s.ctx, alice, 7))
		ev, err := models.NewEvent(models.WithdrawalPayload{Caller: alice, Amount: 7}, t0)
		s.Require().NoError(err)
		s.Require().NoError(tx.AppendEvent(s.ctx, ev))

		// writes are visible inside the transaction
		pending, err := tx.PendingWithdrawal(s.ctx, alice)
		s.Require().NoError(err)
		s.Equal(domain.Amount(7), pending)
		_, err = tx.FindPolicy(s.ctx, id)
		s.Require().NoError(err)
		return boom
	})
	s.Require().ErrorIs(err, boom)

	after, err := s.store.State(s.ctx)
	s.Require().NoError(err)
	s.Equal(before, after)

	ids, err := s.store.ListPolicyIDs(s.ctx, alice)
	s.Require().NoError(err)
	s.Empty(ids)

	pending, err := s.store.PendingWithdrawal(s.ctx, alice)
	s.Require().NoError(err)
	s.Zero(pending)

	events, err := s.store.PendingEvents(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(events)
}

func (s *StoreContractSuite) TestPolicyUpdateAndPending() {
	p := s.openPolicy(alice, 20)

	err := s.store.RunInTx(s.ctx, func(tx service.Tx) error {
		found, err := tx.FindPolicy(s.ctx, p.ID)
		if err != nil {
			return err
		}
		refund, err := found.Cancel(t0.Add(time.Minute))
		if err != nil {
			return err
		}
		if err := tx.UpdatePolicy(s.ctx, found); err != nil {
			return err
		}
		return tx.SetPendingWithdrawal(s.ctx, alice, refund)
	})
	s.Require().NoError(err)

	found, err := s.store.FindPolicy(s.ctx, p.ID)
	s.Require().NoError(err)
	s.False(found.Active)
	s.Require().NotNil(found.CancelledAt)

	pending, err := s.store.PendingWithdrawal(s.ctx, alice)
	s.Require().NoError(err)
	s.Equal(domain.Amount(10), pending)

	s.Run("zeroing a pending balance reads back as zero", func() {
		s.Require().NoError(s.store.RunInTx(s.ctx, func(tx service.Tx) error {
			return tx.SetPendingWithdrawal(s.ctx, alice, 0)
		}))
		pending, err := s.store.PendingWithdrawal(s.ctx, alice)
		s.Require().NoError(err)
		s.Zero(pending)
	})

	s.Run("updating an unknown policy fails", func() {
		ghost, err := models.NewPolicy(999, alice, 1, 1, time.Hour, t0)
		s.Require().NoError(err)
		err = s.store.RunInTx(s.ctx, func(tx service.Tx) error {
			return tx.UpdatePolicy(s.ctx, ghost)
		})
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *StoreContractSuite) TestOutbox() {
	s.openPolicy(alice, 20)
	s.openPolicy(bob, 30)
	s.openPolicy(alice, 40)

	entries, err := s.store.PendingEvents(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Less(entries[0].Sequence, entries[1].Sequence)
	s.Equal(models.EventPolicyCreated, entries[0].Event.Type)

	var payload models.PolicyCreatedPayload
	s.Require().NoError(entries[0].Event.Decode(&payload))
	s.Equal(domain.PolicyID(1), payload.PolicyID)

	s.Require().NoError(s.store.MarkDelivered(s.ctx, []int64{entries[0].Sequence, entries[1].Sequence}, t0))

	rest, err := s.store.PendingEvents(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(rest, 1)
	s.Require().NoError(rest[0].Event.Decode(&payload))
	s.Equal(domain.PolicyID(3), payload.PolicyID)
}
