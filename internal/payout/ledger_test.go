package payout

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policyregistry/pkg/domain"
)

var (
	alice = domain.MustParseAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	bob   = domain.MustParseAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestInMemoryLedger(t *testing.T) {
	ctx := context.Background()

	t.Run("credits accumulate", func(t *testing.T) {
		l := NewInMemoryLedger(discard())
		require.NoError(t, l.Transfer(ctx, alice, 10))
		require.NoError(t, l.Transfer(ctx, alice, 5))
		assert.Equal(t, domain.Amount(15), l.Balance(alice))
		assert.Zero(t, l.Balance(bob))
	})

	t.Run("zero amount is refused", func(t *testing.T) {
		l := NewInMemoryLedger(discard())
		assert.ErrorIs(t, l.Transfer(ctx, alice, 0), ErrZeroAmount)
	})

	t.Run("blocked payee is refused", func(t *testing.T) {
		l := NewInMemoryLedger(discard(), bob)
		assert.ErrorIs(t, l.Transfer(ctx, bob, 1), ErrPayeeRefused)
		assert.Zero(t, l.Balance(bob))

		l.SetBlocked(bob, false)
		assert.NoError(t, l.Transfer(ctx, bob, 1))
	})

	t.Run("cancelled context sends nothing", func(t *testing.T) {
		l := NewInMemoryLedger(discard())
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, l.Transfer(cctx, alice, 1), context.Canceled)
		assert.Zero(t, l.Balance(alice))
	})
}
