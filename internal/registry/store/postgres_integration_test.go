//go:build integration

package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"policyregistry/internal/registry/service"
	"policyregistry/pkg/testutil/containers"
)

var registryTables = []string{"registry_outbox", "pending_withdrawals", "policies", "registry_state"}

func TestPostgresStoreContract(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	pg := containers.GetManager().GetPostgres(t)

	suite.Run(t, &StoreContractSuite{
		newStore: func() registryStore {
			ctx := context.Background()
			require.NoError(t, pg.TruncateTables(ctx, registryTables...))
			st := NewPostgresStore(pg.Pool)
			require.NoError(t, st.Bootstrap(ctx, 10))
			return st
		},
	})
}

func TestPostgresStore_SerializesTransactions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	pg := containers.GetManager().GetPostgres(t)
	require.NoError(t, pg.TruncateTables(ctx, registryTables...))
	st := NewPostgresStore(pg.Pool)
	require.NoError(t, st.Bootstrap(ctx, 0))

	const workers = 20
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := st.RunInTx(ctx, func(tx service.Tx) error {
				state, err := tx.State(ctx)
				if err != nil {
					return err
				}
				if _, err := state.NextPolicyID(); err != nil {
					return err
				}
				return tx.SaveState(ctx, state)
			})
			if err != nil {
				t.Errorf("tx failed: %v", err)
			}
		}()
	}
	wg.Wait()

	state, err := st.State(ctx)
	require.NoError(t, err)
	require.EqualValues(t, workers, state.PolicyCounter)
}

func TestPostgresStore_RequiresBootstrap(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	pg := containers.GetManager().GetPostgres(t)
	require.NoError(t, pg.TruncateTables(ctx, registryTables...))

	err := NewPostgresStore(pg.Pool).RunInTx(ctx, func(service.Tx) error { return nil })
	require.Error(t, err)
}
