package cache

import (
	"context"
	"sync"
	"testing"

	"github.com/erp/connector/internal/domain/integration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdentity(t *testing.T, adapterIdentifier string, objectType integration.ObjectType) *integration.Identity {
	t.Helper()
	identity, err := integration.NewIdentity(adapterIdentifier, integration.PlentymarketsAdapterName, objectType)
	require.NoError(t, err)
	return identity
}

func TestInMemoryIdentityStore(t *testing.T) {
	store := NewInMemoryIdentityStore()
	ctx := context.Background()

	created, err := store.CreateIfAbsent(ctx, newIdentity(t, "5", integration.ObjectTypeLanguage))
	require.NoError(t, err)

	t.Run("finds by adapter", func(t *testing.T) {
		found, err := store.FindByAdapter(ctx, integration.PlentymarketsCriteria("5", integration.ObjectTypeLanguage))
		require.NoError(t, err)
		assert.Equal(t, created, found)

		_, err = store.FindByAdapter(ctx, integration.PlentymarketsCriteria("5", integration.ObjectTypeUnit))
		assert.ErrorIs(t, err, integration.ErrIdentityNotFound)
	})

	t.Run("finds by object", func(t *testing.T) {
		found, err := store.FindByObject(ctx, created.ObjectIdentifier, integration.PlentymarketsAdapterName, integration.ObjectTypeLanguage)
		require.NoError(t, err)
		assert.Equal(t, "5", found.AdapterIdentifier)
	})

	t.Run("keeps the first identity of a triple", func(t *testing.T) {
		again, err := store.CreateIfAbsent(ctx, newIdentity(t, "5", integration.ObjectTypeLanguage))
		require.NoError(t, err)
		assert.Equal(t, created.ObjectIdentifier, again.ObjectIdentifier)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("returned identities are copies", func(t *testing.T) {
		found, err := store.FindByAdapter(ctx, integration.PlentymarketsCriteria("5", integration.ObjectTypeLanguage))
		require.NoError(t, err)
		found.ObjectIdentifier = "changed"

		again, err := store.FindByAdapter(ctx, integration.PlentymarketsCriteria("5", integration.ObjectTypeLanguage))
		require.NoError(t, err)
		assert.Equal(t, created.ObjectIdentifier, again.ObjectIdentifier)
	})

	t.Run("rejects invalid identities", func(t *testing.T) {
		_, err := store.CreateIfAbsent(ctx, &integration.Identity{ObjectIdentifier: "x"})
		assert.ErrorIs(t, err, integration.ErrIdentityInvalidObjectIdentifier)
	})
}

func TestInMemoryIdentityStore_ConcurrentCreate(t *testing.T) {
	store := NewInMemoryIdentityStore()
	ctx := context.Background()

	const workers = 32
	results := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			identity, err := store.CreateIfAbsent(ctx, newIdentity(t, "9", integration.ObjectTypeVariation))
			if assert.NoError(t, err) {
				results[i] = identity.ObjectIdentifier
			}
		}(i)
	}
	wg.Wait()

	for _, id := range results {
		assert.Equal(t, results[0], id)
	}
	assert.Equal(t, 1, store.Len())
}
