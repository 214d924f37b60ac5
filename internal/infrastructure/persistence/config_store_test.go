package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/connector/internal/domain/integration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConfigStore(t *testing.T) {
	store := NewGormConfigStore(setupSQLiteDB(t))
	store.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	t.Run("missing setting", func(t *testing.T) {
		_, err := store.Lookup(ctx, "check_active_main_variation")
		assert.ErrorIs(t, err, integration.ErrConfigValueNotFound)

		value, err := store.Get(ctx, "check_active_main_variation", nil)
		require.NoError(t, err)
		assert.Nil(t, value)
	})

	t.Run("flags are stored as JSON literals", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "import_variations_without_stock", false))

		value, err := store.Get(ctx, "import_variations_without_stock", true)
		require.NoError(t, err)
		assert.Equal(t, "false", value)
	})

	t.Run("strings are stored verbatim", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "variation_number_field", "id"))

		value, err := store.Get(ctx, "variation_number_field", "number")
		require.NoError(t, err)
		assert.Equal(t, "id", value)
	})

	t.Run("set overwrites", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "check_active_main_variation", true))
		require.NoError(t, store.Set(ctx, "check_active_main_variation", 0))

		value, err := store.Lookup(ctx, "check_active_main_variation")
		require.NoError(t, err)
		assert.Equal(t, "0", value)
	})

	t.Run("unencodable values are rejected", func(t *testing.T) {
		err := store.Set(ctx, "broken", make(chan int))

		assert.ErrorIs(t, err, integration.ErrConfigValueInvalid)
	})
}
