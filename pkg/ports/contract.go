package ports

import (
	"context"
	"testing"
	"time"

	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSettingsStoreContract runs a suite of tests to verify that a SettingsStore implementation
// adheres to the defined interface contract.
func RunSettingsStoreContract(t *testing.T, store SettingsStore) {
	ctx := context.Background()
	terminalID := "contract-terminal-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		err := store.SaveTransactionNumber(ctx, terminalID, 1041)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.LoadTransactionNumber(ctx, terminalID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, int64(1041), loaded)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.SaveTransactionNumber(ctx, terminalID, 7))
		require.NoError(t, store.SaveTransactionNumber(ctx, terminalID, 3))

		loaded, err := store.LoadTransactionNumber(ctx, terminalID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), loaded, "stores do not enforce ordering")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.LoadTransactionNumber(ctx, "non-existent-"+terminalID)
		assert.ErrorIs(t, err, domain.ErrSettingNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.SaveTransactionNumber(ctx, terminalID, 12))

		err := store.Delete(ctx, terminalID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.LoadTransactionNumber(ctx, terminalID)
		assert.ErrorIs(t, err, domain.ErrSettingNotFound, "Load after Delete should return ErrSettingNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := terminalID + "-1"
		id2 := terminalID + "-2"
		_ = store.SaveTransactionNumber(ctx, id1, 1)
		_ = store.SaveTransactionNumber(ctx, id2, 2)

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		terminals, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, terminals, id1)
		assert.Contains(t, terminals, id2)
	})
}
