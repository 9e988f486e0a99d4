package checkpointstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSqliteSaveAndLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, Config{Driver: "sqlite", DSN: "file:" + t.TempDir() + "/checkpoints.db"})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(ctx, "42", 1, []byte(`{"rev_id":1}`), "Hello.\n\n"))
	require.NoError(t, store.Save(ctx, "42", 2, []byte(`{"rev_id":2}`), "Hello again.\n\n"))

	blob, lastContent, revID, ok, err := store.Load(ctx, "42")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, revID)
	require.Equal(t, []byte(`{"rev_id":2}`), blob)
	require.Equal(t, "Hello again.\n\n", lastContent)
}

func TestSqliteLoadMissingPageReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, Config{Driver: "sqlite", DSN: "file:" + t.TempDir() + "/checkpoints.db"})
	require.NoError(t, err)
	defer store.Close()

	_, _, _, ok, err := store.Load(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"})
	require.Error(t, err)
}
