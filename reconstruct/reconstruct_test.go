package reconstruct

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wikidetox/reconstructor/action"
	"github.com/wikidetox/reconstructor/config"
)

func baseRevision(revID int, ts, text string) RevisionInput {
	return RevisionInput{
		RevID:     revID,
		Timestamp: ts,
		PageID:    "1",
		PageTitle: "Talk:Example",
		UserID:    "u1",
		UserText:  "User1",
		Text:      text,
	}
}

func TestProcessRevisionSequence(t *testing.T) {
	r := New(config.Default(), "1", "Talk:Example")

	actions, err := r.ProcessRevision(baseRevision(1, "2026-01-01T00:00:00Z", "== Topic ==\n:Hello world.\n"))
	require.NoError(t, err)
	require.NotEmpty(t, actions)

	actions, err = r.ProcessRevision(baseRevision(2, "2026-01-02T00:00:00Z", "== Topic ==\n:Hello world.\n::Reply.\n"))
	require.NoError(t, err)
	require.Len(t, actions, 1)
}

func TestProcessRevisionRejectsNonMonotonicTimestamp(t *testing.T) {
	r := New(config.Default(), "1", "Talk:Example")
	_, err := r.ProcessRevision(baseRevision(1, "2026-01-02T00:00:00Z", "Hello.\n\n"))
	require.NoError(t, err)

	_, err = r.ProcessRevision(baseRevision(2, "2026-01-01T00:00:00Z", "Hello again.\n\n"))
	require.Error(t, err)
}

func TestIdempotenceOnNoOpRevision(t *testing.T) {
	r := New(config.Default(), "1", "Talk:Example")
	_, err := r.ProcessRevision(baseRevision(1, "2026-01-01T00:00:00Z", "== Topic ==\n:Hello world.\n"))
	require.NoError(t, err)

	before := r.page.Len()
	actions, err := r.ProcessRevision(baseRevision(2, "2026-01-02T00:00:00Z", "== Topic ==\n:Hello world.\n"))
	require.NoError(t, err)
	require.Empty(t, actions)
	require.Equal(t, before, r.page.Len())
}

func TestPositionOfReflectsLiveOrdering(t *testing.T) {
	r := New(config.Default(), "1", "Talk:Example")
	actions, err := r.ProcessRevision(baseRevision(1, "2026-01-01T00:00:00Z", "== Topic ==\n:Hello world.\n"))
	require.NoError(t, err)
	require.Len(t, actions, 2)

	headingPos, ok := r.PositionOf(actions[0].ID)
	require.True(t, ok)
	commentPos, ok := r.PositionOf(actions[1].ID)
	require.True(t, ok)
	require.Less(t, headingPos, commentPos)

	_, ok = r.PositionOf("no-such-action")
	require.False(t, ok)
}

func TestDeletedRetentionPrunesRestorationCandidates(t *testing.T) {
	cfg := config.Default()
	cfg.RestorationMinTokens = 1
	cfg.DeletedRetentionRevisions = 2
	r := New(cfg, "1", "Talk:Example")

	_, err := r.ProcessRevision(baseRevision(1, "2026-01-01T00:00:00Z", "== Topic ==\n:Hello world.\n"))
	require.NoError(t, err)
	_, err = r.ProcessRevision(baseRevision(2, "2026-01-02T00:00:00Z", "== Topic ==\n:Hello world.\n::Reply.\n"))
	require.NoError(t, err)

	removeActions, err := r.ProcessRevision(baseRevision(3, "2026-01-03T00:00:00Z", "== Topic ==\n:Hello world.\n"))
	require.NoError(t, err)
	require.Len(t, removeActions, 1)
	require.Equal(t, 1, r.idx.Len())

	// The entry was removed at revision 3; once revision 6 is processed,
	// 3 < 6-2 and the entry falls out of the retention window.
	_, err = r.ProcessRevision(baseRevision(4, "2026-01-04T00:00:00Z", "== Topic ==\n:Hello world.\n"))
	require.NoError(t, err)
	_, err = r.ProcessRevision(baseRevision(5, "2026-01-05T00:00:00Z", "== Topic ==\n:Hello world.\n"))
	require.NoError(t, err)
	_, err = r.ProcessRevision(baseRevision(6, "2026-01-06T00:00:00Z", "== Topic ==\n:Hello world.\n"))
	require.NoError(t, err)
	require.Equal(t, 0, r.idx.Len())

	actions, err := r.ProcessRevision(baseRevision(7, "2026-01-07T00:00:00Z", "== Topic ==\n:Hello world.\n::Reply.\n"))
	require.NoError(t, err)
	require.Len(t, actions, 1)
	require.Equal(t, action.CommentAdding, actions[0].Type, "pruned entry must no longer be recognized as a restoration")
}

func TestCheckpointRoundTripsThroughFromCheckpoint(t *testing.T) {
	r := New(config.Default(), "1", "Talk:Example")
	_, err := r.ProcessRevision(baseRevision(1, "2026-01-01T00:00:00Z", "== Topic ==\n:Hello world.\n"))
	require.NoError(t, err)

	blob := r.Checkpoint("2026-01-01T00:00:00Z")
	restored, err := FromCheckpoint(config.Default(), blob, r.LastContentText())
	require.NoError(t, err)

	actions, err := restored.ProcessRevision(baseRevision(2, "2026-01-02T00:00:00Z", "== Topic ==\n:Hello world.\n::Reply.\n"))
	require.NoError(t, err)
	require.Len(t, actions, 1)
}
