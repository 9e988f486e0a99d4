package checkpoint

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wikidetox/reconstructor/action"
	"github.com/wikidetox/reconstructor/deletedindex"
	"github.com/wikidetox/reconstructor/pagestate"
)

func TestRoundTrip(t *testing.T) {
	b := Blob{
		RevID:     7,
		Timestamp: "2026-01-01T00:00:00Z",
		PageID:    "42",
		PageTitle: "Talk:Example",
		PageState: map[int]pagestate.Entry{
			0:  {ActionID: "1.0", Indent: 0},
			10: {ActionID: "1.1", Indent: 1},
			20: {ActionID: "", Indent: -1, Sentinel: true},
		},
		DeletedContent: map[string]deletedindex.Value{
			"Reply.": {ActionID: "2.0", Indent: 2, RemovedAtRevision: 7},
		},
		Conversations: map[string]string{"1.0": "1.0", "1.1": "1.0"},
		Authors: map[string][]action.Author{
			"1.0": {{UserID: "u1", UserText: "User1"}},
			"1.1": {{UserID: "u1", UserText: "User1"}, {UserID: "u2", UserText: "User2"}},
		},
	}

	data, err := Encode(b)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	require.Equal(t, b.RevID, decoded.RevID)
	require.Equal(t, b.Timestamp, decoded.Timestamp)
	require.Equal(t, b.PageID, decoded.PageID)
	require.Equal(t, b.PageTitle, decoded.PageTitle)
	require.Equal(t, b.PageState, decoded.PageState)
	require.Equal(t, b.DeletedContent, decoded.DeletedContent)
	require.Equal(t, b.Conversations, decoded.Conversations)
	require.Equal(t, b.Authors, decoded.Authors)
}

func TestFromPageStateAndToPageStateRoundTrip(t *testing.T) {
	ps := pagestate.New("1", "Talk:Example")
	ps.Insert(5, pagestate.Entry{ActionID: "1.0", Indent: 1})

	entries := FromPageState(ps)
	rebuilt := ToPageState("1", "Talk:Example", entries)

	e, ok := rebuilt.Get(5)
	require.True(t, ok)
	require.Equal(t, "1.0", e.ActionID)
}

func TestDecodeRejectsNonIntegerOffset(t *testing.T) {
	_, err := Decode([]byte(`{"page_state":{"actions":{"not-a-number":["1.0",0]}}}`))
	require.Error(t, err)
}
