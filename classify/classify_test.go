package classify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wikidetox/reconstructor/action"
	"github.com/wikidetox/reconstructor/config"
	"github.com/wikidetox/reconstructor/deletedindex"
	"github.com/wikidetox/reconstructor/pagestate"
	"github.com/wikidetox/reconstructor/token"
)

// scenario drives the S1-S6 literal walkthrough of spec §8 across
// successive revisions of one page, threading page state and the
// deleted-comment index forward the way a Reconstructor instance would.
type scenario struct {
	t         *testing.T
	cfg       config.Config
	cls       *Classifier
	idx       *deletedindex.Index
	page      *pagestate.PageState
	oldTokens []token.Token
	revID     int
}

func newScenario(t *testing.T) *scenario {
	cfg := config.Default()
	cfg.RestorationMinTokens = 1
	cfg.RearrangementMinTokens = 1
	return &scenario{
		t:         t,
		cfg:       cfg,
		cls:       New(cfg),
		idx:       deletedindex.New(),
		page:      pagestate.New("1", "Talk:Example"),
		oldTokens: nil,
	}
}

func (s *scenario) apply(text string) []action.Action {
	s.revID++
	newTokens := token.Tokenize(text)
	rev := Revision{RevID: s.revID, Timestamp: "2026-01-01T00:00:00Z", PageID: "1", PageTitle: "Talk:Example", UserID: "u", UserText: "User"}
	newPage, actions, err := s.cls.Process(s.page, s.oldTokens, newTokens, s.idx, rev)
	require.NoError(s.t, err)

	// Removal bookkeeping (spec §4.7) happens inside Process itself: it
	// adds every removed comment to s.idx, so later steps can see it as a
	// restoration candidate.

	s.page = newPage
	s.oldTokens = newTokens
	return actions
}

func TestScenarioS1EmptyPageFirstPost(t *testing.T) {
	s := newScenario(t)
	actions := s.apply("== Topic ==\n:Hello world.\n")

	require.Len(t, actions, 2)
	require.Equal(t, action.SectionCreation, actions[0].Type)
	require.Contains(t, actions[1].ContentText(), "Hello world.")
	require.Equal(t, action.CommentAdding, actions[1].Type)
	require.Equal(t, 1, actions[1].Indentation)
	require.Equal(t, actions[0].ID, actions[1].ReplyToID)
}

func TestScenarioS2Reply(t *testing.T) {
	s := newScenario(t)
	s.apply("== Topic ==\n:Hello world.\n")
	actions := s.apply("== Topic ==\n:Hello world.\n::Reply.\n")

	require.Len(t, actions, 1)
	require.Equal(t, action.CommentAdding, actions[0].Type)
	require.Equal(t, 2, actions[0].Indentation)
}

func TestScenarioS3Edit(t *testing.T) {
	s := newScenario(t)
	s.apply("== Topic ==\n:Hello world.\n")
	actions := s.apply("== Topic ==\n:Hello, world!\n")

	require.Len(t, actions, 1)
	require.Equal(t, action.CommentModification, actions[0].Type)
}

func TestScenarioS4DeleteAndS5Restore(t *testing.T) {
	s := newScenario(t)
	s.apply("== Topic ==\n:Hello world.\n")
	s.apply("== Topic ==\n:Hello world.\n::Reply.\n")

	removeActions := s.apply("== Topic ==\n:Hello world.\n")
	require.Len(t, removeActions, 1)
	require.Equal(t, action.CommentRemoval, removeActions[0].Type)
	require.Equal(t, 1, s.idx.Len())

	restoreActions := s.apply("== Topic ==\n:Hello world.\n::Reply.\n")
	require.Len(t, restoreActions, 1)
	require.Equal(t, action.CommentRestoration, restoreActions[0].Type)
	require.Equal(t, removeActions[0].ParentID, restoreActions[0].ParentID)
}

func TestScenarioS6Rearrange(t *testing.T) {
	s := newScenario(t)
	firstActions := s.apply("== Topic ==\n:Hello world.\n")
	var headingID string
	for _, a := range firstActions {
		if a.Type == action.SectionCreation {
			headingID = a.ID
		}
	}
	require.NotEmpty(t, headingID)

	s.apply("== Topic ==\n:Hello world.\n::Reply.\n")

	actions := s.apply("== Topic ==\n::Reply.\n:Hello world.\n")
	var rearranged *action.Action
	for i, a := range actions {
		if a.Type == action.CommentRearrangement {
			rearranged = &actions[i]
		}
		require.NotEqual(t, action.CommentRemoval, a.Type)
	}
	require.NotNil(t, rearranged)
	// "::Reply." moved to directly follow the section heading, so it is
	// no longer a reply to "Hello world." but to the heading itself
	// (spec §4.6: rearrangement recomputes replyTo_id in the new context).
	require.Equal(t, headingID, rearranged.ReplyToID)
}
