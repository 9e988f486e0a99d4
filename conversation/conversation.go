// Package conversation implements the Conversation/Authorship Tracker
// (spec §4.6): after the classifier emits a revision's actions, it
// assigns each one a conversation id and a cumulative author set, then
// garbage-collects entries for actions no longer live on the page or
// present in the deleted-comment index.
package conversation

import (
	"github.com/wikidetox/reconstructor/action"
	"github.com/wikidetox/reconstructor/deletedindex"
	"github.com/wikidetox/reconstructor/pagestate"
	"github.com/wikidetox/reconstructor/reconstructerr"
)

// Tracker holds the two maps of spec §3: ConversationMap and
// AuthorshipMap. A Tracker is owned by one page's Reconstructor
// instance, the way DeletedIndex is (spec §5).
type Tracker struct {
	conversations map[string]string
	authors       map[string][]action.Author
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{
		conversations: make(map[string]string),
		authors:       make(map[string][]action.Author),
	}
}

// ConversationID returns the conversation id tracked for actionID, if any.
func (tr *Tracker) ConversationID(actionID string) (string, bool) {
	id, ok := tr.conversations[actionID]
	return id, ok
}

// Authors returns the author set tracked for actionID, if any.
func (tr *Tracker) Authors(actionID string) ([]action.Author, bool) {
	a, ok := tr.authors[actionID]
	return a, ok
}

// LoadEntries bulk-restores conversation/author state from a decoded
// checkpoint blob, replacing whatever the Tracker already holds.
func (tr *Tracker) LoadEntries(conversations map[string]string, authors map[string][]action.Author) {
	tr.conversations = make(map[string]string, len(conversations))
	for k, v := range conversations {
		tr.conversations[k] = v
	}
	tr.authors = make(map[string][]action.Author, len(authors))
	for k, v := range authors {
		tr.authors[k] = v
	}
}

// Apply assigns conversation_id and authors to every action in actions
// (which must already carry its final id, parent_id and replyTo_id, in
// creation order as classify.Process returns them), records the
// results in the Tracker, and prunes stale entries against newPage and
// idx. It returns annotated copies in a new slice; actions itself is
// left unchanged.
func (tr *Tracker) Apply(actions []action.Action, newPage *pagestate.PageState, idx *deletedindex.Index) ([]action.Action, error) {
	out := make([]action.Action, len(actions))
	for i, a := range actions {
		author := action.Author{UserID: a.UserID, UserText: a.UserText}

		switch a.Type {
		case action.CommentAdding, action.SectionCreation:
			if a.ReplyToID == "" {
				a.ConversationID = a.ID
			} else {
				convID, ok := tr.conversations[a.ReplyToID]
				if !ok {
					return nil, reconstructerr.NewUnknownActionID(a.PageID, a.RevID, a.ReplyToID)
				}
				a.ConversationID = convID
			}
			a.Authors = []action.Author{author}

		case action.CommentModification:
			convID, ok := tr.conversations[a.ParentID]
			if !ok {
				return nil, reconstructerr.NewUnknownActionID(a.PageID, a.RevID, a.ParentID)
			}
			a.ConversationID = convID
			a.Authors = appendAuthor(tr.authors[a.ParentID], author)

		case action.CommentRearrangement:
			if a.ReplyToID == "" {
				a.ConversationID = a.ID
			} else {
				convID, ok := tr.conversations[a.ReplyToID]
				if !ok {
					return nil, reconstructerr.NewUnknownActionID(a.PageID, a.RevID, a.ReplyToID)
				}
				a.ConversationID = convID
			}
			a.Authors = tr.authors[a.ParentID]

		case action.CommentRemoval, action.CommentRestoration:
			convID, ok := tr.conversations[a.ParentID]
			if !ok {
				return nil, reconstructerr.NewUnknownActionID(a.PageID, a.RevID, a.ParentID)
			}
			a.ConversationID = convID
			a.Authors = tr.authors[a.ParentID]
		}

		tr.conversations[a.ID] = a.ConversationID
		tr.authors[a.ID] = a.Authors
		out[i] = a
	}

	tr.gc(newPage, idx)
	return out, nil
}

// gc prunes conversations/authors entries whose key is neither a live
// offset's action id in newPage nor present in idx (spec §4.6).
func (tr *Tracker) gc(newPage *pagestate.PageState, idx *deletedindex.Index) {
	live := make(map[string]bool)
	for _, offset := range newPage.Keys() {
		entry, _ := newPage.Get(offset)
		if !entry.Sentinel {
			live[entry.ActionID] = true
		}
	}
	for _, v := range idx.Entries() {
		live[v.ActionID] = true
	}

	for id := range tr.conversations {
		if !live[id] {
			delete(tr.conversations, id)
			delete(tr.authors, id)
		}
	}
}

func appendAuthor(existing []action.Author, a action.Author) []action.Author {
	for _, e := range existing {
		if e.UserID == a.UserID && e.UserText == a.UserText {
			return existing
		}
	}
	out := make([]action.Author, len(existing), len(existing)+1)
	copy(out, existing)
	return append(out, a)
}
