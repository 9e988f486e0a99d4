// Package reconstruct wires the core components — tokenizer, differ
// (inside classify), page state, deleted-comment index, action
// classifier, and conversation/authorship tracker — into the
// per-page Reconstructor instance spec §5 describes: no shared state,
// no internal concurrency, one instance per page_id.
package reconstruct

import (
	"fmt"
	"time"

	"github.com/wikidetox/reconstructor/action"
	"github.com/wikidetox/reconstructor/checkpoint"
	"github.com/wikidetox/reconstructor/classify"
	"github.com/wikidetox/reconstructor/config"
	"github.com/wikidetox/reconstructor/conversation"
	"github.com/wikidetox/reconstructor/deletedindex"
	"github.com/wikidetox/reconstructor/pagestate"
	"github.com/wikidetox/reconstructor/reconstructerr"
	"github.com/wikidetox/reconstructor/token"
)

// RevisionInput is one revision of spec §6's external input record:
// `rev_id, timestamp, page_id, page_title, user_id, user_text, text`.
type RevisionInput struct {
	RevID     int    `json:"rev_id"`
	Timestamp string `json:"timestamp"` // RFC3339
	PageID    string `json:"page_id"`
	PageTitle string `json:"page_title"`
	UserID    string `json:"user_id"`
	UserText  string `json:"user_text"`
	Text      string `json:"text"` // already HTML-cleaned, per spec §1 scope
}

// Reconstructor replays one page's revision history (spec §5). It owns
// the DeletedIndex exclusively and holds no reference to any other
// page's state.
type Reconstructor struct {
	cfg       config.Config
	cls       *classify.Classifier
	tracker   *conversation.Tracker
	idx       *deletedindex.Index
	page      *pagestate.PageState
	tokens    []token.Token
	lastTime  time.Time
	haveTime  bool
	revID     int
}

// New starts a fresh Reconstructor for an empty page.
func New(cfg config.Config, pageID, pageTitle string) *Reconstructor {
	return &Reconstructor{
		cfg:     cfg,
		cls:     classify.New(cfg),
		tracker: conversation.New(),
		idx:     deletedindex.New(),
		page:    pagestate.New(pageID, pageTitle),
	}
}

// FromCheckpoint rebuilds a Reconstructor from a previously decoded
// checkpoint blob, resuming exactly where the run that wrote it left
// off (spec §6 checkpoint blob contract).
func FromCheckpoint(cfg config.Config, b checkpoint.Blob, lastText string) (*Reconstructor, error) {
	r := &Reconstructor{
		cfg:     cfg,
		cls:     classify.New(cfg),
		tracker: conversation.New(),
		idx:     deletedindex.New(),
		page:    checkpoint.ToPageState(b.PageID, b.PageTitle, b.PageState),
		tokens:  token.Tokenize(lastText),
		revID:   b.RevID,
	}
	r.idx.LoadEntries(b.DeletedContent)
	r.tracker.LoadEntries(b.Conversations, b.Authors)
	t, err := time.Parse(time.RFC3339, b.Timestamp)
	if err == nil {
		r.lastTime, r.haveTime = t, true
	}
	return r, nil
}

// ProcessRevision validates rev, runs the classifier and the
// conversation tracker, and advances the Reconstructor's state.
func (r *Reconstructor) ProcessRevision(rev RevisionInput) ([]action.Action, error) {
	if rev.PageID == "" || rev.UserID == "" {
		return nil, reconstructerr.NewMalformedRevision(rev.PageID, rev.RevID, "page_id/user_id")
	}
	ts, err := time.Parse(time.RFC3339, rev.Timestamp)
	if err != nil {
		return nil, reconstructerr.NewMalformedRevision(rev.PageID, rev.RevID, "timestamp")
	}
	if r.haveTime && !ts.After(r.lastTime) {
		return nil, reconstructerr.NewMalformedRevision(rev.PageID, rev.RevID, "timestamp")
	}

	newTokens := token.Tokenize(rev.Text)
	classifyRev := classify.Revision{
		RevID:     rev.RevID,
		Timestamp: rev.Timestamp,
		PageID:    rev.PageID,
		PageTitle: rev.PageTitle,
		UserID:    rev.UserID,
		UserText:  rev.UserText,
	}

	newPage, actions, err := r.cls.Process(r.page, r.tokens, newTokens, r.idx, classifyRev)
	if err != nil {
		return nil, err
	}

	actions, err = r.tracker.Apply(actions, newPage, r.idx)
	if err != nil {
		return nil, err
	}

	r.page = newPage
	r.tokens = newTokens
	r.lastTime, r.haveTime = ts, true
	r.revID = rev.RevID
	if r.cfg.DeletedRetentionRevisions > 0 {
		r.idx.PruneBefore(rev.RevID - r.cfg.DeletedRetentionRevisions)
	}
	return actions, nil
}

// Checkpoint builds the spec §6 blob for the Reconstructor's current
// state.
func (r *Reconstructor) Checkpoint(timestamp string) checkpoint.Blob {
	return checkpoint.Blob{
		RevID:          r.revID,
		Timestamp:      timestamp,
		PageID:         r.page.PageID,
		PageTitle:      r.page.PageTitle,
		PageState:      checkpoint.FromPageState(r.page),
		DeletedContent: r.idx.Entries(),
		Conversations:  r.conversationSnapshot(),
		Authors:        r.authorSnapshot(),
	}
}

// authorSnapshot reads back the author set of every action live on the
// page or held in the deleted-comment index, for checkpointing.
func (r *Reconstructor) authorSnapshot() map[string][]action.Author {
	out := make(map[string][]action.Author)
	for _, offset := range r.page.Keys() {
		entry, _ := r.page.Get(offset)
		if entry.Sentinel {
			continue
		}
		if authors, ok := r.tracker.Authors(entry.ActionID); ok {
			out[entry.ActionID] = authors
		}
	}
	for _, v := range r.idx.Entries() {
		if authors, ok := r.tracker.Authors(v.ActionID); ok {
			out[v.ActionID] = authors
		}
	}
	return out
}

// conversationSnapshot reads back the conversation id of every action
// live on the page or held in the deleted-comment index, for
// checkpointing.
func (r *Reconstructor) conversationSnapshot() map[string]string {
	out := make(map[string]string)
	for _, offset := range r.page.Keys() {
		entry, _ := r.page.Get(offset)
		if entry.Sentinel {
			continue
		}
		if convID, ok := r.tracker.ConversationID(entry.ActionID); ok {
			out[entry.ActionID] = convID
		}
	}
	for _, v := range r.idx.Entries() {
		if convID, ok := r.tracker.ConversationID(v.ActionID); ok {
			out[v.ActionID] = convID
		}
	}
	return out
}

// PositionOf returns actionID's sequential index among the page's
// currently-live actions (pagestate.FindPos), for diagnostic output —
// e.g. the CLI's --debug pretty-printer. ok is false if actionID is not
// currently live on the page (already removed, or never on this page).
func (r *Reconstructor) PositionOf(actionID string) (int, bool) {
	for _, offset := range r.page.Keys() {
		entry, _ := r.page.Get(offset)
		if entry.Sentinel {
			continue
		}
		if entry.ActionID == actionID {
			return r.page.FindPos(offset), true
		}
	}
	return 0, false
}

// LastContentText returns the joined text of the last-processed
// revision, for callers that need to persist it alongside a
// checkpoint (the checkpoint blob itself does not carry full content,
// per spec §6).
func (r *Reconstructor) LastContentText() string { return token.Join(r.tokens) }

func (r *Reconstructor) String() string {
	return fmt.Sprintf("Reconstructor{page=%s rev=%d actions_live=%d}", r.page.PageID, r.revID, r.page.Len())
}
