// Package checkpoint implements the codec for the opaque per-revision
// blob spec §6 defines: page state, deleted comments, conversation ids
// and authors, serialized as JSON via goccy/go-json (a drop-in,
// faster encoding/json replacement several repos in the retrieval pack
// depend on).
package checkpoint

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/wikidetox/reconstructor/action"
	"github.com/wikidetox/reconstructor/deletedindex"
	"github.com/wikidetox/reconstructor/pagestate"
	"github.com/wikidetox/reconstructor/util"
)

// entryWire is the on-wire shape of one PageState entry: [action_id, indent].
type entryWire [2]interface{}

// Blob is the decoded form of a checkpoint (spec §6). Offsets and
// actions are kept as native Go types; Encode/Decode handle the
// string-keyed wire representation.
type Blob struct {
	RevID          int
	Timestamp      string
	PageID         string
	PageTitle      string
	PageState      map[int]pagestate.Entry
	DeletedContent map[string]deletedindex.Value
	Conversations  map[string]string
	Authors        map[string][]action.Author
}

// wire is the JSON shape actually written to storage: spec §6 requires
// integer PageState keys to be parsed from their on-wire string form.
type wire struct {
	RevID     int    `json:"rev_id"`
	Timestamp string `json:"timestamp"`
	PageID    string `json:"page_id"`

	PageState struct {
		PageID    string               `json:"page_id"`
		PageTitle string               `json:"page_title"`
		Actions   map[string]entryWire `json:"actions"`
	} `json:"page_state"`

	DeletedComments []deletedCommentWire `json:"deleted_comments"`
	ConversationID  map[string]string    `json:"conversation_id"`
	Authors         map[string][][2]string `json:"authors"`
}

// deletedCommentWire has custom (Un)MarshalJSON below, so its fields
// carry no json tags of their own.
type deletedCommentWire struct {
	Content  string
	ParentID string
	Indent   int
}

// MarshalJSON encodes a deletedCommentWire as the [content, parent_id,
// indent] triple spec §6 specifies.
func (d deletedCommentWire) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{d.Content, d.ParentID, d.Indent})
}

// UnmarshalJSON decodes the [content, parent_id, indent] triple.
func (d *deletedCommentWire) UnmarshalJSON(b []byte) error {
	var triple [3]json.RawMessage
	if err := json.Unmarshal(b, &triple); err != nil {
		return err
	}
	if err := json.Unmarshal(triple[0], &d.Content); err != nil {
		return err
	}
	if err := json.Unmarshal(triple[1], &d.ParentID); err != nil {
		return err
	}
	return json.Unmarshal(triple[2], &d.Indent)
}

// Encode serializes b into the checkpoint wire format.
func Encode(b Blob) ([]byte, error) {
	w := wire{
		RevID:     b.RevID,
		Timestamp: b.Timestamp,
		PageID:    b.PageID,
	}
	w.PageState.PageID = b.PageID
	w.PageState.PageTitle = b.PageTitle
	w.PageState.Actions = make(map[string]entryWire, len(b.PageState))
	for offset, entry := range b.PageState {
		w.PageState.Actions[fmt.Sprintf("%d", offset)] = entryWire{entry.ActionID, entry.Indent}
	}

	// deleted comments serialize as a list, so walk the map in sorted
	// key order to keep byte-for-byte output stable between runs.
	w.DeletedComments = make([]deletedCommentWire, 0, len(b.DeletedContent))
	for content, v := range util.CanonicalMapIter(b.DeletedContent) {
		w.DeletedComments = append(w.DeletedComments, deletedCommentWire{Content: content, ParentID: v.ActionID, Indent: v.Indent})
	}

	w.ConversationID = b.Conversations

	w.Authors = make(map[string][][2]string, len(b.Authors))
	for id, authors := range b.Authors {
		w.Authors[id] = util.TransformSlice(authors, func(a action.Author) [2]string {
			return [2]string{a.UserID, a.UserText}
		})
	}

	return json.Marshal(w)
}

// Decode parses a checkpoint blob previously produced by Encode.
func Decode(data []byte) (Blob, error) {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return Blob{}, fmt.Errorf("checkpoint: decode: %w", err)
	}

	b := Blob{
		RevID:          w.RevID,
		Timestamp:      w.Timestamp,
		PageID:         w.PageID,
		PageTitle:      w.PageState.PageTitle,
		PageState:      make(map[int]pagestate.Entry, len(w.PageState.Actions)),
		DeletedContent: make(map[string]deletedindex.Value, len(w.DeletedComments)),
		Conversations:  w.ConversationID,
		Authors:        make(map[string][]action.Author, len(w.Authors)),
	}

	for offsetStr, ew := range w.PageState.Actions {
		var offset int
		if _, err := fmt.Sscanf(offsetStr, "%d", &offset); err != nil {
			return Blob{}, fmt.Errorf("checkpoint: non-integer page state offset %q: %w", offsetStr, err)
		}
		actionID, _ := ew[0].(string)
		indentF, _ := ew[1].(float64)
		indent := int(indentF)
		b.PageState[offset] = pagestate.Entry{ActionID: actionID, Indent: indent, Sentinel: indent == pagestate.SentinelIndent}
	}

	for _, dc := range w.DeletedComments {
		// spec §6's deleted_comments triple has no removal-revision field,
		// so a restored entry's retention clock restarts from the
		// checkpoint's own rev_id rather than whatever revision actually
		// removed it originally.
		b.DeletedContent[dc.Content] = deletedindex.Value{ActionID: dc.ParentID, Indent: dc.Indent, RemovedAtRevision: w.RevID}
	}

	for id, pairs := range w.Authors {
		authors := make([]action.Author, 0, len(pairs))
		for _, p := range pairs {
			authors = append(authors, action.Author{UserID: p[0], UserText: p[1]})
		}
		b.Authors[id] = authors
	}

	return b, nil
}

// FromPageState builds the PageState portion of a Blob from a live
// *pagestate.PageState.
func FromPageState(ps *pagestate.PageState) map[int]pagestate.Entry {
	out := make(map[int]pagestate.Entry, ps.Len())
	for _, offset := range ps.Keys() {
		entry, _ := ps.Get(offset)
		out[offset] = entry
	}
	return out
}

// ToPageState rebuilds a *pagestate.PageState from a decoded Blob.
func ToPageState(pageID, pageTitle string, entries map[int]pagestate.Entry) *pagestate.PageState {
	ps := pagestate.New(pageID, pageTitle)
	for offset, entry := range entries {
		ps.Insert(offset, entry)
	}
	return ps
}
