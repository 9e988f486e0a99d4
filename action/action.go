// Package action defines the Action record emitted by the classifier
// for each revision (spec §3), and the per-revision id counter that
// stamps each one `<rev_id>.<seq>` in creation order (spec §4.5).
package action

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/wikidetox/reconstructor/token"
	"github.com/wikidetox/reconstructor/util"
)

// Kind is one of the six action kinds spec §3 defines.
type Kind string

const (
	CommentAdding        Kind = "COMMENT_ADDING"
	CommentModification  Kind = "COMMENT_MODIFICATION"
	CommentRemoval       Kind = "COMMENT_REMOVAL"
	CommentRestoration   Kind = "COMMENT_RESTORATION"
	CommentRearrangement Kind = "COMMENT_REARRANGEMENT"
	SectionCreation      Kind = "SECTION_CREATION"
)

// Author identifies one editor, the way spec §3/§6 pairs a user id with
// its display text.
type Author struct {
	UserID   string
	UserText string
}

// Action is the immutable record emitted per revision (spec §3).
type Action struct {
	ID             string
	Type           Kind
	ParentID       string // empty when nil
	ReplyToID      string // empty when nil
	Indentation    int
	Content        []token.Token
	UserID         string
	UserText       string
	Timestamp      string
	RevID          int
	PageID         string
	PageTitle      string
	ConversationID string
	Authors        []Author
}

// ContentText joins Content's tokens into the literal comment text.
func (a Action) ContentText() string { return token.Join(a.Content) }

// wireAction is the output schema spec §6 names: authors as
// [user_id,user_text] pairs, content as the joined literal text, not
// the token list.
type wireAction struct {
	UserID         string      `json:"user_id"`
	UserText       string      `json:"user_text"`
	Timestamp      string      `json:"timestamp"`
	Content        string      `json:"content"`
	ParentID       string      `json:"parent_id"`
	ReplyToID      string      `json:"replyTo_id"`
	Indentation    int         `json:"indentation"`
	PageID         string      `json:"page_id"`
	PageTitle      string      `json:"page_title"`
	Type           Kind        `json:"type"`
	ID             string      `json:"id"`
	RevID          int         `json:"rev_id"`
	ConversationID string      `json:"conversation_id"`
	Authors        [][2]string `json:"authors"`
}

// MarshalJSON encodes a per spec §6's external output schema.
func (a Action) MarshalJSON() ([]byte, error) {
	authors := util.TransformSlice(a.Authors, func(au Author) [2]string {
		return [2]string{au.UserID, au.UserText}
	})
	return json.Marshal(wireAction{
		UserID:         a.UserID,
		UserText:       a.UserText,
		Timestamp:      a.Timestamp,
		Content:        a.ContentText(),
		ParentID:       a.ParentID,
		ReplyToID:      a.ReplyToID,
		Indentation:    a.Indentation,
		PageID:         a.PageID,
		PageTitle:      a.PageTitle,
		Type:           a.Type,
		ID:             a.ID,
		RevID:          a.RevID,
		ConversationID: a.ConversationID,
		Authors:        authors,
	})
}

// HasParent reports whether ParentID is set.
func (a Action) HasParent() bool { return a.ParentID != "" }

// HasReplyTo reports whether ReplyToID is set.
func (a Action) HasReplyTo() bool { return a.ReplyToID != "" }

// IDCounter assigns `<rev_id>.<seq>` ids in creation order within one
// revision (spec §4.5): rearrangements first, then removals,
// modifications, restorations, additions (carry-forwards never mint an
// id).
type IDCounter struct {
	revID int
	next  int
}

// NewIDCounter starts a fresh counter for revID.
func NewIDCounter(revID int) *IDCounter {
	return &IDCounter{revID: revID}
}

// Next mints the next id for this revision.
func (c *IDCounter) Next() string {
	id := fmt.Sprintf("%d.%d", c.revID, c.next)
	c.next++
	return id
}

// Seq extracts the integer sequence suffix of an action id minted by an
// IDCounter, used for the Phase H sort-by-creation-order step.
func Seq(id string) int {
	idx := strings.LastIndexByte(id, '.')
	if idx < 0 {
		return 0
	}
	n, err := strconv.Atoi(id[idx+1:])
	if err != nil {
		return 0
	}
	return n
}

// RevIDOf extracts the revision-id prefix of an action id.
func RevIDOf(id string) string {
	idx := strings.LastIndexByte(id, '.')
	if idx < 0 {
		return id
	}
	return id[:idx]
}

// SortByCreationOrder sorts actions by their id's integer sequence
// suffix (spec §4.4 Phase H).
func SortByCreationOrder(actions []Action) {
	// insertion sort: revisions emit a small number of actions, and a
	// stable sort keeps ties (e.g. two carried-forward ids — though
	// those never collide) in encounter order.
	for i := 1; i < len(actions); i++ {
		j := i
		for j > 0 && Seq(actions[j-1].ID) > Seq(actions[j].ID) {
			actions[j-1], actions[j] = actions[j], actions[j-1]
			j--
		}
	}
}
