// Package reconstructerr defines the sentinel errors and wrapped error
// types the core pipeline returns (spec §7). Shaped after tarsy's
// pkg/config error design: sentinels for errors.Is, a wrapped struct
// carrying context for errors.As.
package reconstructerr

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRevision means a revision is missing a required field
	// or its timestamp is non-monotonic with respect to the previous
	// revision of the same page.
	ErrMalformedRevision = errors.New("malformed revision")

	// ErrInvariantViolation means a PageState invariant (§3 i-iv) no
	// longer holds after Phase G.
	ErrInvariantViolation = errors.New("page state invariant violation")

	// ErrDiffInconsistency means a diff op's indices fall outside the
	// bounds of the token sequences it was computed over.
	ErrDiffInconsistency = errors.New("diff op indices out of range")

	// ErrUnknownActionID means a conversation/authorship lookup missed a
	// required parent id; treated as ErrInvariantViolation (spec §7).
	ErrUnknownActionID = fmt.Errorf("unknown action id: %w", ErrInvariantViolation)
)

// InvariantError wraps ErrInvariantViolation, ErrDiffInconsistency or
// ErrUnknownActionID with the revision and, where applicable, the
// invariant or action id involved.
type InvariantError struct {
	PageID    string
	RevID     int
	Invariant string // human-readable invariant name, e.g. "max key must hold sentinel"
	Err       error
}

// Error returns a formatted message.
func (e *InvariantError) Error() string {
	if e.Invariant != "" {
		return fmt.Sprintf("page %s rev %d: %v: %s", e.PageID, e.RevID, e.Err, e.Invariant)
	}
	return fmt.Sprintf("page %s rev %d: %v", e.PageID, e.RevID, e.Err)
}

// Unwrap returns the wrapped sentinel, so errors.Is(err, ErrInvariantViolation) works.
func (e *InvariantError) Unwrap() error { return e.Err }

// NewInvariantViolation builds an InvariantError around ErrInvariantViolation.
func NewInvariantViolation(pageID string, revID int, invariant string) *InvariantError {
	return &InvariantError{PageID: pageID, RevID: revID, Invariant: invariant, Err: ErrInvariantViolation}
}

// NewUnknownActionID builds an InvariantError around ErrUnknownActionID,
// per spec §7's "treat as InvariantViolation" rule.
func NewUnknownActionID(pageID string, revID int, actionID string) *InvariantError {
	return &InvariantError{PageID: pageID, RevID: revID, Invariant: fmt.Sprintf("unknown action id %q", actionID), Err: ErrUnknownActionID}
}

// NewDiffInconsistency builds an InvariantError around ErrDiffInconsistency.
func NewDiffInconsistency(pageID string, revID int, detail string) *InvariantError {
	return &InvariantError{PageID: pageID, RevID: revID, Invariant: detail, Err: ErrDiffInconsistency}
}

// RevisionError wraps ErrMalformedRevision with the offending field.
type RevisionError struct {
	PageID string
	RevID  int
	Field  string
	Err    error
}

func (e *RevisionError) Error() string {
	return fmt.Sprintf("page %s rev %d: field %q: %v", e.PageID, e.RevID, e.Field, e.Err)
}

func (e *RevisionError) Unwrap() error { return e.Err }

// NewMalformedRevision builds a RevisionError around ErrMalformedRevision.
func NewMalformedRevision(pageID string, revID int, field string) *RevisionError {
	return &RevisionError{PageID: pageID, RevID: revID, Field: field, Err: ErrMalformedRevision}
}
