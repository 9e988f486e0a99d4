package reconstructerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInvariantErrorUnwraps(t *testing.T) {
	err := NewInvariantViolation("42", 7, "max key must hold sentinel")
	require.True(t, errors.Is(err, ErrInvariantViolation))
	require.Contains(t, err.Error(), "max key must hold sentinel")
}

func TestUnknownActionIDTreatedAsInvariantViolation(t *testing.T) {
	err := NewUnknownActionID("42", 7, "6.3")
	require.True(t, errors.Is(err, ErrUnknownActionID))
	require.True(t, errors.Is(err, ErrInvariantViolation))
}

func TestMalformedRevisionUnwraps(t *testing.T) {
	err := NewMalformedRevision("42", 7, "timestamp")
	require.True(t, errors.Is(err, ErrMalformedRevision))
	require.Contains(t, err.Error(), "timestamp")
}
