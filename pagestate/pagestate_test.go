package pagestate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSatisfiesInvariants(t *testing.T) {
	ps := New("42", "Talk:Example")
	require.Equal(t, "", ps.CheckInvariants())
	_, ok := ps.Get(0)
	require.True(t, ok)
}

func TestInsertMoveRemove(t *testing.T) {
	ps := New("42", "Talk:Example")
	ps.Insert(5, Entry{ActionID: "1.0", Indent: 1})
	ps.Insert(20, sentinelEntry())
	ps.Remove(0)
	ps.Insert(0, Entry{ActionID: "1.0", Indent: 1})
	require.Equal(t, "", ps.CheckInvariants())

	require.NoError(t, ps.Move(5, 8))
	_, ok := ps.Get(5)
	require.False(t, ok)
	e, ok := ps.Get(8)
	require.True(t, ok)
	require.Equal(t, "1.0", e.ActionID)
}

func TestGetActionStartAndEnd(t *testing.T) {
	ps := New("42", "Talk:Example")
	ps.Insert(10, Entry{ActionID: "1.0", Indent: 0})
	ps.Insert(30, Entry{ActionID: "1.1", Indent: 1})
	ps.Insert(50, sentinelEntry())

	start, entry, ok := ps.GetActionStart(15)
	require.True(t, ok)
	require.Equal(t, 10, start)
	require.Equal(t, "1.0", entry.ActionID)

	end, endEntry, ok := ps.GetActionEnd(10)
	require.True(t, ok)
	require.Equal(t, 30, end)
	require.Equal(t, "1.1", endEntry.ActionID)
}

func TestFindPos(t *testing.T) {
	ps := New("42", "Talk:Example")
	ps.Remove(0)
	ps.Insert(0, Entry{ActionID: "1.0", Indent: 0})
	ps.Insert(10, Entry{ActionID: "1.1", Indent: 1})
	ps.Insert(30, Entry{ActionID: "1.2", Indent: 1})
	ps.Insert(50, sentinelEntry())

	require.Equal(t, 0, ps.FindPos(0))
	require.Equal(t, 0, ps.FindPos(5))
	require.Equal(t, 1, ps.FindPos(10))
	require.Equal(t, 1, ps.FindPos(29))
	require.Equal(t, 2, ps.FindPos(30))
	require.Equal(t, 3, ps.FindPos(50))
	require.Equal(t, -1, ps.FindPos(-1))
}

func TestCloneIsIndependent(t *testing.T) {
	ps := New("42", "Talk:Example")
	ps.Insert(10, Entry{ActionID: "1.0"})
	clone := ps.Clone()
	clone.Insert(20, Entry{ActionID: "1.1"})

	_, ok := ps.Get(20)
	require.False(t, ok)
	_, ok = clone.Get(20)
	require.True(t, ok)
}
