package tracker

import (
	"testing"

	"github.com/loving2/Chisels-and-Bits/define"
	"github.com/loving2/Chisels-and-Bits/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupJournal(t *testing.T) *SQLiteJournal {
	t.Helper()
	j, err := OpenSQLiteJournal(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestSQLiteJournalAppendLoad(t *testing.T) {
	j := setupJournal(t)
	tr := New(8, j)
	for x := 0; x < 3; x++ {
		before, after := change(x)
		require.NoError(t, tr.Record(define.Pos{x, 64, -x}, before, after))
	}

	changes, err := j.Load(2)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, define.Pos{1, 64, -1}, changes[0].Pos)
	assert.Equal(t, define.Pos{2, 64, -2}, changes[1].Pos)
	assert.Equal(t, tr.History()[2].ID, changes[1].ID)
	assert.Equal(t, 4, changes[1].Size)

	after, err := changes[1].AfterStorage()
	require.NoError(t, err)
	assert.Equal(t, stone, after.State(2, 0, 0))
}

func TestTrackerRestoresFromJournal(t *testing.T) {
	j := setupJournal(t)
	pos := define.Pos{5, 5, 5}
	target := &mockTarget{}
	resolve := resolver(map[define.Pos]*mockTarget{pos: target})

	first := New(8, j)
	for x := 0; x < 3; x++ {
		before, after := change(x)
		require.NoError(t, first.Record(pos, before, after))
	}
	_, err := first.Undo(resolve)
	require.NoError(t, err)

	second := New(8, j)
	require.NoError(t, second.Restore())
	assert.Len(t, second.History(), 2)
	require.True(t, second.CanRedo())

	c, err := second.Redo(resolve)
	require.NoError(t, err)
	assert.Equal(t, stone, target.applied.State(2, 0, 0))
	assert.False(t, c.Undone)

	// New changes continue the sequence of the restored ones.
	require.NoError(t, second.Record(pos, storage.New(4), storage.New(4)))
	history := second.History()
	assert.Greater(t, history[len(history)-1].Sequence, c.Sequence)
}

func TestSQLiteJournalDiscardUndone(t *testing.T) {
	j := setupJournal(t)
	pos := define.Pos{}
	tr := New(8, j)
	record(t, tr, pos, 0)
	record(t, tr, pos, 1)
	_, err := tr.Undo(resolver(map[define.Pos]*mockTarget{pos: {}}))
	require.NoError(t, err)

	record(t, tr, pos, 2)
	changes, err := j.Load(10)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	for _, c := range changes {
		assert.False(t, c.Undone)
	}
}
