package tracker

import (
	"errors"
	"testing"

	"github.com/loving2/Chisels-and-Bits/define"
	"github.com/loving2/Chisels-and-Bits/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stone = define.State{Name: "minecraft:stone"}

// mockTarget records the last snapshot applied to it.
type mockTarget struct {
	applied *storage.Storage
	err     error
}

func (m *mockTarget) ApplySnapshot(s *storage.Storage) error {
	if m.err != nil {
		return m.err
	}
	m.applied = s
	return nil
}

func resolver(targets map[define.Pos]*mockTarget) Resolver {
	return func(pos define.Pos) (Target, error) {
		t, ok := targets[pos]
		if !ok {
			return nil, errors.New("no block entity")
		}
		return t, nil
	}
}

// change returns a before and after pair differing in the cell at x, 0, 0.
func change(x int) (*storage.Storage, *storage.Storage) {
	before := storage.New(4)
	after := before.Snapshot()
	after.SetState(x, 0, 0, stone)
	return before, after
}

func record(t *testing.T, tr *Tracker, pos define.Pos, x int) {
	t.Helper()
	before, after := change(x)
	require.NoError(t, tr.Record(pos, before, after))
}

func TestRecordUndoRedo(t *testing.T) {
	pos := define.Pos{1, 2, 3}
	target := &mockTarget{}
	resolve := resolver(map[define.Pos]*mockTarget{pos: target})

	tr := New(8, nil)
	assert.False(t, tr.CanUndo())
	before, after := change(1)
	require.NoError(t, tr.Record(pos, before, after))
	require.True(t, tr.CanUndo())

	c, err := tr.Undo(resolve)
	require.NoError(t, err)
	assert.Equal(t, pos, c.Pos)
	assert.True(t, target.applied.Equal(before))
	assert.False(t, tr.CanUndo())
	assert.True(t, tr.CanRedo())

	_, err = tr.Redo(resolve)
	require.NoError(t, err)
	assert.True(t, target.applied.Equal(after))
	assert.False(t, tr.CanRedo())
}

func TestEmptyStacks(t *testing.T) {
	tr := New(8, nil)
	_, err := tr.Undo(resolver(nil))
	assert.ErrorIs(t, err, ErrNothingToUndo)
	_, err = tr.Redo(resolver(nil))
	assert.ErrorIs(t, err, ErrNothingToRedo)
}

func TestRecordDiscardsRedo(t *testing.T) {
	pos := define.Pos{}
	resolve := resolver(map[define.Pos]*mockTarget{pos: {}})
	tr := New(8, nil)

	record(t, tr, pos, 0)
	_, err := tr.Undo(resolve)
	require.NoError(t, err)
	require.True(t, tr.CanRedo())

	require.NoError(t, tr.Record(pos, storage.New(4), storage.New(4)))
	assert.False(t, tr.CanRedo())
}

func TestHistoryIsBounded(t *testing.T) {
	tr := New(3, nil)
	for x := 0; x < 4; x++ {
		before, after := change(x)
		require.NoError(t, tr.Record(define.Pos{x}, before, after))
	}
	history := tr.History()
	require.Len(t, history, 3)
	assert.Equal(t, define.Pos{1}, history[0].Pos)
	assert.Equal(t, define.Pos{3}, history[2].Pos)
	assert.Less(t, history[0].Sequence, history[1].Sequence)
	assert.Less(t, history[1].Sequence, history[2].Sequence)
}

func TestUndoFailureKeepsChange(t *testing.T) {
	pos := define.Pos{}
	target := &mockTarget{err: errors.New("entity gone")}
	tr := New(8, nil)
	require.NoError(t, tr.Record(pos, storage.New(4), storage.New(4)))

	_, err := tr.Undo(resolver(map[define.Pos]*mockTarget{pos: target}))
	assert.Error(t, err)
	assert.True(t, tr.CanUndo())

	_, err = tr.Undo(resolver(nil))
	assert.Error(t, err)
	assert.True(t, tr.CanUndo())
}

func TestChangeDecodesStorages(t *testing.T) {
	tr := New(8, nil)
	before, after := change(2)
	require.NoError(t, tr.Record(define.Pos{}, before, after))

	c := tr.History()[0]
	b, err := c.BeforeStorage()
	require.NoError(t, err)
	a, err := c.AfterStorage()
	require.NoError(t, err)
	assert.True(t, b.Equal(before))
	assert.True(t, a.Equal(after))
	assert.Equal(t, stone, a.State(2, 0, 0))
}
