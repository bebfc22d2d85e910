package tracker

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/loving2/Chisels-and-Bits/define"
	"github.com/loving2/Chisels-and-Bits/storage"
	"go.uber.org/atomic"
)

var (
	// ErrNothingToUndo is returned by Undo if no change is left to be undone.
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrNothingToRedo is returned by Redo if no undone change is left to be redone.
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Change is a single undo step: the contents of the block entity at Pos before and after a tracked batch.
// The contents are held in their network form.
type Change struct {
	ID       uuid.UUID
	Sequence int64
	Pos      define.Pos
	Size     int
	Before   []byte
	After    []byte
	Time     time.Time
	// Undone is true if the change was undone and may be redone.
	Undone bool
}

// BeforeStorage decodes the contents before the change.
func (c Change) BeforeStorage() (*storage.Storage, error) {
	return decode(c.Size, c.Before)
}

// AfterStorage decodes the contents after the change.
func (c Change) AfterStorage() (*storage.Storage, error) {
	return decode(c.Size, c.After)
}

// Target is a block entity that changes may be applied to.
type Target interface {
	ApplySnapshot(s *storage.Storage) error
}

// Resolver finds the target of a change at the position passed.
type Resolver func(pos define.Pos) (Target, error)

// Journal persists changes, so that they may be undone by a later process.
type Journal interface {
	// Append stores a new change.
	Append(c Change) error
	// SetUndone updates the undone flag of a stored change.
	SetUndone(id uuid.UUID, undone bool) error
	// DiscardUndone removes all changes that are currently undone.
	DiscardUndone() error
	// Load returns up to limit of the most recent changes, ordered by sequence.
	Load(limit int) ([]Change, error)
}

// Tracker keeps the changes recorded by tracked batches and undoes and redoes them. At most max changes are
// kept: recording a change beyond that drops the oldest one.
type Tracker struct {
	sequence *atomic.Int64
	max      int
	journal  Journal

	mu   sync.Mutex
	undo []Change
	redo []Change
}

// New returns a tracker keeping at most max changes. A max below 1 keeps a single change. The journal may
// be nil.
func New(max int, journal Journal) *Tracker {
	if max <= 0 {
		max = 1
	}
	return &Tracker{sequence: atomic.NewInt64(0), max: max, journal: journal}
}

// Restore loads the changes of the journal of the tracker into the undo and redo stacks.
func (t *Tracker) Restore() error {
	if t.journal == nil {
		return nil
	}
	changes, err := t.journal.Load(t.max)
	if err != nil {
		return fmt.Errorf("restore changes: %w", err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.undo, t.redo = nil, nil
	for _, c := range changes {
		if c.Undone {
			continue
		}
		t.undo = append(t.undo, c)
	}
	// The redo stack holds the most recently undone change, which is the oldest undone one, on top.
	for i := len(changes) - 1; i >= 0; i-- {
		if changes[i].Undone {
			t.redo = append(t.redo, changes[i])
		}
	}
	if len(changes) > 0 {
		t.sequence.Store(changes[len(changes)-1].Sequence)
	}
	return nil
}

// Record records a change of the block entity at pos. Recording a change discards all undone changes.
// Record implements multistate.Recorder.
func (t *Tracker) Record(pos define.Pos, before, after *storage.Storage) error {
	c := Change{
		ID:       uuid.New(),
		Sequence: t.sequence.Inc(),
		Pos:      pos,
		Size:     before.Size(),
		Time:     time.Now(),
	}
	var err error
	if c.Before, err = encode(before); err != nil {
		return err
	}
	if c.After, err = encode(after); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.journal != nil {
		if len(t.redo) > 0 {
			if err := t.journal.DiscardUndone(); err != nil {
				return fmt.Errorf("discard undone changes: %w", err)
			}
		}
		if err := t.journal.Append(c); err != nil {
			return fmt.Errorf("append change: %w", err)
		}
	}
	t.redo = nil
	t.undo = append(t.undo, c)
	if len(t.undo) > t.max {
		t.undo = append([]Change(nil), t.undo[len(t.undo)-t.max:]...)
	}
	return nil
}

// Undo reverts the most recent change, applying its contents before the change to the target resolved for
// its position.
func (t *Tracker) Undo(resolve Resolver) (Change, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.undo) == 0 {
		return Change{}, ErrNothingToUndo
	}
	c := t.undo[len(t.undo)-1]
	if err := t.apply(resolve, c, c.Before, true); err != nil {
		return c, err
	}
	t.undo = t.undo[:len(t.undo)-1]
	c.Undone = true
	t.redo = append(t.redo, c)
	return c, nil
}

// Redo re-applies the most recently undone change.
func (t *Tracker) Redo(resolve Resolver) (Change, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.redo) == 0 {
		return Change{}, ErrNothingToRedo
	}
	c := t.redo[len(t.redo)-1]
	if err := t.apply(resolve, c, c.After, false); err != nil {
		return c, err
	}
	t.redo = t.redo[:len(t.redo)-1]
	c.Undone = false
	t.undo = append(t.undo, c)
	return c, nil
}

// CanUndo checks if there is a change that may be undone.
func (t *Tracker) CanUndo() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.undo) > 0
}

// CanRedo checks if there is an undone change that may be redone.
func (t *Tracker) CanRedo() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.redo) > 0
}

// History returns the changes that may be undone, oldest first.
func (t *Tracker) History() []Change {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Change(nil), t.undo...)
}

func (t *Tracker) apply(resolve Resolver, c Change, contents []byte, undone bool) error {
	s, err := decode(c.Size, contents)
	if err != nil {
		return fmt.Errorf("decode change %v: %w", c.ID, err)
	}
	target, err := resolve(c.Pos)
	if err != nil {
		return fmt.Errorf("resolve %v: %w", c.Pos, err)
	}
	if err := target.ApplySnapshot(s); err != nil {
		return fmt.Errorf("apply change %v: %w", c.ID, err)
	}
	if t.journal != nil {
		if err := t.journal.SetUndone(c.ID, undone); err != nil {
			return fmt.Errorf("update change %v: %w", c.ID, err)
		}
	}
	return nil
}

func encode(s *storage.Storage) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if _, err := s.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("encode storage: %w", err)
	}
	return buf.Bytes(), nil
}

func decode(size int, b []byte) (*storage.Storage, error) {
	s := storage.New(size)
	if _, err := s.ReadFrom(bytes.NewReader(b)); err != nil {
		return nil, err
	}
	return s, nil
}
