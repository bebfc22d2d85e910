package multistate

import (
	"github.com/google/uuid"
	"github.com/loving2/Chisels-and-Bits/define"
	"github.com/loving2/Chisels-and-Bits/storage"
)

// Recorder records the contents of a block entity before and after a tracked batch.
type Recorder interface {
	Record(pos define.Pos, before, after *storage.Storage) error
}

// BatchMutation is a handle on an open batch of a block entity. While at least one batch is open, changes
// to the entity do not notify its notifier. Closing the last open batch notifies it exactly once. A
// BatchMutation is used by a single goroutine and must always be closed, typically using defer.
type BatchMutation struct {
	id     uuid.UUID
	entity *BlockEntity
	closed bool

	recorder Recorder
	before   *storage.Storage
}

// Batch opens a new batch on the entity.
func (e *BlockEntity) Batch() *BatchMutation {
	return e.openBatch(nil)
}

// TrackedBatch opens a new batch on the entity that records the contents of the entity before the batch
// and after it was closed in the recorder passed.
func (e *BlockEntity) TrackedBatch(r Recorder) *BatchMutation {
	return e.openBatch(r)
}

// OpenBatches returns the amount of batches currently open on the entity.
func (e *BlockEntity) OpenBatches() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.open
}

func (e *BlockEntity) openBatch(r Recorder) *BatchMutation {
	b := &BatchMutation{id: uuid.New(), entity: e, recorder: r}
	e.mu.Lock()
	e.open++
	if r != nil {
		b.before = e.storage.Snapshot()
	}
	e.mu.Unlock()
	return b
}

// ID returns the unique ID of the batch.
func (b *BatchMutation) ID() uuid.UUID {
	return b.id
}

// Close closes the batch. Tracked batches record their change before the entity is notified, and only if
// the contents of the entity changed. Closing a batch more than once has no effect.
func (b *BatchMutation) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true

	var err error
	if b.recorder != nil {
		if after := b.entity.Snapshot(); !after.Equal(b.before) {
			err = b.recorder.Record(b.entity.pos, b.before, after)
		}
		b.before = nil
	}

	e := b.entity
	e.mu.Lock()
	e.open--
	e.mu.Unlock()
	e.MarkDirty()
	return err
}
