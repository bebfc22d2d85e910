package multistate

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/loving2/Chisels-and-Bits/define"
	"github.com/loving2/Chisels-and-Bits/statistics"
	"github.com/loving2/Chisels-and-Bits/storage"
)

var (
	// ErrSpaceOccupied is returned when a state is set on a cell that already holds a state other than air.
	ErrSpaceOccupied = errors.New("space occupied")
	// ErrOutOfArea is returned when an in-area target is outside the unit cube of the block.
	ErrOutOfArea = errors.New("target is not in the current area")
	// ErrNotInBlock is returned when an in-block target is given with an offset pointing to another block.
	ErrNotInBlock = errors.New("offset is not inside the current block")
)

// Notifier is called with the position of a block entity whenever it changed outside of a batch, or when
// its last batch was closed.
type Notifier func(pos define.Pos)

// Option configures a BlockEntity.
type Option func(e *BlockEntity)

// WithNotifier sets the function notified of changes to the entity.
func WithNotifier(n Notifier) Option {
	return func(e *BlockEntity) {
		e.notify = n
	}
}

// BlockEntity is a single block of the world that is subdivided into a grid of cells. It owns the storage
// holding the cells and the statistics over them, and keeps both in sync on every mutation. All methods
// are safe for concurrent use: mutations are serialised and readers never observe a partial write.
type BlockEntity struct {
	pos   define.Pos
	size  int
	props statistics.Properties

	mu      sync.RWMutex
	storage *storage.Storage
	stats   *statistics.Statistics
	// open is the amount of batches currently open on the entity.
	open   int
	notify Notifier
}

// New creates an empty block entity at pos, subdivided into size cells per side.
func New(pos define.Pos, size int, props statistics.Properties, opts ...Option) *BlockEntity {
	e := &BlockEntity{
		pos:     pos,
		size:    size,
		props:   props,
		storage: storage.New(size),
		stats:   statistics.New(size, props),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Pos returns the position of the block in the world.
func (e *BlockEntity) Pos() define.Pos {
	return e.pos
}

// Size returns the amount of cells per side.
func (e *BlockEntity) Size() int {
	return e.size
}

// State returns the state of the cell at x, y and z.
func (e *BlockEntity) State(x, y, z int) define.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.storage.State(x, y, z)
}

// IsInside checks if the in-area target passed lies within the unit cube of the block.
func (e *BlockEntity) IsInside(target mgl64.Vec3) bool {
	return target[0] >= 0 && target[1] >= 0 && target[2] >= 0 && target[0] < 1 && target[1] < 1 && target[2] < 1
}

// IsInsideBlock checks if the in-block target with the block offset passed lies within the block.
func (e *BlockEntity) IsInsideBlock(offset define.Pos, target mgl64.Vec3) bool {
	return offset == (define.Pos{}) && e.IsInside(target)
}

// CellAt returns the position of the cell the in-area target passed lies in.
func (e *BlockEntity) CellAt(target mgl64.Vec3) (define.Pos, error) {
	if !e.IsInside(target) {
		return define.Pos{}, fmt.Errorf("target %v: %w", target, ErrOutOfArea)
	}
	scaled := target.Mul(float64(e.Size()))
	return define.Pos{int(math.Floor(scaled[0])), int(math.Floor(scaled[1])), int(math.Floor(scaled[2]))}, nil
}

// InAreaTarget returns the in-area target at the lower corner of the cell at pos.
func (e *BlockEntity) InAreaTarget(pos define.Pos) mgl64.Vec3 {
	return mgl64.Vec3{float64(pos[0]), float64(pos[1]), float64(pos[2])}.Mul(1 / float64(e.Size()))
}

// GetInAreaTarget returns the entry of the cell at the in-area target passed. If the cell holds air, ok is
// false.
func (e *BlockEntity) GetInAreaTarget(target mgl64.Vec3) (entry Entry, ok bool, err error) {
	pos, err := e.CellAt(target)
	if err != nil {
		return Entry{}, false, err
	}
	e.mu.RLock()
	state := e.storage.State(pos[0], pos[1], pos[2])
	e.mu.RUnlock()
	if state.IsAir() {
		return Entry{}, false, nil
	}
	return e.entry(pos, state), true, nil
}

// GetInBlockTarget is GetInAreaTarget for an in-block target. The offset must be zero.
func (e *BlockEntity) GetInBlockTarget(offset define.Pos, target mgl64.Vec3) (Entry, bool, error) {
	if offset != (define.Pos{}) {
		return Entry{}, false, fmt.Errorf("offset %v: %w", offset, ErrNotInBlock)
	}
	return e.GetInAreaTarget(target)
}

// SetInAreaTarget sets the cell at the in-area target passed to the state passed. ErrSpaceOccupied is
// returned if the cell does not hold air.
func (e *BlockEntity) SetInAreaTarget(state define.State, target mgl64.Vec3) error {
	pos, err := e.CellAt(target)
	if err != nil {
		return err
	}
	return e.mutate(func() error {
		current := e.storage.State(pos[0], pos[1], pos[2])
		if !current.IsAir() {
			return fmt.Errorf("cell %v holds %v: %w", pos, current, ErrSpaceOccupied)
		}
		e.set(pos, current, state)
		return nil
	})
}

// SetInBlockTarget is SetInAreaTarget for an in-block target. The offset must be zero.
func (e *BlockEntity) SetInBlockTarget(state define.State, offset define.Pos, target mgl64.Vec3) error {
	if offset != (define.Pos{}) {
		return fmt.Errorf("offset %v: %w", offset, ErrNotInBlock)
	}
	return e.SetInAreaTarget(state, target)
}

// ClearInAreaTarget sets the cell at the in-area target passed to air.
func (e *BlockEntity) ClearInAreaTarget(target mgl64.Vec3) error {
	pos, err := e.CellAt(target)
	if err != nil {
		return err
	}
	return e.mutate(func() error {
		e.set(pos, e.storage.State(pos[0], pos[1], pos[2]), define.Air)
		return nil
	})
}

// ClearInBlockTarget is ClearInAreaTarget for an in-block target. The offset must be zero.
func (e *BlockEntity) ClearInBlockTarget(offset define.Pos, target mgl64.Vec3) error {
	if offset != (define.Pos{}) {
		return fmt.Errorf("offset %v: %w", offset, ErrNotInBlock)
	}
	return e.ClearInAreaTarget(target)
}

// ForEach calls f with the entry of every cell of the entity, including those holding air.
func (e *BlockEntity) ForEach(f func(entry Entry)) {
	e.mu.RLock()
	entries := make([]Entry, 0, e.Size()*e.Size()*e.Size())
	e.storage.ForEach(func(pos define.Pos, state define.State) {
		entries = append(entries, e.entry(pos, state))
	})
	e.mu.RUnlock()
	for _, entry := range entries {
		f(entry)
	}
}

// InitializeWith sets every cell of the entity to the state passed.
func (e *BlockEntity) InitializeWith(state define.State) {
	_ = e.mutate(func() error {
		e.storage.InitializeWith(state)
		e.stats.InitializeWith(state)
		return nil
	})
}

// FillFromBottom clears the entity and fills the first count cells with the state passed, layer by layer
// from the bottom up.
func (e *BlockEntity) FillFromBottom(state define.State, count int) {
	_ = e.mutate(func() error {
		e.storage.FillFromBottom(state, count)
		e.stats = statistics.Rescan(e.storage, e.props)
		return nil
	})
}

// Rotate rotates the contents of the entity rotationCount times by 90 degrees about the axis passed.
func (e *BlockEntity) Rotate(axis define.Axis, rotationCount int) {
	_ = e.mutate(func() error {
		e.storage.Rotate(axis, rotationCount)
		e.stats = statistics.Rescan(e.storage, e.props)
		return nil
	})
}

// Mirror flips the contents of the entity along the axis passed.
func (e *BlockEntity) Mirror(axis define.Axis) {
	_ = e.mutate(func() error {
		e.storage.Mirror(axis)
		e.stats = statistics.Rescan(e.storage, e.props)
		return nil
	})
}

// Identifier returns the shape identifier of the current contents of the entity.
func (e *BlockEntity) Identifier() storage.Identifier {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.storage.Identifier()
}

// Snapshot returns a deep copy of the storage of the entity.
func (e *BlockEntity) Snapshot() *storage.Storage {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.storage.Snapshot()
}

// ApplySnapshot replaces the contents of the entity with a copy of the storage passed, which must be of the
// same size.
func (e *BlockEntity) ApplySnapshot(s *storage.Storage) error {
	if s.Size() != e.Size() {
		return fmt.Errorf("apply snapshot of size %v to entity of size %v", s.Size(), e.Size())
	}
	return e.mutate(func() error {
		e.storage = s.Snapshot()
		e.stats = statistics.Rescan(e.storage, e.props)
		return nil
	})
}

// Statistics returns a read-only view of the statistics of the entity. The view reflects later changes to
// the entity.
func (e *BlockEntity) Statistics() Statistics {
	return statisticsView{e: e}
}

// MarkDirty notifies the notifier of the entity that it changed, unless a batch is open.
func (e *BlockEntity) MarkDirty() {
	e.mu.RLock()
	open, notify := e.open, e.notify
	e.mu.RUnlock()
	if open == 0 && notify != nil {
		notify(e.pos)
	}
}

// mutate runs f with the entity locked for writing and marks the entity dirty if f succeeded. The notifier
// is called after the lock is released.
func (e *BlockEntity) mutate(f func() error) error {
	e.mu.Lock()
	err := f()
	e.mu.Unlock()
	if err != nil {
		return err
	}
	e.MarkDirty()
	return nil
}

// set writes a single cell and updates the statistics for it. The entity must be locked for writing.
func (e *BlockEntity) set(pos define.Pos, current, state define.State) {
	e.storage.SetState(pos[0], pos[1], pos[2], state)
	e.stats.Changed(current, state, pos)
}

func (e *BlockEntity) entry(pos define.Pos, state define.State) Entry {
	start := e.InAreaTarget(pos)
	step := 1 / float64(e.Size())
	return Entry{State: state, Pos: pos, Start: start, End: start.Add(mgl64.Vec3{step, step, step})}
}

// Entry describes a single cell of a block entity.
type Entry struct {
	State define.State
	// Pos is the position of the cell in the grid.
	Pos define.Pos
	// Start and End are the lower and upper corners of the cell in in-area coordinates.
	Start, End mgl64.Vec3
}
