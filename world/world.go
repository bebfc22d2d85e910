package world

import (
	"errors"
	"fmt"
	"math"

	"github.com/fatih/color"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/loving2/Chisels-and-Bits/define"
	"github.com/loving2/Chisels-and-Bits/multistate"
	"github.com/loving2/Chisels-and-Bits/provider"
	"github.com/loving2/Chisels-and-Bits/statistics"
	"github.com/loving2/Chisels-and-Bits/storage"
	"github.com/loving2/Chisels-and-Bits/tracker"
)

var (
	// ErrOutOfBounds is returned when a position lies outside the world.
	ErrOutOfBounds = errors.New("position out of world bounds")
	// ErrNotEligible is returned when a block has to be subdivided but its material may not be.
	ErrNotEligible = errors.New("block cannot be subdivided")
)

// Adapter is the outer world the block entities live in.
type Adapter interface {
	// InBounds checks if the block at the position passed is part of the world.
	InBounds(pos define.Pos) bool
	// Block returns the material of the plain, undivided block at the position passed.
	Block(pos define.Pos) define.State
	// SetBlock replaces the plain block at the position passed.
	SetBlock(pos define.Pos, s define.State)
	// Eligible checks if blocks of the state passed may be subdivided.
	Eligible(s define.State) bool
}

// Materials holds the properties of states and the IDs they are encoded with.
type Materials interface {
	statistics.Properties
	statistics.Registry
}

// Option configures a Mutator.
type Option func(m *Mutator)

// WithRecorder makes the Mutator record every change it makes to the recorder passed.
func WithRecorder(r multistate.Recorder) Option {
	return func(m *Mutator) {
		m.recorder = r
	}
}

// Mutator changes single cells of the world. Blocks are subdivided into block entities the first time one
// of their cells is changed, and the entities are persisted through a provider after every change.
type Mutator struct {
	adapter   Adapter
	provider  *provider.Provider
	materials Materials
	recorder  multistate.Recorder
	size      int
}

// New returns a Mutator persisting block entities of size cells per side to the provider passed.
func New(a Adapter, p *provider.Provider, materials Materials, size int, opts ...Option) *Mutator {
	m := &Mutator{adapter: a, provider: p, materials: materials, size: size}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Split splits a precise world position into the position of the block it is in and the in-area target
// within that block.
func Split(worldPos mgl64.Vec3) (define.Pos, mgl64.Vec3) {
	var (
		pos    define.Pos
		target mgl64.Vec3
	)
	for i := 0; i < 3; i++ {
		f := math.Floor(worldPos[i])
		pos[i] = int(f)
		target[i] = worldPos[i] - f
	}
	return pos, target
}

// Entity loads the block entity at the position passed. If the block is not subdivided, exists is false. A
// stored entity that cannot be decoded is reset to an empty entity.
func (m *Mutator) Entity(pos define.Pos) (e *multistate.BlockEntity, exists bool, err error) {
	if !m.adapter.InBounds(pos) {
		return nil, false, fmt.Errorf("block %v: %w", pos, ErrOutOfBounds)
	}
	e, exists, err = m.provider.LoadEntity(pos, m.materials)
	if err != nil {
		if e != nil && malformed(err) {
			color.Yellow("World: resetting malformed block entity %v: %v", pos, err)
			return e, true, nil
		}
		return nil, false, err
	}
	return e, exists, nil
}

// subdivide returns the block entity at the position passed, creating one filled with the material of the
// block if the block was not yet subdivided. A created entity is not stored yet.
func (m *Mutator) subdivide(pos define.Pos) (e *multistate.BlockEntity, created bool, err error) {
	e, exists, err := m.Entity(pos)
	if err != nil || exists {
		return e, false, err
	}
	block := m.adapter.Block(pos)
	if !block.IsAir() && !m.adapter.Eligible(block) {
		return nil, false, fmt.Errorf("block %v of %v: %w", pos, block, ErrNotEligible)
	}
	e = multistate.New(pos, m.size, m.materials)
	e.InitializeWith(block)
	return e, true, nil
}

// change runs f on the block entity at the position passed within a single batch and persists the result.
// If f fails, nothing is stored and the plain block is left as it was. Once a block is subdivided, its plain
// block is replaced with air, so that the entity alone holds its contents.
func (m *Mutator) change(pos define.Pos, f func(e *multistate.BlockEntity) error) error {
	e, created, err := m.subdivide(pos)
	if err != nil {
		return err
	}
	if err := m.batch(e, func() error { return f(e) }); err != nil {
		return err
	}
	if err := m.save(e); err != nil {
		return err
	}
	if created {
		m.adapter.SetBlock(pos, define.Air)
	}
	return nil
}

// SetAt sets the cell at the world position passed to the state passed. multistate.ErrSpaceOccupied is
// returned if the cell already holds a state other than air.
func (m *Mutator) SetAt(worldPos mgl64.Vec3, state define.State) error {
	pos, target := Split(worldPos)
	return m.change(pos, func(e *multistate.BlockEntity) error {
		return e.SetInAreaTarget(state, target)
	})
}

// ClearAt sets the cell at the world position passed to air. Block entities left without any cells are
// removed.
func (m *Mutator) ClearAt(worldPos mgl64.Vec3) error {
	pos, target := Split(worldPos)
	_, exists, err := m.Entity(pos)
	if err != nil {
		return err
	}
	if !exists && m.adapter.Block(pos).IsAir() {
		return nil
	}
	return m.change(pos, func(e *multistate.BlockEntity) error {
		return e.ClearInAreaTarget(target)
	})
}

// StateAt returns the state of the cell at the world position passed. For blocks that are not subdivided,
// this is the material of the block.
func (m *Mutator) StateAt(worldPos mgl64.Vec3) (define.State, error) {
	pos, target := Split(worldPos)
	e, exists, err := m.Entity(pos)
	if err != nil {
		return define.Air, err
	}
	if !exists {
		return m.adapter.Block(pos), nil
	}
	entry, ok, err := e.GetInAreaTarget(target)
	if err != nil || !ok {
		return define.Air, err
	}
	return entry.State, nil
}

// Identifier returns the shape identifier of the block at the position passed. Blocks that are not
// subdivided are identified by the ID of their material.
func (m *Mutator) Identifier(pos define.Pos) (storage.Identifier, error) {
	e, exists, err := m.Entity(pos)
	if err != nil {
		return storage.Identifier{}, err
	}
	if exists {
		return e.Identifier(), nil
	}
	block := m.adapter.Block(pos)
	id, ok := m.materials.ID(block)
	if !ok {
		return storage.Identifier{}, fmt.Errorf("block %v: %w: %v", pos, statistics.ErrUnknownState, block)
	}
	return storage.SingleStateIdentifier(id), nil
}

// Update runs f on the block entity at the position passed within a single batch and saves the entity
// afterwards. The block is subdivided first if needed.
func (m *Mutator) Update(pos define.Pos, f func(e *multistate.BlockEntity) error) error {
	return m.change(pos, f)
}

// Apply replaces the contents of the block entity at the position passed with a snapshot, without recording
// the change. It is used to undo and redo recorded changes.
func (m *Mutator) Apply(pos define.Pos, s *storage.Storage) error {
	e, exists, err := m.Entity(pos)
	if err != nil {
		return err
	}
	if !exists {
		e = multistate.New(pos, m.size, m.materials)
	}
	if err := e.ApplySnapshot(s); err != nil {
		return err
	}
	if err := m.save(e); err != nil {
		return err
	}
	if !exists {
		m.adapter.SetBlock(pos, define.Air)
	}
	return nil
}

// Resolve returns the target that changes recorded for the position passed are applied to. It may be passed
// to Tracker.Undo and Tracker.Redo.
func (m *Mutator) Resolve(pos define.Pos) (tracker.Target, error) {
	if !m.adapter.InBounds(pos) {
		return nil, fmt.Errorf("block %v: %w", pos, ErrOutOfBounds)
	}
	return target{m: m, pos: pos}, nil
}

type target struct {
	m   *Mutator
	pos define.Pos
}

func (t target) ApplySnapshot(s *storage.Storage) error {
	return t.m.Apply(t.pos, s)
}

func (m *Mutator) batch(e *multistate.BlockEntity, f func() error) error {
	var b *multistate.BatchMutation
	if m.recorder != nil {
		b = e.TrackedBatch(m.recorder)
	} else {
		b = e.Batch()
	}
	err := f()
	if cerr := b.Close(); err == nil {
		err = cerr
	}
	return err
}

// save stores the entity passed, or removes it if none of its cells hold anything but air.
func (m *Mutator) save(e *multistate.BlockEntity) error {
	if e.Statistics().UsedCount() == 0 {
		return m.provider.DeleteEntity(e.Pos())
	}
	return m.provider.SaveEntity(e)
}

func malformed(err error) bool {
	return errors.Is(err, storage.ErrMalformed) || errors.Is(err, statistics.ErrMalformed)
}
