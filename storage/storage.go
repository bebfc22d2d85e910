package storage

import (
	"fmt"

	"github.com/brentp/intintmap"
	"github.com/loving2/Chisels-and-Bits/define"
)

// DefaultSize is the default amount of cells per side of a Storage.
const DefaultSize = 16

// BoundsChecks enables coordinate assertions on every State and SetState call. Callers are expected to
// pass valid coordinates, so it is off by default and meant for debugging only.
var BoundsChecks = false

// Storage is a dense size*size*size grid of cells, each holding a single state. States are stored as
// palette indices, bit-packed into a flat byte buffer using as few bits per cell as the palette allows.
// A Storage has a single owner: it is not safe to call methods on it simultaneously from multiple
// goroutines.
type Storage struct {
	size    int
	palette *Palette
	data    []byte
	// width is the amount of bits used for every cell in data.
	width int
}

// New returns an empty Storage with size cells per side. Every cell of an empty Storage holds air.
func New(size int) *Storage {
	if size <= 0 {
		panic(fmt.Sprintf("storage: invalid size %v", size))
	}
	return &Storage{size: size, palette: NewPalette()}
}

// Size returns the amount of cells per side.
func (s *Storage) Size() int {
	return s.size
}

// EntryWidth returns the amount of bits currently used per cell.
func (s *Storage) EntryWidth() int {
	return s.width
}

// Palette returns the states in the palette of the storage, in index order.
func (s *Storage) Palette() []define.State {
	return s.palette.States()
}

// Clear empties the storage, so that every cell holds air again.
func (s *Storage) Clear() {
	s.data = nil
	s.width = 0
	s.palette.Clear()
}

// State returns the state at the given x, y and z. Coordinates must be in the range [0, size).
func (s *Storage) State(x, y, z int) define.State {
	s.assertBounds(x, y, z)
	return s.stateAt(s.offset(x, y, z))
}

// SetState sets the state at the given x, y and z. Coordinates must be in the range [0, size).
func (s *Storage) SetState(x, y, z int, state define.State) {
	s.assertBounds(x, y, z)
	index := s.index(state)
	s.ensureCapacity()
	SetValueAt(s.data, index, s.width, s.offset(x, y, z))
}

// InitializeWith sets every cell of the storage to the state passed in a single pass. Initializing with
// air is equivalent to Clear.
func (s *Storage) InitializeWith(state define.State) {
	s.Clear()
	if state.IsAir() {
		return
	}
	index := s.resolve(state)
	s.data = Fill(index, s.width, s.total())
}

// FillFromBottom clears the storage and sets the first count cells to the state passed, iterating y
// first, then x, then z. count is clamped to [0, size^3].
func (s *Storage) FillFromBottom(state define.State, count int) {
	s.Clear()
	if count > s.total() {
		count = s.total()
	}
	if count <= 0 {
		return
	}
	filled := 0
	for y := 0; y < s.size; y++ {
		for x := 0; x < s.size; x++ {
			for z := 0; z < s.size; z++ {
				s.SetState(x, y, z, state)
				if filled++; filled == count {
					return
				}
			}
		}
	}
}

// LoadFromSection replaces the contents of the storage with the states returned by the function passed
// for every cell. Importing is only supported for storages of the default size.
func (s *Storage) LoadFromSection(state func(x, y, z int) define.State) error {
	if s.size != DefaultSize {
		return fmt.Errorf("loading from a section requires size %v, storage has size %v", DefaultSize, s.size)
	}
	s.Clear()
	s.ForEachPos(func(pos define.Pos) {
		s.SetState(pos[0], pos[1], pos[2], state(pos[0], pos[1], pos[2]))
	})
	return nil
}

// Count counts the occurrences of every state in the storage and calls f once for every distinct state
// with its count. Air cells are counted as well. The order of the calls is undefined.
func (s *Storage) Count(f func(state define.State, count int)) {
	if s.palette.Len() == 0 {
		f(define.Air, s.total())
		return
	}
	counts := intintmap.New(s.palette.Len()*2, 0.6)
	for i, total := 0, s.total(); i < total; i++ {
		key := int64(ValueAt(s.data, s.width, i))
		n, _ := counts.Get(key)
		counts.Put(key, n+1)
	}
	for kv := range counts.Items() {
		f(s.paletteState(int(kv[0])), int(kv[1]))
	}
}

// ForEachPos calls f for every position in the storage, y first, then x, then z.
func (s *Storage) ForEachPos(f func(pos define.Pos)) {
	for y := 0; y < s.size; y++ {
		for x := 0; x < s.size; x++ {
			for z := 0; z < s.size; z++ {
				f(define.Pos{x, y, z})
			}
		}
	}
}

// ForEach calls f for every cell in the storage with its position and state.
func (s *Storage) ForEach(f func(pos define.Pos, state define.State)) {
	s.ForEachPos(func(pos define.Pos) {
		f(pos, s.stateAt(s.offset(pos[0], pos[1], pos[2])))
	})
}

// RawData returns a copy of the bit-packed cell data.
func (s *Storage) RawData() []byte {
	return append([]byte(nil), s.data...)
}

// Snapshot returns a deep copy of the storage. Changes to the snapshot never affect the storage and
// vice versa.
func (s *Storage) Snapshot() *Storage {
	return &Storage{
		size:    s.size,
		palette: s.palette.Clone(),
		data:    s.RawData(),
		width:   s.width,
	}
}

// Equal checks if every cell of the storage holds the same state as the cell at the same position in
// the other storage. Storages of different sizes are never equal.
func (s *Storage) Equal(other *Storage) bool {
	if s.size != other.size {
		return false
	}
	for i, total := 0, s.total(); i < total; i++ {
		if s.stateAt(i) != other.stateAt(i) {
			return false
		}
	}
	return true
}

// total returns the amount of cells in the storage.
func (s *Storage) total() int {
	return s.size * s.size * s.size
}

// offset returns the cell index of the given x, y and z.
func (s *Storage) offset(x, y, z int) int {
	return x*s.size*s.size + y*s.size + z
}

// stateAt decodes the state of the cell at the index passed.
func (s *Storage) stateAt(offset int) define.State {
	if s.palette.Len() == 0 {
		return define.Air
	}
	return s.paletteState(ValueAt(s.data, s.width, offset))
}

// paletteState looks up a palette index that was decoded from the cell data. Such an index is always
// valid, so failing to find it means the storage is corrupted.
func (s *Storage) paletteState(index int) define.State {
	state, err := s.palette.StateAt(index)
	if err != nil {
		panic(fmt.Sprintf("storage: corrupted cell data: %v", err))
	}
	return state
}

// index resolves the palette index of a state that is about to be written. Writing to an empty palette
// registers air first, so that the untouched cells keep reading as air. Every form of air is stored as Air.
func (s *Storage) index(state define.State) int {
	if state.IsAir() {
		return s.resolve(define.Air)
	}
	if s.palette.Len() == 0 {
		s.resolve(define.Air)
	}
	return s.resolve(state)
}

// resolve returns the palette index of the state passed, re-packing the cell data if the palette grew
// past a power of two.
func (s *Storage) resolve(state define.State) int {
	index, width, resized := s.palette.Index(state)
	if resized {
		if width > MaxEntryWidth {
			panic(fmt.Sprintf("storage: palette of %v entries exceeds %v bits", s.palette.Len(), MaxEntryWidth))
		}
		s.data = Repack(s.data, s.width, width, s.total())
		s.width = width
	}
	return index
}

// ensureCapacity grows the cell data so that it is able to hold every cell at the current width. Existing
// bytes are preserved.
func (s *Storage) ensureCapacity() {
	required := RequiredBytes(s.total(), s.width)
	if len(s.data) < required {
		data := make([]byte, required)
		copy(data, s.data)
		s.data = data
	}
}

// assertBounds panics if BoundsChecks is enabled and the coordinates are outside the storage.
func (s *Storage) assertBounds(x, y, z int) {
	if !BoundsChecks {
		return
	}
	if x < 0 || y < 0 || z < 0 || x >= s.size || y >= s.size || z >= s.size {
		panic(fmt.Sprintf("storage: position (%v, %v, %v) out of bounds for size %v", x, y, z, s.size))
	}
}
