package statistics

import (
	"fmt"
	"sort"

	"github.com/loving2/Chisels-and-Bits/define"
)

// MaxSize is the largest amount of cells per side that column occupancy can be tracked for.
const MaxSize = 64

// Properties supplies the physical properties of states that the running aggregates are computed from.
type Properties interface {
	// LightEmission returns the light level emitted by a single cell of the state.
	LightEmission(s define.State) int
	// Slipperiness returns the slipperiness of the upper surface of a cell of the state.
	Slipperiness(s define.State) float32
	// ChecksWeakPower reports if a cell of the state conducts weak redstone power.
	ChecksWeakPower(s define.State) bool
	// Hardness returns the relative hardness of a cell of the state.
	Hardness(s define.State) float32
}

// Grid is a grid of cells that statistics may be computed from. *storage.Storage implements Grid.
type Grid interface {
	Size() int
	ForEach(f func(pos define.Pos, state define.State))
}

// Statistics holds running aggregates over the occupied cells of a grid. Air cells are never counted.
// Statistics are updated through Added, Removed and Replaced for every cell that changes, and always
// equal the aggregates that Rescan computes from the cells directly.
type Statistics struct {
	size  int
	props Properties

	primary define.State
	counts  map[define.State]int
	// columns holds a bitmask of the occupied y levels for every (x, z) column with at least one occupied
	// cell.
	columns map[define.Column]uint64

	used              int
	weakPower         int
	upperSlipperiness float32
	light             int
}

// New returns empty statistics for a grid with size cells per side.
func New(size int, props Properties) *Statistics {
	if size <= 0 || size > MaxSize {
		panic(fmt.Sprintf("statistics: invalid size %v", size))
	}
	s := &Statistics{size: size, props: props}
	s.Clear()
	return s
}

// Rescan computes statistics from scratch by visiting every cell of the grid passed.
func Rescan(g Grid, props Properties) *Statistics {
	s := New(g.Size(), props)
	g.ForEach(func(pos define.Pos, state define.State) {
		if !state.IsAir() {
			s.Added(state, pos)
		}
	})
	return s
}

// Clear resets the statistics to those of a grid holding only air.
func (s *Statistics) Clear() {
	s.primary = define.Air
	s.counts = make(map[define.State]int)
	s.columns = make(map[define.Column]uint64)
	s.used, s.weakPower, s.light = 0, 0, 0
	s.upperSlipperiness = 0
}

// InitializeWith sets the statistics to those of a grid with every cell holding the state passed.
func (s *Statistics) InitializeWith(state define.State) {
	s.Clear()
	if state.IsAir() {
		return
	}
	total, layer := s.total(), s.size*s.size
	s.primary = state
	s.counts[state] = total
	s.used = total
	if s.props.ChecksWeakPower(state) {
		s.weakPower = total
	}
	s.light = s.props.LightEmission(state) * total
	s.upperSlipperiness = s.props.Slipperiness(state) * float32(layer)
	full := s.fullColumn()
	for x := 0; x < s.size; x++ {
		for z := 0; z < s.size; z++ {
			s.columns[define.Column{x, z}] = full
		}
	}
}

// Changed updates the statistics for a cell at pos that changed from one state to another.
func (s *Statistics) Changed(before, after define.State, pos define.Pos) {
	switch {
	case before == after, before.IsAir() && after.IsAir():
	case after.IsAir():
		s.Removed(before, pos)
	case before.IsAir():
		s.Added(after, pos)
	default:
		s.Replaced(before, after, pos)
	}
}

// Added updates the statistics for an empty cell at pos that now holds the state passed.
func (s *Statistics) Added(state define.State, pos define.Pos) {
	s.counts[state]++
	s.updatePrimary()
	s.used++
	s.add(state, pos, 1)

	s.columns[pos.Column()] |= 1 << uint(pos[1])
}

// Removed updates the statistics for a cell at pos holding the state passed that is now empty.
func (s *Statistics) Removed(state define.State, pos define.Pos) {
	s.decrement(state)
	s.updatePrimary()
	s.used--
	s.add(state, pos, -1)

	col := pos.Column()
	if mask := s.columns[col] &^ (1 << uint(pos[1])); mask != 0 {
		s.columns[col] = mask
	} else {
		delete(s.columns, col)
	}
}

// Replaced updates the statistics for a cell at pos that changed from one occupied state to another.
func (s *Statistics) Replaced(before, after define.State, pos define.Pos) {
	s.decrement(before)
	s.counts[after]++
	s.updatePrimary()
	s.add(before, pos, -1)
	s.add(after, pos, 1)
}

// add applies the contribution of a single cell of the state at pos to the scalar aggregates, multiplied by
// sign.
func (s *Statistics) add(state define.State, pos define.Pos, sign int) {
	if s.props.ChecksWeakPower(state) {
		s.weakPower += sign
	}
	if pos[1] == s.size-1 {
		s.upperSlipperiness += float32(sign) * s.props.Slipperiness(state)
	}
	s.light += sign * s.props.LightEmission(state)
}

func (s *Statistics) decrement(state define.State) {
	n, ok := s.counts[state]
	if !ok {
		return
	}
	if n <= 1 {
		delete(s.counts, state)
		return
	}
	s.counts[state] = n - 1
}

// updatePrimary selects the state with the highest count. Ties are broken by the canonical string form of
// the states, so that the result does not depend on map iteration order.
func (s *Statistics) updatePrimary() {
	primary, best := define.Air, 0
	for state, n := range s.counts {
		if n > best || (n == best && state.String() < primary.String()) {
			primary, best = state, n
		}
	}
	s.primary = primary
}

// PrimaryState returns the state held by the most cells, or air if the grid is empty.
func (s *Statistics) PrimaryState() define.State {
	return s.primary
}

// StateCounts returns a copy of the amount of cells held by every occupied state.
func (s *Statistics) StateCounts() map[define.State]int {
	m := make(map[define.State]int, len(s.counts))
	for state, n := range s.counts {
		m[state] = n
	}
	return m
}

// Size returns the amount of cells per side of the grid the statistics describe.
func (s *Statistics) Size() int {
	return s.size
}

// UsedCount returns the amount of occupied cells.
func (s *Statistics) UsedCount() int {
	return s.used
}

// WeakPowerCount returns the amount of cells that conduct weak power.
func (s *Statistics) WeakPowerCount() int {
	return s.weakPower
}

// LightSum returns the sum of the light emitted by every cell.
func (s *Statistics) LightSum() int {
	return s.light
}

// UpperSurfaceSlipperiness returns the sum of the slipperiness of the cells in the topmost layer.
func (s *Statistics) UpperSurfaceSlipperiness() float32 {
	return s.upperSlipperiness
}

// ShouldCheckWeakPower reports if every cell of the grid conducts weak power.
func (s *Statistics) ShouldCheckWeakPower() bool {
	return s.weakPower == s.total()
}

// FullnessFactor returns the fraction of cells that are occupied.
func (s *Statistics) FullnessFactor() float32 {
	return float32(s.used) / float32(s.total())
}

// Slipperiness returns the average slipperiness of the topmost layer.
func (s *Statistics) Slipperiness() float32 {
	return s.upperSlipperiness / float32(s.size*s.size)
}

// LightEmissionFactor returns the average light emitted per occupied cell.
func (s *Statistics) LightEmissionFactor() float32 {
	if s.used == 0 {
		return 0
	}
	return float32(s.light) / float32(s.used)
}

// RelativeHardness returns the hardness of the occupied cells, weighted by their count.
func (s *Statistics) RelativeHardness() float32 {
	if s.used == 0 {
		return 0
	}
	var sum float64
	for state, n := range s.counts {
		sum += float64(s.props.Hardness(state)) * float64(n)
	}
	return float32(sum / float64(s.used))
}

// CanPropagateSkylight reports if at least one column of the grid has no occupied cells at all.
func (s *Statistics) CanPropagateSkylight() bool {
	return len(s.columns) < s.size*s.size
}

// ColumnLevels returns the occupied y levels of a column in ascending order.
func (s *Statistics) ColumnLevels(c define.Column) []int {
	mask := s.columns[c]
	var levels []int
	for y := 0; y < s.size; y++ {
		if mask&(1<<uint(y)) != 0 {
			levels = append(levels, y)
		}
	}
	return levels
}

// sortedColumns returns the occupied columns ordered by x, then z.
func (s *Statistics) sortedColumns() []define.Column {
	cols := make([]define.Column, 0, len(s.columns))
	for c := range s.columns {
		cols = append(cols, c)
	}
	sort.Slice(cols, func(i, j int) bool {
		if cols[i][0] != cols[j][0] {
			return cols[i][0] < cols[j][0]
		}
		return cols[i][1] < cols[j][1]
	})
	return cols
}

// sortedStates returns the occupied states ordered by their canonical string form.
func (s *Statistics) sortedStates() []define.State {
	states := make([]define.State, 0, len(s.counts))
	for state := range s.counts {
		states = append(states, state)
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].String() < states[j].String()
	})
	return states
}

func (s *Statistics) fullColumn() uint64 {
	if s.size == 64 {
		return ^uint64(0)
	}
	return 1<<uint(s.size) - 1
}

func (s *Statistics) total() int {
	return s.size * s.size * s.size
}
