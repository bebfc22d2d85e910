package statistics

import (
	"errors"
	"fmt"
	"io"

	"github.com/Tnze/go-mc/nbt"
	pk "github.com/Tnze/go-mc/net/packet"
	"github.com/loving2/Chisels-and-Bits/define"
)

var (
	// ErrMalformed is returned when serialised statistics are truncated or inconsistent.
	ErrMalformed = errors.New("malformed statistics data")
	// ErrUnknownState is returned when statistics are written for a state without a registry ID.
	ErrUnknownState = errors.New("state not registered")
)

// Registry maps states to the numeric IDs used in the network form of statistics and back.
type Registry interface {
	ID(s define.State) (int32, bool)
	State(id int32) (define.State, bool)
}

// NBTData is the NBT representation of Statistics.
type NBTData struct {
	Primary           string        `nbt:"primary"`
	States            []StateCount  `nbt:"states"`
	Columns           []ColumnLevel `nbt:"columns"`
	Used              int32         `nbt:"used"`
	WeakPower         int32         `nbt:"weak_power"`
	UpperSlipperiness float32       `nbt:"upper_slipperiness"`
	Light             int32         `nbt:"light"`
}

// StateCount is a single entry of the count map.
type StateCount struct {
	State string `nbt:"state"`
	Count int32  `nbt:"count"`
}

// ColumnLevel marks the cell at level Y of the column (X, Z) as occupied.
type ColumnLevel struct {
	X int32 `nbt:"x"`
	Z int32 `nbt:"z"`
	Y int32 `nbt:"y"`
}

// EncodeNBT returns the NBT representation of the statistics.
func (s *Statistics) EncodeNBT() NBTData {
	d := NBTData{
		Primary:           s.primary.String(),
		Used:              int32(s.used),
		WeakPower:         int32(s.weakPower),
		UpperSlipperiness: s.upperSlipperiness,
		Light:             int32(s.light),
	}
	for _, state := range s.sortedStates() {
		d.States = append(d.States, StateCount{State: state.String(), Count: int32(s.counts[state])})
	}
	for _, c := range s.sortedColumns() {
		for _, y := range s.ColumnLevels(c) {
			d.Columns = append(d.Columns, ColumnLevel{X: int32(c[0]), Z: int32(c[1]), Y: int32(y)})
		}
	}
	return d
}

// DecodeNBT replaces the statistics with the NBT representation passed. The statistics are cleared if
// decoding fails.
func (s *Statistics) DecodeNBT(d NBTData) error {
	s.Clear()
	primary, err := define.ParseState(d.Primary)
	if err != nil {
		return fmt.Errorf("decode primary state: %w: %w", ErrMalformed, err)
	}
	for _, e := range d.States {
		state, err := define.ParseState(e.State)
		if err != nil {
			s.Clear()
			return fmt.Errorf("decode state count: %w: %w", ErrMalformed, err)
		}
		if err := s.setCount(state, int(e.Count)); err != nil {
			return err
		}
	}
	for _, e := range d.Columns {
		if err := s.setLevel(int(e.X), int(e.Z), int(e.Y)); err != nil {
			return err
		}
	}
	return s.finish(primary, int(d.Used), int(d.WeakPower), d.UpperSlipperiness, int(d.Light))
}

// MarshalNBT encodes the statistics as an NBT compound.
func (s *Statistics) MarshalNBT() ([]byte, error) {
	return nbt.Marshal(s.EncodeNBT())
}

// UnmarshalNBT decodes an NBT compound produced by MarshalNBT.
func (s *Statistics) UnmarshalNBT(b []byte) error {
	var d NBTData
	if err := nbt.Unmarshal(b, &d); err != nil {
		s.Clear()
		return fmt.Errorf("decode statistics NBT: %w: %w", ErrMalformed, err)
	}
	return s.DecodeNBT(d)
}

// WritePacket writes the network representation of the statistics to w, using the registry passed to
// encode states: the primary state, the count map, the occupied column levels as (x, z, y) and finally
// the used count, weak power count, upper surface slipperiness and light sum.
func (s *Statistics) WritePacket(w io.Writer, reg Registry) (n int64, err error) {
	id := func(state define.State) (pk.VarInt, error) {
		v, ok := reg.ID(state)
		if !ok {
			return 0, fmt.Errorf("state %v: %w", state, ErrUnknownState)
		}
		return pk.VarInt(v), nil
	}
	primary, err := id(s.primary)
	if err != nil {
		return 0, err
	}
	fields := []io.WriterTo{primary, pk.VarInt(len(s.counts))}
	for _, state := range s.sortedStates() {
		v, err := id(state)
		if err != nil {
			return 0, err
		}
		fields = append(fields, v, pk.VarInt(s.counts[state]))
	}
	var levels []io.WriterTo
	for _, c := range s.sortedColumns() {
		for _, y := range s.ColumnLevels(c) {
			levels = append(levels, pk.VarInt(c[0]), pk.VarInt(c[1]), pk.VarInt(y))
		}
	}
	fields = append(fields, pk.VarInt(len(levels)/3))
	fields = append(fields, levels...)
	fields = append(fields,
		pk.VarInt(s.used),
		pk.VarInt(s.weakPower),
		pk.Float(s.upperSlipperiness),
		pk.VarInt(s.light),
	)
	for _, f := range fields {
		nn, err := f.WriteTo(w)
		n += nn
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// ReadPacket reads the network representation written by WritePacket from r.
func (s *Statistics) ReadPacket(r io.Reader, reg Registry) (n int64, err error) {
	s.Clear()
	read := func(f io.ReaderFrom, what string) error {
		nn, err := f.ReadFrom(r)
		n += nn
		if err != nil {
			s.Clear()
			return fmt.Errorf("read %v: %w: %w", what, ErrMalformed, err)
		}
		return nil
	}
	state := func(id pk.VarInt) (define.State, error) {
		st, ok := reg.State(int32(id))
		if !ok {
			s.Clear()
			return define.State{}, fmt.Errorf("unknown state ID %v: %w", id, ErrMalformed)
		}
		return st, nil
	}

	var primaryID, length pk.VarInt
	if err := read(&primaryID, "primary state"); err != nil {
		return n, err
	}
	primary, err := state(primaryID)
	if err != nil {
		return n, err
	}
	if err := read(&length, "state count length"); err != nil {
		return n, err
	}
	if length < 0 || int(length) > s.total() {
		return n, fmt.Errorf("state count length %v: %w", length, ErrMalformed)
	}
	for i := 0; i < int(length); i++ {
		var id, count pk.VarInt
		if err := read(&id, "state ID"); err != nil {
			return n, err
		}
		if err := read(&count, "state count"); err != nil {
			return n, err
		}
		st, err := state(id)
		if err != nil {
			return n, err
		}
		if err := s.setCount(st, int(count)); err != nil {
			return n, err
		}
	}
	if err := read(&length, "column level length"); err != nil {
		return n, err
	}
	if length < 0 || int(length) > s.total() {
		s.Clear()
		return n, fmt.Errorf("column level length %v: %w", length, ErrMalformed)
	}
	for i := 0; i < int(length); i++ {
		var x, z, y pk.VarInt
		for _, v := range []*pk.VarInt{&x, &z, &y} {
			if err := read(v, "column level"); err != nil {
				return n, err
			}
		}
		if err := s.setLevel(int(x), int(z), int(y)); err != nil {
			return n, err
		}
	}
	var used, weakPower, light pk.VarInt
	var slipperiness pk.Float
	if err := read(&used, "used count"); err != nil {
		return n, err
	}
	if err := read(&weakPower, "weak power count"); err != nil {
		return n, err
	}
	if err := read(&slipperiness, "upper surface slipperiness"); err != nil {
		return n, err
	}
	if err := read(&light, "light sum"); err != nil {
		return n, err
	}
	return n, s.finish(primary, int(used), int(weakPower), float32(slipperiness), int(light))
}

// setCount sets the count of a state while decoding.
func (s *Statistics) setCount(state define.State, count int) error {
	if state.IsAir() || count <= 0 || count > s.total() {
		s.Clear()
		return fmt.Errorf("count %v for state %v: %w", count, state, ErrMalformed)
	}
	if _, ok := s.counts[state]; ok {
		s.Clear()
		return fmt.Errorf("duplicate count for state %v: %w", state, ErrMalformed)
	}
	s.counts[state] = count
	return nil
}

// setLevel marks a column level as occupied while decoding.
func (s *Statistics) setLevel(x, z, y int) error {
	if x < 0 || z < 0 || y < 0 || x >= s.size || z >= s.size || y >= s.size {
		s.Clear()
		return fmt.Errorf("column level (%v, %v, %v) out of range: %w", x, z, y, ErrMalformed)
	}
	s.columns[define.Column{x, z}] |= 1 << uint(y)
	return nil
}

// finish installs the decoded scalar aggregates and checks them against the decoded count map.
func (s *Statistics) finish(primary define.State, used, weakPower int, slipperiness float32, light int) error {
	sum := 0
	for _, n := range s.counts {
		sum += n
	}
	if used != sum || weakPower < 0 || weakPower > used {
		s.Clear()
		return fmt.Errorf("used count %v for %v counted cells: %w", used, sum, ErrMalformed)
	}
	if _, ok := s.counts[primary]; !ok && !(primary.IsAir() && len(s.counts) == 0) {
		s.Clear()
		return fmt.Errorf("primary state %v not counted: %w", primary, ErrMalformed)
	}
	s.primary = primary
	s.used, s.weakPower, s.upperSlipperiness, s.light = used, weakPower, slipperiness, light
	return nil
}
