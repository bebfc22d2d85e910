package storage

import (
	"errors"
	"fmt"
	"io"

	"github.com/Tnze/go-mc/nbt"
	pk "github.com/Tnze/go-mc/net/packet"
	"github.com/loving2/Chisels-and-Bits/define"
)

// ErrMalformed is returned when serialised storage data is missing, truncated or inconsistent. A storage
// that failed to load is left empty.
var ErrMalformed = errors.New("malformed storage data")

// NBTData is the NBT representation of a Storage: the palette as canonical state strings in index order,
// followed by the raw cell data.
type NBTData struct {
	Palette []string `nbt:"palette"`
	Data    []byte   `nbt:"data"`
}

// EncodeNBT returns the NBT representation of the storage.
func (s *Storage) EncodeNBT() NBTData {
	d := NBTData{Palette: make([]string, 0, s.palette.Len()), Data: s.RawData()}
	for _, state := range s.palette.states {
		d.Palette = append(d.Palette, state.String())
	}
	return d
}

// DecodeNBT replaces the contents of the storage with the NBT representation passed.
func (s *Storage) DecodeNBT(d NBTData) error {
	s.Clear()
	states := make([]define.State, 0, len(d.Palette))
	for _, name := range d.Palette {
		state, err := define.ParseState(name)
		if err != nil {
			return fmt.Errorf("decode palette: %w: %w", ErrMalformed, err)
		}
		states = append(states, state)
	}
	return s.load(states, append([]byte(nil), d.Data...))
}

// MarshalNBT encodes the storage as an NBT compound.
func (s *Storage) MarshalNBT() ([]byte, error) {
	return nbt.Marshal(s.EncodeNBT())
}

// UnmarshalNBT decodes an NBT compound produced by MarshalNBT into the storage.
func (s *Storage) UnmarshalNBT(b []byte) error {
	var d NBTData
	if err := nbt.Unmarshal(b, &d); err != nil {
		s.Clear()
		return fmt.Errorf("decode storage NBT: %w: %w", ErrMalformed, err)
	}
	return s.DecodeNBT(d)
}

// WriteTo writes the network representation of the storage to w: a VarInt palette length, every palette
// entry as a string and the cell data as a length-prefixed byte array.
func (s *Storage) WriteTo(w io.Writer) (n int64, err error) {
	fields := make([]io.WriterTo, 0, s.palette.Len()+2)
	fields = append(fields, pk.VarInt(s.palette.Len()))
	for _, state := range s.palette.states {
		fields = append(fields, pk.String(state.String()))
	}
	fields = append(fields, pk.ByteArray(s.data))
	for _, f := range fields {
		nn, err := f.WriteTo(w)
		n += nn
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// ReadFrom reads the network representation written by WriteTo from r into the storage. The cell data is
// already packed at its final width, so no re-packing takes place.
func (s *Storage) ReadFrom(r io.Reader) (n int64, err error) {
	s.Clear()
	length, n, err := readLength(r, s.total(), "palette")
	if err != nil {
		return n, err
	}
	states := make([]define.State, 0, length)
	for i := 0; i < length; i++ {
		name, nn, err := readBytes(r, maxStateLength, "palette entry")
		n += nn
		if err != nil {
			return n, err
		}
		state, err := define.ParseState(string(name))
		if err != nil {
			return n, fmt.Errorf("read palette entry %v: %w: %w", i, ErrMalformed, err)
		}
		states = append(states, state)
	}
	data, nn, err := readBytes(r, RequiredBytes(s.total(), MaxEntryWidth), "cell data")
	n += nn
	if err != nil {
		return n, err
	}
	return n, s.load(states, data)
}

// maxStateLength is the longest encoded state accepted in a palette entry.
const maxStateLength = 32767

// readLength reads a VarInt length prefix and checks that it lies in [0, max].
func readLength(r io.Reader, max int, what string) (int, int64, error) {
	var length pk.VarInt
	n, err := length.ReadFrom(r)
	if err != nil {
		return 0, n, fmt.Errorf("read %v length: %w: %w", what, ErrMalformed, err)
	}
	if length < 0 || int(length) > max {
		return 0, n, fmt.Errorf("%v length %v exceeds %v: %w", what, length, max, ErrMalformed)
	}
	return int(length), n, nil
}

// readBytes reads a length-prefixed byte array of at most max bytes.
func readBytes(r io.Reader, max int, what string) ([]byte, int64, error) {
	length, n, err := readLength(r, max, what)
	if err != nil {
		return nil, n, err
	}
	b := make([]byte, length)
	nn, err := io.ReadFull(r, b)
	n += int64(nn)
	if err != nil {
		return nil, n, fmt.Errorf("read %v: %w: %w", what, ErrMalformed, err)
	}
	return b, n, nil
}

// load installs a palette and cell data that were read from a serialised form. The data must be packed at
// exactly the width of the palette and reference only existing palette entries.
func (s *Storage) load(states []define.State, data []byte) error {
	if len(states) > s.total() {
		return fmt.Errorf("palette of %v entries for %v cells: %w", len(states), s.total(), ErrMalformed)
	}
	if err := s.palette.Load(states); err != nil {
		return err
	}
	width := s.palette.Width()
	if required := RequiredBytes(s.total(), width); len(data) != required {
		s.Clear()
		return fmt.Errorf("cell data of %v bytes, expected %v: %w", len(data), required, ErrMalformed)
	}
	if width > 0 && len(states)&(len(states)-1) != 0 {
		for i, total := 0, s.total(); i < total; i++ {
			if ValueAt(data, width, i) >= len(states) {
				s.Clear()
				return fmt.Errorf("cell %v references palette entry beyond %v: %w", i, len(states), ErrMalformed)
			}
		}
	}
	if len(data) == 0 {
		data = nil
	}
	s.data, s.width = data, width
	return nil
}
