package multistate

import (
	"fmt"
	"io"

	"github.com/Tnze/go-mc/nbt"
	"github.com/loving2/Chisels-and-Bits/statistics"
	"github.com/loving2/Chisels-and-Bits/storage"
)

// NBTData is the NBT representation of a BlockEntity.
type NBTData struct {
	Storage    storage.NBTData    `nbt:"storage"`
	Statistics statistics.NBTData `nbt:"statistics"`
}

// MarshalNBT encodes the storage and statistics of the entity as an NBT compound.
func (e *BlockEntity) MarshalNBT() ([]byte, error) {
	e.mu.RLock()
	d := NBTData{Storage: e.storage.EncodeNBT(), Statistics: e.stats.EncodeNBT()}
	e.mu.RUnlock()
	return nbt.Marshal(d)
}

// UnmarshalNBT replaces the contents of the entity with an NBT compound produced by MarshalNBT. If the data
// is malformed, the entity is reset to empty and the error is returned.
func (e *BlockEntity) UnmarshalNBT(b []byte) error {
	var d NBTData
	if err := nbt.Unmarshal(b, &d); err != nil {
		e.reset()
		return fmt.Errorf("decode block entity NBT: %w: %w", storage.ErrMalformed, err)
	}
	s, stats := storage.New(e.size), statistics.New(e.size, e.props)
	if err := s.DecodeNBT(d.Storage); err != nil {
		e.reset()
		return err
	}
	if err := stats.DecodeNBT(d.Statistics); err != nil {
		e.reset()
		return err
	}
	e.install(s, stats)
	return nil
}

// WritePacket writes the network representation of the entity to w: the storage followed by the statistics,
// with states of the statistics encoded using the registry passed.
func (e *BlockEntity) WritePacket(w io.Writer, reg statistics.Registry) (int64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	n, err := e.storage.WriteTo(w)
	if err != nil {
		return n, err
	}
	nn, err := e.stats.WritePacket(w, reg)
	return n + nn, err
}

// ReadPacket reads the network representation written by WritePacket from r. If the data is malformed, the
// entity is reset to empty and the error is returned.
func (e *BlockEntity) ReadPacket(r io.Reader, reg statistics.Registry) (int64, error) {
	s, stats := storage.New(e.size), statistics.New(e.size, e.props)
	n, err := s.ReadFrom(r)
	if err != nil {
		e.reset()
		return n, err
	}
	nn, err := stats.ReadPacket(r, reg)
	n += nn
	if err != nil {
		e.reset()
		return n, err
	}
	e.install(s, stats)
	return n, nil
}

func (e *BlockEntity) install(s *storage.Storage, stats *statistics.Statistics) {
	e.mu.Lock()
	e.storage, e.stats = s, stats
	e.mu.Unlock()
}

func (e *BlockEntity) reset() {
	e.install(storage.New(e.size), statistics.New(e.size, e.props))
}
