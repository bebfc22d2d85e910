package provider

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/df-mc/goleveldb/leveldb"
	"github.com/df-mc/goleveldb/leveldb/opt"
	"github.com/df-mc/goleveldb/leveldb/util"
	"github.com/loving2/Chisels-and-Bits/define"
	"github.com/loving2/Chisels-and-Bits/multistate"
	"github.com/loving2/Chisels-and-Bits/statistics"
)

// Provider stores block entities in a leveldb database, keyed by their position.
type Provider struct {
	DB   *leveldb.DB
	dir  string
	size int
}

const (
	// keyEntity holds the NBT data of a block entity.
	keyEntity = 's'
)

// keyLength is the length of a key without its tag byte.
const keyLength = 12

// Open opens a provider reading and writing from/to the database under the directory passed, creating it if
// it does not yet exist. Block entities loaded are subdivided into size cells per side.
func Open(dir string, size int) (*Provider, error) {
	_ = os.MkdirAll(filepath.Join(dir, "db"), 0777)

	db, ok := cacheLoad(dir)
	if !ok {
		var err error
		if db, err = leveldb.OpenFile(filepath.Join(dir, "db"), &opt.Options{
			Compression: opt.FlateCompression,
			BlockSize:   16 * opt.KiB,
		}); err != nil {
			return nil, fmt.Errorf("error opening leveldb database: %w", err)
		}
		cacheStore(dir, db)
	}
	return &Provider{DB: db, dir: dir, size: size}, nil
}

// New returns a provider on a database that is already open. Closing the provider closes the database.
func New(db *leveldb.DB, size int) *Provider {
	return &Provider{DB: db, size: size}
}

// LoadEntity loads the block entity at the position passed. If no entity is stored there, exists is false.
// If decoding the entity fails, the entity returned is empty and the error wraps the decoding error.
func (p *Provider) LoadEntity(pos define.Pos, props statistics.Properties, opts ...multistate.Option) (e *multistate.BlockEntity, exists bool, err error) {
	data, err := p.DB.Get(p.index(pos, keyEntity), nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	} else if err != nil {
		return nil, true, fmt.Errorf("error reading block entity %v: %w", pos, err)
	}
	e = multistate.New(pos, p.size, props, opts...)
	if err := e.UnmarshalNBT(data); err != nil {
		return e, true, fmt.Errorf("error decoding block entity %v: %w", pos, err)
	}
	return e, true, nil
}

// SaveEntity saves the block entity passed at its position.
func (p *Provider) SaveEntity(e *multistate.BlockEntity) error {
	data, err := e.MarshalNBT()
	if err != nil {
		return fmt.Errorf("error encoding block entity %v: %w", e.Pos(), err)
	}
	return p.DB.Put(p.index(e.Pos(), keyEntity), data, nil)
}

// DeleteEntity removes the block entity at the position passed, if any.
func (p *Provider) DeleteEntity(pos define.Pos) error {
	return p.DB.Delete(p.index(pos, keyEntity), nil)
}

// Positions returns the positions of all stored block entities.
func (p *Provider) Positions() ([]define.Pos, error) {
	var positions []define.Pos
	iter := p.DB.NewIterator(nil, nil)
	defer iter.Release()
	for iter.Next() {
		key := iter.Key()
		if len(key) != keyLength+1 || key[keyLength] != keyEntity {
			continue
		}
		positions = append(positions, define.Pos{
			int(int32(binary.LittleEndian.Uint32(key[0:]))),
			int(int32(binary.LittleEndian.Uint32(key[4:]))),
			int(int32(binary.LittleEndian.Uint32(key[8:]))),
		})
	}
	return positions, iter.Error()
}

// Has checks if a block entity is stored at the position passed.
func (p *Provider) Has(pos define.Pos) (bool, error) {
	return p.DB.Has(p.index(pos, keyEntity), nil)
}

// Column returns the positions of the block entities stored in the vertical column of blocks at x and z.
func (p *Provider) Column(x, z int) ([]define.Pos, error) {
	prefix := make([]byte, 4)
	binary.LittleEndian.PutUint32(prefix, uint32(int32(x)))
	var positions []define.Pos
	iter := p.DB.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()
	for iter.Next() {
		key := iter.Key()
		if len(key) != keyLength+1 || key[keyLength] != keyEntity || int(int32(binary.LittleEndian.Uint32(key[8:]))) != z {
			continue
		}
		positions = append(positions, define.Pos{x, int(int32(binary.LittleEndian.Uint32(key[4:]))), z})
	}
	return positions, iter.Error()
}

// Close closes the provider. The database is closed once no other provider on the same directory is open.
func (p *Provider) Close() error {
	if p.dir == "" {
		return p.DB.Close()
	}
	if cacheDelete(p.dir) != 0 {
		// The same database is still in use by another provider.
		return nil
	}
	return p.DB.Close()
}

// index returns the key of the block at the position passed with the tag passed appended.
func (p *Provider) index(pos define.Pos, tag byte) []byte {
	b := make([]byte, keyLength, keyLength+1)
	binary.LittleEndian.PutUint32(b, uint32(int32(pos[0])))
	binary.LittleEndian.PutUint32(b[4:], uint32(int32(pos[1])))
	binary.LittleEndian.PutUint32(b[8:], uint32(int32(pos[2])))
	return append(b, tag)
}
