package storage

import (
	"encoding/binary"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const (
	identifierEmpty uint8 = iota
	identifierGrid
	identifierSingle
)

// Identifier is a fingerprint of the contents of a storage at the time it was created. Identifiers are
// comparable and may be used as map keys. Two identifiers are equal only if the contents they were created
// from were equal, but two storages with equal contents are not guaranteed to produce equal identifiers.
type Identifier struct {
	kind    uint8
	payload string
}

// Identifier creates a new identifier from the current contents of the storage. The identifier holds a
// copy of the palette and the raw cell data.
func (s *Storage) Identifier() Identifier {
	var b strings.Builder
	for _, state := range s.palette.states {
		b.WriteString(state.String())
		b.WriteByte(0)
	}
	b.WriteByte(0)
	b.Write(s.data)
	return Identifier{kind: identifierGrid, payload: b.String()}
}

// SingleStateIdentifier returns the identifier of a block that was not subdivided yet and holds the single
// state with the registry ID passed.
func SingleStateIdentifier(id int32) Identifier {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(id))
	return Identifier{kind: identifierSingle, payload: string(b[:])}
}

// Equal checks if two identifiers are equal.
func (i Identifier) Equal(other Identifier) bool {
	return i == other
}

// Empty checks if the identifier is the zero value.
func (i Identifier) Empty() bool {
	return i.kind == identifierEmpty
}

// Hash returns a hash of the identifier.
func (i Identifier) Hash() uint64 {
	d := xxhash.New()
	_, _ = d.Write([]byte{i.kind})
	_, _ = d.WriteString(i.payload)
	return d.Sum64()
}
