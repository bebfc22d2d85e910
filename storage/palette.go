package storage

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/loving2/Chisels-and-Bits/define"
)

// ErrIndexOutOfRange is returned when a palette index beyond the size of the palette is looked up.
var ErrIndexOutOfRange = errors.New("palette index out of range")

// Palette maps states to compact, dense indices and back. Indices are handed out in insertion order and
// never reused until the palette is cleared.
type Palette struct {
	states  []define.State
	indices map[define.State]int
}

// NewPalette returns an empty palette.
func NewPalette() *Palette {
	return &Palette{indices: make(map[define.State]int)}
}

// Index returns the index of the state passed, appending it to the palette if it was not yet present.
// If the insertion changed the amount of bits needed to address the palette, resized is true and width
// holds the new width. The caller is responsible for re-packing data addressed with the old width.
func (p *Palette) Index(s define.State) (index, width int, resized bool) {
	if i, ok := p.indices[s]; ok {
		return i, p.Width(), false
	}
	old := p.Width()
	index = len(p.states)
	p.states = append(p.states, s)
	p.indices[s] = index
	width = p.Width()
	return index, width, width != old
}

// Lookup returns the index of the state passed without inserting it.
func (p *Palette) Lookup(s define.State) (int, bool) {
	i, ok := p.indices[s]
	return i, ok
}

// StateAt returns the state stored at the index passed.
func (p *Palette) StateAt(index int) (define.State, error) {
	if index < 0 || index >= len(p.states) {
		return define.State{}, fmt.Errorf("index %v, size %v: %w", index, len(p.states), ErrIndexOutOfRange)
	}
	return p.states[index], nil
}

// Len returns the amount of distinct states in the palette.
func (p *Palette) Len() int {
	return len(p.states)
}

// Width returns the amount of bits needed to address every entry of the palette. Palettes with zero or
// one entries need no bits at all.
func (p *Palette) Width() int {
	return widthFor(len(p.states))
}

// Clear resets the palette to an empty one.
func (p *Palette) Clear() {
	p.states = p.states[:0]
	p.indices = make(map[define.State]int)
}

// States returns a copy of the states in the palette, in index order.
func (p *Palette) States() []define.State {
	return append([]define.State(nil), p.states...)
}

// Load replaces the contents of the palette with the states passed, which must be distinct.
func (p *Palette) Load(states []define.State) error {
	p.Clear()
	for _, s := range states {
		if _, ok := p.indices[s]; ok {
			p.Clear()
			return fmt.Errorf("duplicate palette entry %v: %w", s, ErrMalformed)
		}
		p.indices[s] = len(p.states)
		p.states = append(p.states, s)
	}
	return nil
}

// Clone returns a deep copy of the palette.
func (p *Palette) Clone() *Palette {
	c := &Palette{states: p.States(), indices: make(map[define.State]int, len(p.indices))}
	for s, i := range p.indices {
		c.indices[s] = i
	}
	return c
}

// widthFor returns ceil(log2(size)), with 0 for sizes of 0 and 1.
func widthFor(size int) int {
	if size <= 1 {
		return 0
	}
	return bits.Len(uint(size - 1))
}
