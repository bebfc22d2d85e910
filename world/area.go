package world

import (
	"sync"

	"github.com/loving2/Chisels-and-Bits/define"
	"github.com/loving2/Chisels-and-Bits/eligibility"
)

// Area is an Adapter over the part of a world between two heights. Plain blocks are held in memory and
// default to air.
type Area struct {
	minY, maxY int
	eligible   eligibility.Source

	mu     sync.RWMutex
	blocks map[define.Pos]define.State
}

// NewArea returns an Area spanning from minY up to and including maxY. The eligibility of materials is
// decided by the source passed, usually an *eligibility.Manager.
func NewArea(minY, maxY int, eligible eligibility.Source) *Area {
	return &Area{minY: minY, maxY: maxY, eligible: eligible, blocks: map[define.Pos]define.State{}}
}

// InBounds ...
func (a *Area) InBounds(pos define.Pos) bool {
	return pos.Y() >= a.minY && pos.Y() <= a.maxY
}

// Block ...
func (a *Area) Block(pos define.Pos) define.State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if s, ok := a.blocks[pos]; ok {
		return s
	}
	return define.Air
}

// SetBlock places a plain block. Setting air removes the block.
func (a *Area) SetBlock(pos define.Pos, s define.State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if s.IsAir() {
		delete(a.blocks, pos)
		return
	}
	a.blocks[pos] = s
}

// Eligible ...
func (a *Area) Eligible(s define.State) bool {
	return a.eligible.Eligible(s)
}
