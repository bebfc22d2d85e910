package storage

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/loving2/Chisels-and-Bits/define"
)

// quarterTurns holds the matrices rotating a vector 90 degrees about each axis.
var quarterTurns = [...]mgl64.Mat3{
	define.X: mgl64.Rotate3DX(math.Pi / 2),
	define.Y: mgl64.Rotate3DY(math.Pi / 2),
	define.Z: mgl64.Rotate3DZ(math.Pi / 2),
}

// Rotate rotates the contents of the storage rotationCount times by 90 degrees about the axis passed.
// Negative counts rotate the other way. Counts that are a multiple of 4 leave the storage untouched.
func (s *Storage) Rotate(axis define.Axis, rotationCount int) {
	rotationCount = ((rotationCount % 4) + 4) % 4
	if rotationCount == 0 || s.width == 0 {
		// A storage without cell data holds the same state in every cell, so turning it changes nothing.
		return
	}
	rotation := quarterTurns[axis]
	c := float64(s.size-1) / 2
	center := mgl64.Vec3{c, c, c}

	s.remap(func(pos define.Pos) define.Pos {
		v := mgl64.Vec3{float64(pos[0]), float64(pos[1]), float64(pos[2])}.Sub(center)
		for i := 0; i < rotationCount; i++ {
			v = rotation.Mul3x1(v)
		}
		v = v.Add(center)
		return define.Pos{snap(v[0]), snap(v[1]), snap(v[2])}
	})
}

// Mirror flips the contents of the storage along the axis passed.
func (s *Storage) Mirror(axis define.Axis) {
	if s.width == 0 {
		return
	}
	s.remap(func(pos define.Pos) define.Pos {
		pos[axis] = s.size - 1 - pos[axis]
		return pos
	})
}

// remap moves every cell of the storage to the position returned by the function passed. The function
// must be a bijection over the positions of the storage. The palette is left untouched, so indices are
// copied as they are.
func (s *Storage) remap(target func(pos define.Pos) define.Pos) {
	source := s.RawData()
	s.data = make([]byte, len(source))
	s.ForEachPos(func(pos define.Pos) {
		t := target(pos)
		SetValueAt(s.data, ValueAt(source, s.width, s.offset(pos[0], pos[1], pos[2])), s.width, s.offset(t[0], t[1], t[2]))
	})
}

// snap rounds a coordinate to the nearest cell, first cutting off drift below a thousandth of a cell.
func snap(v float64) int {
	return int(math.Round(mgl64.Round(v, 3)))
}
