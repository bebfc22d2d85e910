package storage

import (
	"testing"

	"github.com/loving2/Chisels-and-Bits/define"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotateUniformStorage(t *testing.T) {
	s := New(DefaultSize)
	s.InitializeWith(stone)
	s.Rotate(define.Y, 1)
	assert.Equal(t, map[define.State]int{stone: 4096}, counts(s))
}

func TestRotateQuarterTurnY(t *testing.T) {
	s := New(DefaultSize)
	s.SetState(0, 0, 0, stone)
	s.SetState(15, 0, 0, dirt)
	s.Rotate(define.Y, 1)

	assert.Equal(t, stone, s.State(0, 0, 15))
	assert.Equal(t, dirt, s.State(0, 0, 0))
	assert.Equal(t, map[define.State]int{define.Air: 4094, stone: 1, dirt: 1}, counts(s))
}

func TestRotateFullTurnIsIdentity(t *testing.T) {
	for _, axis := range define.Axes() {
		t.Run(axis.String(), func(t *testing.T) {
			s := randomStorage(t, int64(axis), DefaultSize, define.Air, stone, dirt, wool)
			original := s.Snapshot()

			s.Rotate(axis, 4)
			assert.Equal(t, original.RawData(), s.RawData())

			for i := 0; i < 4; i++ {
				s.Rotate(axis, 1)
			}
			assert.True(t, original.Equal(s))

			s.Rotate(axis, 3)
			s.Rotate(axis, -3)
			assert.True(t, original.Equal(s))
		})
	}
}

func TestRotateKeepsCounts(t *testing.T) {
	s := randomStorage(t, 11, 5, define.Air, stone, dirt)
	want := counts(s)
	for _, axis := range define.Axes() {
		s.Rotate(axis, 1)
		require.Equal(t, want, counts(s))
	}
}

func TestRotateHalfTurnMirrorsOtherAxes(t *testing.T) {
	s := randomStorage(t, 5, DefaultSize, define.Air, stone, dirt)
	mirrored := s.Snapshot()
	mirrored.Mirror(define.X)
	mirrored.Mirror(define.Z)

	s.Rotate(define.Y, 2)
	assert.True(t, mirrored.Equal(s))
}

func TestRotateOddSize(t *testing.T) {
	s := New(3)
	s.SetState(1, 1, 1, stone)
	s.SetState(0, 1, 1, dirt)
	s.Rotate(define.Z, 1)
	assert.Equal(t, stone, s.State(1, 1, 1))
	assert.Equal(t, dirt, s.State(1, 0, 1))
}

func TestMirror(t *testing.T) {
	s := New(DefaultSize)
	s.SetState(0, 0, 0, stone)
	s.Mirror(define.X)
	assert.Equal(t, stone, s.State(15, 0, 0))
	assert.Equal(t, define.Air, s.State(0, 0, 0))

	s.Mirror(define.Y)
	assert.Equal(t, stone, s.State(15, 15, 0))
}

func TestMirrorIsInvolution(t *testing.T) {
	for _, axis := range define.Axes() {
		s := randomStorage(t, 9, 6, define.Air, stone, dirt, wool, glass)
		original := s.Snapshot()
		s.Mirror(axis)
		s.Mirror(axis)
		assert.Equal(t, original.RawData(), s.RawData(), axis.String())
	}
}

func TestTransformsLeavePaletteAlone(t *testing.T) {
	s := randomStorage(t, 2, 4, stone, dirt, wool)
	palette := s.Palette()
	s.Rotate(define.X, 1)
	s.Mirror(define.Z)
	assert.Equal(t, palette, s.Palette())
}
