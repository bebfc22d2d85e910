package multistate

import (
	"bytes"
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/loving2/Chisels-and-Bits/define"
	"github.com/loving2/Chisels-and-Bits/statistics"
	"github.com/loving2/Chisels-and-Bits/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	stone     = define.State{Name: "minecraft:stone"}
	dirt      = define.State{Name: "minecraft:dirt"}
	glowstone = define.State{Name: "minecraft:glowstone"}
)

type mockProperties struct{}

func (mockProperties) LightEmission(s define.State) int {
	if s == glowstone {
		return 15
	}
	return 0
}
func (mockProperties) Slipperiness(define.State) float32 { return 0.6 }
func (mockProperties) ChecksWeakPower(s define.State) bool { return s == stone }
func (mockProperties) Hardness(define.State) float32 { return 1 }

var ids = []define.State{define.Air, stone, dirt, glowstone}

func (mockProperties) ID(s define.State) (int32, bool) {
	for i, st := range ids {
		if st == s {
			return int32(i), true
		}
	}
	return 0, false
}

func (mockProperties) State(id int32) (define.State, bool) {
	if id < 0 || int(id) >= len(ids) {
		return define.State{}, false
	}
	return ids[id], true
}

// notifications counts the notifications of an entity.
type notifications struct {
	positions []define.Pos
}

func (n *notifications) notify(pos define.Pos) {
	n.positions = append(n.positions, pos)
}

func newEntity(n *notifications) *BlockEntity {
	opts := []Option{}
	if n != nil {
		opts = append(opts, WithNotifier(n.notify))
	}
	return New(define.Pos{10, 64, -3}, storage.DefaultSize, mockProperties{}, opts...)
}

// cell returns the in-area target of the centre of the cell at x, y and z.
func cell(x, y, z int) mgl64.Vec3 {
	return mgl64.Vec3{(float64(x) + 0.5) / 16, (float64(y) + 0.5) / 16, (float64(z) + 0.5) / 16}
}

func TestSetInAreaTarget(t *testing.T) {
	n := &notifications{}
	e := newEntity(n)
	require.NoError(t, e.SetInAreaTarget(glowstone, cell(3, 15, 4)))

	assert.Equal(t, glowstone, e.State(3, 15, 4))
	assert.Equal(t, glowstone, e.Statistics().PrimaryState())
	assert.Equal(t, 1, e.Statistics().UsedCount())
	assert.Equal(t, 15, e.Statistics().LightSum())
	assert.Equal(t, []int{15}, e.Statistics().ColumnLevels(define.Column{3, 4}))
	assert.Equal(t, []define.Pos{{10, 64, -3}}, n.positions)
}

func TestSetInAreaTargetOccupied(t *testing.T) {
	e := newEntity(nil)
	require.NoError(t, e.SetInAreaTarget(stone, cell(0, 0, 0)))

	err := e.SetInAreaTarget(dirt, cell(0, 0, 0))
	assert.True(t, errors.Is(err, ErrSpaceOccupied))
	assert.Equal(t, stone, e.State(0, 0, 0))
	assert.Equal(t, map[define.State]int{stone: 1}, e.Statistics().StateCounts())
}

func TestSetAirOnEmptyCell(t *testing.T) {
	n := &notifications{}
	e := newEntity(n)
	require.NoError(t, e.SetInAreaTarget(define.Air, cell(1, 1, 1)))
	assert.Zero(t, e.Statistics().UsedCount())
	assert.Equal(t, define.Air, e.State(1, 1, 1))
	assert.Equal(t, define.Air, e.Statistics().PrimaryState())
}

func TestTargetsOutOfArea(t *testing.T) {
	e := newEntity(nil)
	for _, target := range []mgl64.Vec3{{-0.01, 0, 0}, {0, 1, 0}, {0.5, 0.5, 1.2}} {
		assert.ErrorIs(t, e.SetInAreaTarget(stone, target), ErrOutOfArea)
		assert.ErrorIs(t, e.ClearInAreaTarget(target), ErrOutOfArea)
		_, _, err := e.GetInAreaTarget(target)
		assert.ErrorIs(t, err, ErrOutOfArea)
		assert.False(t, e.IsInside(target))
	}
	assert.True(t, e.IsInside(mgl64.Vec3{0, 0.999, 0.5}))
}

func TestInBlockTargetOffset(t *testing.T) {
	e := newEntity(nil)
	offset := define.Pos{0, 1, 0}
	assert.ErrorIs(t, e.SetInBlockTarget(stone, offset, cell(0, 0, 0)), ErrNotInBlock)
	assert.ErrorIs(t, e.ClearInBlockTarget(offset, cell(0, 0, 0)), ErrNotInBlock)
	_, _, err := e.GetInBlockTarget(offset, cell(0, 0, 0))
	assert.ErrorIs(t, err, ErrNotInBlock)
	assert.False(t, e.IsInsideBlock(offset, cell(0, 0, 0)))

	require.NoError(t, e.SetInBlockTarget(stone, define.Pos{}, cell(2, 0, 0)))
	entry, ok, err := e.GetInBlockTarget(define.Pos{}, cell(2, 0, 0))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, stone, entry.State)
}

func TestGetInAreaTarget(t *testing.T) {
	e := newEntity(nil)
	_, ok, err := e.GetInAreaTarget(cell(5, 5, 5))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, e.SetInAreaTarget(dirt, cell(8, 4, 2)))
	entry, ok, err := e.GetInAreaTarget(cell(8, 4, 2))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, define.Pos{8, 4, 2}, entry.Pos)
	assert.Equal(t, dirt, entry.State)
	assert.True(t, entry.Start.ApproxEqual(mgl64.Vec3{0.5, 0.25, 0.125}))
	assert.True(t, entry.End.ApproxEqual(mgl64.Vec3{0.5625, 0.3125, 0.1875}))
}

func TestClearInAreaTarget(t *testing.T) {
	e := newEntity(nil)
	require.NoError(t, e.SetInAreaTarget(stone, cell(7, 7, 7)))
	require.NoError(t, e.ClearInAreaTarget(cell(7, 7, 7)))
	assert.Equal(t, define.Air, e.State(7, 7, 7))
	assert.Zero(t, e.Statistics().UsedCount())
	assert.Equal(t, define.Air, e.Statistics().PrimaryState())

	require.NoError(t, e.SetInAreaTarget(dirt, cell(7, 7, 7)))
}

func TestForEachVisitsEveryCell(t *testing.T) {
	e := newEntity(nil)
	e.FillFromBottom(stone, 256)
	counts := map[define.State]int{}
	e.ForEach(func(entry Entry) {
		counts[entry.State]++
	})
	assert.Equal(t, map[define.State]int{stone: 256, define.Air: 3840}, counts)
	assert.Equal(t, 256, e.Statistics().UsedCount())
	assert.InDelta(t, 256.0/4096, e.Statistics().FullnessFactor(), 1e-6)
}

func TestInitializeWith(t *testing.T) {
	e := newEntity(nil)
	e.InitializeWith(stone)
	st := e.Statistics()
	assert.True(t, st.ShouldCheckWeakPower())
	assert.False(t, st.CanPropagateSkylight())
	assert.InDelta(t, 1, st.FullnessFactor(), 1e-6)
	assert.InDelta(t, 0.6, st.Slipperiness(), 1e-5)
	assert.InDelta(t, 1, st.RelativeHardness(), 1e-6)
	assert.Zero(t, st.LightEmissionFactor())
}

func TestTransformsRebuildStatistics(t *testing.T) {
	e := newEntity(nil)
	require.NoError(t, e.SetInAreaTarget(glowstone, cell(0, 15, 0)))
	require.NoError(t, e.SetInAreaTarget(stone, cell(15, 0, 0)))

	e.Rotate(define.Z, 1)
	e.Mirror(define.X)

	want := statistics.Rescan(e.Snapshot(), mockProperties{})
	got := e.Statistics()
	assert.Equal(t, want.StateCounts(), got.StateCounts())
	assert.Equal(t, want.UsedCount(), got.UsedCount())
	assert.Equal(t, want.LightSum(), got.LightSum())
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			assert.Equal(t, want.ColumnLevels(define.Column{x, z}), got.ColumnLevels(define.Column{x, z}))
		}
	}
}

func TestIdentifierAndSnapshot(t *testing.T) {
	e := newEntity(nil)
	before := e.Identifier()
	snapshot := e.Snapshot()

	require.NoError(t, e.SetInAreaTarget(stone, cell(1, 2, 3)))
	assert.NotEqual(t, before, e.Identifier())
	assert.Equal(t, define.Air, snapshot.State(1, 2, 3))

	require.NoError(t, e.ApplySnapshot(snapshot))
	assert.Equal(t, before, e.Identifier())
	assert.Zero(t, e.Statistics().UsedCount())

	assert.Error(t, e.ApplySnapshot(storage.New(8)))
}

func TestNBTRoundTrip(t *testing.T) {
	e := newEntity(nil)
	e.FillFromBottom(dirt, 700)
	require.NoError(t, e.ClearInAreaTarget(cell(0, 0, 0)))
	require.NoError(t, e.SetInAreaTarget(glowstone, cell(0, 0, 0)))

	b, err := e.MarshalNBT()
	require.NoError(t, err)

	decoded := newEntity(nil)
	require.NoError(t, decoded.UnmarshalNBT(b))
	assert.Equal(t, e.Identifier(), decoded.Identifier())
	assert.Equal(t, e.Statistics().StateCounts(), decoded.Statistics().StateCounts())
	assert.Equal(t, e.Statistics().LightSum(), decoded.Statistics().LightSum())
}

func TestPacketRoundTrip(t *testing.T) {
	e := newEntity(nil)
	e.InitializeWith(stone)
	require.NoError(t, e.ClearInAreaTarget(cell(4, 4, 4)))

	buf := bytes.NewBuffer(nil)
	_, err := e.WritePacket(buf, mockProperties{})
	require.NoError(t, err)

	decoded := newEntity(nil)
	_, err = decoded.ReadPacket(buf, mockProperties{})
	require.NoError(t, err)
	assert.True(t, e.Snapshot().Equal(decoded.Snapshot()))
	assert.Equal(t, 4095, decoded.Statistics().UsedCount())
}

func TestMalformedDataResetsEntity(t *testing.T) {
	e := newEntity(nil)
	e.InitializeWith(stone)
	assert.ErrorIs(t, e.UnmarshalNBT([]byte{1, 2, 3}), storage.ErrMalformed)
	assert.Equal(t, define.Air, e.State(0, 0, 0))
	assert.Zero(t, e.Statistics().UsedCount())

	e.InitializeWith(stone)
	_, err := e.ReadPacket(bytes.NewReader([]byte{2}), mockProperties{})
	assert.ErrorIs(t, err, storage.ErrMalformed)
	assert.Equal(t, define.Air, e.State(0, 0, 0))

	e.InitializeWith(stone)
	assert.NotPanics(t, func() {
		_, err = e.ReadPacket(bytes.NewReader([]byte{1, 0xff, 0xff, 0xff, 0xff, 0x0f}), mockProperties{})
	})
	assert.ErrorIs(t, err, storage.ErrMalformed)
	assert.Zero(t, e.Statistics().UsedCount())
}
