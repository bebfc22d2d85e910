package eligibility

import (
	"testing"

	"github.com/loving2/Chisels-and-Bits/define"
	"github.com/loving2/Chisels-and-Bits/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	stone = define.State{Name: "minecraft:stone"}
	chest = define.State{Name: "minecraft:chest"}
)

// countingAnalyser counts how often every state was analysed.
type countingAnalyser struct {
	calls map[define.State]int
}

func (c *countingAnalyser) analyse(s define.State) Result {
	c.calls[s]++
	return Result{Eligible: s == stone}
}

func TestAnalyseCachesResults(t *testing.T) {
	c := &countingAnalyser{calls: map[define.State]int{}}
	m, err := NewManager(4, c.analyse)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.True(t, m.Eligible(stone))
		assert.False(t, m.Eligible(chest))
	}
	assert.Equal(t, 1, c.calls[stone])
	assert.Equal(t, 1, c.calls[chest])
	assert.Equal(t, 2, m.Len())

	m.Purge()
	assert.True(t, m.Eligible(stone))
	assert.Equal(t, 2, c.calls[stone])
}

func TestCacheIsBounded(t *testing.T) {
	c := &countingAnalyser{calls: map[define.State]int{}}
	m, err := NewManager(2, c.analyse)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		m.Analyse(define.State{Name: "minecraft:wool", Meta: uint16(i)})
	}
	assert.Equal(t, 2, m.Len())
}

func TestResize(t *testing.T) {
	c := &countingAnalyser{calls: map[define.State]int{}}
	m, err := NewManager(8, c.analyse)
	require.NoError(t, err)
	for i := 0; i < 8; i++ {
		m.Analyse(define.State{Name: "minecraft:wool", Meta: uint16(i)})
	}

	m.Resize(3)
	assert.Equal(t, 3, m.Capacity())
	assert.Equal(t, 3, m.Len())

	m.Resize(0)
	assert.Equal(t, 8, m.Capacity())
}

func TestNewManagerRejectsCapacity(t *testing.T) {
	_, err := NewManager(0, func(define.State) Result { return Result{} })
	assert.Error(t, err)
}

func TestFollowRegistry(t *testing.T) {
	reg := registry.New()
	m, err := NewManager(100, FromSource(reg))
	require.NoError(t, err)
	m.Follow(reg)

	require.NoError(t, reg.RegisterAll(
		registry.Material{Name: stone.Name, Chiselable: true},
		registry.Material{Name: chest.Name},
	))
	assert.Equal(t, 3, m.Capacity())
	assert.True(t, m.Eligible(stone))

	r := m.Analyse(chest)
	assert.False(t, r.Eligible)
	assert.NotEmpty(t, r.Reason)
	assert.False(t, m.Eligible(define.Air))
}
