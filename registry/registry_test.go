package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/loving2/Chisels-and-Bits/define"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stone = define.State{Name: "minecraft:stone"}

func TestNewHoldsAir(t *testing.T) {
	r := New()
	assert.Equal(t, 1, r.Len())
	id, ok := r.ID(define.Air)
	require.True(t, ok)
	assert.Zero(t, id)
	assert.False(t, r.Eligible(define.Air))
}

func TestDefault(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)
	assert.Greater(t, r.Len(), 10)

	id, ok := r.ID(define.Air)
	require.True(t, ok)
	assert.Zero(t, id)

	id, ok = r.ID(stone)
	require.True(t, ok)
	s, ok := r.State(id)
	require.True(t, ok)
	assert.Equal(t, stone, s)

	assert.True(t, r.Eligible(stone))
	assert.False(t, r.Eligible(define.State{Name: "minecraft:chest"}))
	assert.True(t, r.ChecksWeakPower(stone))
	assert.Equal(t, 15, r.LightEmission(define.State{Name: "minecraft:glowstone"}))
	assert.InDelta(t, 0.98, r.Slipperiness(define.State{Name: "minecraft:ice"}), 1e-6)
	assert.InDelta(t, 0.8, r.Hardness(define.State{Name: "minecraft:wool", Meta: 14}), 1e-6)
}

func TestUnknownStates(t *testing.T) {
	r := New()
	unknown := define.State{Name: "minecraft:nothing"}
	_, ok := r.ID(unknown)
	assert.False(t, ok)
	_, ok = r.State(42)
	assert.False(t, ok)
	_, ok = r.State(-1)
	assert.False(t, ok)
	assert.False(t, r.Eligible(unknown))
	assert.InDelta(t, 0.6, r.Slipperiness(unknown), 1e-6)
	assert.Zero(t, r.LightEmission(unknown))
}

func TestRegisterKeepsIDs(t *testing.T) {
	r := New()
	id, err := r.Register(Material{Name: stone.Name, Hardness: 1})
	require.NoError(t, err)
	again, err := r.Register(Material{Name: stone.Name, Hardness: 3, Chiselable: true})
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.InDelta(t, 3, r.Hardness(stone), 1e-6)
	assert.True(t, r.Eligible(stone))

	_, err = r.Register(Material{})
	assert.Error(t, err)
}

func TestOnChange(t *testing.T) {
	r := New()
	var sizes []int
	r.OnChange(func(size int) { sizes = append(sizes, size) })

	_, err := r.Register(Material{Name: "minecraft:stone"})
	require.NoError(t, err)
	_, err = r.Register(Material{Name: "minecraft:stone", Hardness: 2})
	require.NoError(t, err)
	require.NoError(t, r.RegisterAll(Material{Name: "minecraft:dirt"}, Material{Name: "minecraft:sand"}))

	assert.Equal(t, []int{2, 4}, sizes)
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "extra.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
materials:
  - name: example:marble
    hardness: 1.2
    chiselable: true
`), 0644))
	jsonPath := filepath.Join(dir, "extra.jsonc")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{
	// Lamps emit light.
	"materials": [
		{"name": "example:lamp", "light": 12, "chiselable": true}
	]
}`), 0644))

	r, err := Load(yamlPath)
	require.NoError(t, err)
	assert.True(t, r.Eligible(define.State{Name: "example:marble"}))
	_, ok := r.ID(stone)
	assert.True(t, ok)

	r, err = Load(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 12, r.LightEmission(define.State{Name: "example:lamp"}))

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestMaterialsOrderedByID(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)
	for i, m := range r.Materials() {
		id, ok := r.ID(m.State())
		require.True(t, ok)
		assert.Equal(t, int32(i), id)
	}
}
