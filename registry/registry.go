package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/loving2/Chisels-and-Bits/define"
	"github.com/muhammadmuzzammil1998/jsonc"
	"gopkg.in/yaml.v3"
)

//go:embed materials.yaml
var defaultMaterials []byte

// Material is a state together with the physical properties the engine needs to know about it.
type Material struct {
	Name         string  `yaml:"name" json:"name"`
	Meta         uint16  `yaml:"meta" json:"meta"`
	Light        int     `yaml:"light" json:"light"`
	Slipperiness float32 `yaml:"slipperiness" json:"slipperiness"`
	WeakPower    bool    `yaml:"weak_power" json:"weak_power"`
	Hardness     float32 `yaml:"hardness" json:"hardness"`
	// Chiselable is true if blocks of the material may be subdivided.
	Chiselable bool `yaml:"chiselable" json:"chiselable"`
}

// State returns the state of the material.
func (m Material) State() define.State {
	return define.State{Name: m.Name, Meta: m.Meta}
}

// materialFile is the layout of a materials file.
type materialFile struct {
	Materials []Material `yaml:"materials" json:"materials"`
}

// Registry assigns numeric IDs to states and holds the properties of their materials. IDs are handed out in
// registration order, with air always holding ID 0. A Registry is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	materials []Material
	ids       map[define.State]int32
	listeners []func(size int)
}

// New returns a registry holding only air.
func New() *Registry {
	r := &Registry{ids: make(map[define.State]int32)}
	r.register(Material{Name: define.Air.Name, Slipperiness: 0.6})
	return r
}

// Default returns a registry holding the built-in materials.
func Default() (*Registry, error) {
	r := New()
	if err := r.LoadYAML(defaultMaterials); err != nil {
		return nil, fmt.Errorf("load default materials: %w", err)
	}
	return r, nil
}

// Load returns a registry holding the built-in materials followed by those in the file passed. Files ending
// in .json or .jsonc are read as JSON with comments, all others as YAML.
func Load(path string) (*Registry, error) {
	r, err := Default()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read materials: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		err = r.LoadJSON(b)
	default:
		err = r.LoadYAML(b)
	}
	if err != nil {
		return nil, fmt.Errorf("load materials from %v: %w", path, err)
	}
	return r, nil
}

// LoadYAML registers the materials of a YAML materials file.
func (r *Registry) LoadYAML(b []byte) error {
	var f materialFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return err
	}
	return r.RegisterAll(f.Materials...)
}

// LoadJSON registers the materials of a JSON materials file, which may contain comments.
func (r *Registry) LoadJSON(b []byte) error {
	var f materialFile
	if err := json.Unmarshal(jsonc.ToJSON(b), &f); err != nil {
		return err
	}
	return r.RegisterAll(f.Materials...)
}

// Register registers a material and returns its ID. Registering a state that is already known replaces its
// properties and keeps its ID.
func (r *Registry) Register(m Material) (int32, error) {
	if m.Name == "" {
		return 0, fmt.Errorf("material without name")
	}
	r.mu.Lock()
	id, grew := r.register(m)
	size, listeners := len(r.materials), r.listeners
	r.mu.Unlock()
	if grew {
		for _, l := range listeners {
			l(size)
		}
	}
	return id, nil
}

// RegisterAll registers every material passed, notifying listeners at most once.
func (r *Registry) RegisterAll(materials ...Material) error {
	for _, m := range materials {
		if m.Name == "" {
			return fmt.Errorf("material without name")
		}
	}
	r.mu.Lock()
	grew := false
	for _, m := range materials {
		_, g := r.register(m)
		grew = grew || g
	}
	size, listeners := len(r.materials), r.listeners
	r.mu.Unlock()
	if grew {
		for _, l := range listeners {
			l(size)
		}
	}
	return nil
}

// register adds or updates a material. The registry must be locked for writing.
func (r *Registry) register(m Material) (id int32, grew bool) {
	if id, ok := r.ids[m.State()]; ok {
		r.materials[id] = m
		return id, false
	}
	id = int32(len(r.materials))
	r.materials = append(r.materials, m)
	r.ids[m.State()] = id
	return id, true
}

// OnChange adds a function called with the new amount of registered materials every time materials are
// added to the registry.
func (r *Registry) OnChange(f func(size int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, f)
}

// Len returns the amount of registered materials.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.materials)
}

// ID returns the ID of the state passed.
func (r *Registry) ID(s define.State) (int32, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.ids[s]
	return id, ok
}

// State returns the state with the ID passed.
func (r *Registry) State(id int32) (define.State, bool) {
	m, ok := r.byID(id)
	return m.State(), ok
}

// Material returns the material of the state passed.
func (r *Registry) Material(s define.State) (Material, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.ids[s]
	if !ok {
		return Material{}, false
	}
	return r.materials[id], true
}

// Materials returns all registered materials, ordered by ID.
func (r *Registry) Materials() []Material {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Material(nil), r.materials...)
}

func (r *Registry) byID(id int32) (Material, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id < 0 || int(id) >= len(r.materials) {
		return Material{}, false
	}
	return r.materials[id], true
}

// LightEmission ...
func (r *Registry) LightEmission(s define.State) int {
	m, _ := r.Material(s)
	return m.Light
}

// Slipperiness returns the slipperiness of the state, or 0.6 for unknown states.
func (r *Registry) Slipperiness(s define.State) float32 {
	m, ok := r.Material(s)
	if !ok {
		return 0.6
	}
	return m.Slipperiness
}

// ChecksWeakPower ...
func (r *Registry) ChecksWeakPower(s define.State) bool {
	m, _ := r.Material(s)
	return m.WeakPower
}

// Hardness ...
func (r *Registry) Hardness(s define.State) float32 {
	m, _ := r.Material(s)
	return m.Hardness
}

// Eligible checks if blocks of the state passed may be subdivided.
func (r *Registry) Eligible(s define.State) bool {
	m, ok := r.Material(s)
	return ok && m.Chiselable
}
