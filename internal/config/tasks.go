package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Manifest is the operator-authored list of seed tasks.
type Manifest struct {
	Seeds []TaskSpec `yaml:"seeds"`
}

// TaskSpec describes one seed task in the manifest.
type TaskSpec struct {
	Name string `yaml:"name"`
	// BBox is [minx, miny, maxx, maxy] of the coverage.
	BBox   []float64  `yaml:"bbox"`
	Levels LevelRange `yaml:"levels"`
	// RefreshBefore forces re-fetch of tiles older than it.
	RefreshBefore time.Time `yaml:"refresh_before"`
}

// LevelRange accepts either an explicit level list
//
//	levels: [2, 4, 6]
//
// or an inclusive range
//
//	levels: {from: 0, to: 10}
type LevelRange struct {
	list []int
}

// UnmarshalYAML implements yaml.Unmarshaler for the two accepted shapes.
func (r *LevelRange) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var list []int
		if err := node.Decode(&list); err != nil {
			return fmt.Errorf("decode level list: %w", err)
		}
		r.list = list
		return nil
	case yaml.MappingNode:
		var span struct {
			From int `yaml:"from"`
			To   int `yaml:"to"`
		}
		if err := node.Decode(&span); err != nil {
			return fmt.Errorf("decode level range: %w", err)
		}
		if span.To < span.From {
			return fmt.Errorf("level range %d-%d is inverted", span.From, span.To)
		}
		list := make([]int, 0, span.To-span.From+1)
		for l := span.From; l <= span.To; l++ {
			list = append(list, l)
		}
		r.list = list
		return nil
	default:
		return fmt.Errorf("levels must be a list or a from/to mapping")
	}
}

// List returns the expanded, coarse-to-fine level list.
func (r LevelRange) List() []int {
	out := make([]int, len(r.list))
	copy(out, r.list)
	return out
}

// Validate rejects malformed task specs.
func (t TaskSpec) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("seed task needs a name")
	}
	if len(t.BBox) != 4 {
		return fmt.Errorf("seed task %q: bbox must have 4 values", t.Name)
	}
	if t.BBox[0] >= t.BBox[2] || t.BBox[1] >= t.BBox[3] {
		return fmt.Errorf("seed task %q: bbox %v is inverted", t.Name, t.BBox)
	}
	if len(t.Levels.list) == 0 {
		return fmt.Errorf("seed task %q: levels are required", t.Name)
	}
	return nil
}

// LoadManifest reads and validates a seed manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if len(m.Seeds) == 0 {
		return nil, fmt.Errorf("manifest %s defines no seeds", path)
	}
	for _, spec := range m.Seeds {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
	}
	return &m, nil
}
