package worldstub

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"redpiler.dev/redpiler/internal/graph"
	"redpiler.dev/redpiler/internal/worldapi"
)

//go:embed schema.json
var fixtureSchema []byte

type fixturePos struct {
	X, Y, Z int32
}

func (p fixturePos) toPos() graph.Pos { return graph.Pos{X: p.X, Y: p.Y, Z: p.Z} }

type fixtureBlock struct {
	Pos     fixturePos `json:"pos"`
	Kind    string     `json:"kind"`
	Facing  string     `json:"facing,omitempty"`
	Locked  bool       `json:"locked,omitempty"`
	Delay   uint8      `json:"delay,omitempty"`
	Mode    string     `json:"mode,omitempty"`
	Powered bool       `json:"powered,omitempty"`
	Lit     bool       `json:"lit,omitempty"`
	On      bool       `json:"on,omitempty"`
	Pressed bool       `json:"pressed,omitempty"`
}

func (b fixtureBlock) toBlockState() (worldapi.BlockState, error) {
	s := worldapi.BlockState{
		Kind:    worldapi.BlockKind(b.Kind),
		Locked:  b.Locked,
		Delay:   b.Delay,
		Powered: b.Powered,
		Lit:     b.Lit,
		On:      b.On,
		Pressed: b.Pressed,
	}
	if b.Facing != "" {
		d, err := parseDirection(b.Facing)
		if err != nil {
			return s, err
		}
		s.Facing = d
	}
	if b.Mode != "" {
		m, err := parseMode(b.Mode)
		if err != nil {
			return s, err
		}
		s.Mode = m
	}
	return s, nil
}

type fixtureEntity struct {
	Pos        fixturePos     `json:"pos"`
	Inventory  map[string]int `json:"inventory,omitempty"`
	Level      int            `json:"level,omitempty"`
	SliceCount int            `json:"slice_count,omitempty"`
	HasRecord  bool           `json:"has_record,omitempty"`
}

type fixtureFile struct {
	Min      fixturePos      `json:"min"`
	Max      fixturePos      `json:"max"`
	Blocks   []fixtureBlock  `json:"blocks"`
	Entities []fixtureEntity `json:"entities,omitempty"`
}

// LoadFixture reads a JSON world fixture from path, validates it against
// the bundled schema, and builds an in-memory World from it.
func LoadFixture(path string) (*World, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := validateFixture(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var f fixtureFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	w := New(f.Min.toPos(), f.Max.toPos())
	for _, b := range f.Blocks {
		state, err := b.toBlockState()
		if err != nil {
			return nil, fmt.Errorf("%s: block at %+v: %w", path, b.Pos, err)
		}
		w.SetInitialBlock(b.Pos.toPos(), state)
	}
	for _, e := range f.Entities {
		w.SetInitialBlockEntity(e.Pos.toPos(), worldapi.BlockEntity{
			Inventory:  e.Inventory,
			Level:      e.Level,
			SliceCount: e.SliceCount,
			HasRecord:  e.HasRecord,
		})
	}
	return w, nil
}

func validateFixture(raw []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("fixture.json", bytes.NewReader(fixtureSchema)); err != nil {
		return err
	}
	schema, err := compiler.Compile("fixture.json")
	if err != nil {
		return err
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return schema.Validate(doc)
}

func parseDirection(s string) (graph.Direction, error) {
	switch s {
	case "NORTH":
		return graph.North, nil
	case "SOUTH":
		return graph.South, nil
	case "WEST":
		return graph.West, nil
	case "EAST":
		return graph.East, nil
	case "DOWN":
		return graph.Down, nil
	case "UP":
		return graph.Up, nil
	default:
		return 0, fmt.Errorf("worldstub: unknown facing %q", s)
	}
}

func parseMode(s string) (graph.ComparatorMode, error) {
	switch s {
	case "COMPARE":
		return graph.Compare, nil
	case "SUBTRACT":
		return graph.Subtract, nil
	default:
		return 0, fmt.Errorf("worldstub: unknown comparator mode %q", s)
	}
}
