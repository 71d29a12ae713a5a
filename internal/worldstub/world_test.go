package worldstub

import (
	"os"
	"path/filepath"
	"testing"

	"redpiler.dev/redpiler/internal/graph"
	"redpiler.dev/redpiler/internal/worldapi"
)

func TestWorldGetBlockDefaultsToAir(t *testing.T) {
	w := New(graph.Pos{}, graph.Pos{X: 3, Y: 3, Z: 3})
	got := w.GetBlock(graph.Pos{X: 1, Y: 1, Z: 1})
	if got.Kind != worldapi.BlockAir {
		t.Fatalf("expected unseeded block to read as air, got %q", got.Kind)
	}
}

func TestWorldSetBlockUpdatesLiveTableAndRecordsWrite(t *testing.T) {
	w := New(graph.Pos{}, graph.Pos{X: 3, Y: 3, Z: 3})
	pos := graph.Pos{X: 1, Y: 1, Z: 1}

	w.SetBlock(pos, worldapi.BlockState{Kind: worldapi.BlockLamp, Lit: true})

	if got := w.GetBlock(pos); !got.Lit {
		t.Fatalf("expected GetBlock to reflect the write, got %+v", got)
	}
	if len(w.Writes) != 1 || w.Writes[0].Pos != pos {
		t.Fatalf("expected exactly one recorded write at %v, got %+v", pos, w.Writes)
	}
}

func TestWorldFlushCountsCalls(t *testing.T) {
	w := New(graph.Pos{}, graph.Pos{X: 1, Y: 1, Z: 1})
	w.Flush()
	w.Flush()
	if w.Flushes() != 2 {
		t.Fatalf("expected 2 flushes, got %d", w.Flushes())
	}
}

func TestWorldBlockEntityRoundTrips(t *testing.T) {
	w := New(graph.Pos{}, graph.Pos{X: 1, Y: 1, Z: 1})
	pos := graph.Pos{X: 1, Y: 0, Z: 0}
	w.SetInitialBlockEntity(pos, worldapi.BlockEntity{Level: 4})

	got, ok := w.GetBlockEntity(pos)
	if !ok || got.Level != 4 {
		t.Fatalf("expected seeded entity with level 4, got %+v (ok=%v)", got, ok)
	}

	if _, ok := w.GetBlockEntity(graph.Pos{X: 99}); ok {
		t.Fatalf("expected no entity at an unseeded position")
	}
}

func TestLoadFixtureBuildsWorldFromJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.json")
	content := `{
		"min": {"x": 0, "y": 0, "z": 0},
		"max": {"x": 4, "y": 4, "z": 4},
		"blocks": [
			{"pos": {"x": 0, "y": 0, "z": 0}, "kind": "LEVER", "facing": "NORTH", "on": true},
			{"pos": {"x": 1, "y": 0, "z": 0}, "kind": "REPEATER", "facing": "SOUTH", "delay": 2},
			{"pos": {"x": 2, "y": 0, "z": 0}, "kind": "COMPARATOR", "facing": "SOUTH", "mode": "SUBTRACT"},
			{"pos": {"x": 3, "y": 0, "z": 0}, "kind": "REDSTONE_LAMP", "lit": false}
		],
		"entities": [
			{"pos": {"x": 2, "y": -1, "z": 0}, "level": 9, "has_record": true}
		]
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	w, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}

	lever := w.GetBlock(graph.Pos{X: 0, Y: 0, Z: 0})
	if lever.Kind != worldapi.BlockLever || !lever.On || lever.Facing != graph.North {
		t.Fatalf("unexpected lever state: %+v", lever)
	}

	rep := w.GetBlock(graph.Pos{X: 1, Y: 0, Z: 0})
	if rep.Kind != worldapi.BlockRepeater || rep.Delay != 2 || rep.Facing != graph.South {
		t.Fatalf("unexpected repeater state: %+v", rep)
	}

	cmp := w.GetBlock(graph.Pos{X: 2, Y: 0, Z: 0})
	if cmp.Kind != worldapi.BlockComparator || cmp.Mode != graph.Subtract {
		t.Fatalf("unexpected comparator state: %+v", cmp)
	}

	be, ok := w.GetBlockEntity(graph.Pos{X: 2, Y: -1, Z: 0})
	if !ok || be.Level != 9 || !be.HasRecord {
		t.Fatalf("unexpected block entity: %+v (ok=%v)", be, ok)
	}

	min, max := w.RegionBounds()
	if min != (graph.Pos{}) || max != (graph.Pos{X: 4, Y: 4, Z: 4}) {
		t.Fatalf("unexpected region bounds: %v %v", min, max)
	}
}

func TestLoadFixtureRejectsUnknownBlockFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	content := `{
		"min": {"x": 0, "y": 0, "z": 0},
		"max": {"x": 1, "y": 1, "z": 1},
		"blocks": [
			{"pos": {"x": 0, "y": 0, "z": 0}, "kind": "LEVER", "unknown_field": true}
		]
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := LoadFixture(path); err == nil {
		t.Fatalf("expected schema validation to reject an unknown field")
	}
}

func TestLoadFixtureRejectsUnknownFacing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad_facing.json")
	content := `{
		"min": {"x": 0, "y": 0, "z": 0},
		"max": {"x": 1, "y": 1, "z": 1},
		"blocks": [
			{"pos": {"x": 0, "y": 0, "z": 0}, "kind": "LEVER", "facing": "SIDEWAYS"}
		]
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := LoadFixture(path); err == nil {
		t.Fatalf("expected an error for an unrecognized facing value")
	}
}
