package frontend

import (
	"testing"

	"redpiler.dev/redpiler/internal/catalog"
	"redpiler.dev/redpiler/internal/graph"
	"redpiler.dev/redpiler/internal/worldapi"
)

// fakeView is a minimal in-memory WorldView for front-end unit tests.
type fakeView struct {
	blocks   map[graph.Pos]worldapi.BlockState
	entities map[graph.Pos]worldapi.BlockEntity
	min, max graph.Pos
}

func newFakeView(min, max graph.Pos) *fakeView {
	return &fakeView{
		blocks:   map[graph.Pos]worldapi.BlockState{},
		entities: map[graph.Pos]worldapi.BlockEntity{},
		min:      min,
		max:      max,
	}
}

func (v *fakeView) set(p graph.Pos, b worldapi.BlockState) { v.blocks[p] = b }

func (v *fakeView) GetBlock(pos graph.Pos) worldapi.BlockState {
	if b, ok := v.blocks[pos]; ok {
		return b
	}
	return worldapi.BlockState{Kind: worldapi.BlockAir}
}

func (v *fakeView) GetBlockEntity(pos graph.Pos) (worldapi.BlockEntity, bool) {
	be, ok := v.entities[pos]
	return be, ok
}

func (v *fakeView) RegionBounds() (graph.Pos, graph.Pos) { return v.min, v.max }

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load(t.TempDir())
	if err != nil {
		t.Fatalf("catalog load: %v", err)
	}
	return cat
}

func TestIdentifyNodesSkipsUnsupportedBlocks(t *testing.T) {
	v := newFakeView(graph.Pos{}, graph.Pos{X: 2})
	v.set(graph.Pos{X: 0}, worldapi.BlockState{Kind: worldapi.BlockLever, On: true})
	v.set(graph.Pos{X: 1}, worldapi.BlockState{Kind: worldapi.BlockSolid})
	v.set(graph.Pos{X: 2}, worldapi.BlockState{Kind: worldapi.BlockLamp})

	g, err := IdentifyNodes(v, testCatalog(t), Options{})
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	if g.LiveCount() != 2 {
		t.Fatalf("expected 2 nodes (solid skipped), got %d", g.LiveCount())
	}
}

// Torch inverter: Lever -> Wire -> Torch (attached below) -> Lamp.
// Scenario 1 from spec.md §8.
func TestInputSearchTorchInverterWiring(t *testing.T) {
	v := newFakeView(graph.Pos{}, graph.Pos{X: 4, Y: 1})
	lever := graph.Pos{X: 0, Y: 0}
	wire := graph.Pos{X: 1, Y: 0}
	torch := graph.Pos{X: 1, Y: 1} // sits directly on top of the wire block
	lamp := graph.Pos{X: 2, Y: 1}

	v.set(lever, worldapi.BlockState{Kind: worldapi.BlockLever})
	v.set(wire, worldapi.BlockState{Kind: worldapi.BlockWire})
	v.set(torch, worldapi.BlockState{Kind: worldapi.BlockTorch})
	v.set(lamp, worldapi.BlockState{Kind: worldapi.BlockLamp})

	g, err := IdentifyNodes(v, testCatalog(t), Options{})
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	InputSearch(g, v)

	leverID, _ := findByPos(g, lever)
	torchID, _ := findByPos(g, torch)
	lampID, _ := findByPos(g, lamp)

	in := g.Incoming(torchID)
	found := false
	for _, e := range in {
		if e.Other == leverID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected torch to have lever as an input via wire, got %+v", in)
	}

	in = g.Incoming(lampID)
	foundTorch := false
	for _, e := range in {
		if e.Other == torchID {
			foundTorch = true
		}
	}
	if !foundTorch {
		t.Fatalf("expected lamp to have torch as an input, got %+v", in)
	}
}

func TestComparatorFarOverride(t *testing.T) {
	v := newFakeView(graph.Pos{}, graph.Pos{X: 4})
	comparator := graph.Pos{X: 2}
	v.set(comparator, worldapi.BlockState{Kind: worldapi.BlockComparator, Facing: graph.East, Mode: graph.Subtract})

	solid := graph.Pos{X: 3}
	v.set(solid, worldapi.BlockState{Kind: worldapi.BlockSolid})
	container := graph.Pos{X: 4}
	v.set(container, worldapi.BlockState{Kind: worldapi.BlockBarrel})
	v.entities[container] = worldapi.BlockEntity{Inventory: map[string]int{"STONE": 64}}

	g, err := IdentifyNodes(v, testCatalog(t), Options{})
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	cmpID, _ := findByPos(g, comparator)
	n := g.Node(cmpID)
	if n.State.FarOverride == graph.NoFarOverride {
		t.Fatalf("expected a far override reading from the barrel")
	}
	if n.State.FarOverride <= 0 {
		t.Fatalf("expected positive far override strength, got %d", n.State.FarOverride)
	}
}

func findByPos(g *graph.Graph, pos graph.Pos) (graph.ID, bool) {
	return g.NodeAt(pos)
}
