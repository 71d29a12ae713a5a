package redpiler

import (
	"testing"

	"redpiler.dev/redpiler/internal/backend"
	"redpiler.dev/redpiler/internal/catalog"
	"redpiler.dev/redpiler/internal/config"
	"redpiler.dev/redpiler/internal/graph"
	"redpiler.dev/redpiler/internal/worldapi"
	"redpiler.dev/redpiler/internal/worldstub"
)

func newTestDriver(t *testing.T, w *worldstub.World) *Driver {
	cat, err := catalog.Load(t.TempDir())
	if err != nil {
		t.Fatalf("catalog.Load: %v", err)
	}
	cfg := config.Default()
	return New(w, cat, cfg, nil, nil)
}

func leverLampWorld() *worldstub.World {
	w := worldstub.New(graph.Pos{}, graph.Pos{X: 2, Y: 0, Z: 0})
	w.SetInitialBlock(graph.Pos{X: 0, Y: 0, Z: 0}, worldapi.BlockState{Kind: worldapi.BlockLever, Facing: graph.East, On: false})
	w.SetInitialBlock(graph.Pos{X: 1, Y: 0, Z: 0}, worldapi.BlockState{Kind: worldapi.BlockWire})
	w.SetInitialBlock(graph.Pos{X: 2, Y: 0, Z: 0}, worldapi.BlockState{Kind: worldapi.BlockLamp, Lit: false})
	return w
}

func TestCompileThenOnUseLightsLampInstantly(t *testing.T) {
	w := leverLampWorld()
	d := newTestDriver(t, w)

	if _, err := d.Compile(CompileFlags{}); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !d.Compiled() {
		t.Fatalf("expected driver to report compiled after a successful compile")
	}

	d.OnUse(graph.Pos{X: 0, Y: 0, Z: 0}, backend.ActionFlick)
	d.Flush(w)

	lamp := w.GetBlock(graph.Pos{X: 2, Y: 0, Z: 0})
	if !lamp.Lit {
		t.Fatalf("expected the lamp to light the same tick the lever flicked, got %+v", lamp)
	}
}

func TestResetClearsCompiledState(t *testing.T) {
	w := leverLampWorld()
	d := newTestDriver(t, w)

	if _, err := d.Compile(CompileFlags{}); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	d.Reset(w)
	if d.Compiled() {
		t.Fatalf("expected Reset to release the compiled graph")
	}

	// Operations on an uncompiled driver are no-ops, not panics.
	d.Tick(w)
	d.OnUse(graph.Pos{X: 0, Y: 0, Z: 0}, backend.ActionFlick)
	if _, ok := d.Inspect(graph.Pos{X: 0, Y: 0, Z: 0}); ok {
		t.Fatalf("expected Inspect to report nothing once reset")
	}
}

func TestCompileRejectsRegionOverNodeCap(t *testing.T) {
	w := leverLampWorld()
	d := newTestDriver(t, w)
	d.cfg.MaxNodes = 1

	if _, err := d.Compile(CompileFlags{}); err == nil {
		t.Fatalf("expected a TooLarge error when the region exceeds max_nodes")
	}
}

func TestCompiledRepeaterKeepsConfiguredDelay(t *testing.T) {
	w := worldstub.New(graph.Pos{}, graph.Pos{X: 2, Y: 0, Z: 0})
	w.SetInitialBlock(graph.Pos{X: 0, Y: 0, Z: 0}, worldapi.BlockState{Kind: worldapi.BlockLever, On: true})
	w.SetInitialBlock(graph.Pos{X: 1, Y: 0, Z: 0}, worldapi.BlockState{Kind: worldapi.BlockRepeater, Facing: graph.West, Delay: 2})
	w.SetInitialBlock(graph.Pos{X: 2, Y: 0, Z: 0}, worldapi.BlockState{Kind: worldapi.BlockLamp})

	d := newTestDriver(t, w)
	if _, err := d.Compile(CompileFlags{}); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	report, ok := d.Inspect(graph.Pos{X: 1, Y: 0, Z: 0})
	if !ok || report.Kind != graph.KindRepeater {
		t.Fatalf("expected a repeater at (1,0,0), got %+v (ok=%v)", report, ok)
	}
	if report.State.Delay != 2 {
		t.Fatalf("expected the compiled repeater to keep its configured delay, got %d", report.State.Delay)
	}

	d.OnUse(graph.Pos{X: 0, Y: 0, Z: 0}, backend.ActionFlick)
	d.OnUse(graph.Pos{X: 0, Y: 0, Z: 0}, backend.ActionFlick)
	d.Tick(w)
}
