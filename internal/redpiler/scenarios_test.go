package redpiler

import (
	"path/filepath"
	"testing"

	"redpiler.dev/redpiler/internal/backend"
	"redpiler.dev/redpiler/internal/catalog"
	"redpiler.dev/redpiler/internal/config"
	"redpiler.dev/redpiler/internal/graph"
	"redpiler.dev/redpiler/internal/worldstub"
)

func loadScenario(t *testing.T, name string) (*Driver, *worldstub.World) {
	t.Helper()
	w, err := worldstub.LoadFixture(filepath.Join("..", "..", "testdata", name))
	if err != nil {
		t.Fatalf("LoadFixture(%s): %v", name, err)
	}
	cat, err := catalog.Load(t.TempDir())
	if err != nil {
		t.Fatalf("catalog.Load: %v", err)
	}
	d := New(w, cat, config.Default(), nil, nil)
	if _, err := d.Compile(CompileFlags{}); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return d, w
}

// Torch inverter: once the lever's "on" settles, the wall torch it feeds
// goes dark and the lamp it lights follows (after the lamp's own
// unlighting delay); flicking the lever back off reverses both, with the
// lamp relighting instantly once its torch input returns.
func TestScenarioTorchInverter(t *testing.T) {
	d, w := loadScenario(t, "torch_inverter.json")

	d.OnUse(graph.Pos{X: 0, Y: 0, Z: 0}, backend.ActionFlick) // lever on
	for i := 0; i < 6; i++ {
		d.Tick(w)
	}

	torch, _ := d.Inspect(graph.Pos{X: 2, Y: 0, Z: 0})
	lamp, _ := d.Inspect(graph.Pos{X: 3, Y: 0, Z: 0})
	if torch.State.Lit {
		t.Fatalf("expected torch unlit once its input settled high, got %+v", torch)
	}
	if lamp.State.Lit {
		t.Fatalf("expected lamp unlit once its torch input went dark, got %+v", lamp)
	}

	d.OnUse(graph.Pos{X: 0, Y: 0, Z: 0}, backend.ActionFlick) // lever off
	for i := 0; i < 6; i++ {
		d.Tick(w)
	}

	torch, _ = d.Inspect(graph.Pos{X: 2, Y: 0, Z: 0})
	lamp, _ = d.Inspect(graph.Pos{X: 3, Y: 0, Z: 0})
	if !torch.State.Lit {
		t.Fatalf("expected torch lit once its input went low again, got %+v", torch)
	}
	if !lamp.State.Lit {
		t.Fatalf("expected lamp lit once its torch input relit, got %+v", lamp)
	}
}

// Repeater delay: P lights 4 ticks after L goes on. Toggling L back off
// doesn't unlight P on the lamp's own 2-tick schedule — the lamp never
// sees L directly, only the repeater's already-delayed output — so the
// full transition composes the repeater's 4-tick delay with the lamp's
// 2-tick unlighting delay on top of it: P goes dark only once both have
// run their course.
func TestScenarioRepeaterDelay(t *testing.T) {
	d, w := loadScenario(t, "repeater_delay.json")
	lampPos := graph.Pos{X: 2, Y: 0, Z: 0}

	d.OnUse(graph.Pos{X: 0, Y: 0, Z: 0}, backend.ActionFlick) // lever on
	for i := 0; i < 4; i++ {
		d.Tick(w)
		lamp, _ := d.Inspect(lampPos)
		if lamp.State.Lit {
			t.Fatalf("expected lamp still unlit at tick %d", i+1)
		}
	}
	d.Tick(w)
	lamp, _ := d.Inspect(lampPos)
	if !lamp.State.Lit {
		t.Fatalf("expected lamp lit at tick 5")
	}

	for i := 0; i < 5; i++ {
		d.Tick(w) // idle until the lever flips back off
	}
	d.OnUse(graph.Pos{X: 0, Y: 0, Z: 0}, backend.ActionFlick) // lever off

	for i := 0; i < 6; i++ {
		d.Tick(w)
		lamp, _ = d.Inspect(lampPos)
		if !lamp.State.Lit {
			t.Fatalf("expected lamp still lit waiting on the repeater's own delayed off plus the lamp's unlighting delay")
		}
	}
	d.Tick(w)
	lamp, _ = d.Inspect(lampPos)
	if lamp.State.Lit {
		t.Fatalf("expected lamp unlit once the repeater's 4-tick delay plus the lamp's 2-tick unlighting delay both elapsed")
	}
}

// Comparator subtract: a full (strength 15) default input minus a
// strength-7 side input settles at 8, enough to light the lamp.
func TestScenarioComparatorSubtract(t *testing.T) {
	d, _ := loadScenario(t, "comparator_subtract.json")

	report, ok := d.Inspect(graph.Pos{X: 1, Y: 0, Z: 0})
	if !ok {
		t.Fatalf("expected a comparator at (1,0,0)")
	}
	if report.Output != 8 {
		t.Fatalf("expected comparator output 8 (15-7), got %d", report.Output)
	}

	lamp, ok := d.Inspect(graph.Pos{X: 2, Y: 0, Z: 0})
	if !ok || !lamp.State.Lit {
		t.Fatalf("expected the lamp lit by the comparator's output, got %+v (ok=%v)", lamp, ok)
	}
}

// Pulse limiter: a pressed stone button stays powered through the first
// ten Tick calls and releases on the eleventh, when its +10 release tick
// fires. Only the button is checked here, not the lamp behind the 1-tick
// repeater.
func TestScenarioPulseLimiter(t *testing.T) {
	d, w := loadScenario(t, "pulse_limiter.json")

	d.OnUse(graph.Pos{X: 0, Y: 0, Z: 0}, backend.ActionPress)
	for i := 0; i < 10; i++ {
		d.Tick(w)
		btn, _ := d.Inspect(graph.Pos{X: 0, Y: 0, Z: 0})
		if !btn.State.Powered {
			t.Fatalf("expected button still powered at tick %d", i+1)
		}
	}
	d.Tick(w)
	btn, _ := d.Inspect(graph.Pos{X: 0, Y: 0, Z: 0})
	if btn.State.Powered {
		t.Fatalf("expected button unpowered at tick 11")
	}
}

// Optimize must never change what a plot's blocks actually end up showing,
// only how many internal nodes it took to get there. Under optimize a
// five-wire run never becomes wire nodes, only one weighted lever-to-lamp
// link found by InputSearch, while the unoptimized compile keeps each wire
// as its own node, but the lever and lamp at its ends have to end up in
// lockstep regardless.
func TestOptimizeMatchesUnoptimizedObservableState(t *testing.T) {
	leverPos := graph.Pos{X: 0, Y: 0, Z: 0}
	lampPos := graph.Pos{X: 6, Y: 0, Z: 0}

	run := func(optimize bool) *worldstub.World {
		w, err := worldstub.LoadFixture(filepath.Join("..", "..", "testdata", "wire_run.json"))
		if err != nil {
			t.Fatalf("LoadFixture: %v", err)
		}
		cat, err := catalog.Load(t.TempDir())
		if err != nil {
			t.Fatalf("catalog.Load: %v", err)
		}
		d := New(w, cat, config.Default(), nil, nil)
		if _, err := d.Compile(CompileFlags{Optimize: optimize}); err != nil {
			t.Fatalf("Compile(Optimize=%v): %v", optimize, err)
		}
		d.OnUse(leverPos, backend.ActionFlick) // lever on
		for i := 0; i < 4; i++ {
			d.Tick(w)
		}
		d.Flush(w)
		return w
	}

	plain := run(false)
	optimized := run(true)

	if got, want := plain.GetBlock(lampPos).Lit, optimized.GetBlock(lampPos).Lit; got != want {
		t.Fatalf("lamp lit mismatch: unoptimized=%v optimized=%v", got, want)
	}
	if got, want := plain.GetBlock(leverPos).On, optimized.GetBlock(leverPos).On; got != want {
		t.Fatalf("lever state mismatch: unoptimized=%v optimized=%v", got, want)
	}
	if !optimized.GetBlock(lampPos).Lit {
		t.Fatalf("expected the lamp lit once the lever's signal reached it through the coalesced wire run")
	}
}

// Lever toggle: flicking the lever lights the lamp in the same call, no
// scheduling involved.
func TestScenarioLeverToggle(t *testing.T) {
	d, w := loadScenario(t, "lever_toggle.json")

	d.OnUse(graph.Pos{X: 0, Y: 0, Z: 0}, backend.ActionFlick)
	d.Flush(w)

	lamp := w.GetBlock(graph.Pos{X: 1, Y: 0, Z: 0})
	if !lamp.Lit {
		t.Fatalf("expected lamp lit in the same call as the flick, no ticks fired")
	}
}
