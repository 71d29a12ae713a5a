// Package worldstub is a minimal in-memory WorldView/WorldSink, standing
// in for the plot/chunk-storage collaborator that the core never owns.
// It backs the CLI demo, the benchmark driver, and every test that needs
// a concrete world rather than a hand-rolled fake per test file.
package worldstub

import (
	"redpiler.dev/redpiler/internal/graph"
	"redpiler.dev/redpiler/internal/worldapi"
)

// World is a bounded box of blocks held entirely in memory.
type World struct {
	Min, Max graph.Pos

	blocks   map[graph.Pos]worldapi.BlockState
	entities map[graph.Pos]worldapi.BlockEntity

	// Writes records every SetBlock call in order, for tests asserting on
	// the exact sequence a compile produced.
	Writes []Write

	flushes int
}

// Write is one WorldSink.SetBlock call captured for later inspection.
type Write struct {
	Pos   graph.Pos
	State worldapi.BlockState
}

// New returns an empty world spanning [min, max].
func New(min, max graph.Pos) *World {
	return &World{
		Min:      min,
		Max:      max,
		blocks:   make(map[graph.Pos]worldapi.BlockState),
		entities: make(map[graph.Pos]worldapi.BlockEntity),
	}
}

// SetInitialBlock seeds a block's state before compile, distinct from
// SetBlock (the WorldSink write path) to keep fixture construction and
// runtime mutation visually distinguishable at call sites.
func (w *World) SetInitialBlock(pos graph.Pos, state worldapi.BlockState) {
	w.blocks[pos] = state
}

// SetInitialBlockEntity seeds a container's contents before compile.
func (w *World) SetInitialBlockEntity(pos graph.Pos, be worldapi.BlockEntity) {
	w.entities[pos] = be
}

// GetBlock implements worldapi.WorldView.
func (w *World) GetBlock(pos graph.Pos) worldapi.BlockState {
	if s, ok := w.blocks[pos]; ok {
		return s
	}
	return worldapi.BlockState{Kind: worldapi.BlockAir}
}

// GetBlockEntity implements worldapi.WorldView.
func (w *World) GetBlockEntity(pos graph.Pos) (worldapi.BlockEntity, bool) {
	be, ok := w.entities[pos]
	return be, ok
}

// RegionBounds implements worldapi.WorldView.
func (w *World) RegionBounds() (min, max graph.Pos) { return w.Min, w.Max }

// SetBlock implements worldapi.WorldSink: it both updates the live block
// table (so a later GetBlock/inspect sees the new state) and appends to
// Writes for tests to assert against.
func (w *World) SetBlock(pos graph.Pos, state worldapi.BlockState) {
	w.blocks[pos] = state
	w.Writes = append(w.Writes, Write{Pos: pos, State: state})
}

// Flush implements worldapi.WorldSink.
func (w *World) Flush() { w.flushes++ }

// Flushes reports how many times Flush has been called, for tests
// asserting on WorldSink batching behavior.
func (w *World) Flushes() int { return w.flushes }
