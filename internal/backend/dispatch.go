package backend

import (
	"redpiler.dev/redpiler/internal/graph"
	"redpiler.dev/redpiler/internal/logic"
	"redpiler.dev/redpiler/internal/scheduler"
)

// update and tick are the two entry points every node kind implements,
// dispatched through a central switch rather than per-kind virtual calls
// — the tagged-variant Node stays a flat, cache-friendly array either way.

func (b *Backend) update(id graph.ID) {
	n := b.g.Node(id)
	switch n.Kind {
	case graph.KindRepeater:
		b.updateRepeater(id, n)
	case graph.KindComparator:
		b.updateComparator(id, n)
	case graph.KindTorch:
		b.updateTorch(id, n)
	case graph.KindLamp:
		b.updateLamp(id, n)
	case graph.KindTrapdoor:
		b.updateTrapdoor(id, n)
	case graph.KindNoteBlock:
		b.updateNoteBlock(id, n)
	case graph.KindWire:
		b.updateWire(id, n)
	}
	// Button, Lever, PressurePlate, Constant: pure sources, never have
	// inputs, so update() does nothing for them.
}

func (b *Backend) tick(id graph.ID) {
	n := b.g.Node(id)
	switch n.Kind {
	case graph.KindRepeater:
		b.tickRepeater(id, n)
	case graph.KindComparator:
		b.tickComparator(id, n)
	case graph.KindTorch:
		b.tickTorch(id, n)
	case graph.KindLamp:
		b.tickLamp(id, n)
	case graph.KindButton:
		b.tickButton(id, n)
	}
}

func (b *Backend) updateRepeater(id graph.ID, n *graph.Node) {
	_, side := b.inputs(id)
	n.State.Locked = side > 0 // instant, never scheduled

	if n.State.Locked || n.Pending {
		return
	}
	def, _ := b.inputs(id)
	desired := def > 0
	if desired == n.State.Powered {
		return
	}
	pri := scheduler.High
	switch {
	case b.facesComponent(id):
		pri = scheduler.Highest
	case !desired:
		pri = scheduler.Higher
	}
	b.schedule(id, int(n.State.Delay), pri)
}

func (b *Backend) tickRepeater(id graph.ID, n *graph.Node) {
	if n.State.Locked {
		return
	}
	def, _ := b.inputs(id)

	// A repeater always catches a rising edge, even one that's already
	// gone low again by the time this tick fires; it only drops back to
	// unpowered if the input is still low when checked.
	var newPowered bool
	if !n.State.Powered {
		newPowered = true
	} else {
		newPowered = def > 0
	}
	if newPowered == n.State.Powered {
		return
	}

	n.State.Powered = newPowered
	n.Output = strengthFromBool(newPowered)
	b.markDirty(id)
	b.notifyNeighbors(id)

	if newPowered && def == 0 {
		b.schedule(id, int(n.State.Delay), scheduler.Higher)
	}
}

func (b *Backend) updateComparator(id graph.ID, n *graph.Node) {
	if n.Pending {
		return
	}
	def, side := b.inputs(id)
	out := logic.ComparatorOutput(n.State.Mode, def, side, n.State.FarOverride)
	if out == n.Output {
		return
	}
	pri := scheduler.Normal
	if b.facesComponent(id) {
		pri = scheduler.High
	}
	b.schedule(id, 1, pri)
}

func (b *Backend) tickComparator(id graph.ID, n *graph.Node) {
	def, side := b.inputs(id)
	out := logic.ComparatorOutput(n.State.Mode, def, side, n.State.FarOverride)
	if out == n.Output {
		return
	}
	n.Output = out
	n.State.Powered = out > 0
	b.markDirty(id)
	b.notifyNeighbors(id)
}

func (b *Backend) updateTorch(id graph.ID, n *graph.Node) {
	if n.Pending {
		return
	}
	def, _ := b.inputs(id)
	if logic.TorchSettled(def) == n.State.Lit {
		return
	}
	b.schedule(id, 1, scheduler.Normal)
}

func (b *Backend) tickTorch(id graph.ID, n *graph.Node) {
	def, _ := b.inputs(id)
	lit := logic.TorchSettled(def)
	if lit == n.State.Lit {
		return
	}
	n.State.Lit = lit
	n.Output = strengthFromBool(lit)
	b.markDirty(id)
	b.notifyNeighbors(id)
}

func (b *Backend) updateLamp(id graph.ID, n *graph.Node) {
	def, _ := b.inputs(id)
	powered := def > 0
	switch {
	case powered && !n.State.Lit:
		n.State.Lit = true
		n.Output = 15
		b.markDirty(id)
	case !powered && n.State.Lit && !n.Pending:
		b.schedule(id, 2, scheduler.Normal)
	}
}

func (b *Backend) tickLamp(id graph.ID, n *graph.Node) {
	def, _ := b.inputs(id)
	if def > 0 {
		return // repowered before the delayed unlighting fired
	}
	n.State.Lit = false
	n.Output = 0
	b.markDirty(id)
}

func (b *Backend) updateTrapdoor(id graph.ID, n *graph.Node) {
	def, _ := b.inputs(id)
	powered := def > 0
	if powered == n.State.Powered {
		return
	}
	n.State.Powered = powered
	n.Output = strengthFromBool(powered)
	b.markDirty(id)
}

func (b *Backend) updateNoteBlock(id graph.ID, n *graph.Node) {
	def, _ := b.inputs(id)
	powered := def > 0
	if powered == n.State.Powered {
		return
	}
	n.State.Powered = powered
	n.Output = strengthFromBool(powered)
	b.markDirty(id)
	// Actually producing the note's sound is entirely a WorldSink/
	// collaborator concern, triggered off this dirty block write.
}

func (b *Backend) updateWire(id graph.ID, n *graph.Node) {
	def, _ := b.inputs(id)
	if def == n.State.Strength {
		return
	}
	n.State.Strength = def
	n.Output = def
	b.markDirty(id)
	b.notifyNeighbors(id)
}

func (b *Backend) tickButton(id graph.ID, n *graph.Node) {
	n.State.Powered = false
	n.State.TicksLeft = 0
	n.Output = 0
	b.markDirty(id)
	b.notifyNeighbors(id)
}
