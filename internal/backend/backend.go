// Package backend implements the Direct backend: it takes a finalized
// graph, drives it through the tick scheduler, and is the only thing that
// ever calls WorldSink. The node table itself is just the graph's own
// dense Node slice — graph.Graph already lays nodes out id-indexed and
// contiguous, which is the cache-friendly shape the backend needs, so
// there is no separate copy to keep in sync.
package backend

import (
	"redpiler.dev/redpiler/internal/graph"
	"redpiler.dev/redpiler/internal/scheduler"
	"redpiler.dev/redpiler/internal/worldapi"
)

// Action identifies the kind of interaction on_use routes.
type Action uint8

const (
	ActionPress Action = iota
	ActionRelease
	ActionFlick
)

// Backend owns one compiled graph's runtime lifecycle between compile()
// and reset().
type Backend struct {
	g     *graph.Graph
	sched *scheduler.Scheduler

	dirty map[graph.ID]bool

	// posIndex resolves on_use's world position to the Lever/Button/
	// PressurePlate node sitting there. It is built once at construction
	// time and, unlike graph.Graph's own posIndex (front-end scaffolding
	// that's allowed to go stale once optimization passes start moving
	// things around), it is the thing on_use actually relies on at
	// runtime — Coalesce never touches these three kinds, so it stays
	// valid for the backend's whole lifetime.
	posIndex map[graph.Pos]graph.ID

	horizon          int
	updateAfterReset bool
	overflowed       bool
}

// New wraps a finalized, compacted graph for execution. horizon is the
// scheduler's ring size; updateAfterReset controls whether Reset does a
// full state resync or only flushes whatever's still dirty.
func New(g *graph.Graph, horizon int, updateAfterReset bool) *Backend {
	b := &Backend{
		g:                g,
		sched:            scheduler.New(horizon, g.Len()),
		dirty:            make(map[graph.ID]bool),
		posIndex:         make(map[graph.Pos]graph.ID),
		horizon:          horizon,
		updateAfterReset: updateAfterReset,
	}
	for _, kind := range [...]graph.Kind{graph.KindLever, graph.KindButton, graph.KindPressurePlate} {
		for _, id := range g.NodesByType(kind) {
			if n := g.Node(id); n.HasPos {
				b.posIndex[n.Pos] = id
			}
		}
	}
	b.settle()
	return b
}

// settleRounds bounds how many scheduler slots settle drains looking for
// cascading work before giving up. Four full trips around the default
// 16-slot ring covers any realistic chain of repeater/comparator/torch delays a consistent
// world snapshot settles within; a circuit that genuinely needs more than
// that to reach quiescence will finish settling on its first few real
// Tick calls instead, same as it would have in-game.
const settleRounds = 64

// settle brings a freshly compiled graph to the state it would be in had
// its nodes been live the whole time, rather than the coarse
// approximation identify seeded from WorldView's powered/lit bits. A
// Comparator's true analog output is the main thing this recovers —
// WorldView only exposes whether it is powered, never what strength it
// actually outputs — but any node whose real inputs disagree with its
// seeded State benefits the same way. It runs on a scratch scheduler
// that gets discarded once it's done, so the driver's own Now() still
// starts at zero — but anything settle dirtied stays dirty, so the
// first real Flush still carries the correction out to WorldSink rather
// than silently leaving the world's own block state stale.
func (b *Backend) settle() {
	for _, id := range b.g.NodeIDs() {
		b.update(id)
	}
	for i := 0; i < settleRounds && b.sched.PendingCount() > 0; i++ {
		b.sched.Advance(b.fireTick)
	}
	b.overflowed = false
	b.sched = scheduler.New(b.horizon, b.g.Len())
	// Anything still queued on the scratch scheduler is re-armed on the
	// real one, so it finishes settling on the first real Tick calls.
	for _, id := range b.g.NodeIDs() {
		if n := b.g.Node(id); n.Pending {
			n.Pending = false
			b.update(id)
		}
	}
}

// Tick advances the scheduler by one game tick, firing every due node's
// tick handler in (priority, insertion) order.
func (b *Backend) Tick() {
	b.sched.Advance(b.fireTick)
}

func (b *Backend) fireTick(id graph.ID) {
	b.g.Node(id).Pending = false
	b.tick(id)
}

// OnUse routes a lever flick, button press, or pressure-plate step onto
// whichever interactive node occupies pos. A pos with nothing interactive
// on it is silently ignored — the collaborator is expected to only route
// interactions it already knows landed on a redstone block.
func (b *Backend) OnUse(pos graph.Pos, action Action) {
	id, ok := b.posIndex[pos]
	if !ok {
		return
	}
	n := b.g.Node(id)
	switch n.Kind {
	case graph.KindLever:
		if action != ActionFlick {
			return
		}
		n.State.On = !n.State.On
		n.Output = strengthFromBool(n.State.On)
		b.markDirty(id)
		b.notifyNeighbors(id)

	case graph.KindButton:
		if action != ActionPress || n.State.Powered {
			return
		}
		n.State.Powered = true
		n.Output = 15
		b.markDirty(id)
		b.notifyNeighbors(id)
		delay := 10
		if n.State.Wooden {
			delay = 15
		}
		n.State.TicksLeft = uint8(delay)
		b.schedule(id, delay, scheduler.Normal)

	case graph.KindPressurePlate:
		pressed := action == ActionPress
		if pressed == n.State.Pressed {
			return
		}
		n.State.Pressed = pressed
		n.Output = strengthFromBool(pressed)
		b.markDirty(id)
		b.notifyNeighbors(id)
	}
}

// Flush emits every dirty node's current block state through sink and
// clears the dirty set.
func (b *Backend) Flush(sink worldapi.WorldSink) {
	for id := range b.dirty {
		n := b.g.Node(id)
		if n.HasPos {
			sink.SetBlock(n.Pos, blockStateFor(n))
		}
	}
	b.dirty = make(map[graph.ID]bool)
	sink.Flush()
}

// DirtyIDs returns the ids currently marked dirty, without clearing them
// — used by a caller that wants to publish live node-state events on the
// same cadence as ticks, independent of when Flush happens to run.
func (b *Backend) DirtyIDs() []graph.ID {
	ids := make([]graph.ID, 0, len(b.dirty))
	for id := range b.dirty {
		ids = append(ids, id)
	}
	return ids
}

// Reset flushes whatever's still pending and, when updateAfterReset was
// set at construction, additionally resyncs every positioned node's
// current state regardless of dirtiness — a full write-back rather than
// only the delta. The graph itself is the driver's to discard afterward;
// the backend has nothing further to release.
func (b *Backend) Reset(sink worldapi.WorldSink) {
	b.Flush(sink)
	if !b.updateAfterReset {
		return
	}
	for _, id := range b.g.NodeIDs() {
		n := b.g.Node(id)
		if n.HasPos {
			sink.SetBlock(n.Pos, blockStateFor(n))
		}
	}
	sink.Flush()
}

// InspectReport is the debugging snapshot inspect(pos) returns.
type InspectReport struct {
	ID      graph.ID
	Kind    graph.Kind
	Output  uint8
	Pending bool
	State   graph.State
}

// Inspect returns the compiled state of whatever node occupies pos, if
// any. Positions are only meaningful for nodes IdentifyNodes originally
// placed and that no optimization pass has since merged away; a miss here
// doesn't mean nothing is there, only that nothing individually addressable
// by that position survived compilation.
func (b *Backend) Inspect(pos graph.Pos) (InspectReport, bool) {
	id, ok := b.g.NodeAt(pos)
	if !ok {
		return InspectReport{}, false
	}
	return b.InspectByID(id)
}

// InspectByID is Inspect's id-addressed counterpart, for callers (the
// live inspect stream) that already have a node id from DirtyIDs rather
// than a world position.
func (b *Backend) InspectByID(id graph.ID) (InspectReport, bool) {
	if int(id) >= b.g.Len() {
		return InspectReport{}, false
	}
	n := b.g.Node(id)
	return InspectReport{ID: id, Kind: n.Kind, Output: n.Output, Pending: n.Pending, State: n.State}, true
}

// Now returns the current game tick counter, used by the live inspect
// stream to timestamp published node events.
func (b *Backend) Now() uint64 { return b.sched.Now() }

// Overflowed reports whether a schedule() call since the last clear
// exceeded the ring's horizon. The driver checks this after every Tick
// and, if set, performs an automatic reset per spec §7; an overflow raised
// during OnUse is picked up by the next Tick.
func (b *Backend) Overflowed() bool { return b.overflowed }

// ClearOverflow resets the overflow flag, called by the driver once it has
// acted on it.
func (b *Backend) ClearOverflow() { b.overflowed = false }

func (b *Backend) markDirty(id graph.ID) { b.dirty[id] = true }

func (b *Backend) schedule(id graph.ID, delay int, pri scheduler.Priority) {
	if err := b.sched.Schedule(id, delay, pri); err != nil {
		b.overflowed = true
		return
	}
	b.g.Node(id).Pending = true
}

// notifyNeighbors fires update() synchronously on every node downstream of
// id, per spec §5: a tick's (or instant change's) effect on its consumers
// must be visible before the current dispatch returns.
func (b *Backend) notifyNeighbors(id graph.ID) {
	for _, e := range b.g.Outgoing(id) {
		b.update(e.Other)
	}
}

// facesComponent reports whether id's direct (weight-0, Default) output
// lands on a Repeater or Comparator — the "facing a repeater/comparator"
// condition spec §4.6 uses to pick Highest/High priority. Facing is
// resolved structurally from the link rather than from State.Facing and
// world position, since post-Coalesce a node's position, and even its
// original facing direction, may no longer correspond to anything in the
// world.
func (b *Backend) facesComponent(id graph.ID) bool {
	for _, e := range b.g.Outgoing(id) {
		if e.Kind != graph.Default || e.Weight != 0 {
			continue
		}
		switch b.g.Node(e.Other).Kind {
		case graph.KindRepeater, graph.KindComparator:
			return true
		}
	}
	return false
}

// inputs returns the strongest Default and the strongest Side contribution
// reaching id, each being a source's output minus its link's weight,
// floored at zero.
func (b *Backend) inputs(id graph.ID) (def, side uint8) {
	for _, e := range b.g.Incoming(id) {
		v := contribution(b.g.Node(e.Other).Output, e.Weight)
		switch e.Kind {
		case graph.Default:
			if v > def {
				def = v
			}
		case graph.Side:
			if v > side {
				side = v
			}
		}
	}
	return def, side
}

func contribution(strength, weight uint8) uint8 {
	s := int(strength) - int(weight)
	if s < 0 {
		return 0
	}
	return uint8(s)
}

func strengthFromBool(on bool) uint8 {
	if on {
		return 15
	}
	return 0
}

// blockStateFor projects a node's current simulated state back into the
// shape WorldSink expects. Kind is filled in on a best-effort basis: a
// Torch node is always reported as BlockTorch, whether it came from a
// floor or a wall torch, and its Facing is the direction to its attachment
// block (Down for a floor torch, the opposite of a wall torch's in-world
// facing); the collaborator is expected to use position, not this
// field, to decide which physical block it's updating.
func blockStateFor(n *graph.Node) worldapi.BlockState {
	s := worldapi.BlockState{
		Facing:  n.State.Facing,
		Locked:  n.State.Locked,
		Delay:   n.State.Delay,
		Mode:    n.State.Mode,
		Powered: n.State.Powered,
		Lit:     n.State.Lit,
		On:      n.State.On,
		Pressed: n.State.Pressed,
	}
	switch n.Kind {
	case graph.KindRepeater:
		s.Kind = worldapi.BlockRepeater
	case graph.KindComparator:
		s.Kind = worldapi.BlockComparator
	case graph.KindTorch:
		s.Kind = worldapi.BlockTorch
	case graph.KindLamp:
		s.Kind = worldapi.BlockLamp
	case graph.KindTrapdoor:
		s.Kind = worldapi.BlockTrapdoor
	case graph.KindWire:
		s.Kind = worldapi.BlockWire
	case graph.KindButton:
		if n.State.Wooden {
			s.Kind = worldapi.BlockWoodenButton
		} else {
			s.Kind = worldapi.BlockStoneButton
		}
	case graph.KindLever:
		s.Kind = worldapi.BlockLever
	case graph.KindPressurePlate:
		s.Kind = worldapi.BlockPressurePlate
	case graph.KindNoteBlock:
		s.Kind = worldapi.BlockNoteBlock
	}
	return s
}
