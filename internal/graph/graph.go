// Package graph implements the Redpiler graph IR: a directed weighted
// multigraph of redstone nodes and links, indexed by dense integer ids.
//
// The representation favours flat, id-indexed slices over pointer-chasing
// structures: passes iterate all nodes in id order, and neighbor lookups are
// O(degree). Node removal tombstones the slot rather than shifting ids, so
// that links (which store ids, not pointers) stay valid across a whole pass
// pipeline; Compact renumbers everything atomically at the very end.
package graph

// ID is a stable dense index into a Graph's node table.
type ID uint32

// NoID marks the absence of a node reference (e.g. a constant's position).
const NoID ID = ^ID(0)

// Pos is a block coordinate in the originating world.
type Pos struct {
	X, Y, Z int32
}

// Kind tags the redstone component a Node represents.
type Kind uint8

const (
	KindRepeater Kind = iota
	KindComparator
	KindTorch
	KindLamp
	KindTrapdoor
	KindWire
	KindButton
	KindLever
	KindPressurePlate
	KindNoteBlock
	KindConstant
)

func (k Kind) String() string {
	switch k {
	case KindRepeater:
		return "Repeater"
	case KindComparator:
		return "Comparator"
	case KindTorch:
		return "Torch"
	case KindLamp:
		return "Lamp"
	case KindTrapdoor:
		return "Trapdoor"
	case KindWire:
		return "Wire"
	case KindButton:
		return "Button"
	case KindLever:
		return "Lever"
	case KindPressurePlate:
		return "PressurePlate"
	case KindNoteBlock:
		return "NoteBlock"
	case KindConstant:
		return "Constant"
	default:
		return "Unknown"
	}
}

// Direction is one of the six axis-aligned neighbor directions, iterated in
// a fixed order everywhere the spec requires reproducibility: North, South,
// West, East, Down, Up.
type Direction uint8

const (
	North Direction = iota
	South
	West
	East
	Down
	Up
)

// Directions is the canonical, fixed iteration order used by InputSearch and
// by every pass that needs deterministic neighbor enumeration.
var Directions = [6]Direction{North, South, West, East, Down, Up}

// Delta returns the unit offset for a direction.
func (d Direction) Delta() Pos {
	switch d {
	case North:
		return Pos{Z: -1}
	case South:
		return Pos{Z: 1}
	case West:
		return Pos{X: -1}
	case East:
		return Pos{X: 1}
	case Down:
		return Pos{Y: -1}
	case Up:
		return Pos{Y: 1}
	}
	return Pos{}
}

func (p Pos) Add(d Pos) Pos { return Pos{X: p.X + d.X, Y: p.Y + d.Y, Z: p.Z + d.Z} }

// Opposite returns the direction pointing the other way along the same axis.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case West:
		return East
	case East:
		return West
	case Down:
		return Up
	case Up:
		return Down
	}
	return d
}

// Sides returns the two directions perpendicular to a horizontal facing,
// in fixed order — the pair a repeater/comparator reads its side inputs
// from.
func (d Direction) Sides() [2]Direction {
	switch d {
	case North, South:
		return [2]Direction{West, East}
	default:
		return [2]Direction{North, South}
	}
}

// ComparatorMode selects a comparator's output function.
type ComparatorMode uint8

const (
	Compare ComparatorMode = iota
	Subtract
)

// NoFarOverride marks the absence of a far-override reading on a comparator.
const NoFarOverride int8 = -1

// State holds the type-specific configuration and runtime fields for a
// node, laid out flat rather than behind per-kind interfaces: update/tick
// dispatch switches on Node.Kind and reads only the fields that kind
// defines. This keeps the node table a dense array of fixed-size structs,
// which is the layout the Direct backend depends on for cache residency.
type State struct {
	Facing Direction // Repeater, Comparator, Torch (attachment direction folded into Facing)

	Delay  uint8 // Repeater: 1..4
	Locked bool  // Repeater

	Mode        ComparatorMode // Comparator
	FarOverride int8           // Comparator: NoFarOverride or 0..15

	Lit     bool // Torch, Lamp
	Powered bool // Repeater, Trapdoor, NoteBlock, Button (pressed)
	On      bool // Lever
	Pressed bool // PressurePlate

	Wooden    bool  // Button: wooden (15-tick release) vs stone (10-tick release)
	TicksLeft uint8 // Button: ticks remaining before auto-release

	Strength uint8 // Wire, Constant: raw strength 0..15
}

// Flags carries compiler-visible metadata about a node that isn't part of
// its simulated state.
type Flags uint8

const (
	FlagIsIO Flags = 1 << iota
	FlagIsAnalogSource
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// Node is one graph vertex: one redstone component at (originally) one
// world position.
type Node struct {
	Pos    Pos
	HasPos bool // false once position-identity is lost, e.g. after ConstantCoalesce

	Kind  Kind
	State State

	Output  uint8 // 0..15, derived from State
	Pending bool  // at most one scheduled tick outstanding; see scheduler package

	Flags Flags

	removed bool
}

// EdgeKind distinguishes a link landing on a node's default (facing) input
// from one landing on a side input.
type EdgeKind uint8

const (
	Default EdgeKind = iota
	Side
)

// Edge is one endpoint of a Link as seen from either the source's outgoing
// list or the sink's incoming list; Other is whichever end isn't the node
// the list belongs to.
type Edge struct {
	Other  ID
	Kind   EdgeKind
	Weight uint8 // signal-strength loss, 0..14 once ClampWeights has run
}

// Graph is the mutable in-memory IR built by the front-end and rewritten by
// the pass pipeline.
type Graph struct {
	nodes []Node
	out   [][]Edge
	in    [][]Edge

	// posIndex maps a world position back to the node occupying it. It is
	// populated by IdentifyNodes and consulted by InputSearch; passes are
	// free to let it go stale once positions stop being meaningful
	// (ConstantCoalesce, for instance, produces position-less nodes), and
	// Compact rebuilds it from the surviving positioned nodes for the
	// backend's Inspect.
	posIndex map[Pos]ID

	liveCount int
}

// New returns an empty graph ready to receive nodes from IdentifyNodes.
func New() *Graph {
	return &Graph{posIndex: make(map[Pos]ID)}
}

// AddNode appends a new node and returns its id. Ids are assigned densely
// and increasingly; they remain valid (module tombstoning) until Compact.
// Output is seeded from state rather than left at zero, so a node created
// mid-compile (by IdentifyNodes straight from a WorldView snapshot, or by
// a pass replacing one node with another) starts out already reflecting
// what it's been told about, rather than reporting "off" until its first
// update/tick happens to run.
func (g *Graph) AddNode(kind Kind, state State, pos Pos, hasPos bool) ID {
	id := ID(len(g.nodes))
	n := Node{Pos: pos, HasPos: hasPos, Kind: kind, State: state}
	n.Output = initialOutput(kind, state)
	g.nodes = append(g.nodes, n)
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	g.liveCount++
	if hasPos {
		g.posIndex[pos] = id
	}
	return id
}

// initialOutput derives a freshly-added node's output strength from the
// boolean/strength fields already present in its state. A Comparator's
// true analog output isn't something WorldView exposes (only its coarse
// powered bit is), so it's approximated as 0 or 15 here; the first
// update/tick the compiled graph runs recomputes it exactly from its
// actual inputs.
func initialOutput(kind Kind, s State) uint8 {
	switch kind {
	case KindRepeater, KindComparator, KindTrapdoor, KindNoteBlock, KindButton:
		if s.Powered {
			return 15
		}
		return 0
	case KindTorch:
		if s.Lit {
			return 15
		}
		return 0
	case KindLever:
		if s.On {
			return 15
		}
		return 0
	case KindPressurePlate:
		if s.Pressed {
			return 15
		}
		return 0
	case KindWire, KindConstant:
		return s.Strength
	default:
		return 0
	}
}

// NodeAt returns the id of the node occupying pos, if any. During the
// passes it can miss nodes whose position entry was dropped; after Compact
// it covers every surviving node that has a position.
func (g *Graph) NodeAt(pos Pos) (ID, bool) {
	id, ok := g.posIndex[pos]
	return id, ok
}

// Node returns a pointer to the node's mutable record. Callers must not
// retain it across a Compact call, which reallocates the backing slice.
func (g *Graph) Node(id ID) *Node { return &g.nodes[id] }

// Len returns the number of ids in use, including tombstoned slots. Use
// NodeIDs to iterate only live nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// LiveCount returns the number of non-removed nodes.
func (g *Graph) LiveCount() int { return g.liveCount }

// NodeIDs returns every live node id in ascending (stable) order.
func (g *Graph) NodeIDs() []ID {
	ids := make([]ID, 0, g.liveCount)
	for i := range g.nodes {
		if !g.nodes[i].removed {
			ids = append(ids, ID(i))
		}
	}
	return ids
}

// NodesByType returns every live node id of the given kind, in id order.
func (g *Graph) NodesByType(kind Kind) []ID {
	var ids []ID
	for i := range g.nodes {
		if !g.nodes[i].removed && g.nodes[i].Kind == kind {
			ids = append(ids, ID(i))
		}
	}
	return ids
}

// AddLink records a directed edge source -> sink. Multiple links between
// the same (source, sink, kind) are permitted here; DedupLinks collapses
// them later.
func (g *Graph) AddLink(src, dst ID, kind EdgeKind, weight uint8) {
	g.out[src] = append(g.out[src], Edge{Other: dst, Kind: kind, Weight: weight})
	g.in[dst] = append(g.in[dst], Edge{Other: src, Kind: kind, Weight: weight})
}

// Outgoing returns node id's outgoing edges.
func (g *Graph) Outgoing(id ID) []Edge { return g.out[id] }

// Incoming returns node id's incoming edges.
func (g *Graph) Incoming(id ID) []Edge { return g.in[id] }

// SetOutgoing replaces node id's outgoing edge list wholesale; passes use
// this to filter/rewrite in place without paying for incremental removal.
func (g *Graph) SetOutgoing(id ID, edges []Edge) { g.out[id] = edges }

// SetIncoming replaces node id's incoming edge list wholesale.
func (g *Graph) SetIncoming(id ID, edges []Edge) { g.in[id] = edges }

// RebuildIncoming recomputes every node's incoming list from the current
// outgoing lists. Passes that rewrite outgoing edges in bulk (ClampWeights,
// DedupLinks, UnreachableOutput) call this once afterwards instead of
// keeping both directions in sync edge-by-edge.
func (g *Graph) RebuildIncoming() {
	in := make([][]Edge, len(g.nodes))
	for src := range g.out {
		for _, e := range g.out[src] {
			in[e.Other] = append(in[e.Other], Edge{Other: ID(src), Kind: e.Kind, Weight: e.Weight})
		}
	}
	g.in = in
}

// RemoveLink deletes the first matching (src, dst, kind) edge, keeping both
// adjacency lists in sync. Reports whether a matching edge was found.
func (g *Graph) RemoveLink(src, dst ID, kind EdgeKind) bool {
	found := false
	out := g.out[src]
	for i, e := range out {
		if e.Other == dst && e.Kind == kind {
			g.out[src] = append(out[:i:i], out[i+1:]...)
			found = true
			break
		}
	}
	in := g.in[dst]
	for i, e := range in {
		if e.Other == src && e.Kind == kind {
			g.in[dst] = append(in[:i:i], in[i+1:]...)
			break
		}
	}
	return found
}

// RemoveNode tombstones a node: it is dropped from iteration and its
// adjacency lists are cleared, but its id is not reused until Compact.
// Must only be called at compile time, before any tick has been scheduled.
func (g *Graph) RemoveNode(id ID) {
	n := &g.nodes[id]
	if n.removed {
		return
	}
	for _, e := range g.out[id] {
		g.in[e.Other] = removeEdgesTo(g.in[e.Other], id)
	}
	for _, e := range g.in[id] {
		g.out[e.Other] = removeEdgesTo(g.out[e.Other], id)
	}
	g.out[id] = nil
	g.in[id] = nil
	if n.HasPos {
		delete(g.posIndex, n.Pos)
	}
	n.removed = true
	g.liveCount--
}

func removeEdgesTo(edges []Edge, other ID) []Edge {
	out := edges[:0]
	for _, e := range edges {
		if e.Other != other {
			out = append(out, e)
		}
	}
	return out
}

// Redirect makes every consumer of old become a consumer of new instead:
// old's outgoing edges are rewritten to originate from new, then old is
// tombstoned along with whatever incoming edges it had (they are no longer
// needed — old is gone, and new is expected to already produce an
// equivalent output, whether because it's the evaluated Constant
// ConstantFold/ConstantCoalesce replaced old with, or because Coalesce
// established new has an identical incoming edge set of its own).
func (g *Graph) Redirect(old, new ID) {
	if old == new {
		return
	}
	for _, e := range g.out[old] {
		g.in[e.Other] = removeEdgesTo(g.in[e.Other], old)
		g.AddLink(new, e.Other, e.Kind, e.Weight)
	}
	for _, e := range g.in[old] {
		g.out[e.Other] = removeEdgesTo(g.out[e.Other], old)
	}
	g.out[old] = nil
	g.in[old] = nil
	n := &g.nodes[old]
	if n.HasPos {
		delete(g.posIndex, n.Pos)
	}
	n.removed = true
	g.liveCount--
}

// Compact renumbers live nodes into a dense [0, LiveCount) range and
// rewrites every edge's endpoints accordingly. It is the final step of the
// pipeline, run once after all passes (mandatory and optional) have
// completed, so that the backend can lay the graph out in a contiguous
// table with no gaps.
func (g *Graph) Compact() {
	remap := make([]ID, len(g.nodes))
	nodes := make([]Node, 0, g.liveCount)
	out := make([][]Edge, 0, g.liveCount)
	in := make([][]Edge, 0, g.liveCount)

	for i := range g.nodes {
		if g.nodes[i].removed {
			remap[i] = NoID
			continue
		}
		remap[i] = ID(len(nodes))
		nodes = append(nodes, g.nodes[i])
		out = append(out, g.out[i])
		in = append(in, g.in[i])
	}

	for i := range out {
		out[i] = remapEdges(out[i], remap)
		in[i] = remapEdges(in[i], remap)
	}

	g.nodes = nodes
	g.out = out
	g.in = in
	g.posIndex = make(map[Pos]ID, len(nodes))
	for i := range nodes {
		if nodes[i].HasPos {
			g.posIndex[nodes[i].Pos] = ID(i)
		}
	}
}

func remapEdges(edges []Edge, remap []ID) []Edge {
	out := edges[:0]
	for _, e := range edges {
		if r := remap[e.Other]; r != NoID {
			e.Other = r
			out = append(out, e)
		}
	}
	return out
}
