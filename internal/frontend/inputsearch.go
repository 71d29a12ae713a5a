package frontend

import (
	"redpiler.dev/redpiler/internal/graph"
	"redpiler.dev/redpiler/internal/worldapi"
)

// found is one signal source InputSearch's BFS turned up, at the given
// accumulated wire-step weight.
type found struct {
	id     graph.ID
	weight uint8
}

// InputSearch wires every node's inputs by searching the wire network
// outward from its input faces. It must run after IdentifyNodes and
// before the mandatory cleanup passes.
func InputSearch(g *graph.Graph, view worldapi.WorldView) {
	for _, id := range g.NodeIDs() {
		n := g.Node(id)
		switch n.Kind {
		case graph.KindRepeater, graph.KindComparator:
			linkFrom(g, view, id, n.Pos.Add(n.State.Facing.Delta()), graph.Default)
			// Side inputs: a comparator reads an analog side value; a
			// repeater reads only whether its side is powered at all, to
			// decide locking (see backend repeater update). Both search
			// their two perpendicular neighbors the same way.
			for _, sd := range n.State.Facing.Sides() {
				linkFrom(g, view, id, n.Pos.Add(sd.Delta()), graph.Side)
			}

		case graph.KindTorch:
			linkFrom(g, view, id, n.Pos.Add(n.State.Facing.Delta()), graph.Default)

		case graph.KindLamp, graph.KindTrapdoor, graph.KindNoteBlock, graph.KindWire:
			for _, d := range graph.Directions {
				linkFrom(g, view, id, n.Pos.Add(d.Delta()), graph.Default)
			}

		default:
			// Button, Lever, PressurePlate, Constant: pure sources, never
			// have inputs.
		}
	}
}

func linkFrom(g *graph.Graph, view worldapi.WorldView, sink graph.ID, seed graph.Pos, kind graph.EdgeKind) {
	for _, f := range bfsSources(view, g, seed) {
		if f.id == sink {
			continue
		}
		if src := g.Node(f.id); src.Kind == graph.KindTorch && src.Pos.Add(src.State.Facing.Delta()) == g.Node(sink).Pos {
			continue // a torch does not power the block it is attached to
		}
		g.AddLink(f.id, sink, kind, f.weight)
	}
}

// bfsSources walks the wire network outward from seed, tracking
// accumulated weight, and returns every source-capable node reached. A
// node occupying seed itself is a direct (weight-0, or weight-1 if it is
// itself a Wire node standing in for one wire step) adjacency, not subject
// to further traversal. Raw (non-node) wire blocks are only walked when
// wire nodes have been suppressed (the --optimize path); when wire nodes
// exist, the chain is instead expressed as Wire-to-Wire links produced by
// running this same search rooted at each Wire node.
//
// A seed (or any position the wire network reaches) that is a plain solid
// block is also walked, per spec §4.3's weak-power relay: a solid block
// doesn't carry a signal of its own, but whatever strongly or weakly
// powers one of its faces reaches every other face at no extra weight
// cost. That relay is only ever one hop deep — a solid block is only
// ever entered from wire (or as the seed itself), never from another
// solid block, so a run of solid blocks never chains power through.
func bfsSources(view worldapi.WorldView, g *graph.Graph, seed graph.Pos) []found {
	if id, ok := g.NodeAt(seed); ok {
		n := g.Node(id)
		if !isSourceKind(n.Kind) {
			return nil
		}
		w := uint8(0)
		if n.Kind == graph.KindWire {
			w = 1
		}
		return []found{{id: id, weight: w}}
	}

	seedBlock := view.GetBlock(seed)
	if seedBlock.Kind != worldapi.BlockWire && !seedBlock.Solid() {
		return nil
	}

	type qitem struct {
		pos    graph.Pos
		weight uint8
	}
	visited := map[graph.Pos]uint8{seed: 0}
	queue := []qitem{{pos: seed, weight: 0}}
	var results []found

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		curSolid := view.GetBlock(cur.pos).Solid()

		for _, d := range graph.Directions {
			np := cur.pos.Add(d.Delta())

			if id, ok := g.NodeAt(np); ok {
				n := g.Node(id)
				if !isSourceKind(n.Kind) {
					continue
				}
				if curSolid && !feedsSolid(n, np, cur.pos) {
					continue
				}
				results = append(results, found{id: id, weight: cur.weight})
				continue
			}

			nb := view.GetBlock(np)
			switch {
			case nb.Kind == worldapi.BlockWire:
				nw := cur.weight + 1
				if nw >= 15 {
					continue // halt: this branch can never carry signal
				}
				if prev, ok := visited[np]; ok && prev <= nw {
					continue // already reached at an equal-or-better weight
				}
				visited[np] = nw
				queue = append(queue, qitem{pos: np, weight: nw})

			case !curSolid && nb.Solid():
				if prev, ok := visited[np]; ok && prev <= cur.weight {
					continue
				}
				visited[np] = cur.weight
				queue = append(queue, qitem{pos: np, weight: cur.weight})
			}
		}
	}
	return results
}

// feedsSolid reports whether source node n, standing at pos, strongly or
// weakly powers the solid block at solid — the condition that lets that
// power relay on out through the solid block's other faces. Levers,
// buttons, and pressure plates power whatever solid block they occupy
// unconditionally; a repeater or comparator only powers the solid block
// its facing points into; a torch powers every solid neighbor except the
// one it reads its own input from; wire weakly powers any solid block it
// touches.
func feedsSolid(n *graph.Node, pos, solid graph.Pos) bool {
	switch n.Kind {
	case graph.KindLever, graph.KindButton, graph.KindPressurePlate, graph.KindWire:
		return true
	case graph.KindRepeater, graph.KindComparator:
		return pos.Add(n.State.Facing.Delta()) == solid
	case graph.KindTorch:
		return pos.Add(n.State.Facing.Delta()) != solid
	default:
		return false
	}
}

func isSourceKind(k graph.Kind) bool {
	switch k {
	case graph.KindRepeater, graph.KindComparator, graph.KindTorch,
		graph.KindButton, graph.KindLever, graph.KindPressurePlate,
		graph.KindConstant, graph.KindWire:
		return true
	default:
		return false
	}
}
