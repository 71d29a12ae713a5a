package passes

import (
	"redpiler.dev/redpiler/internal/graph"
	"redpiler.dev/redpiler/internal/logic"
)

// UnreachableOutput prunes links a subtract-mode comparator can provably
// never drive: once its side input is pinned to a single constant s, its
// output can never exceed max(0, 15-s), so any outgoing link losing at
// least that much to wire weight is dead weight.
func UnreachableOutput(g *graph.Graph) {
	for _, id := range g.NodesByType(graph.KindComparator) {
		n := g.Node(id)
		if n.State.Mode != graph.Subtract {
			continue
		}

		var side *graph.Edge
		ambiguous := false
		for _, e := range g.Incoming(id) {
			if e.Kind != graph.Side {
				continue
			}
			if side != nil {
				ambiguous = true
				break
			}
			cp := e
			side = &cp
		}
		if ambiguous || side == nil || g.Node(side.Other).Kind != graph.KindConstant {
			continue
		}

		s := contribution(g, *side)
		maxOut := logic.MaxSubtractOutput(s)

		out := g.Outgoing(id)
		kept := make([]graph.Edge, 0, len(out))
		for _, e := range out {
			if e.Weight < maxOut {
				kept = append(kept, e)
			}
		}
		g.SetOutgoing(id, kept)
	}
	g.RebuildIncoming()
}
