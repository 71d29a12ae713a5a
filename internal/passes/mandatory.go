// Package passes implements the graph-rewriting passes: the two mandatory
// cleanup passes every compile runs, and the optional optimizations gated
// behind --optimize, run in the fixed order spec.md lays out.
package passes

import "redpiler.dev/redpiler/internal/graph"

// ClampWeights drops any link whose weight has reached 15 or more: signal
// strength can't survive that much wire loss, so such a link can never
// carry anything.
func ClampWeights(g *graph.Graph) {
	for _, id := range g.NodeIDs() {
		out := g.Outgoing(id)
		kept := make([]graph.Edge, 0, len(out))
		for _, e := range out {
			if e.Weight < 15 {
				kept = append(kept, e)
			}
		}
		g.SetOutgoing(id, kept)
	}
	g.RebuildIncoming()
}

// DedupLinks collapses multi-edges: for each (source, sink, kind) triple
// produced by InputSearch's possibly-redundant BFS, only the minimum
// weight (the shortest path) survives.
func DedupLinks(g *graph.Graph) {
	type key struct {
		dst  graph.ID
		kind graph.EdgeKind
	}
	for _, id := range g.NodeIDs() {
		out := g.Outgoing(id)
		best := make(map[key]uint8, len(out))
		order := make([]key, 0, len(out))
		for _, e := range out {
			k := key{dst: e.Other, kind: e.Kind}
			w, seen := best[k]
			if !seen {
				order = append(order, k)
				best[k] = e.Weight
			} else if e.Weight < w {
				best[k] = e.Weight
			}
		}
		kept := make([]graph.Edge, 0, len(order))
		for _, k := range order {
			kept = append(kept, graph.Edge{Other: k.dst, Kind: k.kind, Weight: best[k]})
		}
		g.SetOutgoing(id, kept)
	}
	g.RebuildIncoming()
}
