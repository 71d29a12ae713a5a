package passes

import "redpiler.dev/redpiler/internal/graph"

// ConstantCoalesce allocates exactly one Constant node per distinct
// strength value still in use (at most 16) and redirects every consumer of
// the old, possibly-duplicated Constants onto the shared one. It runs
// after ConstantFold (with UnreachableOutput in between), which tends to mint a fresh Constant per
// folded node even when many of them settle to the same strength.
func ConstantCoalesce(g *graph.Graph) {
	originals := g.NodesByType(graph.KindConstant)

	canonical := make(map[uint8]graph.ID, 16)
	for _, id := range originals {
		s := g.Node(id).State.Strength
		if _, ok := canonical[s]; !ok {
			canonical[s] = g.AddNode(graph.KindConstant, graph.State{Strength: s}, graph.Pos{}, false)
		}
	}

	for _, id := range originals {
		s := g.Node(id).State.Strength
		g.Redirect(id, canonical[s])
	}
}
