package passes

import "redpiler.dev/redpiler/internal/graph"

// Options controls which optional passes a Run performs, sourced from the
// compiler's tuning config.
type Options struct {
	Optimize   bool
	IOOnly     bool
	WireDotOut bool
}

// Run sequences the mandatory cleanup passes, then — when Optimize is set —
// the optional passes in the fixed order the optimizer depends on: each
// later pass assumes the graph shape the ones before it have already
// produced (AnalogRepeaters before ConstantFold so staircases don't get
// folded away piecemeal first; ConstantFold before ConstantCoalesce so
// there's something to coalesce; Coalesce before PruneOrphans so dead
// duplicates don't need their own reachability walk). Compact always runs
// last, regardless of Optimize, so the backend never has to deal with
// tombstoned ids.
func Run(g *graph.Graph, opts Options) {
	ClampWeights(g)
	DedupLinks(g)

	if opts.Optimize {
		AnalogRepeaters(g)
		ConstantFold(g)
		UnreachableOutput(g)
		ConstantCoalesce(g)
		Coalesce(g)
		PruneOrphans(g, opts.IOOnly, opts.WireDotOut)
	}

	g.Compact()
}
