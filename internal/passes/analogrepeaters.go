package passes

import "redpiler.dev/redpiler/internal/graph"

// AnalogRepeaters collapses the classic analog-to-digital "staircase": a
// comparator fanning out to fifteen repeaters at weights 0..14 (one per
// possible comparator output), each feeding a shared downstream comparator
// at weights that likewise cover 0..14 once each, all quantizing the same analog value with
// the same delay. Simulating all fifteen repeater ticks independently is
// wasted work once the shape is recognized: one repeater inserted between
// the two comparators, carrying the common delay, reproduces the same
// pass-through-if-powered-at-all behavior the whole staircase exists for.
//
// The match is exact or it doesn't fire: any foreign edge, a mismatched
// delay, a shared repeater, or a weight that doesn't cover 0..14 exactly
// once on either side leaves the subgraph untouched.
func AnalogRepeaters(g *graph.Graph) {
	for _, cid := range g.NodesByType(graph.KindComparator) {
		out := g.Outgoing(cid)
		if len(out) != 15 {
			continue
		}

		var repeaters [15]graph.ID
		var seen [15]bool
		matched := true
		for _, e := range out {
			if e.Kind != graph.Default || e.Weight > 14 || seen[e.Weight] {
				matched = false
				break
			}
			seen[e.Weight] = true
			repeaters[e.Weight] = e.Other
		}
		if !matched || !allTrue(seen) {
			continue
		}

		sink := graph.NoID
		var delay uint8
		delaySet := false
		var sinkSeen [15]bool
		for _, rid := range repeaters {
			n := g.Node(rid)
			if n.Kind != graph.KindRepeater {
				matched = false
				break
			}
			in := g.Incoming(rid)
			if len(in) != 1 || in[0].Other != cid || in[0].Kind != graph.Default {
				matched = false
				break
			}
			rout := g.Outgoing(rid)
			if len(rout) != 1 || rout[0].Kind != graph.Default || rout[0].Weight > 14 {
				matched = false
				break
			}
			if !delaySet {
				delay, delaySet = n.State.Delay, true
			} else if n.State.Delay != delay {
				matched = false
				break
			}
			if sink == graph.NoID {
				sink = rout[0].Other
			} else if rout[0].Other != sink {
				matched = false
				break
			}
			if sinkSeen[rout[0].Weight] {
				matched = false
				break
			}
			sinkSeen[rout[0].Weight] = true
		}
		if !matched || sink == graph.NoID || g.Node(sink).Kind != graph.KindComparator || !allTrue(sinkSeen) {
			continue
		}

		shift := g.AddNode(graph.KindRepeater, graph.State{Delay: delay}, graph.Pos{}, false)
		g.AddLink(cid, shift, graph.Default, 0)
		g.AddLink(shift, sink, graph.Default, 0)
		for _, rid := range repeaters {
			g.RemoveNode(rid)
		}
	}
}

func allTrue(bits [15]bool) bool {
	for _, b := range bits {
		if !b {
			return false
		}
	}
	return true
}
