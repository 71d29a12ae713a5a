package passes

import (
	"redpiler.dev/redpiler/internal/graph"
	"redpiler.dev/redpiler/internal/logic"
)

// ConstantFold replaces a Comparator, Repeater, or Torch whose every
// incoming link originates from a Constant node with an equivalent
// Constant of its own, dropping the now-dead input links. Lever, Button,
// and PressurePlate are never folded even though they may have no inputs
// either: they are user-observable sources, not pure functions of
// anything, and PruneOrphans is relied on to keep them around regardless
// of reachability.
func ConstantFold(g *graph.Graph) {
	var candidates []graph.ID
	candidates = append(candidates, g.NodesByType(graph.KindComparator)...)
	candidates = append(candidates, g.NodesByType(graph.KindRepeater)...)
	candidates = append(candidates, g.NodesByType(graph.KindTorch)...)

	for _, id := range candidates {
		in := g.Incoming(id)
		if !allConstant(g, in) {
			continue
		}
		n := g.Node(id)
		strength := fold(g, n, in)
		constID := g.AddNode(graph.KindConstant, graph.State{Strength: strength}, graph.Pos{}, false)
		g.Redirect(id, constID)
	}
}

func allConstant(g *graph.Graph, edges []graph.Edge) bool {
	for _, e := range edges {
		if g.Node(e.Other).Kind != graph.KindConstant {
			return false
		}
	}
	return true
}

// contribution is the signal a link actually delivers: the source's
// strength minus the link's wire-loss weight, floored at zero.
func contribution(g *graph.Graph, e graph.Edge) uint8 {
	src := int(g.Node(e.Other).State.Strength) - int(e.Weight)
	if src < 0 {
		return 0
	}
	if src > 15 {
		return 15
	}
	return uint8(src)
}

// fold evaluates a node's settled output given that every input is a
// Constant, using the same pure functions the backend's update/tick
// dispatch uses, so a folded graph behaves identically to the unfolded one
// from the first tick onward.
func fold(g *graph.Graph, n *graph.Node, in []graph.Edge) uint8 {
	var def, side uint8
	for _, e := range in {
		v := contribution(g, e)
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

	switch n.Kind {
	case graph.KindComparator:
		return logic.ComparatorOutput(n.State.Mode, def, side, n.State.FarOverride)
	case graph.KindRepeater:
		if logic.RepeaterSettled(def) {
			return 15
		}
		return 0
	case graph.KindTorch:
		if logic.TorchSettled(def) {
			return 15
		}
		return 0
	default:
		return 0
	}
}
