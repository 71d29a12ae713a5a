package passes

import (
	"fmt"
	"sort"
	"strings"

	"redpiler.dev/redpiler/internal/graph"
)

// Coalesce merges nodes that are indistinguishable going forward: same
// kind, same configuration and current state, and an identical incoming
// link multiset. Only combinational interior nodes are eligible — Lamp,
// Trapdoor, and NoteBlock each own a distinct world position that must be
// written back through WorldSink independently, and Lever, Button, and
// PressurePlate are addressed individually by on_use, so merging any of
// those would silently drop a block the player can still see or click.
func Coalesce(g *graph.Graph) {
	groups := make(map[string][]graph.ID)
	for _, id := range g.NodeIDs() {
		if !coalesceEligible(g.Node(id).Kind) {
			continue
		}
		sig := signature(g, id)
		groups[sig] = append(groups[sig], id)
	}

	sigs := make([]string, 0, len(groups))
	for s := range groups {
		sigs = append(sigs, s)
	}
	sort.Strings(sigs)

	for _, s := range sigs {
		ids := groups[s]
		if len(ids) < 2 {
			continue
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		rep := ids[0]
		for _, dup := range ids[1:] {
			g.Redirect(dup, rep)
		}
	}
}

func coalesceEligible(k graph.Kind) bool {
	switch k {
	case graph.KindLamp, graph.KindTrapdoor, graph.KindNoteBlock,
		graph.KindLever, graph.KindButton, graph.KindPressurePlate:
		return false
	default:
		return true
	}
}

// signature builds a string key identifying a node's merge-equivalence
// class: its kind, its kind-specific configuration and current output (so
// two nodes are never merged mid-transient when they'd later diverge), and
// its incoming edges sorted into a canonical order.
func signature(g *graph.Graph, id graph.ID) string {
	n := g.Node(id)

	var b strings.Builder
	fmt.Fprintf(&b, "%d|out=%d|", n.Kind, n.Output)

	switch n.Kind {
	case graph.KindRepeater:
		fmt.Fprintf(&b, "delay=%d,locked=%t,powered=%t", n.State.Delay, n.State.Locked, n.State.Powered)
	case graph.KindComparator:
		fmt.Fprintf(&b, "mode=%d,far=%d", n.State.Mode, n.State.FarOverride)
	case graph.KindTorch:
		fmt.Fprintf(&b, "lit=%t", n.State.Lit)
	case graph.KindWire:
		fmt.Fprintf(&b, "strength=%d", n.State.Strength)
	case graph.KindConstant:
		fmt.Fprintf(&b, "strength=%d", n.State.Strength)
	}

	in := append([]graph.Edge(nil), g.Incoming(id)...)
	sort.Slice(in, func(i, j int) bool {
		if in[i].Other != in[j].Other {
			return in[i].Other < in[j].Other
		}
		if in[i].Kind != in[j].Kind {
			return in[i].Kind < in[j].Kind
		}
		return in[i].Weight < in[j].Weight
	})
	for _, e := range in {
		fmt.Fprintf(&b, "|%d,%d,%d", e.Other, e.Kind, e.Weight)
	}
	return b.String()
}
