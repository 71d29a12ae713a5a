package passes

import "redpiler.dev/redpiler/internal/graph"

// PruneOrphans removes every node that can't influence an observable
// outcome: it marks the IO-flagged sinks, the interactive sources a player
// can always still reach through on_use, and — when ioOnly and wireDotOut
// both hold — the "dot" wire shapes kept for --wire-dot-out export, then
// walks backward over incoming links and drops whatever was never marked.
func PruneOrphans(g *graph.Graph, ioOnly, wireDotOut bool) {
	marked := make([]bool, g.Len())
	var stack []graph.ID
	mark := func(id graph.ID) {
		if !marked[id] {
			marked[id] = true
			stack = append(stack, id)
		}
	}

	for _, id := range g.NodesByType(graph.KindLamp) {
		mark(id)
	}
	for _, id := range g.NodesByType(graph.KindTrapdoor) {
		mark(id)
	}
	for _, id := range g.NodesByType(graph.KindNoteBlock) {
		mark(id)
	}
	for _, id := range g.NodesByType(graph.KindLever) {
		mark(id)
	}
	for _, id := range g.NodesByType(graph.KindButton) {
		mark(id)
	}
	for _, id := range g.NodesByType(graph.KindPressurePlate) {
		mark(id)
	}
	if ioOnly && wireDotOut {
		for _, id := range g.NodesByType(graph.KindWire) {
			if isDotWire(g, id) {
				mark(id)
			}
		}
	}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range g.Incoming(id) {
			mark(e.Other)
		}
	}

	for _, id := range g.NodeIDs() {
		if !marked[id] {
			g.RemoveNode(id)
		}
	}
}

// isDotWire reports whether a wire node has exactly one neighbor that
// isn't itself wire — the "dot" shape --wire-dot-out keeps so an exported
// diagram still shows where a wire run starts or ends.
func isDotWire(g *graph.Graph, id graph.ID) bool {
	nonWire := 0
	for _, e := range g.Incoming(id) {
		if g.Node(e.Other).Kind != graph.KindWire {
			nonWire++
		}
	}
	for _, e := range g.Outgoing(id) {
		if g.Node(e.Other).Kind != graph.KindWire {
			nonWire++
		}
	}
	return nonWire == 1
}
