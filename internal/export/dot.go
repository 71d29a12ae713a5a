package export

import (
	"fmt"
	"io"

	"redpiler.dev/redpiler/internal/graph"
)

// WriteDot emits a Graphviz representation of g: one node per live id,
// labeled with its kind and output strength, and one edge per link,
// labeled with its kind and weight.
func WriteDot(w io.Writer, g *graph.Graph) error {
	if _, err := fmt.Fprintln(w, "digraph redpiler {"); err != nil {
		return err
	}
	for _, id := range g.NodeIDs() {
		n := g.Node(id)
		if _, err := fmt.Fprintf(w, "  n%d [label=\"%s#%d out=%d\"];\n", id, n.Kind, id, n.Output); err != nil {
			return err
		}
	}
	for _, id := range g.NodeIDs() {
		for _, e := range g.Outgoing(id) {
			kind := "default"
			if e.Kind == graph.Side {
				kind = "side"
			}
			if _, err := fmt.Fprintf(w, "  n%d -> n%d [label=\"%s/%d\"];\n", id, e.Other, kind, e.Weight); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}
