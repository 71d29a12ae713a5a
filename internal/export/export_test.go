package export

import (
	"bytes"
	"strings"
	"testing"

	"redpiler.dev/redpiler/internal/graph"
)

func buildSample() *graph.Graph {
	g := graph.New()
	lever := g.AddNode(graph.KindLever, graph.State{On: true}, graph.Pos{}, true)
	rep := g.AddNode(graph.KindRepeater, graph.State{Delay: 3, FarOverride: graph.NoFarOverride}, graph.Pos{X: 1}, true)
	lamp := g.AddNode(graph.KindLamp, graph.State{Lit: true}, graph.Pos{X: 2}, true)
	g.AddLink(lever, rep, graph.Default, 0)
	g.AddLink(rep, lamp, graph.Default, 3)
	return g
}

func TestWriteReadGraphRoundTrips(t *testing.T) {
	g := buildSample()

	var buf bytes.Buffer
	if err := WriteGraph(&buf, g); err != nil {
		t.Fatalf("WriteGraph: %v", err)
	}

	got, err := ReadGraph(&buf)
	if err != nil {
		t.Fatalf("ReadGraph: %v", err)
	}
	if got.LiveCount() != g.LiveCount() {
		t.Fatalf("expected %d live nodes, got %d", g.LiveCount(), got.LiveCount())
	}

	reps := got.NodesByType(graph.KindRepeater)
	if len(reps) != 1 || got.Node(reps[0]).State.Delay != 3 {
		t.Fatalf("expected repeater delay preserved across round trip, got %+v", reps)
	}
	if len(got.Outgoing(0)) != 1 || got.Outgoing(0)[0].Weight != 0 {
		t.Fatalf("unexpected outgoing links on node 0: %+v", got.Outgoing(0))
	}
}

func TestWriteReadGraphPreservesExactOutputByte(t *testing.T) {
	g := graph.New()
	id := g.AddNode(graph.KindComparator, graph.State{Mode: graph.Subtract, FarOverride: graph.NoFarOverride}, graph.Pos{}, true)
	// A comparator's analog output can't be derived from State alone;
	// set it directly to something AddNode's approximation would never
	// produce (it only ever seeds 0 or 15 for this kind).
	g.Node(id).Output = 7

	var buf bytes.Buffer
	if err := WriteGraph(&buf, g); err != nil {
		t.Fatalf("WriteGraph: %v", err)
	}
	got, err := ReadGraph(&buf)
	if err != nil {
		t.Fatalf("ReadGraph: %v", err)
	}
	if out := got.Node(0).Output; out != 7 {
		t.Fatalf("expected exact Output 7 to survive the round trip, got %d", out)
	}
}

func TestWriteGraphRejectsWrongMagicOnRead(t *testing.T) {
	_, err := ReadGraph(bytes.NewReader([]byte{0, 0, 0, 0}))
	if err == nil {
		t.Fatalf("expected an error reading garbage input")
	}
}

func TestWriteDotProducesValidLookingGraph(t *testing.T) {
	g := buildSample()
	var buf bytes.Buffer
	if err := WriteDot(&buf, g); err != nil {
		t.Fatalf("WriteDot: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "digraph redpiler {") {
		t.Fatalf("expected a digraph header, got %q", out[:20])
	}
	if !strings.Contains(out, "Lever") || !strings.Contains(out, "Lamp") {
		t.Fatalf("expected node labels naming their kinds, got %s", out)
	}
}
