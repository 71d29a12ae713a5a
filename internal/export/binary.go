// Package export serializes a finalized graph to the versioned binary
// format external tooling consumes, to a Graphviz dot file for visual
// debugging, and streams live node-state transitions to websocket
// clients for interactive inspection.
package export

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"redpiler.dev/redpiler/internal/graph"
)

// Magic identifies a Redpiler binary graph export.
const Magic uint32 = 0x52504c52 // "RPLR"

// Version is the current binary export format version.
const Version uint32 = 1

// stateBlobSize is the fixed per-node state payload size: every node
// record carries the same eight bytes regardless of type tag, with only
// the fields its type actually uses populated meaningfully. A fixed size
// keeps the reader branch-free; interpreting which bytes matter is the
// type tag's job, same as graph.State's own flat layout.
const stateBlobSize = 8

const (
	flagLocked byte = 1 << iota
	flagPowered
	flagLit
	flagOn
	flagPressed
	flagWooden
)

// WriteGraph encodes g in node-id order to w.
func WriteGraph(w io.Writer, g *graph.Graph) error {
	bw := bufio.NewWriter(w)

	if err := writeU32(bw, Magic); err != nil {
		return err
	}
	if err := writeU32(bw, Version); err != nil {
		return err
	}
	if err := writeU32(bw, uint32(g.LiveCount())); err != nil {
		return err
	}

	for _, id := range g.NodeIDs() {
		n := g.Node(id)
		if err := bw.WriteByte(byte(n.Kind)); err != nil {
			return err
		}
		if _, err := bw.Write(encodeState(n)); err != nil {
			return err
		}

		links := g.Outgoing(id)
		if err := writeU32(bw, uint32(len(links))); err != nil {
			return err
		}
		for _, e := range links {
			if err := writeU32(bw, uint32(e.Other)); err != nil {
				return err
			}
			if err := bw.WriteByte(byte(e.Kind)); err != nil {
				return err
			}
			if err := bw.WriteByte(e.Weight); err != nil {
				return err
			}
		}
	}

	return bw.Flush()
}

// ReadGraph decodes a binary export back into a graph. Node ids are
// reassigned densely starting at 0 in the order they were written, which
// always matches the writer's NodeIDs() order, so link references
// (stored as the writer's ids, already dense) resolve directly.
func ReadGraph(r io.Reader) (*graph.Graph, error) {
	br := newCountingReader(r)

	magic, err := readU32(br)
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, fmt.Errorf("export: bad magic %#x", magic)
	}
	version, err := readU32(br)
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, fmt.Errorf("export: unsupported version %d", version)
	}
	nodeCount, err := readU32(br)
	if err != nil {
		return nil, err
	}

	g := graph.New()
	type pendingLink struct {
		src, dst graph.ID
		kind     graph.EdgeKind
		weight   byte
	}
	var pending []pendingLink

	for i := uint32(0); i < nodeCount; i++ {
		tag, err := br.ReadByte()
		if err != nil {
			return nil, err
		}
		blob := make([]byte, stateBlobSize)
		if _, err := io.ReadFull(br, blob); err != nil {
			return nil, err
		}
		state, output := decodeState(blob)
		id := g.AddNode(graph.Kind(tag), state, graph.Pos{}, false)
		if id != graph.ID(i) {
			return nil, fmt.Errorf("export: unexpected id assignment %d != %d", id, i)
		}
		// AddNode only approximates Output from State's booleans; the
		// blob carries the exact value the writer observed, so restore it.
		g.Node(id).Output = output

		linkCount, err := readU32(br)
		if err != nil {
			return nil, err
		}
		for j := uint32(0); j < linkCount; j++ {
			dst, err := readU32(br)
			if err != nil {
				return nil, err
			}
			kind, err := br.ReadByte()
			if err != nil {
				return nil, err
			}
			weight, err := br.ReadByte()
			if err != nil {
				return nil, err
			}
			pending = append(pending, pendingLink{src: id, dst: graph.ID(dst), kind: graph.EdgeKind(kind), weight: weight})
		}
	}

	for _, l := range pending {
		g.AddLink(l.src, l.dst, l.kind, l.weight)
	}
	return g, nil
}

func encodeState(n *graph.Node) []byte {
	b := make([]byte, stateBlobSize)
	s := n.State
	b[0] = byte(s.Facing)
	b[1] = s.Delay
	var flags byte
	if s.Locked {
		flags |= flagLocked
	}
	if s.Powered {
		flags |= flagPowered
	}
	if s.Lit {
		flags |= flagLit
	}
	if s.On {
		flags |= flagOn
	}
	if s.Pressed {
		flags |= flagPressed
	}
	if s.Wooden {
		flags |= flagWooden
	}
	b[2] = flags
	b[3] = byte(s.Mode)
	if s.FarOverride == graph.NoFarOverride {
		b[4] = 0
	} else {
		b[4] = byte(s.FarOverride) + 1
	}
	b[5] = s.TicksLeft
	b[6] = s.Strength
	b[7] = n.Output
	return b
}

func decodeState(b []byte) (graph.State, uint8) {
	flags := b[2]
	s := graph.State{
		Facing:    graph.Direction(b[0]),
		Delay:     b[1],
		Locked:    flags&flagLocked != 0,
		Powered:   flags&flagPowered != 0,
		Lit:       flags&flagLit != 0,
		On:        flags&flagOn != 0,
		Pressed:   flags&flagPressed != 0,
		Wooden:    flags&flagWooden != 0,
		Mode:      graph.ComparatorMode(b[3]),
		TicksLeft: b[5],
		Strength:  b[6],
	}
	if b[4] == 0 {
		s.FarOverride = graph.NoFarOverride
	} else {
		s.FarOverride = int8(b[4]) - 1
	}
	return s, b[7]
}

func writeU32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readU32(r io.ByteReader) (uint32, error) {
	var buf [4]byte
	for i := range buf {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		buf[i] = b
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// bufioByteReader adapts an io.Reader into the io.ByteReader + io.Reader
// combo ReadGraph needs.
type bufioByteReader struct {
	r *bufio.Reader
}

func newCountingReader(r io.Reader) *bufioByteReader { return &bufioByteReader{r: bufio.NewReader(r)} }

func (b *bufioByteReader) ReadByte() (byte, error)    { return b.r.ReadByte() }
func (b *bufioByteReader) Read(p []byte) (int, error) { return b.r.Read(p) }
