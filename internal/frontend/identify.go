// Package frontend implements the mandatory IdentifyNodes and InputSearch
// passes: turning a WorldView region into typed graph nodes, then wiring
// those nodes together by searching the wire network for signal sources.
package frontend

import (
	"redpiler.dev/redpiler/internal/catalog"
	"redpiler.dev/redpiler/internal/graph"
	"redpiler.dev/redpiler/internal/rerrors"
	"redpiler.dev/redpiler/internal/worldapi"
)

// Options controls IdentifyNodes' behavior.
type Options struct {
	// IncludeWire keeps redstone wire as first-class nodes, which disables
	// the performance-motivated BFS collapse InputSearch otherwise does
	// and makes wire state individually observable/steppable. Only set
	// when --optimize is off.
	IncludeWire bool
	// MaxNodes is the TooLarge cap; 0 means unlimited.
	MaxNodes int
}

// IdentifyNodes scans every block in the view's region and produces one
// node per supported component, skipping anything the front-end doesn't
// classify.
func IdentifyNodes(view worldapi.WorldView, cat *catalog.Catalog, opts Options) (*graph.Graph, error) {
	g := graph.New()
	min, max := view.RegionBounds()

	for x := min.X; x <= max.X; x++ {
		for y := min.Y; y <= max.Y; y++ {
			for z := min.Z; z <= max.Z; z++ {
				pos := graph.Pos{X: x, Y: y, Z: z}
				b := view.GetBlock(pos)
				if !classify(g, view, cat, pos, b, opts) {
					continue
				}
				if opts.MaxNodes > 0 && g.Len() > opts.MaxNodes {
					return nil, rerrors.ErrTooLarge
				}
			}
		}
	}
	return g, nil
}

// classify adds a node for pos/b if it's a supported component, reporting
// whether it did so (used only to drive the node-cap check above).
func classify(g *graph.Graph, view worldapi.WorldView, cat *catalog.Catalog, pos graph.Pos, b worldapi.BlockState, opts Options) bool {
	switch b.Kind {
	case worldapi.BlockRepeater:
		delay := b.Delay
		if delay < 1 {
			delay = 1
		}
		if delay > 4 {
			delay = 4
		}
		g.AddNode(graph.KindRepeater, graph.State{
			Facing:  b.Facing,
			Delay:   delay,
			Locked:  b.Locked,
			Powered: b.Powered,
		}, pos, true)
		return true

	case worldapi.BlockComparator:
		g.AddNode(graph.KindComparator, graph.State{
			Facing:      b.Facing,
			Mode:        b.Mode,
			FarOverride: farOverride(view, cat, pos, b.Facing),
			Powered:     b.Powered,
		}, pos, true)
		return true

	case worldapi.BlockTorch:
		g.AddNode(graph.KindTorch, graph.State{Facing: graph.Down, Lit: b.Lit}, pos, true)
		return true

	case worldapi.BlockWallTorch:
		// b.Facing is the direction the torch points away from its wall;
		// State.Facing stores the direction *to* the attachment block so
		// InputSearch can uniformly do pos.Add(Facing.Delta()).
		g.AddNode(graph.KindTorch, graph.State{Facing: b.Facing.Opposite(), Lit: b.Lit}, pos, true)
		return true

	case worldapi.BlockLamp:
		g.AddNode(graph.KindLamp, graph.State{Lit: b.Lit}, pos, true)
		return true

	case worldapi.BlockTrapdoor:
		g.AddNode(graph.KindTrapdoor, graph.State{Powered: b.Powered}, pos, true)
		return true

	case worldapi.BlockWire:
		if opts.IncludeWire {
			g.AddNode(graph.KindWire, graph.State{}, pos, true)
			return true
		}
		return false

	case worldapi.BlockStoneButton:
		g.AddNode(graph.KindButton, graph.State{Wooden: false, Powered: b.Powered}, pos, true)
		return true

	case worldapi.BlockWoodenButton:
		g.AddNode(graph.KindButton, graph.State{Wooden: true, Powered: b.Powered}, pos, true)
		return true

	case worldapi.BlockLever:
		g.AddNode(graph.KindLever, graph.State{On: b.On}, pos, true)
		return true

	case worldapi.BlockPressurePlate:
		g.AddNode(graph.KindPressurePlate, graph.State{Pressed: b.Pressed}, pos, true)
		return true

	case worldapi.BlockNoteBlock:
		g.AddNode(graph.KindNoteBlock, graph.State{Powered: b.Powered}, pos, true)
		return true

	case worldapi.BlockBarrel, worldapi.BlockFurnace, worldapi.BlockBlastFurnace,
		worldapi.BlockSmoker, worldapi.BlockHopper, worldapi.BlockDropper,
		worldapi.BlockDispenser, worldapi.BlockChest, worldapi.BlockTrappedChest,
		worldapi.BlockCauldron, worldapi.BlockComposter, worldapi.BlockCake,
		worldapi.BlockJukebox:
		be, _ := view.GetBlockEntity(pos)
		strength := cat.Strength(b.Kind, be)
		id := g.AddNode(graph.KindConstant, graph.State{Strength: strength}, pos, true)
		g.Node(id).Flags |= graph.FlagIsAnalogSource
		return true

	default:
		// BlockSolid, BlockAir, and anything else unrecognized: skipped,
		// not an error.
		return false
	}
}

// farOverride resolves a comparator's far-override reading: the first
// solid, non-component block directly in front of it must itself have a
// container directly behind it.
func farOverride(view worldapi.WorldView, cat *catalog.Catalog, pos graph.Pos, facing graph.Direction) int8 {
	behind1 := pos.Add(facing.Delta())
	b1 := view.GetBlock(behind1)
	if !isPlainSolid(b1) {
		return graph.NoFarOverride
	}
	behind2 := behind1.Add(facing.Delta())
	b2 := view.GetBlock(behind2)
	if !isContainer(b2.Kind) {
		return graph.NoFarOverride
	}
	be, _ := view.GetBlockEntity(behind2)
	return int8(cat.Strength(b2.Kind, be))
}

// isPlainSolid reports whether b is an opaque block with no redstone
// identity of its own — the "solid block" in the far-override chain must
// not itself be a component or container.
func isPlainSolid(b worldapi.BlockState) bool {
	if !b.Solid() {
		return false
	}
	return !isContainer(b.Kind) && b.Kind != worldapi.BlockNoteBlock
}

func isContainer(k worldapi.BlockKind) bool {
	switch k {
	case worldapi.BlockBarrel, worldapi.BlockFurnace, worldapi.BlockBlastFurnace,
		worldapi.BlockSmoker, worldapi.BlockHopper, worldapi.BlockDropper,
		worldapi.BlockDispenser, worldapi.BlockChest, worldapi.BlockTrappedChest,
		worldapi.BlockCauldron, worldapi.BlockComposter, worldapi.BlockCake,
		worldapi.BlockJukebox:
		return true
	default:
		return false
	}
}
