// Package worldapi defines the collaborator contracts Redpiler compiles
// against and runs on top of: a read-only WorldView at compile time and a
// mutable WorldSink at tick time. Per spec, everything on the other side of
// these interfaces (networking, chunk storage, WorldEdit, persistence) is
// out of the core's scope; this package is the seam.
package worldapi

import "redpiler.dev/redpiler/internal/graph"

// BlockKind names a supported block type the front-end can classify. It is
// intentionally a plain string rather than an enum shared with the world
// collaborator: the collaborator owns its own block-id space, and the core
// only needs to recognize a fixed vocabulary of names.
type BlockKind string

const (
	BlockRepeater      BlockKind = "REPEATER"
	BlockComparator    BlockKind = "COMPARATOR"
	BlockTorch         BlockKind = "TORCH"
	BlockWallTorch     BlockKind = "WALL_TORCH"
	BlockLamp          BlockKind = "REDSTONE_LAMP"
	BlockTrapdoor      BlockKind = "TRAPDOOR"
	BlockWire          BlockKind = "REDSTONE_WIRE"
	BlockStoneButton   BlockKind = "STONE_BUTTON"
	BlockWoodenButton  BlockKind = "WOODEN_BUTTON"
	BlockLever         BlockKind = "LEVER"
	BlockPressurePlate BlockKind = "PRESSURE_PLATE"
	BlockNoteBlock     BlockKind = "NOTE_BLOCK"
	BlockSolid         BlockKind = "SOLID"
	BlockAir           BlockKind = "AIR"

	// Constant-source (comparator-readable inventory) blocks.
	BlockBarrel       BlockKind = "BARREL"
	BlockFurnace      BlockKind = "FURNACE"
	BlockBlastFurnace BlockKind = "BLAST_FURNACE"
	BlockSmoker       BlockKind = "SMOKER"
	BlockHopper       BlockKind = "HOPPER"
	BlockDropper      BlockKind = "DROPPER"
	BlockDispenser    BlockKind = "DISPENSER"
	BlockChest        BlockKind = "CHEST"
	BlockTrappedChest BlockKind = "TRAPPED_CHEST"
	BlockCauldron     BlockKind = "CAULDRON"
	BlockComposter    BlockKind = "COMPOSTER"
	BlockCake         BlockKind = "CAKE"
	BlockJukebox      BlockKind = "JUKEBOX"
)

// BlockState is the read-only snapshot of one block the WorldView exposes
// at compile time: its kind plus the small amount of orientation/power
// metadata the front-end needs to classify it and seed its Node.
type BlockState struct {
	Kind BlockKind

	Facing  graph.Direction // repeaters, comparators, wall torches, dispensers/droppers/hoppers
	Locked  bool            // repeater
	Delay   uint8           // repeater: 1..4
	Mode    graph.ComparatorMode
	Powered bool // button/trapdoor/repeater/comparator/note block current powered bit, as stored in-world
	Lit     bool
	On      bool
	Pressed bool
}

// Solid reports whether this block occupies its full cell, which matters
// for strong/weak power adjacency rules during InputSearch.
func (b BlockState) Solid() bool {
	switch b.Kind {
	case BlockAir, BlockWire, BlockLever, BlockTorch, BlockWallTorch, BlockPressurePlate, BlockTrapdoor:
		return false
	default:
		return true
	}
}

// BlockEntity is the optional extended state a block carries beyond
// BlockState: container contents, levels, cake slices and a jukebox's
// record, all used for constant-source comparator readings.
type BlockEntity struct {
	// Inventory holds item-id -> count for container blocks; its encoding
	// into a comparator strength is computed by the catalog's fullness
	// formula.
	Inventory map[string]int
	// Level is used by level-encoded blocks (cauldron, composter) whose
	// comparator strength is not a fullness ratio over Inventory.
	Level int
	// SliceCount is used by cake (0..6 slices eaten; 0 is a whole cake).
	SliceCount int
	// HasRecord reports whether a jukebox currently has a record inserted.
	HasRecord bool
}

// WorldView is the read-only compile-time collaborator: the region to
// compile, and the state of every block/block-entity within it.
type WorldView interface {
	GetBlock(pos graph.Pos) BlockState
	GetBlockEntity(pos graph.Pos) (BlockEntity, bool)
	RegionBounds() (min, max graph.Pos)
}

// WorldSink is the mutable runtime collaborator: it receives block-state
// changes as the compiled graph ticks, and is asked to flush them in
// batches bounded by the configured world-send rate.
type WorldSink interface {
	SetBlock(pos graph.Pos, state BlockState)
	Flush()
}
