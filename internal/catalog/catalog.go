// Package catalog loads the container-fullness table IdentifyNodes needs
// to turn comparator-readable container blocks into Constant nodes (block
// classification itself is a fixed switch in the frontend). It follows the same "read JSON, hash it into a digest"
// shape as a block/item palette loader: the catalog is small, static
// configuration, but its digest is still worth carrying so a compiled
// graph can be correlated with the exact catalog version that produced it.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"redpiler.dev/redpiler/internal/worldapi"
)

// ContainerDef describes how a constant-source (comparator-readable
// inventory) block's fullness maps to an output strength.
type ContainerDef struct {
	Kind worldapi.BlockKind `json:"kind"`
	// Slots is the number of inventory slots the fullness formula divides
	// over. Zero for level-encoded blocks (cauldron, composter) and
	// slice-encoded blocks (cake), which use Level/SliceCount instead.
	Slots int `json:"slots"`
	// MaxLevel is the maximum Level value for level-encoded blocks.
	MaxLevel int `json:"max_level,omitempty"`
	// MaxSlices is the maximum SliceCount for cake (vanilla: 6).
	MaxSlices int `json:"max_slices,omitempty"`
}

// Catalog is the loaded, digested configuration IdentifyNodes consults.
type Catalog struct {
	Containers map[worldapi.BlockKind]ContainerDef
	Digest     string
}

// defaultContainers mirrors vanilla: every standard inventory block reads
// out by slot fullness, cauldron/composter are level-encoded, cake is
// slice-encoded, and jukebox is a boolean (record inserted or not).
func defaultContainers() []ContainerDef {
	return []ContainerDef{
		{Kind: worldapi.BlockBarrel, Slots: 27},
		{Kind: worldapi.BlockFurnace, Slots: 3},
		{Kind: worldapi.BlockBlastFurnace, Slots: 3},
		{Kind: worldapi.BlockSmoker, Slots: 3},
		{Kind: worldapi.BlockHopper, Slots: 5},
		{Kind: worldapi.BlockDropper, Slots: 9},
		{Kind: worldapi.BlockDispenser, Slots: 9},
		{Kind: worldapi.BlockChest, Slots: 27},
		{Kind: worldapi.BlockTrappedChest, Slots: 27},
		{Kind: worldapi.BlockCauldron, MaxLevel: 3},
		{Kind: worldapi.BlockComposter, MaxLevel: 8},
		{Kind: worldapi.BlockCake, MaxSlices: 6},
		{Kind: worldapi.BlockJukebox},
	}
}

// Load reads containers.json from dir if present, falling back to the
// vanilla defaults otherwise (most deployments never need to override
// this table, so its absence is not an error).
func Load(dir string) (*Catalog, error) {
	defs := defaultContainers()

	path := filepath.Join(dir, "containers.json")
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("containers.json: %w", err)
		}
	} else {
		var overrides []ContainerDef
		if err := json.Unmarshal(raw, &overrides); err != nil {
			return nil, fmt.Errorf("containers.json: %w", err)
		}
		defs = overrides
	}

	c := &Catalog{Containers: make(map[worldapi.BlockKind]ContainerDef, len(defs))}
	for _, d := range defs {
		c.Containers[d.Kind] = d
	}
	c.Digest = digest(defs)
	return c, nil
}

func digest(defs []ContainerDef) string {
	sorted := append([]ContainerDef(nil), defs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Kind < sorted[j].Kind })
	b, _ := json.Marshal(sorted)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Strength computes the comparator-readable output (0..15) for a container
// block, given its block entity state. A slot container reads
// 1 + floor(occupied/slots * 14), where occupied counts the inventory
// entries holding at least one item; item counts and stack sizes are not
// taken into account, so a single item in every slot reads 15. An empty
// inventory reads 0 and a non-empty one at least 1. Level- and
// slice-encoded blocks scale their level to 0..15, rounded, and a jukebox
// reads 15 with a record and 0 without.
func (c *Catalog) Strength(kind worldapi.BlockKind, be worldapi.BlockEntity) uint8 {
	def, ok := c.Containers[kind]
	if !ok {
		return 0
	}

	switch kind {
	case worldapi.BlockCauldron:
		if def.MaxLevel == 0 {
			return 0
		}
		return levelStrength(be.Level, def.MaxLevel)
	case worldapi.BlockComposter:
		if def.MaxLevel == 0 {
			return 0
		}
		return levelStrength(be.Level, def.MaxLevel)
	case worldapi.BlockCake:
		if def.MaxSlices == 0 {
			return 0
		}
		remaining := def.MaxSlices - be.SliceCount
		if remaining < 0 {
			remaining = 0
		}
		return levelStrength(remaining, def.MaxSlices)
	case worldapi.BlockJukebox:
		if be.HasRecord {
			return 15
		}
		return 0
	default:
		if def.Slots <= 0 {
			return 0
		}
		return fullnessStrength(be.Inventory, def.Slots)
	}
}

func levelStrength(level, max int) uint8 {
	if max <= 0 || level <= 0 {
		return 0
	}
	if level > max {
		level = max
	}
	return uint8((level*15 + max/2) / max)
}

func fullnessStrength(inv map[string]int, slots int) uint8 {
	used := 0
	total := 0
	for _, n := range inv {
		if n <= 0 {
			continue
		}
		used++
		total += n
	}
	if used == 0 {
		return 0
	}
	ratio := float64(used) / float64(slots)
	s := uint8(1 + int(ratio*14.0))
	if s > 15 {
		s = 15
	}
	if total > 0 && s == 0 {
		s = 1
	}
	return s
}
