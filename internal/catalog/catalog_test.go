package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"redpiler.dev/redpiler/internal/worldapi"
)

func TestLoadDefaultsWhenNoOverrideFile(t *testing.T) {
	c, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := c.Containers[worldapi.BlockBarrel]; !ok {
		t.Fatalf("expected default barrel container definition present")
	}
	if c.Digest == "" {
		t.Fatalf("expected a non-empty digest")
	}
}

func TestLoadReadsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	raw := `[{"kind":"BARREL","slots":1}]`
	if err := os.WriteFile(filepath.Join(dir, "containers.json"), []byte(raw), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := c.Containers[worldapi.BlockFurnace]; ok {
		t.Fatalf("expected override to fully replace the default table")
	}
	if c.Containers[worldapi.BlockBarrel].Slots != 1 {
		t.Fatalf("expected overridden barrel slots == 1")
	}
}

func TestStrengthFullnessFormula(t *testing.T) {
	c, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	empty := worldapi.BlockEntity{}
	if s := c.Strength(worldapi.BlockBarrel, empty); s != 0 {
		t.Fatalf("expected empty barrel to read 0, got %d", s)
	}

	full := worldapi.BlockEntity{Inventory: map[string]int{}}
	for i := 0; i < 27; i++ {
		full.Inventory[string(rune('a'+i))] = 1
	}
	if s := c.Strength(worldapi.BlockBarrel, full); s != 15 {
		t.Fatalf("expected fully-occupied barrel to read 15, got %d", s)
	}
}

func TestStrengthCakeCountsDownFromFull(t *testing.T) {
	c, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	fresh := c.Strength(worldapi.BlockCake, worldapi.BlockEntity{SliceCount: 0})
	eaten := c.Strength(worldapi.BlockCake, worldapi.BlockEntity{SliceCount: 5})
	if fresh <= eaten {
		t.Fatalf("expected a fresh cake to read higher than a nearly-eaten one: fresh=%d eaten=%d", fresh, eaten)
	}
}

func TestStrengthJukeboxIsBoolean(t *testing.T) {
	c, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s := c.Strength(worldapi.BlockJukebox, worldapi.BlockEntity{HasRecord: false}); s != 0 {
		t.Fatalf("expected empty jukebox to read 0, got %d", s)
	}
	if s := c.Strength(worldapi.BlockJukebox, worldapi.BlockEntity{HasRecord: true}); s != 15 {
		t.Fatalf("expected loaded jukebox to read 15, got %d", s)
	}
}
