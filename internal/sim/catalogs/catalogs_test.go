package catalogs

import (
	"os"
	"path/filepath"
	"testing"
)

const testCatalog = `
catalog:
  Sleeping:
    display_name: Sleeping
    interaction_key: sleeping
    default_duration: "08:00"
  Eating:
    interaction_key: eating
    state:
      noise: low
    default_duration: 30
  Idle:
    default_duration: 15

aliases:
  breakfast:
    activity: Eating
    display_name: Breakfast
    state:
      meal: breakfast
  lights_out:
    activity: Sleeping
  orphan:
    activity: NoSuchKind
`

func loadTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "activities.yaml")
	if err := os.WriteFile(path, []byte(testCatalog), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return c
}

func TestResolveCanonical(t *testing.T) {
	c := loadTestCatalog(t)
	p := c.Resolve("Sleeping")
	if p == nil {
		t.Fatal("Sleeping not resolvable")
	}
	if p.Canonical != KindSleeping || p.DefaultDuration != 480 {
		t.Fatalf("profile = %+v", p)
	}
}

func TestAliasInheritsBaseState(t *testing.T) {
	c := loadTestCatalog(t)
	p := c.Resolve("breakfast")
	if p == nil {
		t.Fatal("breakfast not resolvable")
	}
	if p.Canonical != KindEating {
		t.Fatalf("canonical = %v", p.Canonical)
	}
	if p.Label != "Breakfast" {
		t.Fatalf("label = %q", p.Label)
	}
	if p.State["noise"] != "low" || p.State["meal"] != "breakfast" {
		t.Fatalf("state = %v", p.State)
	}
	if p.DefaultDuration != 30 {
		t.Fatalf("duration = %d, want inherited 30", p.DefaultDuration)
	}
	// Alias state must not leak back into the base profile.
	if base := c.Resolve("Eating"); base.State["meal"] != nil {
		t.Fatalf("base state mutated: %v", base.State)
	}
}

func TestAliasLabelDefaultsToTitleCase(t *testing.T) {
	c := loadTestCatalog(t)
	p := c.Resolve("lights_out")
	if p == nil || p.Label != "Lights Out" {
		t.Fatalf("lights_out profile = %+v", p)
	}
}

func TestUnknownEntriesDropped(t *testing.T) {
	c := loadTestCatalog(t)
	if c.Resolve("orphan") != nil {
		t.Fatal("alias with unknown base must be dropped")
	}
	if c.Resolve("nonsense") != nil {
		t.Fatal("unknown id must resolve to nil")
	}
}
