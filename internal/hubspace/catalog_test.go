package hubspace

import (
	"testing"

	"hubspace_bridge/internal/models"
)

func TestCatalog_ResolveByID(t *testing.T) {
	c := NewCatalog()
	c.Add(models.Device{ID: "abc", Name: "Kitchen Light", Class: models.ClassLight})

	id, ok := c.Resolve("abc")
	if !ok || id != "abc" {
		t.Fatalf("expected abc, got %q ok=%v", id, ok)
	}
}

func TestCatalog_ResolveByNameCaseInsensitive(t *testing.T) {
	c := NewCatalog()
	c.Add(models.Device{ID: "abc", Name: "Kitchen Light", Class: models.ClassLight})

	for _, name := range []string{"kitchen light", "Kitchen Light", "KITCHEN LIGHT"} {
		id, ok := c.Resolve(name)
		if !ok || id != "abc" {
			t.Fatalf("resolve %q: expected abc, got %q ok=%v", name, id, ok)
		}
	}
}

func TestCatalog_ResolveUnknown(t *testing.T) {
	c := NewCatalog()
	c.Add(models.Device{ID: "abc", Name: "Kitchen Light", Class: models.ClassLight})

	if id, ok := c.Resolve("garage"); ok {
		t.Fatalf("expected miss, got %q", id)
	}
}

func TestCatalog_NameCollisionLastWriteWins(t *testing.T) {
	c := NewCatalog()
	c.Add(models.Device{ID: "first", Name: "Lamp", Class: models.ClassLight})
	c.Add(models.Device{ID: "second", Name: "lamp", Class: models.ClassLight})

	id, ok := c.Resolve("LAMP")
	if !ok || id != "second" {
		t.Fatalf("expected second (last write wins), got %q ok=%v", id, ok)
	}
	// Both devices remain resolvable by id.
	if _, ok := c.Resolve("first"); !ok {
		t.Fatalf("expected first to remain resolvable by id")
	}
}

func TestCatalog_ListReturnsSnapshot(t *testing.T) {
	c := NewCatalog()
	c.Add(models.Device{ID: "abc", Name: "Kitchen Light", Class: models.ClassLight})

	list := c.List()
	if len(list) != 1 {
		t.Fatalf("expected 1 device, got %d", len(list))
	}
	list[0].Name = "mutated"

	again := c.List()
	if again[0].Name != "Kitchen Light" {
		t.Fatalf("catalog exposed live mapping: %q", again[0].Name)
	}
}
