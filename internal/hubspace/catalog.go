package hubspace

import (
	"strings"
	"sync"

	"hubspace_bridge/internal/models"
)

// Catalog maps device id -> metadata, with a secondary lowercased
// display-name index for human-friendly lookups. It is populated once at
// startup by the background worker and read-only afterwards; the lock only
// covers the startup/reader overlap.
type Catalog struct {
	mu      sync.RWMutex
	devices map[string]models.Device
	names   map[string]string // lowercased name -> id
}

func NewCatalog() *Catalog {
	return &Catalog{
		devices: make(map[string]models.Device),
		names:   make(map[string]string),
	}
}

// Add registers a discovered device. Display names are not guaranteed
// unique; on collision the last write wins.
func (c *Catalog) Add(d models.Device) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.devices[d.ID] = d
	c.names[strings.ToLower(d.Name)] = d.ID
}

// Resolve returns the input unchanged if it is a known id, otherwise looks
// it up case-insensitively by display name. The second return is false when
// neither matches.
func (c *Catalog) Resolve(nameOrID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.devices[nameOrID]; ok {
		return nameOrID, true
	}
	id, ok := c.names[strings.ToLower(nameOrID)]
	return id, ok
}

// List returns a snapshot copy; the live mapping is never exposed.
func (c *Catalog) List() []models.Device {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Device, 0, len(c.devices))
	for _, d := range c.devices {
		out = append(out, d)
	}
	return out
}

// Len reports the number of cataloged devices.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.devices)
}
