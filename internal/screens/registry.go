// Package screens serves the per-tenant screen definitions the admin
// dashboard renders. The registry is a JSON file mapping customer id
// to an array of screen descriptors, read once at startup.
package screens

import (
	"encoding/json"
	"fmt"
	"os"
)

// Registry holds the parsed screen registry.
type Registry struct {
	screens map[string][]json.RawMessage
}

// Load reads and parses the registry file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read screen registry: %w", err)
	}

	var screens map[string][]json.RawMessage
	if err := json.Unmarshal(data, &screens); err != nil {
		return nil, fmt.Errorf("parse screen registry: %w", err)
	}
	return &Registry{screens: screens}, nil
}

// Empty returns a registry with no screens, used when the file is
// absent so the rest of the service still comes up.
func Empty() *Registry {
	return &Registry{screens: map[string][]json.RawMessage{}}
}

// ForTenant returns the tenant's screens, or an empty list for
// tenants the registry does not know.
func (r *Registry) ForTenant(customerID string) []json.RawMessage {
	if defs, ok := r.screens[customerID]; ok {
		return defs
	}
	return []json.RawMessage{}
}
