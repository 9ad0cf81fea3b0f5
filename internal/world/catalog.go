package world

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultReference is the central body every simulation run must contain.
const DefaultReference = "Sun"

// CatalogEntry is the initial state of a body in the backend catalog.
type CatalogEntry struct {
	Name          string  `json:"name"`
	Mass          float64 `json:"mass"` // kg
	X             float64 `json:"x"`    // m
	Y             float64 `json:"y"`
	VX            float64 `json:"vx"` // m/s
	VY            float64 `json:"vy"`
	Radius        float64 `json:"radius"`
	Color         string  `json:"color"`
	SemiMajorAxis float64 `json:"semiMajorAxis"`
	Eccentricity  float64 `json:"eccentricity"`
}

// Body converts the entry to its initial display snapshot.
func (e CatalogEntry) Body() Body {
	return Body{
		Name:          e.Name,
		WorldX:        e.X,
		WorldY:        e.Y,
		Radius:        e.Radius,
		Color:         e.Color,
		SemiMajorAxis: e.SemiMajorAxis,
		Eccentricity:  e.Eccentricity,
	}
}

//go:embed catalog.json
var defaultCatalog []byte

// DefaultCatalog returns the built-in solar system catalog.
func DefaultCatalog() []CatalogEntry {
	entries, err := LoadCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return entries
}

// LoadCatalog parses a JSON array of catalog entries.
func LoadCatalog(data []byte) ([]CatalogEntry, error) {
	var entries []CatalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	seen := make(map[string]bool, len(entries))
	for i := range entries {
		e := &entries[i]
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" {
			return nil, fmt.Errorf("catalog entry %d: empty name", i)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("catalog entry %d: duplicate name %q", i, e.Name)
		}
		if e.Mass <= 0 {
			return nil, fmt.Errorf("catalog entry %q: mass must be positive", e.Name)
		}
		if e.Eccentricity < 0 || e.Eccentricity >= 1 {
			return nil, fmt.Errorf("catalog entry %q: eccentricity %g out of [0,1)", e.Name, e.Eccentricity)
		}
		seen[e.Name] = true
	}
	return entries, nil
}

// WithReference returns names with ref prepended when it is missing.
// The input slice is not modified.
func WithReference(names []string, ref string) []string {
	for _, n := range names {
		if n == ref {
			return append([]string(nil), names...)
		}
	}
	out := make([]string, 0, len(names)+1)
	out = append(out, ref)
	return append(out, names...)
}
