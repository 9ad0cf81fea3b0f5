package world

import (
	"encoding/json"
	"math"
	"strconv"

	"gonum.org/v1/gonum/spatial/r2"
)

// AU is one astronomical unit in meters. Scales are expressed in pixels per AU.
const AU = 1.496e11

// Body is one server-reported celestial body. Positions are in meters.
// Bodies are value snapshots; a new Snapshot replaces the whole list.
type Body struct {
	Name          string  `json:"name"`
	WorldX        float64 `json:"worldX"`
	WorldY        float64 `json:"worldY"`
	Radius        float64 `json:"radius"` // display pixels at base scale
	Color         string  `json:"color"`
	SemiMajorAxis float64 `json:"semiMajorAxis,omitempty"` // meters, 0 = unknown
	Eccentricity  float64 `json:"eccentricity,omitempty"`
}

// Pos returns the body's world position.
func (b Body) Pos() r2.Vec { return r2.Vec{X: b.WorldX, Y: b.WorldY} }

// HasOrbit reports whether the body carries usable orbital elements.
func (b Body) HasOrbit() bool {
	return b.SemiMajorAxis > 0 && b.Eccentricity >= 0 && b.Eccentricity < 1
}

// SemiMinorAxis is the display approximation a*(1-e), not the true b = a*sqrt(1-e^2).
func (b Body) SemiMinorAxis() float64 {
	return b.SemiMajorAxis * (1 - b.Eccentricity)
}

// Snapshot is one backend response: the full body list plus a suggested
// scale in pixels per AU. Scale is 0 when the backend sent none.
type Snapshot struct {
	Bodies []Body  `json:"bodies"`
	Scale  float64 `json:"scale"`
}

// UnmarshalJSON accepts the scale as a number or a numeric string and
// treats anything else as "no suggestion".
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw struct {
		Bodies []Body           `json:"bodies"`
		Scale  json.RawMessage `json:"scale"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Bodies = raw.Bodies
	s.Scale = parseScale(raw.Scale)
	return nil
}

func parseScale(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		if f, err = strconv.ParseFloat(s, 64); err != nil {
			return 0
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0
	}
	return f
}

// Find returns the body with the given name.
func (s Snapshot) Find(name string) (Body, bool) {
	for _, b := range s.Bodies {
		if b.Name == name {
			return b, true
		}
	}
	return Body{}, false
}
