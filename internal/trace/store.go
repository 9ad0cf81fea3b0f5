// Package trace keeps a bounded history of world positions per body for
// trail rendering.
package trace

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/spacehole-rogue/orbitview/internal/world"
)

// MaxPoints is the default per-body history length.
const MaxPoints = 500

// Label names the body an entity tracks.
type Label struct {
	Name string
}

// Trail is the ordered position history of one body, oldest first.
type Trail struct {
	Points []r2.Vec
}

// Store maps body names to bounded FIFO trails. Each body is one entity in
// an ECS world; order records first appearance.
// Not safe for concurrent use.
type Store struct {
	limit int

	world  *ecs.World
	bodies *ecs.Map2[Label, Trail]
	trails *ecs.Map[Trail]
	index  map[string]ecs.Entity
	order  []string
}

// NewStore creates a store keeping at most limit points per body.
// A limit <= 0 selects MaxPoints.
func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = MaxPoints
	}
	s := &Store{limit: limit}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.world = ecs.NewWorld(64)
	s.bodies = ecs.NewMap2[Label, Trail](s.world)
	s.trails = ecs.NewMap[Trail](s.world)
	s.index = make(map[string]ecs.Entity)
	s.order = s.order[:0]
}

// Limit returns the per-body point cap.
func (s *Store) Limit() int { return s.limit }

// Record appends each body's current position to its trail, creating the
// trail on first sight and evicting the oldest points beyond the limit.
// Bodies missing from this snapshot keep their trail untouched.
func (s *Store) Record(bodies []world.Body) {
	for _, b := range bodies {
		t := s.trail(b.Name)
		t.Points = append(t.Points, b.Pos())
		if n := len(t.Points) - s.limit; n > 0 {
			t.Points = append(t.Points[:0], t.Points[n:]...)
		}
	}
}

func (s *Store) trail(name string) *Trail {
	if e, ok := s.index[name]; ok {
		return s.trails.Get(e)
	}
	e := s.bodies.NewEntity(
		&Label{Name: name},
		&Trail{Points: make([]r2.Vec, 0, 16)},
	)
	s.index[name] = e
	s.order = append(s.order, name)
	return s.trails.Get(e)
}

// Clear drops every trail. Called when a simulation run starts or resets.
func (s *Store) Clear() { s.reset() }

// Len returns the number of bodies with a trail.
func (s *Store) Len() int { return len(s.order) }

// ForEach calls fn for every trail in order of first appearance. The slice
// passed to fn is owned by the store and must not be retained.
func (s *Store) ForEach(fn func(name string, points []r2.Vec)) {
	for _, name := range s.order {
		fn(name, s.trails.Get(s.index[name]).Points)
	}
}

// Points returns a copy of one body's trail.
func (s *Store) Points(name string) []r2.Vec {
	e, ok := s.index[name]
	if !ok {
		return nil
	}
	return append([]r2.Vec(nil), s.trails.Get(e).Points...)
}
