package simserver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/spacehole-rogue/orbitview/internal/world"
)

// Physical constants of the integrator.
const (
	G         = 6.67430e-11 // m^3 kg^-1 s^-2
	Softening = 1e9         // m^2, added to every squared distance
)

// particle is one body under integration.
type particle struct {
	entry world.CatalogEntry
	pos   r2.Vec
	vel   r2.Vec
}

func newParticles(entries []world.CatalogEntry) []particle {
	ps := make([]particle, len(entries))
	for i, e := range entries {
		ps[i] = particle{
			entry: e,
			pos:   r2.Vec{X: e.X, Y: e.Y},
			vel:   r2.Vec{X: e.VX, Y: e.VY},
		}
	}
	return ps
}

// initOrbits gives every body other than ref a velocity perpendicular to
// its offset from ref: vis-viva when the semi-major axis is known, circular
// otherwise.
func initOrbits(ps []particle, ref string) error {
	center := -1
	for i := range ps {
		if ps[i].entry.Name == ref {
			center = i
			break
		}
	}
	if center < 0 {
		return fmt.Errorf("selection must include %s", ref)
	}
	sun := ps[center]
	mu := G * sun.entry.Mass

	for i := range ps {
		if i == center {
			continue
		}
		p := &ps[i]
		d := r2.Sub(p.pos, sun.pos)
		r := math.Sqrt(r2.Norm2(d) + Softening)

		v2 := mu / r
		if a := p.entry.SemiMajorAxis; a > 0 {
			if vv := mu * (2/r - 1/a); vv > 0 {
				v2 = vv
			}
		}
		v := math.Sqrt(v2)
		angle := math.Atan2(d.Y, d.X)
		p.vel = r2.Add(sun.vel, r2.Vec{X: -v * math.Sin(angle), Y: v * math.Cos(angle)})
	}
	return nil
}

// step advances ps by dt seconds with pairwise softened gravity and
// semi-implicit Euler integration.
func step(ps []particle, dt float64) {
	forces := make([]r2.Vec, len(ps))
	for i := range ps {
		for j := i + 1; j < len(ps); j++ {
			d := r2.Sub(ps[j].pos, ps[i].pos)
			rr := r2.Norm2(d) + Softening
			f := G * ps[i].entry.Mass * ps[j].entry.Mass / rr
			fv := r2.Scale(f/math.Sqrt(rr), d)
			forces[i] = r2.Add(forces[i], fv)
			forces[j] = r2.Sub(forces[j], fv)
		}
	}
	for i := range ps {
		p := &ps[i]
		a := r2.Scale(1/p.entry.Mass, forces[i])
		p.vel = r2.Add(p.vel, r2.Scale(dt, a))
		p.pos = r2.Add(p.pos, r2.Scale(dt, p.vel))
	}
}

// body converts the particle to its current display snapshot.
func (p particle) body() world.Body {
	b := p.entry.Body()
	b.WorldX, b.WorldY = p.pos.X, p.pos.Y
	return b
}
