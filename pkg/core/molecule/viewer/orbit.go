package viewer

import (
	"math"
	"sync"
	"time"

	"github.com/crowelm/crowelm/pkg/core/molecule"
)

// Orbit spins a centered scene about the Y axis at Speed radians per second.
type Orbit struct {
	mu    sync.Mutex
	base  []molecule.Vec3
	angle float64
	Speed float64
}

// NewOrbit centers atoms and spins them from angle zero.
func NewOrbit(atoms []molecule.Atom, speed float64) *Orbit {
	centered := molecule.Center(atoms)
	base := make([]molecule.Vec3, len(centered))
	for i, a := range centered {
		base[i] = a.Position
	}
	return &Orbit{base: base, Speed: speed}
}

// Step advances the angle by dt and returns the rotated atom positions.
func (o *Orbit) Step(dt time.Duration) (float64, []molecule.Vec3) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.angle = math.Mod(o.angle+o.Speed*dt.Seconds(), 2*math.Pi)
	out := make([]molecule.Vec3, len(o.base))
	for i, p := range o.base {
		out[i] = RotateY(p, o.angle)
	}
	return o.angle, out
}

func RotateY(v molecule.Vec3, angle float64) molecule.Vec3 {
	sin, cos := math.Sincos(angle)
	return molecule.Vec3{
		X: v.X*cos + v.Z*sin,
		Y: v.Y,
		Z: -v.X*sin + v.Z*cos,
	}
}
