package molecule

import (
	"cmp"
	"slices"
)

const (
	stickRadius     = 0.15
	wireframeRadius = 0.04
)

type Sphere struct {
	Index   int     `json:"index"`
	Element string  `json:"element"`
	Center  Vec3    `json:"center"`
	Radius  float64 `json:"radius"`
	Color   string  `json:"color"`
}

// Cylinder is one bond, split at Mid so each half can take its atom's color.
type Cylinder struct {
	First      int     `json:"first"`
	Second     int     `json:"second"`
	Order      int     `json:"order"`
	Start      Vec3    `json:"start"`
	End        Vec3    `json:"end"`
	Mid        Vec3    `json:"mid"`
	Length     float64 `json:"length"`
	Radius     float64 `json:"radius"`
	StartColor string  `json:"start_color"`
	EndColor   string  `json:"end_color"`
}

type Scene struct {
	Mode           Mode       `json:"mode"`
	Centroid       Vec3       `json:"centroid"`
	Spheres        []Sphere   `json:"spheres"`
	Cylinders      []Cylinder `json:"cylinders"`
	BoundingRadius float64    `json:"bounding_radius"`
}

func BuildScene(g *Graph, mode Mode) *Scene {
	return DefaultPalette.BuildScene(g, mode)
}

// BuildScene centers the graph and lays out spheres and bond cylinders for
// mode. Wireframe scenes have no spheres.
func (p *Palette) BuildScene(g *Graph, mode Mode) *Scene {
	atoms := Center(g.Atoms)
	scene := &Scene{
		Mode:      mode,
		Centroid:  Centroid(g.Atoms),
		Spheres:   make([]Sphere, 0, len(atoms)),
		Cylinders: make([]Cylinder, 0, len(g.Bonds)),
	}

	colors := make([]string, len(atoms))
	for i, a := range atoms {
		colors[i] = p.Color(a.Element).Hex()
		r := p.Radius(a.Element, mode)
		scene.BoundingRadius = max(scene.BoundingRadius, a.Position.Len()+r)
		if r == 0 {
			continue
		}
		scene.Spheres = append(scene.Spheres, Sphere{
			Index:   i,
			Element: a.Element,
			Center:  a.Position,
			Radius:  r,
			Color:   colors[i],
		})
	}

	radius := stickRadius
	if mode == Wireframe {
		radius = wireframeRadius
	}
	for _, b := range g.Bonds {
		start, end := atoms[b.First].Position, atoms[b.Second].Position
		scene.Cylinders = append(scene.Cylinders, Cylinder{
			First:      b.First,
			Second:     b.Second,
			Order:      b.Order,
			Start:      start,
			End:        end,
			Mid:        start.Add(end).Scale(0.5),
			Length:     Distance(start, end),
			Radius:     radius,
			StartColor: colors[b.First],
			EndColor:   colors[b.Second],
		})
	}
	return scene
}

func sortBonds(bonds []Bond) {
	slices.SortFunc(bonds, func(a, b Bond) int {
		if c := cmp.Compare(a.First, b.First); c != 0 {
			return c
		}
		return cmp.Compare(a.Second, b.Second)
	})
}
