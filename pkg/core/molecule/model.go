package molecule

import (
	"fmt"
	"math"
	"strings"
)

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3) Scale(f float64) Vec3 { return Vec3{v.X * f, v.Y * f, v.Z * f} }

func (v Vec3) Len() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

func Distance(a, b Vec3) float64 { return a.Sub(b).Len() }

// Atom is one positioned atom. The metadata fields are only filled when the
// atom came from a structure file.
type Atom struct {
	Element  string `json:"element"`
	Position Vec3   `json:"position"`

	Serial  int    `json:"serial,omitempty"`
	Name    string `json:"name,omitempty"`
	Residue string `json:"residue,omitempty"`
	Chain   string `json:"chain,omitempty"`
	ResSeq  int    `json:"res_seq,omitempty"`
	Hetero  bool   `json:"hetero,omitempty"`
}

// Bond joins two atoms by index. First is always smaller than Second.
type Bond struct {
	First  int `json:"first"`
	Second int `json:"second"`
	Order  int `json:"order"`
}

type Graph struct {
	Atoms []Atom `json:"atoms"`
	Bonds []Bond `json:"bonds"`
}

type Mode string

const (
	BallStick Mode = "ball-stick"
	SpaceFill Mode = "space-fill"
	Wireframe Mode = "wireframe"
)

func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case BallStick, "":
		return BallStick, true
	case SpaceFill:
		return SpaceFill, true
	case Wireframe:
		return Wireframe, true
	default:
		return "", false
	}
}

type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

func RGB(hex uint32) Color {
	return Color{R: uint8(hex >> 16), G: uint8(hex >> 8), B: uint8(hex)}
}

func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}
