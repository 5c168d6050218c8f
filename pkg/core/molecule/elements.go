package molecule

import (
	"strings"
	"unicode"
)

type element struct {
	color    Color
	vdw      float64
	covalent float64
}

const (
	defaultVDW      = 1.5
	defaultCovalent = 0.77
)

var defaultColor = RGB(0xFF1493)

// Colors follow the Jmol CPK scheme, vdW radii are Bondi's, covalent radii
// are Cordero et al. (2008).
var elements = map[string]element{
	"H":  {RGB(0xFFFFFF), 1.20, 0.31},
	"He": {RGB(0xD9FFFF), 1.40, 0.28},
	"Li": {RGB(0xCC80FF), 1.82, 1.28},
	"B":  {RGB(0xFFB5B5), 1.92, 0.84},
	"C":  {RGB(0x909090), 1.70, 0.76},
	"N":  {RGB(0x3050F8), 1.55, 0.71},
	"O":  {RGB(0xFF0D0D), 1.52, 0.66},
	"F":  {RGB(0x90E050), 1.47, 0.57},
	"Na": {RGB(0xAB5CF2), 2.27, 1.66},
	"Mg": {RGB(0x8AFF00), 1.73, 1.41},
	"Si": {RGB(0xF0C8A0), 2.10, 1.11},
	"P":  {RGB(0xFF8000), 1.80, 1.07},
	"S":  {RGB(0xFFFF30), 1.80, 1.05},
	"Cl": {RGB(0x1FF01F), 1.75, 1.02},
	"K":  {RGB(0x8F40D4), 2.75, 2.03},
	"Ca": {RGB(0x3DFF00), 2.31, 1.76},
	"Mn": {RGB(0x9C7AC7), 2.00, 1.39},
	"Fe": {RGB(0xE06633), 2.00, 1.32},
	"Co": {RGB(0xF090A0), 2.00, 1.26},
	"Ni": {RGB(0x50D050), 1.63, 1.24},
	"Cu": {RGB(0xC88033), 1.40, 1.32},
	"Zn": {RGB(0x7D80B0), 1.39, 1.22},
	"Se": {RGB(0xFFA100), 1.90, 1.20},
	"Br": {RGB(0xA62929), 1.85, 1.20},
	"I":  {RGB(0x940094), 1.98, 1.39},
}

var modeScale = map[Mode]float64{
	BallStick: 0.3,
	SpaceFill: 1.0,
	Wireframe: 0,
}

// NormalizeElement turns "CL", " cl " and "Cl" into "Cl".
func NormalizeElement(symbol string) string {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return ""
	}
	r := []rune(strings.ToLower(symbol))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func knownElement(symbol string) bool {
	_, ok := elements[symbol]
	return ok
}

func ElementColor(symbol string) Color {
	return DefaultPalette.Color(symbol)
}

// ElementRadius is the display radius of an atom sphere. Wireframe returns 0:
// no sphere is drawn.
func ElementRadius(symbol string, mode Mode) float64 {
	return DefaultPalette.Radius(symbol, mode)
}

func CovalentRadius(symbol string) float64 {
	if e, ok := elements[NormalizeElement(symbol)]; ok {
		return e.covalent
	}
	return defaultCovalent
}
