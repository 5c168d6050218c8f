package molecule

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/crowelm/crowelm/pkg/common/code"
	"gopkg.in/yaml.v2"
)

// Palette resolves display attributes, consulting overrides before the
// built-in element table.
type Palette struct {
	Colors   map[string]string  `yaml:"colors"`
	Radii    map[string]float64 `yaml:"radii"`
	Fallback string             `yaml:"fallback"`

	colors   map[string]Color
	fallback Color
}

var DefaultPalette = &Palette{fallback: defaultColor}

func LoadPalette(path string) (*Palette, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, code.ParamErr.WithMsgf("read palette %s", path).WithErr(err)
	}
	return ParsePalette(data)
}

func ParsePalette(data []byte) (*Palette, error) {
	p := &Palette{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, code.ParamErr.WithMsg("decode palette").WithErr(err)
	}

	p.colors = make(map[string]Color, len(p.Colors))
	for sym, hex := range p.Colors {
		c, err := parseHexColor(hex)
		if err != nil {
			return nil, code.ParamErr.WithMsgf("palette color %s", sym).WithErr(err)
		}
		p.colors[NormalizeElement(sym)] = c
	}

	radii := make(map[string]float64, len(p.Radii))
	for sym, r := range p.Radii {
		if r <= 0 {
			return nil, code.ParamErr.WithMsgf("palette radius %s: must be positive, got %v", sym, r)
		}
		radii[NormalizeElement(sym)] = r
	}
	p.Radii = radii

	p.fallback = defaultColor
	if p.Fallback != "" {
		c, err := parseHexColor(p.Fallback)
		if err != nil {
			return nil, code.ParamErr.WithMsg("palette fallback").WithErr(err)
		}
		p.fallback = c
	}
	return p, nil
}

func parseHexColor(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("want 6 hex digits, got %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, err
	}
	return RGB(uint32(v)), nil
}

func (p *Palette) Color(symbol string) Color {
	symbol = NormalizeElement(symbol)
	if c, ok := p.colors[symbol]; ok {
		return c
	}
	if e, ok := elements[symbol]; ok {
		return e.color
	}
	return p.fallback
}

func (p *Palette) Radius(symbol string, mode Mode) float64 {
	scale, ok := modeScale[mode]
	if !ok {
		scale = modeScale[BallStick]
	}
	if scale == 0 {
		return 0
	}

	symbol = NormalizeElement(symbol)
	if r, ok := p.Radii[symbol]; ok {
		return r * scale
	}
	if e, ok := elements[symbol]; ok {
		return e.vdw * scale
	}
	return defaultVDW * scale
}
