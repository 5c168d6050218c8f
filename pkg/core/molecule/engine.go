package molecule

import (
	"strings"

	"github.com/crowelm/crowelm/pkg/common/code"
)

const (
	RuleDistance = "distance"
	RuleCovalent = "covalent"
)

// Engine carries the configured bond rule, palette and default display
// mode.
type Engine struct {
	Rule    BondRule
	Palette *Palette
	Mode    Mode
}

type EngineConfig struct {
	BondRule      string
	BondTolerance float64
	PalettePath   string
	DefaultMode   string
}

func NewEngine(conf *EngineConfig) (*Engine, error) {
	e := &Engine{Palette: DefaultPalette}

	switch strings.ToLower(conf.BondRule) {
	case RuleDistance, "":
		e.Rule = DistanceRule(BondingThreshold)
	case RuleCovalent:
		e.Rule = CovalentRule{Tolerance: conf.BondTolerance}
	default:
		return nil, code.ParamErr.WithMsgf("unknown bond rule %q", conf.BondRule)
	}

	mode, ok := ParseMode(conf.DefaultMode)
	if !ok {
		return nil, code.ParamErr.WithMsgf("unknown display mode %q", conf.DefaultMode)
	}
	e.Mode = mode

	if conf.PalettePath != "" {
		p, err := LoadPalette(conf.PalettePath)
		if err != nil {
			return nil, err
		}
		e.Palette = p
	}
	return e, nil
}

func (e *Engine) Parse(text string) (*Graph, error) {
	return ParseStructureWith(text, e.Rule)
}

// Graph infers bonds with the engine rule when bonds is nil.
func (e *Engine) Graph(atoms []Atom, bonds []Bond) (*Graph, error) {
	if bonds == nil {
		return &Graph{Atoms: atoms, Bonds: InferBondsWith(atoms, e.Rule)}, nil
	}
	return NewGraph(atoms, bonds)
}

// Scene lays out g in mode, or in the engine default when mode is empty.
func (e *Engine) Scene(g *Graph, mode Mode) *Scene {
	if mode == "" {
		mode = e.Mode
	}
	return e.Palette.BuildScene(g, mode)
}
