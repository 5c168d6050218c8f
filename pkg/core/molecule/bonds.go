package molecule

import (
	"github.com/crowelm/crowelm/pkg/common/code"
)

// BondingThreshold is the uniform interatomic distance under which two atoms
// are drawn as bonded.
const BondingThreshold = 1.9

// BondRule decides whether two atoms are bonded.
type BondRule interface {
	Bonded(a, b Atom, dist float64) bool
}

type DistanceRule float64

func (r DistanceRule) Bonded(_, _ Atom, dist float64) bool {
	return dist < float64(r)
}

// CovalentRule bonds two atoms when they are closer than the sum of their
// covalent radii plus Tolerance.
type CovalentRule struct {
	Tolerance float64
}

func (r CovalentRule) Bonded(a, b Atom, dist float64) bool {
	return dist < CovalentRadius(a.Element)+CovalentRadius(b.Element)+r.Tolerance
}

// InferBonds compares every pair of atoms, O(n²) in the atom count.
func InferBonds(atoms []Atom) []Bond {
	return InferBondsWith(atoms, DistanceRule(BondingThreshold))
}

func InferBondsWith(atoms []Atom, rule BondRule) []Bond {
	bonds := make([]Bond, 0, len(atoms))
	for i := 0; i < len(atoms); i++ {
		for j := i + 1; j < len(atoms); j++ {
			if rule.Bonded(atoms[i], atoms[j], Distance(atoms[i].Position, atoms[j].Position)) {
				bonds = append(bonds, Bond{First: i, Second: j, Order: 1})
			}
		}
	}
	return bonds
}

// NewGraph builds a graph from atoms and optional caller-supplied bonds. A nil
// bonds slice means the bonds are inferred.
func NewGraph(atoms []Atom, bonds []Bond) (*Graph, error) {
	if bonds == nil {
		return &Graph{Atoms: atoms, Bonds: InferBonds(atoms)}, nil
	}

	normalized, err := normalizeBonds(len(atoms), bonds)
	if err != nil {
		return nil, err
	}
	return &Graph{Atoms: atoms, Bonds: normalized}, nil
}

func normalizeBonds(atomCount int, bonds []Bond) ([]Bond, error) {
	type pair struct{ a, b int }
	seen := make(map[pair]struct{}, len(bonds))
	out := make([]Bond, 0, len(bonds))
	for i, b := range bonds {
		if b.First < 0 || b.First >= atomCount || b.Second < 0 || b.Second >= atomCount {
			return nil, code.ValidationErr.WithMsgf("bond %d references atom out of range [0,%d)", i, atomCount)
		}
		if b.First == b.Second {
			return nil, code.ValidationErr.WithMsgf("bond %d joins atom %d to itself", i, b.First)
		}
		if b.First > b.Second {
			b.First, b.Second = b.Second, b.First
		}
		if b.Order <= 0 {
			b.Order = 1
		}
		k := pair{b.First, b.Second}
		if _, ok := seen[k]; ok {
			return nil, code.ValidationErr.WithMsgf("bond %d duplicates pair (%d,%d)", i, b.First, b.Second)
		}
		seen[k] = struct{}{}
		out = append(out, b)
	}
	return out, nil
}

// Validate checks the graph invariants.
func (g *Graph) Validate() error {
	_, err := normalizeBonds(len(g.Atoms), g.Bonds)
	return err
}
