package molecule

import (
	"math/rand/v2"
	"testing"

	"github.com/crowelm/crowelm/pkg/common/code"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func atomAt(el string, x, y, z float64) Atom {
	return Atom{Element: el, Position: Vec3{X: x, Y: y, Z: z}}
}

func TestInferBonds_Threshold(t *testing.T) {
	t.Run("close pair bonds", func(t *testing.T) {
		bonds := InferBonds([]Atom{atomAt("C", 0, 0, 0), atomAt("C", 1.0, 0, 0)})
		require.Len(t, bonds, 1)
		assert.Equal(t, Bond{First: 0, Second: 1, Order: 1}, bonds[0])
	})

	t.Run("distant pair does not bond", func(t *testing.T) {
		bonds := InferBonds([]Atom{atomAt("C", 0, 0, 0), atomAt("C", 5, 0, 0)})
		assert.Empty(t, bonds)
	})

	t.Run("threshold is exclusive", func(t *testing.T) {
		bonds := InferBonds([]Atom{atomAt("C", 0, 0, 0), atomAt("C", BondingThreshold, 0, 0)})
		assert.Empty(t, bonds)
	})

	t.Run("empty and single atom", func(t *testing.T) {
		assert.Empty(t, InferBonds(nil))
		assert.Empty(t, InferBonds([]Atom{atomAt("O", 0, 0, 0)}))
	})
}

func TestInferBonds_NoSelfOrDuplicatePairs(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for round := 0; round < 20; round++ {
		atoms := make([]Atom, 40)
		for i := range atoms {
			atoms[i] = atomAt("C", rng.Float64()*6, rng.Float64()*6, rng.Float64()*6)
		}

		seen := map[[2]int]bool{}
		for _, b := range InferBonds(atoms) {
			assert.NotEqual(t, b.First, b.Second)
			assert.Less(t, b.First, b.Second)
			assert.False(t, seen[[2]int{b.First, b.Second}], "duplicate pair %v", b)
			assert.False(t, seen[[2]int{b.Second, b.First}], "reversed pair %v", b)
			seen[[2]int{b.First, b.Second}] = true
		}
	}
}

func TestInferBondsWith_CovalentRule(t *testing.T) {
	// C-H at 1.09 bonds; H-H at 1.8 does not under covalent radii even
	// though it is under the uniform threshold.
	atoms := []Atom{atomAt("C", 0, 0, 0), atomAt("H", 1.09, 0, 0), atomAt("H", 1.09, 1.8, 0)}

	uniform := InferBonds(atoms)
	covalent := InferBondsWith(atoms, CovalentRule{Tolerance: 0.45})

	assert.Contains(t, covalent, Bond{First: 0, Second: 1, Order: 1})
	assert.NotContains(t, covalent, Bond{First: 1, Second: 2, Order: 1})
	assert.Contains(t, uniform, Bond{First: 1, Second: 2, Order: 1})
}

func TestNewGraph(t *testing.T) {
	atoms := []Atom{atomAt("C", 0, 0, 0), atomAt("O", 1.2, 0, 0), atomAt("O", 9, 0, 0)}

	t.Run("nil bonds are inferred", func(t *testing.T) {
		g, err := NewGraph(atoms, nil)
		require.NoError(t, err)
		assert.Equal(t, []Bond{{First: 0, Second: 1, Order: 1}}, g.Bonds)
	})

	t.Run("supplied bonds are normalized", func(t *testing.T) {
		g, err := NewGraph(atoms, []Bond{{First: 2, Second: 0, Order: 2}, {First: 0, Second: 1}})
		require.NoError(t, err)
		assert.Equal(t, []Bond{{First: 0, Second: 2, Order: 2}, {First: 0, Second: 1, Order: 1}}, g.Bonds)
		assert.NoError(t, g.Validate())
	})

	cases := map[string][]Bond{
		"self bond":     {{First: 1, Second: 1}},
		"out of range":  {{First: 0, Second: 3}},
		"negative":      {{First: -1, Second: 0}},
		"reversed dupe": {{First: 0, Second: 1}, {First: 1, Second: 0}},
	}
	for name, bonds := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewGraph(atoms, bonds)
			assert.ErrorIs(t, err, code.ValidationErr)
		})
	}
}
