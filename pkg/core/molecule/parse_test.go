package molecule

import (
	"fmt"
	"strings"
	"testing"

	"github.com/crowelm/crowelm/pkg/common/code"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pdbAtom(record string, serial int, name, res string, x, y, z float64, element string) string {
	return fmt.Sprintf("%-6s%5d %-4s %3s A%4d    %8.3f%8.3f%8.3f%6.2f%6.2f          %2s",
		record, serial, name, res, 1, x, y, z, 1.0, 0.0, element)
}

func TestParseStructure_TwoAtoms(t *testing.T) {
	text := strings.Join([]string{
		"HEADER    TEST",
		"ATOM      1  N   ALA A   1      11.104   6.134  -6.504  1.00  0.00           N",
		"HETATM    2 FE   HEM A 101       1.500  -2.250   0.125  1.00  0.00          FE",
		"END",
	}, "\n")

	g, err := ParseStructure(text)
	require.NoError(t, err)
	require.Len(t, g.Atoms, 2)

	n, fe := g.Atoms[0], g.Atoms[1]
	assert.Equal(t, "N", n.Element)
	assert.Equal(t, Vec3{X: 11.104, Y: 6.134, Z: -6.504}, n.Position)
	assert.Equal(t, 1, n.Serial)
	assert.Equal(t, "N", n.Name)
	assert.Equal(t, "ALA", n.Residue)
	assert.Equal(t, "A", n.Chain)
	assert.False(t, n.Hetero)

	assert.Equal(t, "Fe", fe.Element)
	assert.Equal(t, Vec3{X: 1.5, Y: -2.25, Z: 0.125}, fe.Position)
	assert.Equal(t, 101, fe.ResSeq)
	assert.True(t, fe.Hetero)

	// far apart: no inferred bond
	assert.Empty(t, g.Bonds)
}

func TestParseStructure_InfersBonds(t *testing.T) {
	text := strings.Join([]string{
		pdbAtom("HETATM", 1, "C1", "ETH", 0, 0, 0, "C"),
		pdbAtom("HETATM", 2, "C2", "ETH", 1.54, 0, 0, "C"),
		pdbAtom("HETATM", 3, "O1", "ETH", 2.1, 1.3, 0, "O"),
		"TER",
	}, "\n")

	g, err := ParseStructure(text)
	require.NoError(t, err)
	require.Len(t, g.Atoms, 3)
	assert.Equal(t, []Bond{{First: 0, Second: 1, Order: 1}, {First: 1, Second: 2, Order: 1}}, g.Bonds)
}

func TestParseStructure_ElementFallback(t *testing.T) {
	// lines end before the element columns
	text := strings.Join([]string{
		"ATOM      1  CA  GLY A   1       0.000   0.000   0.000  1.00  0.00",
		"HETATM    2 CA    CA B 201       9.000   0.000   0.000  1.00  0.00",
		"ATOM      3 HG21 THR A   2      20.000   0.000   0.000",
		"HETATM    4 CL1  LIG C   1      30.000   0.000   0.000",
	}, "\n")

	g, err := ParseStructure(text)
	require.NoError(t, err)
	require.Len(t, g.Atoms, 4)
	assert.Equal(t, "C", g.Atoms[0].Element)
	assert.Equal(t, "Ca", g.Atoms[1].Element)
	assert.Equal(t, "H", g.Atoms[2].Element)
	assert.Equal(t, "Cl", g.Atoms[3].Element)
}

func TestParseStructure_MalformedCoordinateFails(t *testing.T) {
	text := strings.Join([]string{
		"ATOM      1  N   ALA A   1      11.104   6.134  -6.504  1.00  0.00           N",
		"ATOM      2  CA  ALA A   1      12.abc   6.134  -6.504  1.00  0.00           C",
	}, "\n")

	_, err := ParseStructure(text)
	require.Error(t, err)
	assert.ErrorIs(t, err, code.ValidationErr)
	assert.Contains(t, err.Error(), "line 2")
}

func TestParseStructure_TruncatedRecordFails(t *testing.T) {
	_, err := ParseStructure("ATOM      1  N   ALA A   1      11.104")
	assert.ErrorIs(t, err, code.ValidationErr)
}

func TestParseStructure_IgnoresOtherRecords(t *testing.T) {
	g, err := ParseStructure("REMARK nothing here\nANISOU    1  N\n\nEND\n")
	require.NoError(t, err)
	assert.Empty(t, g.Atoms)
	assert.Empty(t, g.Bonds)
}

func TestParseStructure_ConectBonds(t *testing.T) {
	text := strings.Join([]string{
		pdbAtom("HETATM", 10, "C1", "FOR", 0, 0, 0, "C"),
		pdbAtom("HETATM", 11, "O1", "FOR", 1.2, 0, 0, "O"),
		pdbAtom("HETATM", 12, "O2", "FOR", -0.6, 1.1, 0, "O"),
		"CONECT   10   11   11   12",
		"CONECT   11   10   10",
		"CONECT   12   10",
		"CONECT   12   99",
	}, "\n")

	g, err := ParseStructure(text)
	require.NoError(t, err)
	assert.Equal(t, []Bond{
		{First: 0, Second: 1, Order: 2},
		{First: 0, Second: 2, Order: 1},
	}, g.Bonds)
}

func TestParseStructure_ConectMergesWithInferred(t *testing.T) {
	text := strings.Join([]string{
		pdbAtom("ATOM", 1, "N", "ALA", 0, 0, 0, "N"),
		pdbAtom("ATOM", 2, "CA", "ALA", 1.45, 0, 0, "C"),
		pdbAtom("HETATM", 3, "C1", "LIG", 10, 0, 0, "C"),
		pdbAtom("HETATM", 4, "O1", "LIG", 11.2, 0, 0, "O"),
		pdbAtom("HETATM", 5, "S1", "LIG", 13.5, 0, 0, "S"),
		"CONECT    3    4    4",
		"CONECT    4    5",
	}, "\n")

	g, err := ParseStructure(text)
	require.NoError(t, err)
	assert.Equal(t, []Bond{
		{First: 0, Second: 1, Order: 1},
		{First: 2, Second: 3, Order: 2},
		{First: 3, Second: 4, Order: 1},
	}, g.Bonds)
}

func TestParseStructure_BadConect(t *testing.T) {
	_, err := ParseStructure("CONECT   1x   11")
	assert.ErrorIs(t, err, code.ValidationErr)
}
