package molecule

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crowelm/crowelm/pkg/core/molecule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waterPDB = `HETATM    1  O   HOH A   1       0.000   0.000   0.000  1.00  0.00           O
HETATM    2  H1  HOH A   1       0.957   0.000   0.000  1.00  0.00           H
HETATM    3  H2  HOH A   1      -0.240   0.927   0.000  1.00  0.00           H
END
`

func TestRender(t *testing.T) {
	g, err := molecule.ParseStructure(waterPDB)
	require.NoError(t, err)

	var buf bytes.Buffer
	Render(&buf, g)
	out := buf.String()
	assert.Contains(t, out, "Formula:  H2O")
	assert.Contains(t, out, "Atoms:    3")
	assert.Contains(t, out, "Bonds:    3")
	assert.Contains(t, out, "HOH")
	assert.Contains(t, out, "0.957")
}

func TestInspectCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "water.pdb")
	require.NoError(t, os.WriteFile(path, []byte(waterPDB), 0o600))

	var buf bytes.Buffer
	cmd := New()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"inspect", path})
	require.NoError(t, cmd.Execute())
	assert.True(t, strings.HasPrefix(buf.String(), "Formula:  H2O"))

	buf.Reset()
	cmd = New()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"inspect", "--scene", "--mode", "wireframe", path})
	require.NoError(t, cmd.Execute())
	scene := &molecule.Scene{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), scene))
	assert.Equal(t, molecule.Wireframe, scene.Mode)
	assert.Empty(t, scene.Spheres)
	assert.Len(t, scene.Cylinders, 3)
}

func TestInspectMissingFile(t *testing.T) {
	cmd := New()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"inspect", filepath.Join(t.TempDir(), "nope.pdb")})
	assert.Error(t, cmd.Execute())
}
