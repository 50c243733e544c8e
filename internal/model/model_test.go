package model

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quadOBJ = `# unit quad
o panel
v -0.5 0 0
v 0.5 0 0
v 0.5 2.5 0
v -0.5 2.5 0
f 1/1/1 2/2/1 3/3/1 4/4/1
`

func TestBuiltin(t *testing.T) {
	u, err := Builtin("cylinder")
	require.NoError(t, err)
	assert.Equal(t, float32(1), u.Height)

	_, err = Builtin("monkey")
	assert.ErrorIs(t, err, ErrUnknownModel)
	assert.Contains(t, Names(), "twig")
}

func TestParseOBJ(t *testing.T) {
	m, err := ParseOBJ(strings.NewReader(quadOBJ))
	require.NoError(t, err)

	assert.Equal(t, "panel", m.Name)
	assert.Len(t, m.Positions, 4)
	assert.Equal(t, [][3]int{{0, 1, 2}, {0, 2, 3}}, m.Faces)
	assert.Equal(t, float32(2.5), m.MaxY())

	u, err := m.Unit()
	require.NoError(t, err)
	assert.Equal(t, float32(2.5), u.Height)
	assert.InDelta(t, 0.5, u.Radius, 1e-6)
}

func TestParseOBJNegativeIndices(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf -3 -2 -1\n"
	m, err := ParseOBJ(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, [][3]int{{0, 1, 2}}, m.Faces)
}

func TestParseOBJErrors(t *testing.T) {
	tests := map[string]string{
		"empty":       "# nothing\n",
		"short v":     "v 1 2\n",
		"bad float":   "v 1 x 2\n",
		"bad face":    "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 9\n",
		"short face":  "v 0 0 0\nf 1 1\n",
		"face syntax": "v 0 0 0\nv 1 0 0\nv 0 1 0\nf a b c\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseOBJ(strings.NewReader(src))
			assert.Error(t, err)
		})
	}
	_, err := ParseOBJ(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyMesh)
}

func TestLoadOBJ(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "leaf.obj")
	require.NoError(t, os.WriteFile(path, []byte("v 0 0 0\nv 0 3 0\nv 1 0 0\nf 1 2 3\n"), 0644))

	m, err := LoadOBJ(path)
	require.NoError(t, err)
	assert.Equal(t, "leaf", m.Name)
	assert.Equal(t, float32(3), m.MaxY())

	_, err = LoadOBJ(filepath.Join(dir, "missing.obj"))
	assert.Error(t, err)
}

func TestCylinder(t *testing.T) {
	m := Cylinder(8, 0.2, 1.5)
	assert.Len(t, m.Positions, 8*2+2)
	assert.Len(t, m.Faces, 8*4)
	assert.InDelta(t, 1.5, m.MaxY(), 1e-6)
	assert.InDelta(t, 0.2, m.Radius(), 1e-5)

	assert.Len(t, Cylinder(1, 1, 1).Positions, 3*2+2)
}

func TestWriteOBJRoundTrip(t *testing.T) {
	m := MeshFor(Unit{Name: "twig", Height: 2, Radius: 0.05}, 6)

	var buf bytes.Buffer
	require.NoError(t, m.WriteOBJ(&buf))

	back, err := ParseOBJ(&buf)
	require.NoError(t, err)
	assert.Equal(t, "twig", back.Name)
	assert.Equal(t, m.Faces, back.Faces)
	assert.InDelta(t, 2, back.MaxY(), 1e-6)
}

func TestEmptyMeshUnit(t *testing.T) {
	_, err := (&Mesh{}).Unit()
	assert.ErrorIs(t, err, ErrEmptyMesh)
	assert.Equal(t, float32(0), (&Mesh{}).MaxY())
}
