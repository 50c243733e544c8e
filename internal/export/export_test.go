package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/arbor/internal/config"
	"github.com/san-kum/arbor/internal/model"
	"github.com/san-kum/arbor/internal/scene"
	"github.com/san-kum/arbor/internal/viz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScene(t *testing.T) *scene.Scene {
	t.Helper()
	cfg := *config.GetPreset("forest")
	cfg.Forest.Count = 2
	cfg.Forest.Seed = 5
	cfg.Iterations = 1
	unit, err := model.Builtin("cylinder")
	require.NoError(t, err)
	sc, err := scene.Assemble(cfg, unit, nil)
	require.NoError(t, err)
	return sc
}

func TestJSON(t *testing.T) {
	sc := testScene(t)
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, sc))

	var data Data
	require.NoError(t, json.Unmarshal(buf.Bytes(), &data))
	assert.Equal(t, "forest", data.Name)
	assert.Equal(t, "cylinder", data.Model.Name)
	require.Len(t, data.Instances, 2)
	require.Len(t, data.Instances[0], 5)
	assert.Equal(t, [16]float32(sc.Instances[1][3]), data.Instances[1][3])
}

func TestCSV(t *testing.T) {
	sc := testScene(t)
	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, sc))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, sc.Len()+1)
	assert.Equal(t, "instance", records[0][0])
	assert.Len(t, records[1], 18)
}

func TestOBJ(t *testing.T) {
	sc := testScene(t)
	mesh := model.Cylinder(6, 0.1, 1)

	var buf bytes.Buffer
	require.NoError(t, OBJ(&buf, sc, mesh))

	back, err := model.ParseOBJ(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Len(t, back.Positions, sc.Len()*len(mesh.Positions))
	assert.Len(t, back.Faces, sc.Len()*len(mesh.Faces))
	assert.InDelta(t, sc.Height, back.MaxY(), 1e-3)
	assert.Equal(t, 2, strings.Count(buf.String(), "\no instance_"))
}

func TestSVG(t *testing.T) {
	sc := testScene(t)
	opts := DefaultOptions()
	opts.Ground = true
	out := SVG(sc, nil, opts)

	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.True(t, strings.HasSuffix(out, "</svg>\n"))
	lines := strings.Count(out, "<line ")
	assert.Greater(t, lines, 4)
	assert.LessOrEqual(t, lines, sc.Len()+4)
	assert.Contains(t, out, opts.Background)
}

func TestPNG(t *testing.T) {
	sc := testScene(t)
	opts := DefaultOptions()
	opts.Width, opts.Height = 120, 90

	var buf bytes.Buffer
	require.NoError(t, PNG(&buf, sc, nil, opts))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 90, img.Bounds().Dy())
}

func TestFile(t *testing.T) {
	sc := testScene(t)
	dir := t.TempDir()

	for _, name := range []string{"out.json", "out.csv", "out.obj", "out.svg", "out.png"} {
		path := filepath.Join(dir, name)
		require.NoError(t, File(path, sc, nil, DefaultOptions()), name)
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size(), name)
	}

	assert.ErrorIs(t, File(filepath.Join(dir, "out.gif"), sc, nil, DefaultOptions()), ErrUnknownFormat)
	assert.ErrorIs(t, Write(&bytes.Buffer{}, "bmp", sc, nil, DefaultOptions()), ErrUnknownFormat)
}

func TestFormats(t *testing.T) {
	assert.Equal(t, []string{"csv", "json", "obj", "png", "svg"}, Formats())

	f, err := FormatFor("tree.SVG")
	require.NoError(t, err)
	assert.Equal(t, "svg", f)
}

func TestThemeOptions(t *testing.T) {
	opts := ThemeOptions(viz.ThemeAutumn)
	assert.Equal(t, string(viz.ThemeAutumn.Trunk), opts.Trunk)
	assert.Equal(t, 800, opts.Width)
}
