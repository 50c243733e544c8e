// Package export writes generated scenes to files other tools can read.
package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/san-kum/arbor/internal/model"
	"github.com/san-kum/arbor/internal/scene"
	"github.com/san-kum/arbor/internal/storage"
)

var ErrUnknownFormat = errors.New("export: unknown format")

type Data struct {
	Name      string         `json:"name,omitempty"`
	Model     model.Unit     `json:"model"`
	Height    float32        `json:"height"`
	Symbols   int64          `json:"symbols"`
	Seed      int64          `json:"seed,omitempty"`
	Instances [][][16]float32 `json:"instances"`
}

// JSON writes the scene with every matrix in column-major order.
func JSON(w io.Writer, sc *scene.Scene) error {
	data := Data{
		Name:      sc.Config.Name,
		Model:     sc.Model,
		Height:    sc.Height,
		Symbols:   sc.Symbols,
		Seed:      sc.Seed,
		Instances: make([][][16]float32, len(sc.Instances)),
	}
	for i, g := range sc.Instances {
		data.Instances[i] = make([][16]float32, len(g))
		for j, m := range g {
			data.Instances[i][j] = m
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// CSV writes one row per transform in the same layout as stored runs.
func CSV(w io.Writer, sc *scene.Scene) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(storage.TransformHeader()); err != nil {
		return err
	}
	for i, g := range sc.Instances {
		for j, m := range g {
			if err := cw.Write(storage.TransformRow(i, j, m)); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// OBJ bakes mesh through every transform of the scene into one Wavefront
// object per instance.
func OBJ(w io.Writer, sc *scene.Scene, mesh *model.Mesh) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %d segments, %d instances\n", sc.Len(), len(sc.Instances))

	base := 1
	for i, g := range sc.Instances {
		fmt.Fprintf(bw, "o instance_%d\n", i)
		for _, t := range g {
			for _, p := range mesh.Positions {
				v := t.Mul4x1(p.Vec4(1))
				fmt.Fprintf(bw, "v %g %g %g\n", v.X(), v.Y(), v.Z())
			}
			for _, f := range mesh.Faces {
				fmt.Fprintf(bw, "f %d %d %d\n", f[0]+base, f[1]+base, f[2]+base)
			}
			base += len(mesh.Positions)
		}
	}
	return bw.Flush()
}

// Options control the image exporters.
type Options struct {
	Width, Height int
	Background    string
	// Trunk and Leaf are "#rrggbb" colors blended from the ground up.
	Trunk, Leaf string
	LineWidth   float64
	Ground      bool
}

func DefaultOptions() Options {
	return Options{
		Width: 800, Height: 800,
		Background: "#0d140d",
		Trunk:      "#8b5a2b",
		Leaf:       "#7ccf5a",
		LineWidth:  1.5,
	}
}

// Formats lists the names accepted by File.
func Formats() []string {
	names := make([]string, 0, len(writers))
	for n := range writers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FormatFor picks a format from a file extension.
func FormatFor(path string) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if _, ok := writers[ext]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	return ext, nil
}

type writer func(w io.Writer, sc *scene.Scene, mesh *model.Mesh, opts Options) error

var writers = map[string]writer{
	"json": func(w io.Writer, sc *scene.Scene, _ *model.Mesh, _ Options) error { return JSON(w, sc) },
	"csv":  func(w io.Writer, sc *scene.Scene, _ *model.Mesh, _ Options) error { return CSV(w, sc) },
	"obj":  func(w io.Writer, sc *scene.Scene, mesh *model.Mesh, _ Options) error { return OBJ(w, sc, mesh) },
	"svg": func(w io.Writer, sc *scene.Scene, _ *model.Mesh, opts Options) error {
		_, err := io.WriteString(w, SVG(sc, nil, opts))
		return err
	},
	"png": func(w io.Writer, sc *scene.Scene, _ *model.Mesh, opts Options) error {
		return PNG(w, sc, nil, opts)
	},
}

// Write encodes sc in the named format. mesh is only used for OBJ; nil
// selects a cylinder matching the scene's unit.
func Write(w io.Writer, format string, sc *scene.Scene, mesh *model.Mesh, opts Options) error {
	fn, ok := writers[format]
	if !ok {
		return fmt.Errorf("%w: %q (available: %v)", ErrUnknownFormat, format, Formats())
	}
	if mesh == nil {
		mesh = model.MeshFor(sc.Model, 8)
	}
	return fn(w, sc, mesh, opts)
}

// File writes sc to path in the format given by its extension.
func File(path string, sc *scene.Scene, mesh *model.Mesh, opts Options) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, format, sc, mesh, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
