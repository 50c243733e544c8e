package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/san-kum/arbor/internal/config"
	"github.com/san-kum/arbor/internal/model"
	"github.com/san-kum/arbor/internal/scene"
)

func testScene(t *testing.T) (config.Config, *scene.Scene) {
	t.Helper()
	cfg := *config.GetPreset("forest")
	cfg.Forest.Count = 3
	cfg.Forest.Seed = 42
	cfg.Iterations = 2

	unit, err := model.Builtin("branch")
	if err != nil {
		t.Fatal(err)
	}
	sc, err := scene.Assemble(cfg, unit, nil)
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	return cfg, sc
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg, sc := testScene(t)
	runID, err := st.Save(cfg, sc)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if meta.Name != "forest" {
		t.Errorf("expected name 'forest', got '%s'", meta.Name)
	}
	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if meta.Model.Name != "branch" {
		t.Errorf("expected model branch, got %s", meta.Model.Name)
	}
	if meta.Instances != 3 || meta.Transforms != sc.Len() {
		t.Errorf("unexpected counts %d instances, %d transforms", meta.Instances, meta.Transforms)
	}

	groups, err := st.LoadTransforms(runID)
	if err != nil {
		t.Fatalf("load transforms failed: %v", err)
	}
	if len(groups) != 3 {
		t.Fatalf("expected 3 instances, got %d", len(groups))
	}
	for i := range groups {
		if len(groups[i]) != len(sc.Instances[i]) {
			t.Fatalf("instance %d: expected %d transforms, got %d", i, len(sc.Instances[i]), len(groups[i]))
		}
		for j := range groups[i] {
			if !groups[i][j].ApproxEqualThreshold(sc.Instances[i][j], 1e-5) {
				t.Errorf("transform %d/%d changed in storage", i, j)
			}
		}
	}

	loaded, err := st.LoadConfig(runID)
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	if !loaded.Equal(cfg) {
		t.Errorf("config changed in storage:\n got %+v\nwant %+v", loaded, cfg)
	}
}

func TestStoreLoadScene(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	cfg, sc := testScene(t)
	runID, err := st.Save(cfg, sc)
	if err != nil {
		t.Fatal(err)
	}

	back, err := st.LoadScene(runID)
	if err != nil {
		t.Fatalf("load scene failed: %v", err)
	}
	if back.Len() != sc.Len() {
		t.Errorf("expected %d segments, got %d", sc.Len(), back.Len())
	}
	if back.Model != sc.Model {
		t.Errorf("expected model %+v, got %+v", sc.Model, back.Model)
	}
	if back.Config.Name != "forest" {
		t.Errorf("expected stored config, got %+v", back.Config)
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	cfg, sc := testScene(t)
	first, err := st.Save(cfg, sc)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	cfg.Name = "second"
	if _, err := st.Save(cfg, sc); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	os.MkdirAll(filepath.Join(tmpDir, "junk"), 0755)

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != first {
		t.Errorf("expected oldest run first, got %s", runs[0].ID)
	}
}

func TestStoreListMissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "absent")).List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}
}

func TestStoreRunNotFound(t *testing.T) {
	st := New(t.TempDir())

	for _, id := range []string{"missing", "", "..", "a/b"} {
		if _, err := st.Load(id); !errors.Is(err, ErrRunNotFound) {
			t.Errorf("load %q: expected ErrRunNotFound, got %v", id, err)
		}
	}
	if _, err := st.LoadTransforms("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func appendTransformRow(t *testing.T, path string, instance int) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.WriteString(strings.Join(TransformRow(instance, 0, mgl32.Ident4()), ",") + "\n"); err != nil {
		t.Fatal(err)
	}
}

func TestStoreLoadTransformsRejectsInstanceOutOfRange(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	cfg, sc := testScene(t)
	runID, err := st.Save(cfg, sc)
	if err != nil {
		t.Fatal(err)
	}
	runDir := filepath.Join(tmpDir, runID)
	csvPath := filepath.Join(runDir, "transforms.csv")

	// one past the recorded instance count
	appendTransformRow(t, csvPath, len(sc.Instances))
	if _, err := st.LoadTransforms(runID); err == nil {
		t.Fatal("expected error for instance beyond the recorded count")
	}

	// without metadata the bound falls back to the forest limit
	if err := os.Remove(filepath.Join(runDir, "metadata.json")); err != nil {
		t.Fatal(err)
	}
	if _, err := st.LoadTransforms(runID); err != nil {
		t.Fatalf("instance %d is under the tree limit: %v", len(sc.Instances), err)
	}
	appendTransformRow(t, csvPath, 2000000000)
	if _, err := st.LoadTransforms(runID); err == nil {
		t.Fatal("expected error for corrupt instance index")
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg, sc := testScene(t)
	runID, err := st.Save(cfg, sc)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	for _, name := range []string{"metadata.json", "transforms.csv", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(runDir, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}
