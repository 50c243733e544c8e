package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/arbor/internal/config"
	"github.com/san-kum/arbor/internal/model"
	"github.com/san-kum/arbor/internal/scene"
)

var ErrRunNotFound = errors.New("storage: run not found")

const (
	metadataFile   = "metadata.json"
	transformsFile = "transforms.csv"
	configFile     = "config.yaml"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Timestamp    time.Time  `json:"timestamp"`
	Seed         int64      `json:"seed"`
	Iterations   int        `json:"iterations"`
	Angle        float64    `json:"angle"`
	TargetHeight float64    `json:"target_height"`
	Model        model.Unit `json:"model"`
	Symbols      int64      `json:"symbols"`
	Instances    int        `json:"instances"`
	Transforms   int        `json:"transforms"`
	Height       float32    `json:"height"`
	RawHeight    float32    `json:"raw_height"`
	MaxDepth     int        `json:"max_depth"`
}

func runName(cfg config.Config) string {
	if cfg.Name != "" {
		return cfg.Name
	}
	return "tree"
}

// Save writes the scene into a new run directory and returns its ID.
func (s *Store) Save(cfg config.Config, sc *scene.Scene) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", runName(cfg), now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:           runID,
		Name:         runName(cfg),
		Timestamp:    now,
		Seed:         sc.Seed,
		Iterations:   cfg.Iterations,
		Angle:        cfg.Angle,
		TargetHeight: cfg.TargetHeight,
		Model:        sc.Model,
		Symbols:      sc.Symbols,
		Instances:    len(sc.Instances),
		Transforms:   sc.Len(),
		Height:       sc.Height,
		RawHeight:    sc.RawHeight,
		MaxDepth:     sc.MaxDepth,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, configFile), &cfg); err != nil {
		return "", err
	}
	if err := writeTransforms(filepath.Join(runDir, transformsFile), sc.Instances); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// TransformHeader is the CSV header: instance, index, then the 16 matrix
// entries in column-major order.
func TransformHeader() []string {
	header := []string{"instance", "index"}
	for i := 0; i < 16; i++ {
		header = append(header, fmt.Sprintf("m%d", i))
	}
	return header
}

// TransformRow formats one matrix as a CSV row.
func TransformRow(instance, index int, m mgl32.Mat4) []string {
	row := make([]string, 0, 18)
	row = append(row, strconv.Itoa(instance), strconv.Itoa(index))
	for _, v := range m {
		row = append(row, strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	return row
}

func writeTransforms(path string, instances [][]mgl32.Mat4) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(TransformHeader()); err != nil {
		return err
	}
	for i, g := range instances {
		for j, m := range g {
			if err := w.Write(TransformRow(i, j, m)); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) runFile(runID, name string) (string, error) {
	if runID == "" || strings.ContainsAny(runID, `/\`) || runID == "." || runID == ".." {
		return "", fmt.Errorf("%w: %q", ErrRunNotFound, runID)
	}
	path := filepath.Join(s.baseDir, runID, name)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return "", err
	}
	return path, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	path, err := s.runFile(runID, metadataFile)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	path, err := s.runFile(runID, configFile)
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

// LoadTransforms reads the stored transforms grouped by instance. Instance
// indices must fall below the run's recorded instance count, or below
// config.MaxTrees when the metadata is unreadable.
func (s *Store) LoadTransforms(runID string) ([][]mgl32.Mat4, error) {
	path, err := s.runFile(runID, transformsFile)
	if err != nil {
		return nil, err
	}
	limit := config.MaxTrees
	if meta, err := s.Load(runID); err == nil {
		limit = meta.Instances
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 18

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", runID, err)
	}
	if len(records) < 2 {
		return [][]mgl32.Mat4{}, nil
	}

	var groups [][]mgl32.Mat4
	for line, record := range records[1:] {
		inst, err := strconv.Atoi(record[0])
		if err != nil || inst < 0 {
			return nil, fmt.Errorf("%s: row %d: bad instance %q", runID, line+1, record[0])
		}
		if inst >= limit {
			return nil, fmt.Errorf("%s: row %d: instance %d out of range [0, %d)", runID, line+1, inst, limit)
		}
		var m mgl32.Mat4
		for k := 0; k < 16; k++ {
			v, err := strconv.ParseFloat(record[k+2], 32)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d: %w", runID, line+1, err)
			}
			m[k] = float32(v)
		}
		for len(groups) <= inst {
			groups = append(groups, nil)
		}
		groups[inst] = append(groups[inst], m)
	}
	return groups, nil
}

// LoadScene rebuilds a stored scene for previews and exports. Only the
// placed instances are restored; Local and Placements are left empty.
func (s *Store) LoadScene(runID string) (*scene.Scene, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	groups, err := s.LoadTransforms(runID)
	if err != nil {
		return nil, err
	}
	sc := &scene.Scene{
		Model:     meta.Model,
		Instances: groups,
		Symbols:   meta.Symbols,
		Height:    meta.Height,
		RawHeight: meta.RawHeight,
		Seed:      meta.Seed,
		MaxDepth:  meta.MaxDepth,
	}
	if cfg, err := s.LoadConfig(runID); err == nil {
		sc.Config = *cfg
	}
	return sc, nil
}
