package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/pelletier/go-toml/v2"
	"github.com/san-kum/arbor/internal/forest"
	"github.com/san-kum/arbor/internal/lsystem"
	"github.com/san-kum/arbor/internal/model"
	"github.com/san-kum/arbor/internal/turtle"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAxiom        = "F"
	DefaultRule         = "F[+F]F[-F]F"
	DefaultIterations   = 3
	DefaultAngle        = 25.0
	DefaultTargetHeight = 10.0
	DefaultModel        = "cylinder"
	DefaultTrees        = 0
	DefaultSpread       = 10.0

	MaxIterations = 8
	MaxAngle      = 180.0
	MaxTrees      = 1024
)

var (
	ErrInvalidConfig = errors.New("config: invalid configuration")
	ErrUnknownFormat = errors.New("config: unknown file format")
)

// Config is one immutable snapshot of everything a regeneration needs.
type Config struct {
	Name         string       `yaml:"name,omitempty" toml:"name,omitempty"`
	Axiom        string       `yaml:"axiom" toml:"axiom"`
	Rules        []RuleConfig `yaml:"rules" toml:"rules"`
	Iterations   int          `yaml:"iterations" toml:"iterations"`
	Angle        float64      `yaml:"angle" toml:"angle"`
	TargetHeight float64      `yaml:"target_height" toml:"target_height"`
	Policy       string       `yaml:"policy" toml:"policy"`
	Model        string       `yaml:"model" toml:"model"`
	ModelPath    string       `yaml:"model_path,omitempty" toml:"model_path,omitempty"`
	Forest       ForestConfig `yaml:"forest" toml:"forest"`
}

// RuleConfig is one production. In YAML it may also be written as a single
// string such as "F -> FF".
type RuleConfig struct {
	Symbol      string `yaml:"symbol" toml:"symbol"`
	Replacement string `yaml:"replacement" toml:"replacement"`
}

type ForestConfig struct {
	Count         int   `yaml:"count" toml:"count"`
	Seed          int64 `yaml:"seed" toml:"seed"`
	forest.Bounds `yaml:",inline"`
}

func DefaultConfig() *Config {
	return &Config{
		Axiom:        DefaultAxiom,
		Rules:        []RuleConfig{{Symbol: "F", Replacement: DefaultRule}},
		Iterations:   DefaultIterations,
		Angle:        DefaultAngle,
		TargetHeight: DefaultTargetHeight,
		Policy:       turtle.Strict.String(),
		Model:        DefaultModel,
		Forest: ForestConfig{
			Count: DefaultTrees,
			Bounds: forest.Bounds{
				XMin: -DefaultSpread, XMax: DefaultSpread,
				ZMin: -DefaultSpread, ZMax: DefaultSpread,
			},
		},
	}
}

func (r RuleConfig) MarshalYAML() (interface{}, error) {
	return r.Symbol + " -> " + r.Replacement, nil
}

func (r *RuleConfig) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		rule, err := lsystem.ParseRule(value.Value)
		if err != nil {
			return err
		}
		r.Symbol, r.Replacement = string(rule.Symbol), rule.Replacement
		return nil
	}
	type plain RuleConfig
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*r = RuleConfig(p)
	return nil
}

// Load reads a YAML (.yaml, .yml) or TOML (.toml) file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	defaults := cfg.Rules
	cfg.Rules = nil
	switch format(path) {
	case "yaml":
		err = yaml.Unmarshal(data, cfg)
	case "toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Rules == nil {
		cfg.Rules = defaults
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	switch format(path) {
	case "yaml":
		data, err = yaml.Marshal(cfg)
	case "toml":
		data, err = toml.Marshal(cfg)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	}
	return ""
}

// Validate checks the ranges the interactive front ends enforce. All
// problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Axiom == "" {
		bad("axiom must not be empty")
	}
	for i, r := range c.Rules {
		if utf8.RuneCountInString(r.Symbol) != 1 {
			bad("rule %d: symbol %q must be a single character", i, r.Symbol)
		}
	}
	if c.Iterations < 0 || c.Iterations > MaxIterations {
		bad("iterations %d outside [0, %d]", c.Iterations, MaxIterations)
	}
	if c.Angle < 0 || c.Angle > MaxAngle {
		bad("angle %g outside [0, %g]", c.Angle, MaxAngle)
	}
	if c.TargetHeight <= 0 {
		bad("target height %g must be positive", c.TargetHeight)
	}
	if _, err := turtle.ParsePolicy(c.Policy); err != nil {
		bad("%v", err)
	}
	if c.ModelPath == "" {
		if _, err := model.Builtin(c.Model); err != nil {
			bad("%v", err)
		}
	}
	if c.Forest.Count < 0 || c.Forest.Count > MaxTrees {
		bad("forest count %d outside [0, %d]", c.Forest.Count, MaxTrees)
	}
	if err := c.Forest.Bounds.Validate(); err != nil {
		bad("%v", err)
	}

	return errors.Join(errs...)
}

// Equal reports value equality, used to detect configuration changes.
func (c Config) Equal(o Config) bool {
	if len(c.Rules) == 0 && len(o.Rules) == 0 {
		c.Rules, o.Rules = nil, nil
	}
	return reflect.DeepEqual(c, o)
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	c.Rules = append([]RuleConfig(nil), c.Rules...)
	return c
}

// Grammar builds the rewriting grammar. Rules with an empty symbol are
// skipped; Validate reports them.
func (c Config) Grammar() *lsystem.Grammar {
	rules := make([]lsystem.Rule, 0, len(c.Rules))
	for _, r := range c.Rules {
		sym, size := utf8.DecodeRuneInString(r.Symbol)
		if size == 0 {
			continue
		}
		rules = append(rules, lsystem.Rule{Symbol: sym, Replacement: r.Replacement})
	}
	return lsystem.New(c.Axiom, rules)
}

func (c Config) SymbolPolicy() turtle.Policy {
	p, _ := turtle.ParsePolicy(c.Policy)
	return p
}

// Unit resolves the base model: an OBJ file when ModelPath is set, a builtin
// otherwise.
func (c Config) Unit() (model.Unit, error) {
	if c.ModelPath == "" {
		return model.Builtin(c.Model)
	}
	m, err := model.LoadOBJ(c.ModelPath)
	if err != nil {
		return model.Unit{}, err
	}
	return m.Unit()
}

// RuleStrings renders the productions as "F -> ..." lines.
func (c Config) RuleStrings() []string {
	out := make([]string, len(c.Rules))
	for i, r := range c.Rules {
		out[i] = r.Symbol + " -> " + r.Replacement
	}
	return out
}

func (c Config) Bounds() forest.Bounds { return c.Forest.Bounds }
