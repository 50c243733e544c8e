package config

import (
	"sort"

	"github.com/san-kum/arbor/internal/forest"
)

func preset(name, axiom string, iterations int, angle float64, policy string, rules ...RuleConfig) *Config {
	cfg := DefaultConfig()
	cfg.Name = name
	cfg.Axiom = axiom
	cfg.Rules = rules
	cfg.Iterations = iterations
	cfg.Angle = angle
	cfg.Policy = policy
	return cfg
}

func rule(symbol, replacement string) RuleConfig {
	return RuleConfig{Symbol: symbol, Replacement: replacement}
}

var Presets = map[string]*Config{
	"tree": preset("tree", "F", 3, 25, "strict",
		rule("F", "F[+F]F[-F]F")),
	"bush": preset("bush", "F", 3, 22.5, "strict",
		rule("F", "FF+[+F-F-F]-[-F+F+F]")),
	"seaweed": preset("seaweed", "F", 4, 20, "strict",
		rule("F", "F[+F]F[-F][F]")),
	"fern": preset("fern", "X", 5, 25, "lenient",
		rule("X", "F+[[X]-X]-F[-FX]+X"), rule("F", "FF")),
	"pine3d": preset("pine3d", "F", 3, 28, "strict",
		rule("F", "F[&+F][&-F]F[^/F]")),
	"sticks": preset("sticks", "X", 5, 20, "lenient",
		rule("X", "F[+X]F[-X]+X"), rule("F", "FF")),
	"forest": func() *Config {
		cfg := preset("forest", "F", 3, 25, "strict", rule("F", "F[+F]F[-F]F"))
		cfg.Forest = ForestConfig{
			Count:  24,
			Bounds: forest.Bounds{XMin: -20, XMax: 20, ZMin: -20, ZMax: 20},
		}
		return cfg
	}(),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := cfg.Clone()
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
