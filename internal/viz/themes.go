package viz

import "github.com/charmbracelet/lipgloss"

// Theme is a color scheme shared by the terminal views and the image
// exporters.
type Theme struct {
	Name       string
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Accent     lipgloss.Color
	Background lipgloss.Color
	Text       lipgloss.Color
	Muted      lipgloss.Color
	Error      lipgloss.Color
	// Trunk and Leaf color structures in exported images, blended by height.
	Trunk lipgloss.Color
	Leaf  lipgloss.Color
}

var (
	ThemeGrove = Theme{
		Name:       "grove",
		Primary:    lipgloss.Color("#88cc66"),
		Secondary:  lipgloss.Color("#cceeaa"),
		Accent:     lipgloss.Color("#ffcc66"),
		Background: lipgloss.Color("#0d140d"),
		Text:       lipgloss.Color("#eef5e9"),
		Muted:      lipgloss.Color("#5a6e55"),
		Error:      lipgloss.Color("#ff5555"),
		Trunk:      lipgloss.Color("#8b5a2b"),
		Leaf:       lipgloss.Color("#7ccf5a"),
	}

	ThemeAutumn = Theme{
		Name:       "autumn",
		Primary:    lipgloss.Color("#ff8c42"),
		Secondary:  lipgloss.Color("#ffd166"),
		Accent:     lipgloss.Color("#ef476f"),
		Background: lipgloss.Color("#1f140e"),
		Text:       lipgloss.Color("#fff3e6"),
		Muted:      lipgloss.Color("#7a5c4a"),
		Error:      lipgloss.Color("#ff4757"),
		Trunk:      lipgloss.Color("#5c3a21"),
		Leaf:       lipgloss.Color("#e4572e"),
	}

	ThemeReef = Theme{
		Name:       "reef",
		Primary:    lipgloss.Color("#00a8cc"),
		Secondary:  lipgloss.Color("#7fdbda"),
		Accent:     lipgloss.Color("#ffd700"),
		Background: lipgloss.Color("#001a33"),
		Text:       lipgloss.Color("#e0f0ff"),
		Muted:      lipgloss.Color("#4488aa"),
		Error:      lipgloss.Color("#ff4444"),
		Trunk:      lipgloss.Color("#1b5e20"),
		Leaf:       lipgloss.Color("#4dd0a1"),
	}

	ThemeBlueprint = Theme{
		Name:       "blueprint",
		Primary:    lipgloss.Color("#ffffff"),
		Secondary:  lipgloss.Color("#cccccc"),
		Accent:     lipgloss.Color("#0088ff"),
		Background: lipgloss.Color("#0b1f3a"),
		Text:       lipgloss.Color("#ffffff"),
		Muted:      lipgloss.Color("#6b84a3"),
		Error:      lipgloss.Color("#ff6b6b"),
		Trunk:      lipgloss.Color("#dfe9f5"),
		Leaf:       lipgloss.Color("#dfe9f5"),
	}

	CurrentTheme = ThemeGrove

	Themes = []Theme{
		ThemeGrove,
		ThemeAutumn,
		ThemeReef,
		ThemeBlueprint,
	}
)

// GetTheme returns a theme by name, falling back to the default.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeGrove
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// NextTheme returns the theme after the current one, wrapping around.
func NextTheme() Theme {
	names := ThemeNames()
	for i, name := range names {
		if name == CurrentTheme.Name {
			return GetTheme(names[(i+1)%len(names)])
		}
	}
	return ThemeGrove
}
