package engine

import (
	"regexp"
	"sort"
	"strings"
)

// ============================================================================
// COLOR SCHEMES
// ============================================================================
// A scheme is six shades from light to dark, each with a highlight variant.
// Schemes are plain values passed through WithColorScheme; there is no
// process-wide current scheme.
// ============================================================================

// ColorScheme is a six-color palette.
type ColorScheme struct {
	Name           string `json:"name" yaml:"name"`
	Light          string `json:"light" yaml:"light"`
	LightHighlight string `json:"lightHighlight" yaml:"light_highlight"`
	Mid            string `json:"mid" yaml:"mid"`
	MidHighlight   string `json:"midHighlight" yaml:"mid_highlight"`
	Dark           string `json:"dark" yaml:"dark"`
	DarkHighlight  string `json:"darkHighlight" yaml:"dark_highlight"`
}

var (
	SchemeBlue       = ColorScheme{"blue", "#d1e1ec", "#b3cde0", "#6497b1", "#005b96", "#03396c", "#011f4b"}
	SchemeBrightBlue = ColorScheme{"brightblue", "#cce5ff", "#99cbff", "#4ca5ff", "#198bff", "#0065cc", "#004c99"}
	SchemeGray       = ColorScheme{"gray", "#dfdfdf", "#bfbfbf", "#999999", "#737373", "#505050", "#383838"}
	SchemeDarkGray   = ColorScheme{"darkgray", "#bfbfbf", "#999999", "#737373", "#505050", "#383838", "#1a1a1a"}
	SchemeGreen      = ColorScheme{"green", "#d9f2e6", "#9fdfbf", "#66cc99", "#40bf80", "#2d8659", "#194d33"}
	SchemePink       = ColorScheme{"pink", "#dcbccc", "#c799b0", "#b97c9b", "#a25079", "#8f275b", "#7c003e"}
	SchemePurple     = ColorScheme{"purple", "#e5cce5", "#bf7fbf", "#a564a5", "#994c99", "#7f217f", "#660066"}
	SchemeRed        = ColorScheme{"red", "#dcbcbc", "#c79999", "#b97c7c", "#a25050", "#8f2727", "#7c0000"}
	SchemeTeal       = ColorScheme{"teal", "#bcdcdc", "#99c7c7", "#7cb9b9", "#50a2a2", "#278f8f", "#007c7c"}
	SchemeYellow     = ColorScheme{"yellow", "#fbf3da", "#f8e8b5", "#f5dc90", "#f2d16b", "#efc546", "#ecba21"}
	SchemeViridis    = ColorScheme{"viridis", "#fde725", "#7ad151", "#22a884", "#2a788e", "#414487", "#440154"}
)

var builtinSchemes = map[string]ColorScheme{}

func init() {
	for _, s := range []ColorScheme{
		SchemeBlue, SchemeBrightBlue, SchemeGray, SchemeDarkGray, SchemeGreen,
		SchemePink, SchemePurple, SchemeRed, SchemeTeal, SchemeYellow, SchemeViridis,
	} {
		builtinSchemes[s.Name] = s
	}
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// SchemeNames lists the built-in scheme names.
func SchemeNames() []string {
	names := make([]string, 0, len(builtinSchemes))
	for n := range builtinSchemes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SchemeByName returns a built-in scheme.
func SchemeByName(name string) (ColorScheme, error) {
	s, ok := builtinSchemes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return ColorScheme{}, validationErrorf("scheme", "unknown color scheme %q (want one of %v)", name, SchemeNames())
	}
	return s, nil
}

// CustomScheme builds a scheme from exactly six hex colors, light to dark.
func CustomScheme(name string, colors []string) (ColorScheme, error) {
	if len(colors) != 6 {
		return ColorScheme{}, validationErrorf("scheme", "custom scheme needs 6 colors, got %d", len(colors))
	}
	s := ColorScheme{name, colors[0], colors[1], colors[2], colors[3], colors[4], colors[5]}
	if err := s.Validate(); err != nil {
		return ColorScheme{}, err
	}
	return s, nil
}

// Validate checks every shade is a #rrggbb color.
func (s ColorScheme) Validate() error {
	for i, c := range s.Colors() {
		if !hexColor.MatchString(c) {
			return validationErrorf("scheme", "color %d (%q) is not a #rrggbb value", i+1, c)
		}
	}
	return nil
}

// Colors returns the six shades in order light → dark highlight.
func (s ColorScheme) Colors() []string {
	return []string{s.Light, s.LightHighlight, s.Mid, s.MidHighlight, s.Dark, s.DarkHighlight}
}

// Series returns n colors for discrete series such as chains, walking the
// scheme from dark to light and wrapping around.
func (s ColorScheme) Series(n int) []string {
	order := []string{s.DarkHighlight, s.Mid, s.LightHighlight, s.Dark, s.MidHighlight, s.Light}
	out := make([]string, n)
	for i := range out {
		out[i] = order[i%len(order)]
	}
	return out
}
