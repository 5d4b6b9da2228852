package engine

import (
	"math"
	"sort"
)

// Transform is a named scalar function applied to draws before plotting.
type Transform struct {
	Name string
	Fn   func(float64) float64
}

// Label returns the display name of a transformed parameter.
func (t Transform) Label(parameter string) string {
	return t.Name + "(" + parameter + ")"
}

var transforms = map[string]func(float64) float64{
	"log":       math.Log,
	"exp":       math.Exp,
	"sqrt":      math.Sqrt,
	"logit":     func(p float64) float64 { return math.Log(p / (1 - p)) },
	"inv_logit": func(x float64) float64 { return 1 / (1 + math.Exp(-x)) },
}

// TransformNames lists the supported transformation names.
func TransformNames() []string {
	names := make([]string, 0, len(transforms))
	for n := range transforms {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LookupTransform resolves a transformation by name.
func LookupTransform(name string) (Transform, error) {
	fn, ok := transforms[name]
	if !ok {
		return Transform{}, validationErrorf("transformations", "unknown transformation %q (want one of %v)", name, TransformNames())
	}
	return Transform{Name: name, Fn: fn}, nil
}

// resolveTransforms turns the configured names into functions, checking
// that every transformed parameter is among the available ones.
func (c *config) resolveTransforms(available []string) (map[string]Transform, error) {
	if len(c.Transforms) == 0 {
		return nil, nil
	}
	known := make(map[string]bool, len(available))
	for _, p := range available {
		known[p] = true
	}
	out := make(map[string]Transform, len(c.Transforms))
	for param, name := range c.Transforms {
		if !known[param] {
			return nil, validationErrorf("transformations", "parameter %q is not among the selected parameters", param)
		}
		t, err := LookupTransform(name)
		if err != nil {
			return nil, err
		}
		out[param] = t
	}
	return out, nil
}
