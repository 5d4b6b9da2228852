// Package mcmcviz provides plotting recipes for MCMC output and
// posterior predictive checks.
//
// Usage:
//
//	import "github.com/spektr-org/mcmcviz/engine"
//
//	summary, err := engine.SummarizeDiscrete(y, yrep, nil, 0.9, true)
//
//	plot, err := engine.PPCRootogram(y, yrep,
//	    engine.WithStyle(engine.StyleHanging),
//	    engine.WithColorScheme(engine.SchemeRed),
//	)
//
// Every recipe returns a declarative plot object (layers, facets, scales)
// that serializes to JSON. Rendering is left to the consumer; the engine
// never draws anything and never calls an external service.
//
// Sampler diagnostics are read through engine.DiagnosticsSource, with
// implementations for CmdStan CSV and ArviZ-style JSON in the source
// package.
package mcmcviz
