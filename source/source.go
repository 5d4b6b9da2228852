// Package source implements engine.DiagnosticsSource for sampler output
// on disk: CmdStan CSV files and ArviZ-style JSON exports.
package source

import (
	"fmt"

	"github.com/spektr-org/mcmcviz/engine"
)

// samplerParameters are the NUTS columns NUTSParameters exposes.
var samplerParameters = []string{
	engine.ParamAcceptStat,
	engine.ParamStepsize,
	engine.ParamTreedepth,
	engine.ParamLeapfrog,
	engine.ParamDivergent,
	engine.ParamEnergy,
}

// diagnostics serves both DiagnosticsSource views from one long-format
// view of every sampler column.
type diagnostics struct {
	view engine.RecordView
}

func (d diagnostics) LogPosterior() (engine.RecordView, error) {
	return d.only(engine.ParamLogPosterior)
}

func (d diagnostics) NUTSParameters() (engine.RecordView, error) {
	return d.only(samplerParameters...)
}

func (d diagnostics) only(params ...string) (engine.RecordView, error) {
	if d.view == nil {
		return nil, fmt.Errorf("no sampler diagnostics loaded")
	}
	out, err := engine.ApplyFilters(d.view, engine.Filters{
		Dimensions: map[string][]string{engine.DimParameter: params},
	})
	if err != nil {
		return nil, err
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("no %v values in sampler output", params)
	}
	return out, nil
}

// chainView relabels the chain dimension of a single-chain view.
type chainView struct {
	engine.RecordView
	chain string
}

func (v chainView) Dimension(i int, key string) string {
	if key == engine.DimChain {
		return v.chain
	}
	return v.RecordView.Dimension(i, key)
}
