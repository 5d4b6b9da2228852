package source

import (
	"fmt"
	"slices"
	"strconv"

	"go.uber.org/zap"

	"github.com/spektr-org/mcmcviz/engine"
	"github.com/spektr-org/mcmcviz/helpers"
	"github.com/spektr-org/mcmcviz/schema"
)

// ============================================================================
// STAN: CmdStan CSV output, one file per chain
// ============================================================================

// Stan holds the draws and sampler diagnostics of a CmdStan run.
type Stan struct {
	diagnostics

	Schema *schema.Config
	Draws  *engine.Draws
}

// StanOption configures ReadStanCSV.
type StanOption func(*stanConfig)

type stanConfig struct {
	refinement *schema.Refinement
	logger     *zap.Logger
}

// WithRefinement applies a refinement to the discovered schema before
// the draws are parsed.
func WithRefinement(ref *schema.Refinement) StanOption {
	return func(c *stanConfig) { c.refinement = ref }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) StanOption {
	return func(c *stanConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// ReadStanCSV reads one CmdStan CSV per chain. The schema is discovered
// from the first file; every later file must carry the same parameters.
// A single file with its own chain column is also accepted.
func ReadStanCSV(files [][]byte, opts ...StanOption) (*Stan, error) {
	cfg := &stanConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CmdStan files")
	}

	discovered, err := schema.DiscoverFromCSV(files[0])
	if err != nil {
		return nil, fmt.Errorf("chain 1: %w", err)
	}
	sch := discovered
	if cfg.refinement != nil {
		if sch, err = schema.Refine(sch, cfg.refinement); err != nil {
			return nil, err
		}
	}
	cfg.logger.Debug("discovered CmdStan schema",
		zap.String("model", sch.Name),
		zap.Int("parameters", len(sch.Parameters)),
		zap.Int("diagnostics", len(sch.Diagnostics)),
		zap.Int("files", len(files)))

	var (
		views  []engine.RecordView
		chains [][][]float64
	)
	for f, data := range files {
		fileSchema := sch
		if f > 0 {
			next, err := schema.DiscoverFromCSV(data)
			if err != nil {
				return nil, fmt.Errorf("chain %d: %w", f+1, err)
			}
			if err := sameColumns(discovered, next); err != nil {
				return nil, fmt.Errorf("chain %d: %w", f+1, err)
			}
			// Column positions may differ between files.
			fileSchema = withColumnsFrom(sch, next)
		}
		if len(files) > 1 && fileSchema.Chains > 1 {
			return nil, fmt.Errorf("chain %d: file holds %d chains, want 1 per file", f+1, fileSchema.Chains)
		}
		draws, diags, err := helpers.ParseDrawsCSV(data, fileSchema)
		if err != nil {
			return nil, fmt.Errorf("chain %d: %w", f+1, err)
		}

		if draws != nil {
			for c := 0; c < draws.NumChains(); c++ {
				chains = append(chains, chainRows(draws, c))
			}
		}
		if len(files) > 1 {
			views = append(views, chainView{RecordView: diags, chain: strconv.Itoa(f + 1)})
		} else {
			views = append(views, diags)
		}
	}

	out := &Stan{Schema: sch, diagnostics: diagnostics{view: engine.NewConcatView(views...)}}
	if len(sch.Parameters) > 0 {
		if out.Draws, err = engine.NewDraws(sch.ParameterNames(), chains); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// MaxTreedepth is the sampler's max_depth setting, or 0 if the files do
// not record it.
func (s *Stan) MaxTreedepth() int { return s.Schema.MaxTreedepth() }

func sameColumns(want, got *schema.Config) error {
	if !slices.Equal(want.ParameterNames(), got.ParameterNames()) {
		return fmt.Errorf("parameters %v differ from chain 1 %v", got.ParameterNames(), want.ParameterNames())
	}
	if !slices.Equal(want.DiagnosticNames(), got.DiagnosticNames()) {
		return fmt.Errorf("sampler columns %v differ from chain 1 %v", got.DiagnosticNames(), want.DiagnosticNames())
	}
	return nil
}

// withColumnsFrom keeps base's parameters and display metadata but takes
// column positions and layout from other.
func withColumnsFrom(base, other *schema.Config) *schema.Config {
	out := *base
	out.ChainColumn = other.ChainColumn
	out.IterationColumn = other.IterationColumn
	out.Chains = other.Chains
	out.Iterations = other.Iterations
	return &out
}

func chainRows(d *engine.Draws, chain int) [][]float64 {
	np := len(d.Parameters())
	rows := make([][]float64, d.NumIterations())
	for i := range rows {
		rows[i] = make([]float64, np)
		for p := 0; p < np; p++ {
			rows[i][p] = d.At(chain, i, p)
		}
	}
	return rows
}
