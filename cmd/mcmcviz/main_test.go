package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/mcmcviz/engine"
	"github.com/spektr-org/mcmcviz/schema"
)

// run executes the CLI with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

type fixtures struct {
	y, yrep, group string
	chain1, chain2 string
}

const chainHeader = `# model = demo_model
#             max_depth = 10 (Default)
lp__,accept_stat__,stepsize__,treedepth__,n_leapfrog__,divergent__,energy__,mu,sigma
`

func newFixtures(t *testing.T) fixtures {
	t.Helper()
	dir := t.TempDir()
	return fixtures{
		y:     writeFile(t, dir, "y.csv", "y\n1\n0\n2\n1\n"),
		yrep:  writeFile(t, dir, "yrep.csv", "1,0,2,1\n0,0,1,2\n2,1,1,0\n"),
		group: writeFile(t, dir, "group.csv", "group\na\na\nb\nb\n"),
		chain1: writeFile(t, dir, "chain1.csv", chainHeader+`-4.1,0.91,0.42,3,7,0,5.2,0.1,1.0
-3.9,0.88,0.42,10,1023,0,4.8,0.3,1.2
-5.0,0.52,0.42,4,15,1,6.3,-0.2,0.9
-4.2,0.93,0.42,3,7,0,5.1,0.0,1.1
`),
		chain2: writeFile(t, dir, "chain2.csv", chainHeader+`-4.4,0.95,0.39,3,7,0,5.0,0.2,1.3
-4.0,0.81,0.39,3,7,0,5.9,0.4,0.8
-3.8,0.99,0.39,2,3,0,4.1,-0.1,1.0
-4.5,0.90,0.39,3,7,0,5.6,0.1,1.1
`),
	}
}

func decodeResult(t *testing.T, out string) engine.Result {
	t.Helper()
	var r engine.Result
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	return r
}

func TestPPCBarsJSON(t *testing.T) {
	f := newFixtures(t)
	out, err := run(t, "ppc", "bars", "--y", f.y, "--yrep", f.yrep, "--scheme", "red")
	require.NoError(t, err)

	r := decodeResult(t, out)
	assert.True(t, r.Success)
	assert.Equal(t, engine.OutputPlot, r.Type)
	require.NotNil(t, r.Plot)
	assert.Equal(t, "ppc_bars", r.Plot.Kind)
	assert.Equal(t, "red", r.Plot.Scheme)
}

func TestPPCSummaryCSV(t *testing.T) {
	f := newFixtures(t)
	out, err := run(t, "ppc", "summary", "--y", f.y, "--yrep", f.yrep, "--format", "csv")
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4, "header plus x = 0..2")
	assert.Equal(t, []string{"x", "y_obs"}, rows[0][:2])
	assert.Equal(t, []string{"0", "1"}, rows[1][:2])
}

func TestPPCSummaryGroupedText(t *testing.T) {
	f := newFixtures(t)
	out, err := run(t, "ppc", "summary", "--y", f.y, "--yrep", f.yrep, "--group", f.group, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Group")
	assert.Contains(t, out, "Total")
}

func TestPPCBarsGroupedNeedsGroup(t *testing.T) {
	f := newFixtures(t)
	_, err := run(t, "ppc", "bars-grouped", "--y", f.y, "--yrep", f.yrep)
	assert.ErrorContains(t, err, "--group")
}

func TestPPCRootogramRejectsBadStyle(t *testing.T) {
	f := newFixtures(t)
	_, err := run(t, "ppc", "rootogram", "--y", f.y, "--yrep", f.yrep, "--style", "floating")
	assert.Error(t, err)
}

func TestPPCStatText(t *testing.T) {
	f := newFixtures(t)
	out, err := run(t, "ppc", "stat", "--y", f.y, "--yrep", f.yrep, "--stat", "mean", "--output", "text", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Pr(T(y_rep) >= T(y))")
}

func TestMCMCIntervalsTable(t *testing.T) {
	f := newFixtures(t)
	out, err := run(t, "mcmc", "intervals", "--draws", f.chain1, "--draws", f.chain2,
		"--pars", "mu", "--output", "table", "--format", "csv")
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "mu", rows[1][0])
}

func TestMCMCTraceWithTransform(t *testing.T) {
	f := newFixtures(t)
	out, err := run(t, "mcmc", "trace", "--draws", f.chain1, "--draws", f.chain2,
		"--pars", "sigma", "--transform", "sigma=log")
	require.NoError(t, err)
	r := decodeResult(t, out)
	require.NotNil(t, r.Plot)
	assert.Len(t, r.Plot.Layers, 2, "one line per chain")

	_, err = run(t, "mcmc", "trace", "--draws", f.chain1, "--transform", "sigma")
	assert.ErrorContains(t, err, "param=name")
}

func TestMCMCRhatPlot(t *testing.T) {
	f := newFixtures(t)
	out, err := run(t, "mcmc", "rhat", "--draws", f.chain1, "--draws", f.chain2)
	require.NoError(t, err)
	r := decodeResult(t, out)
	require.NotNil(t, r.Plot)
	assert.Equal(t, "mcmc_rhat", r.Plot.Kind)
}

func TestMCMCNeedsDraws(t *testing.T) {
	_, err := run(t, "mcmc", "hist")
	assert.Error(t, err)
}

func TestNUTSSummaryText(t *testing.T) {
	f := newFixtures(t)
	out, err := run(t, "nuts", "summary", "--draws", f.chain1, "--draws", f.chain2, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "1 of 8 iterations ended with a divergence")
	assert.Contains(t, out, "Hit max treedepth (10)")
}

func TestNUTSEnergyMerged(t *testing.T) {
	f := newFixtures(t)
	out, err := run(t, "nuts", "energy", "--draws", f.chain1, "--draws", f.chain2, "--merge-chains")
	require.NoError(t, err)
	r := decodeResult(t, out)
	require.NotNil(t, r.Plot)
	assert.Nil(t, r.Plot.Facet)
}

func TestDiscoverPretty(t *testing.T) {
	f := newFixtures(t)
	out, err := run(t, "discover", "--file", f.chain1, "--format", "pretty")
	require.NoError(t, err)

	var sch schema.Config
	require.NoError(t, json.Unmarshal([]byte(out), &sch))
	assert.Equal(t, "demo_model", sch.Name)
	assert.Equal(t, []string{"mu", "sigma"}, sch.ParameterNames())
	assert.Equal(t, 10, sch.MaxTreedepth())
}

func TestDiscoverWithRefinement(t *testing.T) {
	f := newFixtures(t)
	ref := writeFile(t, t.TempDir(), "refine.yaml", "exclude: [sigma]\nparameters:\n  mu: {displayName: Mean}\n")
	out, err := run(t, "discover", "--file", f.chain1, "--refine", ref, "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "mu,parameter,mu,Mean")
	assert.Contains(t, out, "sigma,skipped,,Excluded by refinement")
}

func TestConfigFileAndOut(t *testing.T) {
	f := newFixtures(t)
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "mcmcviz.yaml", "scheme: teal\nformat: pretty\n")
	outPath := filepath.Join(dir, "plot.json")

	stdout, err := run(t, "--config", cfgPath, "--out", outPath, "ppc", "rootogram", "--y", f.y, "--yrep", f.yrep)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  ", "pretty output is indented")
	r := decodeResult(t, string(data))
	assert.Equal(t, "teal", r.Plot.Scheme)
}

func TestInvalidConfig(t *testing.T) {
	f := newFixtures(t)
	_, err := run(t, "--scheme", "plaid", "ppc", "bars", "--y", f.y, "--yrep", f.yrep)
	assert.ErrorContains(t, err, "config")

	_, err = run(t, "--format", "xml", "ppc", "bars", "--y", f.y, "--yrep", f.yrep)
	assert.ErrorContains(t, err, "invalid format")
}

func TestFmtNum(t *testing.T) {
	assert.Equal(t, "3", fmtNum(3))
	assert.Equal(t, "-2", fmtNum(-2))
	assert.Equal(t, "0.25", fmtNum(0.25))
}
