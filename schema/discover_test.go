package schema

import (
	"strings"
	"testing"
)

// ============================================================================
// DISCOVERY TESTS
// ============================================================================

// One chain of CmdStan output, trimmed.
var cmdstanCSV = []byte(`# stan_version_major = 2
# model = eight_schools_model
# method = sample (Default)
#   sample
#     num_samples = 3
#     algorithm = hmc (Default)
#       hmc
#         engine = nuts (Default)
#           nuts
#             max_depth = 10 (Default)
lp__,accept_stat__,stepsize__,treedepth__,n_leapfrog__,divergent__,energy__,mu,tau,theta.1,theta.2
# Adaptation terminated
# Step size = 0.42
-4.1,0.91,0.42,3,7,0,5.2,4.4,3.1,6.2,1.5
-3.9,0.88,0.42,3,7,0,4.8,4.1,2.7,5.9,2.0
-5.0,0.52,0.42,4,15,1,6.3,3.2,0.4,3.4,3.3
#  Elapsed Time: 0.05 seconds (Warm-up)
`)

var longCSV = []byte(`chain,iteration,alpha,beta[1],beta[2],label
1,1,0.5,1.0,2.0,a
1,2,0.6,1.1,2.1,b
2,1,0.4,0.9,1.9,c
2,2,0.7,1.2,2.2,d
`)

func TestDiscoverCmdStanCSV(t *testing.T) {
	config, err := DiscoverFromCSV(cmdstanCSV)
	if err != nil {
		t.Fatalf("DiscoverFromCSV failed: %v", err)
	}

	params := config.ParameterNames()
	assertContains(t, params, "mu", "mu should be a parameter")
	assertContains(t, params, "tau", "tau should be a parameter")
	assertContains(t, params, "theta[1]", "theta.1 should normalize to theta[1]")
	assertContains(t, params, "theta[2]", "theta.2 should normalize to theta[2]")
	if len(params) != 4 {
		t.Errorf("expected 4 parameters, got %d: %v", len(params), params)
	}

	diags := config.DiagnosticNames()
	for _, d := range []string{"lp__", "accept_stat__", "stepsize__", "treedepth__", "n_leapfrog__", "divergent__", "energy__"} {
		assertContains(t, diags, d, d+" should be a sampler diagnostic")
	}
	assertNotContains(t, params, "lp__", "lp__ must not be a parameter")

	if config.Chains != 1 || config.Iterations != 3 {
		t.Errorf("expected 1 chain x 3 iterations, got %d x %d", config.Chains, config.Iterations)
	}
	if config.Name != "eight_schools_model" {
		t.Errorf("name should come from model metadata, got %q", config.Name)
	}
	if config.MaxTreedepth() != 10 {
		t.Errorf("max_depth metadata should parse to 10, got %d (%q)", config.MaxTreedepth(), config.Metadata["max_depth"])
	}
	if config.Metadata["step_size"] != "0.42" {
		t.Errorf("step size metadata should be 0.42, got %q", config.Metadata["step_size"])
	}
	if !config.HasDiagnostic("energy__") {
		t.Error("HasDiagnostic(energy__) should be true")
	}

	for _, p := range config.Parameters {
		if p.Key == "theta[1]" {
			if p.Base != "theta" || p.Column != "theta.1" || len(p.Indices) != 1 || p.Indices[0] != 1 {
				t.Errorf("theta[1] metadata wrong: %+v", p)
			}
		}
	}
}

func TestDiscoverLongCSV(t *testing.T) {
	config, err := DiscoverFromCSV(longCSV)
	if err != nil {
		t.Fatalf("DiscoverFromCSV failed: %v", err)
	}
	if config.ChainColumn != "chain" || config.IterationColumn != "iteration" {
		t.Errorf("chain/iteration columns not detected: %q %q", config.ChainColumn, config.IterationColumn)
	}
	if config.Chains != 2 || config.Iterations != 2 {
		t.Errorf("expected 2 chains x 2 iterations, got %d x %d", config.Chains, config.Iterations)
	}

	params := config.ParameterNames()
	assertNotContains(t, params, "chain", "chain column is layout, not a parameter")
	assertNotContains(t, params, "label", "label is non-numeric")

	skipped := make([]string, len(config.SkippedColumns))
	for i, s := range config.SkippedColumns {
		skipped[i] = s.Column
	}
	assertContains(t, skipped, "label", "label should be skipped")

	bases := config.Bases()
	if len(bases["beta"]) != 2 {
		t.Errorf("beta should have 2 elements, got %v", bases["beta"])
	}
	if got := config.SortedBases(); strings.Join(got, ",") != "alpha,beta" {
		t.Errorf("SortedBases = %v", got)
	}
}

func TestDiscoverWithRecovery(t *testing.T) {
	opts := DefaultDiscoverOptions()
	opts.RecoverColumns = []string{"label"}
	config, err := DiscoverFromCSV(longCSV, opts)
	if err != nil {
		t.Fatalf("DiscoverFromCSV failed: %v", err)
	}
	assertContains(t, config.ParameterNames(), "label", "recovered column should become a parameter")
}

func TestDiscoverChainsWithoutChainColumn(t *testing.T) {
	data := []byte("a,b\n1,2\n3,4\n5,6\n7,8\n")
	config, err := DiscoverFromCSV(data, DiscoverOptions{Chains: 2})
	if err != nil {
		t.Fatalf("DiscoverFromCSV failed: %v", err)
	}
	if config.Chains != 2 || config.Iterations != 2 {
		t.Errorf("expected 2 x 2, got %d x %d", config.Chains, config.Iterations)
	}

	if _, err := DiscoverFromCSV(data, DiscoverOptions{Chains: 3}); err == nil {
		t.Error("4 rows into 3 chains should fail")
	}
}

func TestDiscoverConstantColumn(t *testing.T) {
	data := []byte("a,b\n1,2\n1,3\n1,4\n")
	config, err := DiscoverFromCSV(data)
	if err != nil {
		t.Fatalf("DiscoverFromCSV failed: %v", err)
	}
	if !config.Parameters[0].Constant || config.Parameters[1].Constant {
		t.Errorf("constant flags wrong: %+v", config.Parameters)
	}
}

func TestDiscoverErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"header only", "a,b\n"},
		{"comments only", "# model = x\n"},
		{"no numeric columns", "name\nfoo\nbar\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DiscoverFromCSV([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseParameterName(t *testing.T) {
	tests := []struct {
		input   string
		base    string
		indices []int
		norm    string
	}{
		{"mu", "mu", nil, "mu"},
		{"theta.1", "theta", []int{1}, "theta[1]"},
		{"Sigma.2.3", "Sigma", []int{2, 3}, "Sigma[2,3]"},
		{"beta[4]", "beta", []int{4}, "beta[4]"},
		{"L[1, 2]", "L", []int{1, 2}, "L[1,2]"},
		{"log_lik", "log_lik", nil, "log_lik"},
		{"x.y", "x.y", nil, "x.y"},
	}
	for _, tt := range tests {
		base, idx := ParseParameterName(tt.input)
		if base != tt.base || len(idx) != len(tt.indices) {
			t.Errorf("ParseParameterName(%q) = %q %v, want %q %v", tt.input, base, idx, tt.base, tt.indices)
			continue
		}
		for i := range idx {
			if idx[i] != tt.indices[i] {
				t.Errorf("ParseParameterName(%q) indices = %v, want %v", tt.input, idx, tt.indices)
			}
		}
		if got := NormalizeParameterName(tt.input); got != tt.norm {
			t.Errorf("NormalizeParameterName(%q) = %q, want %q", tt.input, got, tt.norm)
		}
	}
}

func TestSnakeCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Step size", "step_size"},
		{"max_depth", "max_depth"},
		{"adaptDelta", "adapt_delta"},
		{"stan_version_major", "stan_version_major"},
		{"Elapsed-Time", "elapsed_time"},
	}
	for _, tt := range tests {
		if got := toSnakeCase(tt.input); got != tt.expected {
			t.Errorf("toSnakeCase(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func assertContains(t *testing.T, slice []string, item string, msg string) {
	t.Helper()
	for _, s := range slice {
		if s == item {
			return
		}
	}
	t.Errorf("%s: '%s' not found in %v", msg, item, slice)
}

func assertNotContains(t *testing.T, slice []string, item string, msg string) {
	t.Helper()
	for _, s := range slice {
		if s == item {
			t.Errorf("%s: '%s' unexpectedly found in %v", msg, item, slice)
			return
		}
	}
}
