package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CapZTr/lime/internal/backend"
	"github.com/CapZTr/lime/internal/optimize"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, backend.DefaultSettings(), cfg.Compiler)
	assert.Equal(t, optimize.DefaultOptions(), cfg.Optimizer)
	assert.Equal(t, 7, cfg.Bench.Jobs)
	assert.Equal(t, time.Hour, cfg.Bench.Timeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverridesOnlyPresentKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lime.toml")
	src := `
[compiler]
architecture = "felix"
rewriting = "compiling_memusage"
candidate_selection = "plim_compiler"
mode = "exhaustive"
size_factor = 100
preoptimize = false

[optimizer]
max_rounds = 3

[bench]
jobs = 2
store = "out/results"
timeout = "90s"
backend = "lime-backend"
backend_args = ["--quiet"]
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, backend.Felix, cfg.Compiler.Architecture)
	assert.Equal(t, backend.RewritingCompilingMemUsage, cfg.Compiler.Rewriting)
	assert.Equal(t, backend.CandidatesGraphCompiler, cfg.Compiler.CandidateSelection)
	assert.Equal(t, backend.ModeExhaustive, cfg.Compiler.Mode)
	assert.Equal(t, uint64(100), cfg.Compiler.SizeFactor)
	assert.False(t, cfg.Compiler.Preoptimize)
	assert.True(t, cfg.Compiler.Rewrite, "absent keys keep their defaults")

	assert.Equal(t, 3, cfg.Optimizer.MaxRounds)
	assert.Equal(t, optimize.DefaultOptions().CutSize, cfg.Optimizer.CutSize)

	assert.Equal(t, 2, cfg.Bench.Jobs)
	assert.Equal(t, "out/results", cfg.Bench.Store)
	assert.Equal(t, 90*time.Second, cfg.Bench.Timeout)
	assert.Equal(t, "lime-backend", cfg.Bench.Backend)
	assert.Equal(t, []string{"--quiet"}, cfg.Bench.BackendArgs)
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"unknown key", "[compiler]\narchitecure = \"ambit\"", "compiler.architecure"},
		{"unknown section", "[server]\nport = 1", "server.port"},
		{"bad token", "[compiler]\narchitecture = \"risc\"", "risc"},
		{"bad cut size", "[optimizer]\ncut_size = 6", "cut_size"},
		{"bad jobs", "[bench]\njobs = 0", "bench.jobs"},
		{"syntax", "[compiler\n", "parse"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	_, err := Decode("[compiler]\nverbos = true")
	assert.ErrorIs(t, err, ErrUnknownKeys)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
