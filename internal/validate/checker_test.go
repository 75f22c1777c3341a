package validate

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topgen/internal/config"
	"topgen/internal/diag"
)

func runValidation(t *testing.T, cfg *config.Config) (string, *diag.Reporter, error) {
	t.Helper()
	var buf bytes.Buffer
	reporter := diag.NewReporter(&buf, "text")
	err := CheckConfig(cfg, reporter)
	return buf.String(), reporter, err
}

func TestValidateAcceptsStreamingBuses(t *testing.T) {
	cfg := &config.Config{
		Name: "add",
		Buses: []config.Bus{
			{Name: "in", Kind: "saxis", VecLen: 1},
			{Name: "out", Kind: "maxis", VecLen: 1},
		},
	}
	diagStr, reporter, err := runValidation(t, cfg)
	require.NoError(t, err)
	assert.Empty(t, diagStr)
	assert.False(t, reporter.HasErrors())
}

func TestValidateRejectsMemoryMappedBuses(t *testing.T) {
	cfg := &config.Config{
		Name: "k",
		Buses: []config.Bus{
			{Name: "in", Kind: "saxis", VecLen: 1},
			{Name: "mem", Kind: "maxi", VecLen: 1},
			{Name: "regs", Kind: "saxilite", VecLen: 1},
		},
	}
	diagStr, reporter, err := runValidation(t, cfg)

	var cfgErr *config.ConfigurationError
	require.True(t, errors.As(err, &cfgErr), "got %v", err)
	assert.Equal(t, []string{"mem", "regs"}, cfgErr.Buses)
	assert.Equal(t, 2, reporter.ErrorCount())
	assert.Contains(t, diagStr, "not a streaming bus")
	assert.Contains(t, err.Error(), "mem, regs")
}

func TestValidateWarnsOnUnalignedWidths(t *testing.T) {
	cfg := &config.Config{
		Name: "k",
		Params: []config.ParamGroup{{
			Name:   "g",
			Params: []config.Param{{Name: "flag", Width: 1}, {Name: "word", Width: 32}},
		}},
	}
	diagStr, reporter, err := runValidation(t, cfg)
	require.NoError(t, err)
	assert.False(t, reporter.HasErrors())
	require.Len(t, reporter.Diagnostics(), 1)
	assert.Contains(t, diagStr, "g.flag")
	assert.Contains(t, diagStr, "reserving 1 byte(s)")
}

func TestValidateWarnsOnNonPositiveWidths(t *testing.T) {
	cfg := &config.Config{
		Name: "k",
		Params: []config.ParamGroup{{
			Name:   "g",
			Params: []config.Param{{Name: "none", Width: 0}, {Name: "neg", Width: -4}},
		}},
	}
	diagStr, reporter, err := runValidation(t, cfg)
	require.NoError(t, err)
	assert.False(t, reporter.HasErrors())
	require.Len(t, reporter.Diagnostics(), 2)
	assert.Contains(t, diagStr, "param g.none: width 0 is not positive; declared as a single bit")
	assert.Contains(t, diagStr, "param g.neg: width -4 is not positive")
	assert.NotContains(t, diagStr, "byte aligned")
}

func TestValidateNilConfig(t *testing.T) {
	assert.Error(t, CheckConfig(nil, nil))
}
