package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const addJSON = `{
  "name": "add",
  "clocks": 1,
  "unroll": 1,
  "params": {"g": {"scalar": 32}},
  "buses": {"in": ["saxis", 1], "out": ["maxis", 1]}
}`

func TestParseExample(t *testing.T) {
	cfg, err := Parse([]byte(addJSON))
	require.NoError(t, err)

	assert.Equal(t, "add", cfg.Name)
	assert.Equal(t, 1, cfg.Clocks)
	assert.Equal(t, 1, cfg.Unroll)
	assert.Equal(t, []ParamGroup{{Name: "g", Params: []Param{{Name: "scalar", Width: 32}}}}, cfg.Params)
	assert.Equal(t, []Bus{
		{Name: "in", Kind: "saxis", VecLen: 1},
		{Name: "out", Kind: "maxis", VecLen: 1},
	}, cfg.Buses)
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`{"name": "k", "params": {}, "buses": {}}`))
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Clocks)
	assert.Equal(t, 1, cfg.Unroll)
	assert.Empty(t, cfg.Params)
	assert.Empty(t, cfg.Buses)
}

func TestParsePreservesDocumentOrder(t *testing.T) {
	doc := `{
  "name": "k",
  "params": {"zeta": {"b": 8, "a": 16}, "alpha": {"z": 64}},
  "buses": {"z_out": ["maxis", 2], "a_in": ["saxis", 1], "m_in": ["saxis", 4]}
}`
	for i := 0; i < 5; i++ {
		cfg, err := Parse([]byte(doc))
		require.NoError(t, err)

		var names []string
		for _, p := range cfg.AllParams() {
			names = append(names, p.Name)
		}
		assert.Equal(t, []string{"b", "a", "z"}, names)

		var buses []string
		for _, b := range cfg.Buses {
			buses = append(buses, b.Name)
		}
		assert.Equal(t, []string{"z_out", "a_in", "m_in"}, buses)
	}
}

func TestParseYAML(t *testing.T) {
	doc := `
name: fir
clocks: 2
unroll: 4
params:
  coeffs:
    c0: 16
    c1: 16
buses:
  samples: [saxis, 1]
  result: [maxis, 8]
`
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Clocks)
	assert.Equal(t, 4, cfg.Unroll)
	assert.Len(t, cfg.AllParams(), 2)
	assert.Equal(t, 8, cfg.Buses[1].VecLen)
}

func TestParseMissingKeys(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		key  string
	}{
		{name: "name", doc: `{"params": {}, "buses": {}}`, key: `"name"`},
		{name: "params", doc: `{"name": "k", "buses": {}}`, key: `"params"`},
		{name: "buses", doc: `{"name": "k", "params": {}}`, key: `"buses"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Contains(t, cfgErr.Reason, tc.key)
		})
	}
}

func TestParseRejectsMalformedInput(t *testing.T) {
	tests := map[string]string{
		"empty":           ``,
		"not mapping":     `[1, 2]`,
		"zero clocks":     `{"name": "k", "clocks": 0, "params": {}, "buses": {}}`,
		"negative unroll": `{"name": "k", "unroll": -2, "params": {}, "buses": {}}`,
		"bus not pair":    `{"name": "k", "params": {}, "buses": {"in": "saxis"}}`,
		"bad width":       `{"name": "k", "params": {"g": {"p": "wide"}}, "buses": {}}`,
		"syntax":          `{"name": `,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			cfg, err := Parse([]byte(doc))
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestBusRoles(t *testing.T) {
	assert.True(t, Bus{Kind: "maxis"}.IsMaster())
	assert.False(t, Bus{Kind: "saxis"}.IsMaster())
	assert.True(t, Bus{Kind: "saxis"}.IsStreaming())
	assert.True(t, Bus{Kind: "maxis"}.IsStreaming())
	assert.False(t, Bus{Kind: "maxi"}.IsStreaming())
	assert.False(t, Bus{Kind: "saxi"}.IsStreaming())
	assert.False(t, Bus{Kind: "axis"}.IsStreaming())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "add.json")
	require.NoError(t, os.WriteFile(path, []byte(addJSON), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "add", cfg.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
