package diag

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporterCountsErrorsOnly(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, "text")

	r.Warnf("width %d is odd", 7)
	assert.False(t, r.HasErrors())

	r.Errorf("bus %s is bad", "in")
	r.Errorf("bus %s is bad", "out")
	assert.True(t, r.HasErrors())
	assert.Equal(t, 2, r.ErrorCount())

	diags := r.Diagnostics()
	require.Len(t, diags, 3)
	assert.Equal(t, Warning, diags[0].Severity)
	assert.Equal(t, "bus in is bad", diags[1].Message)

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, `msg="bus out is bad"`)
	assert.NotContains(t, out, "time=")
}

func TestReporterJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, "json")
	r.Errorf("unsupported bus kind %q", "saxi")

	line := strings.TrimSpace(buf.String())
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &rec))
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, `unsupported bus kind "saxi"`, rec["msg"])
	_, hasTime := rec["time"]
	assert.False(t, hasTime)
}

func TestNilReporterIsSilent(t *testing.T) {
	var r *Reporter
	r.Errorf("ignored")
	r.Warnf("ignored")
	assert.False(t, r.HasErrors())
	assert.Nil(t, r.Diagnostics())
}
