package bench

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var sample = []Result{
	{Scenario: "get(1)", Binding: "mapper", Elapsed: time.Second, Iterations: 10, Completed: 10},
	{Scenario: "get(1)", Binding: "gorm", Elapsed: time.Second, Iterations: 10, Completed: 5},
	{Scenario: "update", Binding: "mapper", Elapsed: time.Second, Iterations: 10, Completed: 1, Err: errors.New("deadlock")},
	{Scenario: "update", Binding: "gorm", Elapsed: time.Second, Iterations: 10, Completed: 10},
}

func TestRatio(t *testing.T) {
	fastest, ratio, ok := Ratio(sample[:2])
	require.True(t, ok)
	assert.Equal(t, "mapper", fastest)
	assert.InDelta(t, 2.0, ratio, 1e-9)

	_, _, ok = Ratio(sample[2:])
	assert.False(t, ok, "a failed side has no ratio")

	_, _, ok = Ratio(sample[:1])
	assert.False(t, ok)
}

func TestWriteSummary(t *testing.T) {
	out := &bytes.Buffer{}
	WriteSummary(out, []string{"mapper", "gorm"}, sample)
	s := out.String()

	assert.Contains(t, s, "Scenario")
	assert.NotContains(t, s, "MAPPER")
	assert.Contains(t, s, "mapper ops/s")
	assert.Contains(t, s, "gorm ops/s")
	assert.Contains(t, s, "get(1)")
	assert.Contains(t, s, "mapper 2.00x")
	assert.Contains(t, s, "FAILED (1/10)")
	assert.Contains(t, s, "10.0")
}

func TestWriteResults(t *testing.T) {
	meta := Meta{
		RunID:     "run-1",
		Driver:    "sqlite3",
		Count:     10,
		StartedAt: time.Date(2022, 5, 17, 10, 0, 0, 0, time.UTC),
	}
	out := &bytes.Buffer{}
	require.NoError(t, WriteResults(out, meta, sample))

	var doc document
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, meta, doc.Meta)
	require.Len(t, doc.Results, 4)
	assert.Equal(t, "gorm", doc.Results[1].Binding)
	assert.InDelta(t, 5.0, doc.Results[1].OpsPerSec, 1e-9)
	assert.Empty(t, doc.Results[1].Error)
	assert.Equal(t, "deadlock", doc.Results[2].Error)
	assert.Contains(t, out.String(), "run_id: run-1\n")
}

func TestSaveResultsCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "results.yaml")
	require.NoError(t, SaveResults(path, Meta{RunID: "x"}, sample[:1]))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "scenario: get(1)")
}
