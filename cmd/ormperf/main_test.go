package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func noEnv(string) (string, bool) { return "", false }

func invoke(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(""), &stdout, &stderr, noEnv, false)
	return code, stdout.String(), stderr.String()
}

func TestUsageExitsZero(t *testing.T) {
	code, out, _ := invoke("root")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Usage: ormperf <username> <password> [count]")
}

func TestBadFlagsExitTwo(t *testing.T) {
	code, _, errOut := invoke("--bogus", "u", "p")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "unknown flag: --bogus")

	code, _, errOut = invoke("u", "p", "lots")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, `invalid count "lots"`)
}

func TestConnectionFailureExitsOne(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "no", "such", "bench.db")
	code, out, _ := invoke("--driver", "sqlite3", "--database", db, "--log-dir", filepath.Join(dir, "log"), "u", "p", "1")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Please check your sqlite3 server or check existence of the database "+db)
}

func TestRunSQLite(t *testing.T) {
	dir := t.TempDir()
	code, out, errOut := invoke(
		"--driver", "sqlite3",
		"--database", filepath.Join(dir, "bench.db"),
		"--log-dir", filepath.Join(dir, "log"),
		"--cache", filepath.Join(dir, "performance.sql"),
		"--no-save-cache",
		"--seed", "3",
		"u", "p", "3",
	)
	assert.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "End Benchmark 11")
	assert.Contains(t, errOut, "fixtures ready")
}
