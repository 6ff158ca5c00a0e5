package config

import (
	"bytes"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/golobby/ormperf/fixture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(kv map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := kv[key]
		return v, ok
	}
}

func noSockets(t *testing.T) {
	t.Helper()
	old := SocketCandidates
	SocketCandidates = nil
	t.Cleanup(func() { SocketCandidates = old })
}

func TestParseUsage(t *testing.T) {
	for _, args := range [][]string{
		nil,
		{"root"},
		{"--driver", "sqlite3", "root"},
		{"--help"},
	} {
		_, err := Parse(args, env(nil))
		assert.ErrorIs(t, err, ErrUsage, "%v", args)
	}
}

func TestParseDefaults(t *testing.T) {
	noSockets(t)
	cfg, err := Parse([]string{"root", "secret"}, env(nil))
	require.NoError(t, err)
	assert.Equal(t, &Config{
		Username:  "root",
		Password:  "secret",
		Count:     DefaultCount,
		Driver:    DriverMySQL,
		Host:      DefaultHost,
		Port:      3306,
		Database:  DefaultDatabase,
		CachePath: DefaultCache,
		Cache:     fixture.CacheAsk,
		LogDir:    DefaultLogDir,
	}, cfg)
}

func TestCountPrecedence(t *testing.T) {
	noSockets(t)
	tests := []struct {
		name string
		args []string
		env  map[string]string
		want int
	}{
		{"default", nil, nil, 10000},
		{"legacy", nil, map[string]string{"x": "30"}, 30},
		{"env over legacy", nil, map[string]string{"x": "30", "ORMPERF_COUNT": "20"}, 20},
		{"empty env falls through", nil, map[string]string{"ORMPERF_COUNT": "", "x": "30"}, 30},
		{"cli over env", []string{"5"}, map[string]string{"x": "30", "ORMPERF_COUNT": "20"}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse(append([]string{"u", "p"}, tt.args...), env(tt.env))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Count)
		})
	}
}

func TestParseErrors(t *testing.T) {
	noSockets(t)
	for name, args := range map[string][]string{
		"bad count":      {"u", "p", "many"},
		"zero count":     {"u", "p", "0"},
		"extra args":     {"u", "p", "1", "2"},
		"unknown flag":   {"--bogus", "u", "p"},
		"unknown driver": {"--driver", "oracle", "u", "p"},
		"both cache":     {"--save-cache", "--no-save-cache", "u", "p"},
		"bad timeout":    {"--timeout", "soon", "u", "p"},
	} {
		_, err := Parse(args, env(nil))
		assert.Error(t, err, name)
		assert.NotErrorIs(t, err, ErrUsage, name)
	}

	_, err := Parse([]string{"u", "p"}, env(map[string]string{"ORMPERF_COUNT": "-3"}))
	assert.EqualError(t, err, "ORMPERF_COUNT: count must be positive, got -3")
}

func TestParseFlags(t *testing.T) {
	cfg, err := Parse([]string{
		"--driver", "postgres", "--host", "db.local", "--database", "bench",
		"--no-save-cache", "--timeout", "30s", "--results", "out/r.yaml",
		"--seed", "7", "-v", "--log-dir", "logs",
		"u", "p", "100",
	}, env(nil))
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Driver)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "db.local", cfg.Host)
	assert.Equal(t, fixture.CacheSkip, cfg.Cache)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "out/r.yaml", cfg.ResultsPath)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "logs", cfg.LogDir)
	assert.Equal(t, 100, cfg.Count)
}

func TestSocketDetection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mysql.sock")
	l, err := net.Listen("unix", path)
	require.NoError(t, err)
	defer l.Close()

	old := SocketCandidates
	SocketCandidates = []string{filepath.Join(dir, "missing.sock"), dir, path}
	t.Cleanup(func() { SocketCandidates = old })

	cfg, err := Parse([]string{"u", "p"}, env(nil))
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Socket)

	cfg, err = Parse([]string{"--host", "10.0.0.2", "u", "p"}, env(nil))
	require.NoError(t, err)
	assert.Empty(t, cfg.Socket, "an explicit host disables socket detection")
}

func TestMySQLDSN(t *testing.T) {
	cfg := &Config{Driver: DriverMySQL, Username: "root", Password: "p@ss", Host: "127.0.0.1", Port: 3307, Database: "bench"}
	parsed, err := mysql.ParseDSN(cfg.DSN())
	require.NoError(t, err)
	assert.Equal(t, "tcp", parsed.Net)
	assert.Equal(t, "127.0.0.1:3307", parsed.Addr)
	assert.Equal(t, "p@ss", parsed.Passwd)
	assert.True(t, parsed.ParseTime)
	assert.True(t, parsed.ClientFoundRows)

	cfg.Socket = "/tmp/mysql.sock"
	parsed, err = mysql.ParseDSN(cfg.DSN())
	require.NoError(t, err)
	assert.Equal(t, "unix", parsed.Net)
	assert.Equal(t, "/tmp/mysql.sock", parsed.Addr)
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{Driver: DriverPostgres, Username: "bench", Password: "it's secret", Host: "db", Port: 5432, Database: "dm_core_test"}
	assert.Equal(t,
		`host=db port=5432 user=bench password='it\'s secret' dbname=dm_core_test sslmode=disable`,
		cfg.DSN())
}

func TestSQLiteDSN(t *testing.T) {
	cfg := &Config{Driver: DriverSQLite, Database: "tmp/bench.db"}
	assert.Equal(t, "tmp/bench.db?_busy_timeout=5000", cfg.DSN())
}

func TestUsage(t *testing.T) {
	var out bytes.Buffer
	Usage(&out)
	assert.Contains(t, out.String(), "Usage: ormperf <username> <password> [count]")
	assert.Contains(t, out.String(), "--no-save-cache")
	assert.Contains(t, out.String(), "--driver")
}
