// Package config resolves the run configuration once, from the command line
// and the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/golobby/ormperf/fixture"
	"github.com/golobby/ormperf/snapshot"
	"github.com/spf13/pflag"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

const (
	DefaultCount    = 10000
	DefaultHost     = "127.0.0.1"
	DefaultDatabase = "dm_core_test"
	DefaultCache    = "tmp/performance.sql"
	DefaultLogDir   = "log"

	// CountEnv overrides the default count. LegacyCountEnv is read when it
	// is unset.
	CountEnv       = "ORMPERF_COUNT"
	LegacyCountEnv = "x"
)

// ErrUsage is returned when the positional arguments are missing or help
// was asked for.
var ErrUsage = errors.New("usage: ormperf <username> <password> [count] [flags]")

// SocketCandidates are tried in order for a MySQL unix socket when none is
// given and the host is left at its default.
var SocketCandidates = []string{
	"/opt/local/var/run/mysql5/mysqld.sock",
	"tmp/mysqld.sock",
	"/tmp/mysqld.sock",
	"tmp/mysql.sock",
	"/tmp/mysql.sock",
	"/var/mysql/mysql.sock",
	"/var/run/mysqld/mysqld.sock",
}

// Config is immutable once Parse returns it.
type Config struct {
	Username string
	Password string
	Count    int

	Driver   string
	Host     string
	Port     int
	Database string
	Socket   string

	CachePath string
	Cache     fixture.CachePolicy

	Timeout     time.Duration
	LogDir      string
	ResultsPath string
	Seed        int64
	Verbose     bool
}

type flags struct {
	driver, host, database, socket string
	port                           int
	cache, logDir, results         string
	saveCache, noSaveCache         bool
	timeout                        time.Duration
	seed                           int64
	verbose                        bool
}

func newFlagSet(f *flags) *pflag.FlagSet {
	fs := pflag.NewFlagSet("ormperf", pflag.ContinueOnError)
	fs.SortFlags = false
	fs.StringVar(&f.driver, "driver", DriverMySQL, "database driver: mysql, postgres or sqlite3")
	fs.StringVar(&f.host, "host", DefaultHost, "database host")
	fs.IntVar(&f.port, "port", 0, "database port (default per driver)")
	fs.StringVar(&f.database, "database", DefaultDatabase, "database name, or file path for sqlite3")
	fs.StringVar(&f.socket, "socket", "", "mysql unix socket (detected when unset)")
	fs.StringVar(&f.cache, "cache", DefaultCache, "fixture dump file")
	fs.BoolVar(&f.saveCache, "save-cache", false, "save generated fixtures without asking")
	fs.BoolVar(&f.noSaveCache, "no-save-cache", false, "never save generated fixtures")
	fs.DurationVar(&f.timeout, "timeout", 0, "per scenario timeout for each binding, 0 for none")
	fs.StringVar(&f.logDir, "log-dir", DefaultLogDir, "directory for backend logs")
	fs.StringVar(&f.results, "results", "", "write results as YAML to this file")
	fs.Int64Var(&f.seed, "seed", 0, "fixture seed, 0 for time based")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log every statement")
	return fs
}

// Usage writes the command synopsis and flag defaults.
func Usage(w io.Writer) {
	fs := newFlagSet(&flags{})
	fmt.Fprintf(w, "Usage: ormperf <username> <password> [count] [flags]\n\nFlags:\n")
	fs.SetOutput(w)
	fs.PrintDefaults()
}

// Parse builds a Config from args (without the program name). lookupEnv
// is usually os.LookupEnv.
func Parse(args []string, lookupEnv func(string) (string, bool)) (*Config, error) {
	var f flags
	fs := newFlagSet(&f)
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, ErrUsage
		}
		return nil, err
	}

	pos := fs.Args()
	if len(pos) < 2 {
		return nil, ErrUsage
	}
	if len(pos) > 3 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(pos[3:], " "))
	}

	count, err := resolveCount(pos[2:], lookupEnv)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Username:    pos[0],
		Password:    pos[1],
		Count:       count,
		Driver:      f.driver,
		Host:        f.host,
		Port:        f.port,
		Database:    f.database,
		Socket:      f.socket,
		CachePath:   f.cache,
		Timeout:     f.timeout,
		LogDir:      f.logDir,
		ResultsPath: f.results,
		Seed:        f.seed,
		Verbose:     f.verbose,
	}

	switch cfg.Driver {
	case DriverMySQL:
		if cfg.Port == 0 {
			cfg.Port = 3306
		}
		if cfg.Socket == "" && !fs.Changed("host") {
			cfg.Socket = detectSocket(SocketCandidates)
		}
	case DriverPostgres:
		if cfg.Port == 0 {
			cfg.Port = 5432
		}
	case DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}

	switch {
	case f.saveCache && f.noSaveCache:
		return nil, errors.New("--save-cache and --no-save-cache are exclusive")
	case f.saveCache:
		cfg.Cache = fixture.CacheSave
	case f.noSaveCache:
		cfg.Cache = fixture.CacheSkip
	default:
		cfg.Cache = fixture.CacheAsk
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("negative timeout %s", cfg.Timeout)
	}
	return cfg, nil
}

// resolveCount applies CLI arg > CountEnv > LegacyCountEnv > DefaultCount.
func resolveCount(arg []string, lookupEnv func(string) (string, bool)) (int, error) {
	if len(arg) > 0 {
		return parseCount("count", arg[0])
	}
	if lookupEnv != nil {
		for _, key := range []string{CountEnv, LegacyCountEnv} {
			if v, ok := lookupEnv(key); ok && v != "" {
				return parseCount(key, v)
			}
		}
	}
	return DefaultCount, nil
}

func parseCount(source, v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s: invalid count %q", source, v)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s: count must be positive, got %d", source, n)
	}
	return n, nil
}

func detectSocket(candidates []string) string {
	for _, path := range candidates {
		info, err := os.Stat(path)
		if err == nil && info.Mode()&os.ModeSocket != 0 {
			return path
		}
	}
	return ""
}

// DSN returns the connection string both bindings open.
func (c *Config) DSN() string {
	switch c.Driver {
	case DriverPostgres:
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			quote(c.Host), c.Port, quote(c.Username), quote(c.Password), quote(c.Database))
	case DriverSQLite:
		return c.Database + "?_busy_timeout=5000"
	}
	mc := mysql.NewConfig()
	mc.User = c.Username
	mc.Passwd = c.Password
	mc.DBName = c.Database
	if c.Socket != "" {
		mc.Net = "unix"
		mc.Addr = c.Socket
	} else {
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	}
	mc.ParseTime = true
	// Same-value updates must still report the matched row.
	mc.ClientFoundRows = true
	return mc.FormatDSN()
}

// quote escapes a keyword/value connection string value.
func quote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// Credentials are what the native dump tools need.
func (c *Config) Credentials() snapshot.Credentials {
	return snapshot.Credentials{
		Host:     c.Host,
		Port:     c.Port,
		Socket:   c.Socket,
		User:     c.Username,
		Password: c.Password,
		Database: c.Database,
	}
}
