// Command ormperf times the mapper ORM against gorm over the same tables.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/golobby/ormperf/config"
	"github.com/golobby/ormperf/harness"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
)

const (
	exitOK    = 0
	exitFatal = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.LookupEnv, isTerminal(os.Stdin))
	stop()
	os.Exit(code)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, lookupEnv func(string) (string, bool), interactive bool) int {
	cfg, err := config.Parse(args, lookupEnv)
	if errors.Is(err, config.ErrUsage) {
		config.Usage(stdout)
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "ormperf: %v\n", err)
		config.Usage(stderr)
		return exitUsage
	}

	logger := harness.NewConsoleLogger(stderr, cfg.Verbose)
	defer func() { _ = logger.Sync() }()

	err = harness.Run(ctx, cfg, harness.Options{
		Stdin:       stdin,
		Stdout:      stdout,
		Interactive: interactive,
		Logger:      logger,
	})
	var connErr *harness.ConnectionError
	switch {
	case errors.As(err, &connErr):
		fmt.Fprintln(stdout, connErr.Error())
		logger.Debug("connection failed", zap.Error(connErr.Err))
		return exitFatal
	case err != nil:
		logger.Error("benchmark aborted", zap.Error(err))
		return exitFatal
	}
	return exitOK
}
