// Package snapshot saves and restores the benchmark tables so later runs
// can skip fixture generation.
package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DataSnapshot exports the fixture tables to a file and loads them back.
type DataSnapshot interface {
	Export(ctx context.Context, path string) error
	Import(ctx context.Context, path string) error
}

// Credentials locate a database server.
type Credentials struct {
	Host     string
	Port     int
	Socket   string
	User     string
	Password string
	Database string
}

// Command is one external tool invocation. Env is added to the current
// environment.
type Command struct {
	Name   string
	Args   []string
	Env    []string
	Stdin  io.Reader
	Stdout io.Writer
}

// Runner executes a Command.
type Runner func(ctx context.Context, c Command) error

// ExecRunner runs commands with os/exec and reports stderr on failure.
func ExecRunner(ctx context.Context, c Command) error {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.Stdin = c.Stdin
	cmd.Stdout = c.Stdout
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", c.Name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// ErrToolNotFound is returned when none of a tool's candidate binaries is
// on PATH.
var ErrToolNotFound = errors.New("tool not found on PATH")

type toolbox struct {
	run      Runner
	lookPath func(file string) (string, error)
}

func defaultToolbox() toolbox {
	return toolbox{run: ExecRunner, lookPath: exec.LookPath}
}

// find returns the first candidate present on PATH.
func (t toolbox) find(candidates ...string) (string, error) {
	for _, name := range candidates {
		if _, err := t.lookPath(name); err == nil {
			return name, nil
		}
	}
	return "", fmt.Errorf("%s: %w", strings.Join(candidates, ", "), ErrToolNotFound)
}

// dumpTo runs c with its stdout going to path. A failed dump leaves no
// file behind.
func (t toolbox) dumpTo(ctx context.Context, path string, c Command) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	c.Stdout = f
	err = t.run(ctx, c)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
	}
	return err
}

func (t toolbox) loadFrom(ctx context.Context, path string, c Command) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	c.Stdin = f
	return t.run(ctx, c)
}
