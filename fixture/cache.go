package fixture

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/golobby/ormperf/snapshot"
	"github.com/golobby/ormperf/store"
	"go.uber.org/zap"
)

// CachePolicy decides whether freshly generated rows are saved.
type CachePolicy int

const (
	// CacheAsk prompts when a terminal is attached and skips otherwise.
	CacheAsk CachePolicy = iota
	CacheSave
	CacheSkip
)

// Prompter asks a yes/no question.
type Prompter func(question string) (bool, error)

type Cache struct {
	Path     string
	Snapshot snapshot.DataSnapshot
	Policy   CachePolicy
	// Prompt is consulted under CacheAsk. Nil means no terminal.
	Prompt Prompter
}

// Prepare loads rows from the cache file when it exists, otherwise
// generates n pairs and then applies the cache policy.
func Prepare(ctx context.Context, g *Generator, c Cache, n int) (Stats, error) {
	if c.Path != "" {
		if _, err := os.Stat(c.Path); err == nil {
			g.logger.Info("found data file, importing", zap.String("path", c.Path))
			if err := c.Snapshot.Import(ctx, c.Path); err != nil {
				return Stats{}, fmt.Errorf("import %s: %w", c.Path, err)
			}
			return loadedStats(ctx, g.store)
		}
	}

	g.logger.Info("generating data for benchmarking")
	stats, err := g.Generate(ctx, n)
	if err != nil {
		return stats, err
	}
	if c.Path == "" {
		return stats, nil
	}

	save, err := c.shouldSave()
	if err != nil {
		return stats, err
	}
	if !save {
		return stats, nil
	}
	if err := c.Snapshot.Export(ctx, c.Path); err != nil {
		return stats, fmt.Errorf("export %s: %w", c.Path, err)
	}
	g.logger.Info("file saved", zap.String("path", c.Path))
	return stats, nil
}

func (c Cache) shouldSave() (bool, error) {
	switch c.Policy {
	case CacheSave:
		return true, nil
	case CacheSkip:
		return false, nil
	}
	if c.Prompt == nil {
		return false, nil
	}
	return c.Prompt(fmt.Sprintf("Would you like to dump data into %s (for faster setup)? [Yn]", c.Path))
}

func loadedStats(ctx context.Context, s store.RecordStore) (Stats, error) {
	users, err := s.Count(ctx, store.UsersTable)
	if err != nil {
		return Stats{}, err
	}
	exhibits, err := s.Count(ctx, store.ExhibitsTable)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Users: users, Exhibits: exhibits, Loaded: true}, nil
}

// NewPrompter asks on out and reads answers from in. It accepts y, yes, n
// and no in any case and asks again on anything else, an empty line
// included.
func NewPrompter(in io.Reader, out io.Writer) Prompter {
	r := bufio.NewReader(in)
	return func(question string) (bool, error) {
		for {
			fmt.Fprint(out, question, " ")
			line, err := r.ReadString('\n')
			if err != nil && !(errors.Is(err, io.EOF) && line != "") {
				return false, err
			}
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "y", "yes":
				return true, nil
			case "n", "no":
				return false, nil
			}
		}
	}
}
