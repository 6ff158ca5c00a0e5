// Package fixture seeds the benchmark tables with synthetic users and
// exhibits.
package fixture

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/golobby/ormperf/store"
	"go.uber.org/zap"
)

// progressEvery is how many pairs pass between progress lines.
const progressEvery = 1000

type Stats struct {
	Users    int64
	Exhibits int64
	// Loaded is true when rows came from the cache file.
	Loaded bool
}

type Generator struct {
	store  store.RecordStore
	faker  *gofakeit.Faker
	today  time.Time
	logger *zap.Logger
}

func NewGenerator(s store.RecordStore, faker *gofakeit.Faker, today time.Time, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{store: s, faker: faker, today: today, logger: logger}
}

// Today is the current local date at midnight UTC, the value stored in
// created_on columns.
func Today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Notes returns a lorem block of a few paragraphs.
func (g *Generator) Notes() string {
	return g.faker.Paragraph(3, 5, 12, "\n")
}

// ExhibitAttrs returns one fully populated exhibit with the given notes.
func (g *Generator) ExhibitAttrs(notes string) store.Attributes {
	return store.Attributes{
		store.ColName:      g.faker.Company(),
		store.ColZooID:     g.faker.Number(0, 9),
		store.ColNotes:     notes,
		store.ColCreatedOn: g.today,
	}
}

// Generate inserts n users, each with one exhibit pointing at it. Every
// exhibit shares one notes block.
func (g *Generator) Generate(ctx context.Context, n int) (Stats, error) {
	var stats Stats
	notes := g.Notes()
	g.logger.Info("inserting users and exhibits", zap.Int("count", n))
	for i := 0; i < n; i++ {
		uid, err := g.store.CreateUser(ctx, store.Attributes{
			store.ColName:      g.faker.Name(),
			store.ColEmail:     g.faker.Email(),
			store.ColCreatedOn: g.today,
		})
		if err != nil {
			return stats, fmt.Errorf("create user %d: %w", i+1, err)
		}
		stats.Users++

		attrs := g.ExhibitAttrs(notes)
		attrs[store.ColUserID] = uid
		if _, err := g.store.Create(ctx, attrs); err != nil {
			return stats, fmt.Errorf("create exhibit %d: %w", i+1, err)
		}
		stats.Exhibits++

		if (i+1)%progressEvery == 0 {
			g.logger.Info("fixture progress", zap.Int("done", i+1), zap.Int("of", n))
		}
	}
	return stats, nil
}
