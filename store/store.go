// Package store defines the capability every benchmarked ORM binding
// implements. The runner only ever talks to a RecordStore.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// Table names shared by every binding.
const (
	UsersTable    = "users"
	ExhibitsTable = "exhibits"
)

// Column names accepted in Attributes.
const (
	ColName      = "name"
	ColZooID     = "zoo_id"
	ColUserID    = "user_id"
	ColNotes     = "notes"
	ColCreatedOn = "created_on"
	ColEmail     = "email"
	ColAbout     = "about"
)

// Attributes carries column values keyed by column name.
type Attributes map[string]any

// Record is an exhibit handle owned by one binding.
type Record interface {
	ID() int64
	Name() string
	CreatedOn() time.Time
	Assign(attrs Attributes) error
}

// Query narrows All. Preload names relations to load eagerly and is
// ignored by bindings that are not EagerLoaders.
type Query struct {
	Limit   int
	Preload []string
}

// RecordStore is one ORM binding over the exhibits and users tables.
type RecordStore interface {
	Name() string
	// New instantiates an unsaved exhibit.
	New(attrs Attributes) (Record, error)
	Get(ctx context.Context, id int64) (Record, error)
	// First returns the exhibit with the lowest id.
	First(ctx context.Context) (Record, error)
	All(ctx context.Context, q Query) ([]Record, error)
	Create(ctx context.Context, attrs Attributes) (Record, error)
	CreateUser(ctx context.Context, attrs Attributes) (int64, error)
	Update(ctx context.Context, r Record, attrs Attributes) error
	Destroy(ctx context.Context, r Record) error
	// Transaction runs fn in one transaction. Calls made with the context
	// passed to fn join it.
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
	Count(ctx context.Context, table string) (int64, error)
	Close() error
}

// Migrator is implemented by bindings that can own the schema.
type Migrator interface {
	Migrate(ctx context.Context) error
	DropTables(ctx context.Context) error
}

// EagerLoader is implemented by bindings that honor Query.Preload.
type EagerLoader interface {
	EagerLoads() []string
}

// Preloads returns the relations s would load eagerly out of want.
func Preloads(s RecordStore, want ...string) []string {
	el, ok := s.(EagerLoader)
	if !ok {
		return nil
	}
	supported := map[string]bool{}
	for _, rel := range el.EagerLoads() {
		supported[rel] = true
	}
	var out []string
	for _, rel := range want {
		if supported[rel] {
			out = append(out, rel)
		}
	}
	return out
}
