// Package bench times the same data access scenarios across every bound
// ORM.
package bench

import (
	"context"
	"errors"

	"github.com/golobby/ormperf/store"
)

// ErrExhausted ends a scenario's loop early without failing it.
var ErrExhausted = errors.New("nothing left to operate on")

type Scenario struct {
	Name string
	// Iterations turns the run count into this scenario's loop count. Nil
	// means the run count itself.
	Iterations func(n int) int
	Step       func(ctx context.Context, s store.RecordStore) error
}

func (sc Scenario) iterations(n int) int {
	if sc.Iterations == nil {
		return n
	}
	return sc.Iterations(n)
}

// Half is ceil(n/2).
func Half(n int) int {
	return (n + 1) / 2
}

// touch reads the attributes every fetch scenario looks at.
func touch(records ...store.Record) {
	for _, r := range records {
		_ = r.ID()
		_ = r.Name()
		_ = r.CreatedOn()
	}
}

// Scenarios returns the benchmark in its fixed order. Later scenarios
// mutate rows the earlier ones read, so the order must not change.
// exhibit is the attribute set every create iteration inserts.
func Scenarios(exhibit store.Attributes) []Scenario {
	samAttrs := store.Attributes{store.ColName: "sam", store.ColZooID: 1}
	tomAttrs := store.Attributes{store.ColName: "tom", store.ColZooID: 1}
	bobAttrs := store.Attributes{store.ColName: "bob"}
	limit100 := store.Query{Limit: 100}
	withUser := store.Query{Limit: 100, Preload: []string{"User"}}

	return []Scenario{
		{
			Name: "get(1)",
			Step: func(ctx context.Context, s store.RecordStore) error {
				_, err := s.Get(ctx, 1)
				return err
			},
		},
		{
			Name: "new",
			Step: func(ctx context.Context, s store.RecordStore) error {
				_, err := s.New(nil)
				return err
			},
		},
		{
			Name: "new(attrs)",
			Step: func(ctx context.Context, s store.RecordStore) error {
				_, err := s.New(samAttrs)
				return err
			},
		},
		{
			Name: "touch get(1)",
			Step: func(ctx context.Context, s store.RecordStore) error {
				r, err := s.Get(ctx, 1)
				if err != nil {
					return err
				}
				touch(r)
				return nil
			},
		},
		{
			Name: "all(limit 100)",
			Step: func(ctx context.Context, s store.RecordStore) error {
				rs, err := s.All(ctx, limit100)
				if err != nil {
					return err
				}
				touch(rs...)
				return nil
			},
		},
		{
			// Only bindings that are store.EagerLoaders act on the preload.
			Name: "all(limit 100) with relation",
			Step: func(ctx context.Context, s store.RecordStore) error {
				rs, err := s.All(ctx, withUser)
				if err != nil {
					return err
				}
				touch(rs...)
				return nil
			},
		},
		{
			Name: "create",
			Step: func(ctx context.Context, s store.RecordStore) error {
				_, err := s.Create(ctx, exhibit)
				return err
			},
		},
		{
			Name: "new.assign",
			Step: func(ctx context.Context, s store.RecordStore) error {
				r, err := s.New(samAttrs)
				if err != nil {
					return err
				}
				return r.Assign(tomAttrs)
			},
		},
		{
			Name: "update",
			Step: func(ctx context.Context, s store.RecordStore) error {
				r, err := s.Get(ctx, 1)
				if err != nil {
					return err
				}
				return s.Update(ctx, r, bobAttrs)
			},
		},
		{
			Name:       "destroy",
			Iterations: Half,
			Step: func(ctx context.Context, s store.RecordStore) error {
				r, err := s.First(ctx)
				if errors.Is(err, store.ErrNotFound) {
					return ErrExhausted
				}
				if err != nil {
					return err
				}
				return s.Destroy(ctx, r)
			},
		},
		{
			Name: "transaction.new",
			Step: func(ctx context.Context, s store.RecordStore) error {
				return s.Transaction(ctx, func(ctx context.Context) error {
					_, err := s.New(nil)
					return err
				})
			},
		},
	}
}
