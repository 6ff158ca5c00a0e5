package bench

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golobby/ormperf/store"
	"github.com/golobby/ormperf/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var exhibit = store.Attributes{
	store.ColName:      "Acme",
	store.ColZooID:     3,
	store.ColNotes:     "notes",
	store.ColCreatedOn: time.Date(2022, 5, 17, 0, 0, 0, 0, time.UTC),
}

func seeded(t *testing.T, name string, rows int) *storetest.Memory {
	t.Helper()
	mem := storetest.NewMemory(name)
	for i := 0; i < rows; i++ {
		_, err := mem.Create(context.Background(), exhibit)
		require.NoError(t, err)
	}
	return mem
}

func find(t *testing.T, results []Result, scenario, binding string) Result {
	t.Helper()
	for _, r := range results {
		if r.Scenario == scenario && r.Binding == binding {
			return r
		}
	}
	t.Fatalf("no result for %s on %s", scenario, binding)
	return Result{}
}

func TestScenarioOrder(t *testing.T) {
	var names []string
	for _, sc := range Scenarios(exhibit) {
		names = append(names, sc.Name)
	}
	assert.Equal(t, []string{
		"get(1)",
		"new",
		"new(attrs)",
		"touch get(1)",
		"all(limit 100)",
		"all(limit 100) with relation",
		"create",
		"new.assign",
		"update",
		"destroy",
		"transaction.new",
	}, names)
}

func TestHalf(t *testing.T) {
	assert.Equal(t, 0, Half(0))
	assert.Equal(t, 1, Half(1))
	assert.Equal(t, 2, Half(4))
	assert.Equal(t, 3, Half(5))
}

func TestRunAllScenarios(t *testing.T) {
	a, b := seeded(t, "a", 3), seeded(t, "b", 3)
	out := &bytes.Buffer{}
	results := NewRunner([]store.RecordStore{a, b}, 4, 0, out, nil).Run(context.Background(), Scenarios(exhibit))

	require.Len(t, results, 22)
	for _, r := range results {
		assert.NoError(t, r.Err, r.Scenario)
	}
	assert.Equal(t, "a", results[0].Binding)
	assert.Equal(t, "b", results[1].Binding)

	destroy := find(t, results, "destroy", "a")
	assert.Equal(t, 2, destroy.Iterations)
	assert.Equal(t, 2, destroy.Completed)

	// 3 seeded, 4 created, 2 destroyed
	n, err := a.Count(context.Background(), store.ExhibitsTable)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	gone, err := b.Get(context.Background(), 1)
	assert.ErrorIs(t, err, store.ErrNotFound, "destroy removes the lowest ids first")
	assert.Nil(t, gone)
	r, err := b.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Acme", r.Name())

	assert.Contains(t, out.String(), "Begin Benchmark 1:\n")
	assert.Contains(t, out.String(), "End Benchmark 11\n")
	assert.Contains(t, out.String(), "a transaction.new:")
}

func TestUpdateWritesRowOne(t *testing.T) {
	mem := seeded(t, "a", 2)
	var update Scenario
	for _, sc := range Scenarios(exhibit) {
		if sc.Name == "update" {
			update = sc
		}
	}
	require.NoError(t, update.Step(context.Background(), mem))
	r, err := mem.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "bob", r.Name())
	r, err = mem.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Acme", r.Name())
}

func TestDestroyStopsWhenEmpty(t *testing.T) {
	mem := seeded(t, "a", 1)
	scenarios := Scenarios(exhibit)
	destroy := scenarios[9]
	require.Equal(t, "destroy", destroy.Name)

	results := NewRunner([]store.RecordStore{mem}, 10, 0, &bytes.Buffer{}, nil).Run(context.Background(), []Scenario{destroy})
	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, 5, results[0].Iterations)
	assert.Equal(t, 1, results[0].Completed)
}

func TestFailingSideIsRecorded(t *testing.T) {
	broken := seeded(t, "a", 1)
	broken.Hook = func(_ context.Context, op string) error {
		if op == "get" {
			return errors.New("connection reset")
		}
		return nil
	}
	healthy := seeded(t, "b", 1)

	core, logs := observer.New(zap.WarnLevel)
	out := &bytes.Buffer{}
	results := NewRunner([]store.RecordStore{broken, healthy}, 3, 0, out, zap.New(core)).
		Run(context.Background(), Scenarios(exhibit)[:3])

	require.Len(t, results, 6)
	failed := find(t, results, "get(1)", "a")
	assert.EqualError(t, failed.Err, "connection reset")
	assert.Equal(t, 0, failed.Completed)
	assert.NoError(t, find(t, results, "get(1)", "b").Err)
	assert.Equal(t, 3, find(t, results, "new", "a").Completed)

	assert.Contains(t, out.String(), "FAILED after 0/3: connection reset")
	require.Equal(t, 1, logs.FilterMessage("scenario side failed").Len())
	fields := logs.FilterMessage("scenario side failed").All()[0].ContextMap()
	assert.Equal(t, "get(1)", fields["scenario"])
	assert.Equal(t, "a", fields["binding"])
}

func TestTimeoutAbortsSide(t *testing.T) {
	slow := seeded(t, "a", 1)
	slow.Hook = func(ctx context.Context, op string) error {
		<-ctx.Done()
		return ctx.Err()
	}
	results := NewRunner([]store.RecordStore{slow}, 1000, 20*time.Millisecond, &bytes.Buffer{}, nil).
		Run(context.Background(), Scenarios(exhibit)[:1])

	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.DeadlineExceeded)
	assert.Less(t, results[0].Completed, 1000)
}

func TestRelationScenarioAsksForUser(t *testing.T) {
	plain := seeded(t, "a", 2)
	eager := storetest.Eager{Memory: seeded(t, "b", 2)}
	relation := Scenarios(exhibit)[5]
	require.Equal(t, "all(limit 100) with relation", relation.Name)

	NewRunner([]store.RecordStore{plain, eager}, 2, 0, &bytes.Buffer{}, nil).
		Run(context.Background(), []Scenario{relation})

	require.Len(t, eager.Queries, 2)
	assert.Equal(t, store.Query{Limit: 100, Preload: []string{"User"}}, eager.Queries[0])
	assert.Equal(t, []string{"User"}, store.Preloads(eager, eager.Queries[0].Preload...))
	assert.Empty(t, store.Preloads(plain, plain.Queries[0].Preload...))
}

func TestTransactionScenario(t *testing.T) {
	mem := seeded(t, "a", 0)
	var ops []string
	mem.Hook = func(_ context.Context, op string) error {
		ops = append(ops, op)
		return nil
	}
	tx := Scenarios(exhibit)[10]
	require.Equal(t, "transaction.new", tx.Name)
	results := NewRunner([]store.RecordStore{mem}, 3, 0, &bytes.Buffer{}, nil).Run(context.Background(), []Scenario{tx})
	assert.Equal(t, 3, results[0].Completed)
	assert.Equal(t, []string{"transaction", "transaction", "transaction"}, ops)
	assert.False(t, mem.InTx())
}

func TestOpsPerSec(t *testing.T) {
	assert.Equal(t, 0.0, Result{Completed: 5}.OpsPerSec())
	assert.Equal(t, 10.0, Result{Completed: 5, Elapsed: 500 * time.Millisecond}.OpsPerSec())
}
