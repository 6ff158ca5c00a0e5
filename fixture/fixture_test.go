package fixture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/golobby/ormperf/store"
	"github.com/golobby/ormperf/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var today = time.Date(2022, 5, 17, 0, 0, 0, 0, time.UTC)

type fakeSnapshot struct {
	exported []string
	imported []string
	err      error
}

func (f *fakeSnapshot) Export(_ context.Context, path string) error {
	f.exported = append(f.exported, path)
	return f.err
}

func (f *fakeSnapshot) Import(_ context.Context, path string) error {
	f.imported = append(f.imported, path)
	return f.err
}

func newGenerator(s store.RecordStore) *Generator {
	return NewGenerator(s, gofakeit.New(42), today, nil)
}

func TestGenerate(t *testing.T) {
	mem := storetest.NewMemory("memory")
	stats, err := newGenerator(mem).Generate(context.Background(), 25)
	require.NoError(t, err)
	assert.Equal(t, Stats{Users: 25, Exhibits: 25}, stats)

	all, err := mem.All(context.Background(), store.Query{})
	require.NoError(t, err)
	require.Len(t, all, 25)

	notes := all[0].(*storetest.Record).Notes()
	assert.NotEmpty(t, notes)
	for i, r := range all {
		rec := r.(*storetest.Record)
		assert.Equal(t, notes, rec.Notes(), "every exhibit shares one notes block")
		assert.GreaterOrEqual(t, rec.ZooID(), int64(0))
		assert.LessOrEqual(t, rec.ZooID(), int64(9))
		assert.Equal(t, int64(i+1), rec.UserID())
		assert.Equal(t, today, rec.CreatedOn())
		assert.NotEmpty(t, rec.Name())

		u, ok := mem.User(rec.UserID())
		require.True(t, ok)
		assert.NotEmpty(t, u[store.ColName])
		assert.Contains(t, u[store.ColEmail], "@")
	}
}

func TestGenerateLogsProgress(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	g := NewGenerator(storetest.NewMemory("memory"), gofakeit.New(1), today, zap.New(core))
	_, err := g.Generate(context.Background(), 2500)
	require.NoError(t, err)
	assert.Equal(t, 2, logs.FilterMessage("fixture progress").Len())
}

func TestGenerateStopsOnError(t *testing.T) {
	mem := storetest.NewMemory("memory")
	calls := 0
	mem.Hook = func(_ context.Context, op string) error {
		if op == "create" {
			calls++
			if calls == 3 {
				return errors.New("disk full")
			}
		}
		return nil
	}
	stats, err := newGenerator(mem).Generate(context.Background(), 10)
	assert.Error(t, err)
	assert.Equal(t, int64(3), stats.Users)
	assert.Equal(t, int64(2), stats.Exhibits)
}

func TestPrepare(t *testing.T) {
	ctx := context.Background()

	t.Run("existing cache is imported", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "performance.sql")
		require.NoError(t, os.WriteFile(path, []byte("--"), 0o644))
		mem := storetest.NewMemory("memory")
		snap := &fakeSnapshot{}

		stats, err := Prepare(ctx, newGenerator(mem), Cache{Path: path, Snapshot: snap}, 10)
		require.NoError(t, err)
		assert.True(t, stats.Loaded)
		assert.Equal(t, []string{path}, snap.imported)
		n, _ := mem.Count(ctx, store.ExhibitsTable)
		assert.Equal(t, int64(0), n, "nothing is generated")
	})

	t.Run("import failure is fatal", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "performance.sql")
		require.NoError(t, os.WriteFile(path, []byte("--"), 0o644))
		snap := &fakeSnapshot{err: errors.New("bad dump")}
		_, err := Prepare(ctx, newGenerator(storetest.NewMemory("memory")), Cache{Path: path, Snapshot: snap}, 10)
		assert.Error(t, err)
	})

	t.Run("save policy exports", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tmp", "performance.sql")
		snap := &fakeSnapshot{}
		stats, err := Prepare(ctx, newGenerator(storetest.NewMemory("memory")), Cache{Path: path, Snapshot: snap, Policy: CacheSave}, 3)
		require.NoError(t, err)
		assert.False(t, stats.Loaded)
		assert.Equal(t, int64(3), stats.Exhibits)
		assert.Equal(t, []string{path}, snap.exported)
	})

	t.Run("skip policy never asks", func(t *testing.T) {
		snap := &fakeSnapshot{}
		asked := false
		c := Cache{
			Path:     filepath.Join(t.TempDir(), "performance.sql"),
			Snapshot: snap,
			Policy:   CacheSkip,
			Prompt:   func(string) (bool, error) { asked = true; return true, nil },
		}
		_, err := Prepare(ctx, newGenerator(storetest.NewMemory("memory")), c, 3)
		require.NoError(t, err)
		assert.False(t, asked)
		assert.Empty(t, snap.exported)
	})

	t.Run("ask without terminal skips", func(t *testing.T) {
		snap := &fakeSnapshot{}
		c := Cache{Path: filepath.Join(t.TempDir(), "performance.sql"), Snapshot: snap}
		_, err := Prepare(ctx, newGenerator(storetest.NewMemory("memory")), c, 3)
		require.NoError(t, err)
		assert.Empty(t, snap.exported)
	})

	t.Run("ask uses the answer", func(t *testing.T) {
		snap := &fakeSnapshot{}
		var question string
		c := Cache{
			Path:     "tmp/performance.sql",
			Snapshot: snap,
			Prompt:   func(q string) (bool, error) { question = q; return true, nil },
		}
		_, err := Prepare(ctx, newGenerator(storetest.NewMemory("memory")), c, 1)
		require.NoError(t, err)
		assert.Equal(t, "Would you like to dump data into tmp/performance.sql (for faster setup)? [Yn]", question)
		assert.Equal(t, []string{"tmp/performance.sql"}, snap.exported)
	})
}

func TestPrompter(t *testing.T) {
	tests := []struct {
		input string
		want  bool
		asks  int
	}{
		{"y\n", true, 1},
		{"YES\n", true, 1},
		{"\ny\n", true, 2},
		{"\n\nn\n", false, 3},
		{"n\n", false, 1},
		{"No\n", false, 1},
		{"maybe\nnope\nn\n", false, 3},
		{"yes", true, 1},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out strings.Builder
			got, err := NewPrompter(strings.NewReader(tt.input), &out)("Dump? [Yn]")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.asks, strings.Count(out.String(), "Dump? [Yn]"))
		})
	}

	t.Run("closed input", func(t *testing.T) {
		_, err := NewPrompter(strings.NewReader(""), &strings.Builder{})("Dump? [Yn]")
		assert.Error(t, err)
	})

	t.Run("enter alone never saves", func(t *testing.T) {
		var out strings.Builder
		save, err := NewPrompter(strings.NewReader("\n"), &out)("Dump? [Yn]")
		assert.Error(t, err)
		assert.False(t, save)
		assert.Equal(t, 2, strings.Count(out.String(), "Dump? [Yn]"))
	})
}
