// Package storetest provides an in-memory store.RecordStore for tests.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/golobby/ormperf/store"
)

type Record struct {
	id        int64
	name      string
	zooID     int64
	userID    int64
	notes     string
	createdOn time.Time
}

func (r *Record) ID() int64            { return r.id }
func (r *Record) Name() string         { return r.name }
func (r *Record) CreatedOn() time.Time { return r.createdOn }
func (r *Record) ZooID() int64         { return r.zooID }
func (r *Record) UserID() int64        { return r.userID }
func (r *Record) Notes() string        { return r.notes }

func (r *Record) Assign(attrs store.Attributes) error {
	for col, v := range attrs {
		if v == nil && col == store.ColUserID {
			r.userID = 0
			continue
		}
		var ok bool
		switch col {
		case store.ColName:
			r.name, ok = v.(string)
		case store.ColNotes:
			r.notes, ok = v.(string)
		case store.ColCreatedOn:
			r.createdOn, ok = v.(time.Time)
		case store.ColZooID, store.ColUserID:
			var n int64
			switch x := v.(type) {
			case int:
				n, ok = int64(x), true
			case int64:
				n, ok = x, true
			}
			if col == store.ColZooID {
				r.zooID = n
			} else {
				r.userID = n
			}
		}
		if !ok {
			return fmt.Errorf("cannot assign %T to %s", v, col)
		}
	}
	return nil
}

// Memory keeps exhibits and users in maps. Hook, when set, runs before
// every context-taking operation and its error is returned.
type Memory struct {
	name     string
	nextID   int64
	nextUser int64
	exhibits map[int64]*Record
	users    map[int64]store.Attributes
	inTx     bool

	Hook    func(ctx context.Context, op string) error
	Queries []store.Query
	Closed  bool
	Dropped bool
}

var (
	_ store.RecordStore = (*Memory)(nil)
	_ store.Migrator    = (*Memory)(nil)
)

func NewMemory(name string) *Memory {
	return &Memory{
		name:     name,
		exhibits: map[int64]*Record{},
		users:    map[int64]store.Attributes{},
	}
}

// Eager wraps a Memory that claims to preload the User relation.
type Eager struct {
	*Memory
}

func (Eager) EagerLoads() []string { return []string{"User"} }

func (m *Memory) hook(ctx context.Context, op string) error {
	if m.Hook != nil {
		return m.Hook(ctx, op)
	}
	return nil
}

func (m *Memory) Name() string { return m.name }

func (m *Memory) New(attrs store.Attributes) (store.Record, error) {
	r := &Record{}
	if err := r.Assign(attrs); err != nil {
		return nil, err
	}
	return r, nil
}

func (m *Memory) Get(ctx context.Context, id int64) (store.Record, error) {
	if err := m.hook(ctx, "get"); err != nil {
		return nil, err
	}
	r, ok := m.exhibits[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *Memory) ids() []int64 {
	ids := make([]int64, 0, len(m.exhibits))
	for id := range m.exhibits {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *Memory) First(ctx context.Context) (store.Record, error) {
	if err := m.hook(ctx, "first"); err != nil {
		return nil, err
	}
	ids := m.ids()
	if len(ids) == 0 {
		return nil, store.ErrNotFound
	}
	cp := *m.exhibits[ids[0]]
	return &cp, nil
}

func (m *Memory) All(ctx context.Context, q store.Query) ([]store.Record, error) {
	if err := m.hook(ctx, "all"); err != nil {
		return nil, err
	}
	m.Queries = append(m.Queries, q)
	var out []store.Record
	for _, id := range m.ids() {
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
		cp := *m.exhibits[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *Memory) Create(ctx context.Context, attrs store.Attributes) (store.Record, error) {
	if err := m.hook(ctx, "create"); err != nil {
		return nil, err
	}
	r := &Record{}
	if err := r.Assign(attrs); err != nil {
		return nil, err
	}
	m.nextID++
	r.id = m.nextID
	m.exhibits[r.id] = r
	cp := *r
	return &cp, nil
}

func (m *Memory) CreateUser(ctx context.Context, attrs store.Attributes) (int64, error) {
	if err := m.hook(ctx, "create_user"); err != nil {
		return 0, err
	}
	m.nextUser++
	m.users[m.nextUser] = attrs
	return m.nextUser, nil
}

func (m *Memory) Update(ctx context.Context, r store.Record, attrs store.Attributes) error {
	if err := m.hook(ctx, "update"); err != nil {
		return err
	}
	stored, ok := m.exhibits[r.ID()]
	if !ok {
		return store.ErrNotFound
	}
	if err := r.Assign(attrs); err != nil {
		return err
	}
	return stored.Assign(attrs)
}

func (m *Memory) Destroy(ctx context.Context, r store.Record) error {
	if err := m.hook(ctx, "destroy"); err != nil {
		return err
	}
	if _, ok := m.exhibits[r.ID()]; !ok {
		return store.ErrNotFound
	}
	delete(m.exhibits, r.ID())
	return nil
}

// Transaction does not roll back. It only records that fn ran inside it.
func (m *Memory) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := m.hook(ctx, "transaction"); err != nil {
		return err
	}
	m.inTx = true
	defer func() { m.inTx = false }()
	return fn(ctx)
}

// InTx reports whether a Transaction body is running.
func (m *Memory) InTx() bool { return m.inTx }

func (m *Memory) Count(ctx context.Context, table string) (int64, error) {
	if err := m.hook(ctx, "count"); err != nil {
		return 0, err
	}
	switch table {
	case store.UsersTable:
		return int64(len(m.users)), nil
	case store.ExhibitsTable:
		return int64(len(m.exhibits)), nil
	}
	return 0, fmt.Errorf("unknown table %s", table)
}

// User returns the attributes a user was created with.
func (m *Memory) User(id int64) (store.Attributes, bool) {
	u, ok := m.users[id]
	return u, ok
}

func (m *Memory) Migrate(ctx context.Context) error {
	return m.hook(ctx, "migrate")
}

func (m *Memory) DropTables(ctx context.Context) error {
	if err := m.hook(ctx, "drop"); err != nil {
		return err
	}
	m.Dropped = true
	m.exhibits = map[int64]*Record{}
	m.users = map[int64]store.Attributes{}
	return nil
}

func (m *Memory) Close() error {
	m.Closed = true
	return nil
}
