// Package mapper binds the orm package to store.RecordStore.
package mapper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/golobby/ormperf/orm"
	"github.com/golobby/ormperf/store"
	"go.uber.org/zap"

	// Drivers
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const Name = "mapper"

type Config struct {
	Driver string
	DSN    string
	// Logger receives every statement at debug level.
	Logger *zap.Logger
}

type Store struct {
	conn *orm.Connection
}

var (
	_ store.RecordStore = (*Store)(nil)
	_ store.Migrator    = (*Store)(nil)
)

// Open registers the mapper connection and pings it.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	var logger orm.Logger
	if cfg.Logger != nil {
		logger = orm.ZapLogger(cfg.Logger)
	}
	err := orm.SetupConnections(orm.ConnectionConfig{
		Name:             Name,
		Driver:           cfg.Driver,
		ConnectionString: cfg.DSN,
		Entities:         []orm.Entity{User{}, Exhibit{}},
		Logger:           logger,
	})
	if err != nil {
		return nil, err
	}
	conn := orm.GetConnection(Name)
	if err := conn.DB.PingContext(ctx); err != nil {
		_ = orm.CloseConnection(Name)
		return nil, err
	}
	return &Store{conn: conn}, nil
}

func mapErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func (s *Store) Name() string { return Name }

func (s *Store) New(attrs store.Attributes) (store.Record, error) {
	r := &record{exhibit: &Exhibit{}}
	if len(attrs) == 0 {
		return r, nil
	}
	if err := r.Assign(attrs); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) Get(ctx context.Context, id int64) (store.Record, error) {
	e, err := orm.Find[Exhibit](ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return &record{exhibit: &e}, nil
}

func (s *Store) First(ctx context.Context) (store.Record, error) {
	e, err := orm.First[Exhibit](ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	return &record{exhibit: &e}, nil
}

// All ignores q.Preload. Owners are loaded lazily through record.Owner.
func (s *Store) All(ctx context.Context, q store.Query) ([]store.Record, error) {
	query := orm.Query[Exhibit]()
	if q.Limit > 0 {
		query.Limit(q.Limit)
	}
	exhibits, err := query.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]store.Record, len(exhibits))
	for i := range exhibits {
		out[i] = &record{exhibit: &exhibits[i]}
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, attrs store.Attributes) (store.Record, error) {
	r := &record{exhibit: &Exhibit{}}
	if err := r.Assign(attrs); err != nil {
		return nil, err
	}
	if err := orm.Insert(ctx, r.exhibit); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) CreateUser(ctx context.Context, attrs store.Attributes) (int64, error) {
	u := &User{}
	if err := orm.Assign(u, orm.KV(attrs)); err != nil {
		return 0, err
	}
	if err := orm.Insert(ctx, u); err != nil {
		return 0, err
	}
	return u.ID, nil
}

func (s *Store) own(r store.Record) (*record, error) {
	rec, ok := r.(*record)
	if !ok {
		return nil, fmt.Errorf("%T is not a %s record", r, Name)
	}
	return rec, nil
}

func (s *Store) Update(ctx context.Context, r store.Record, attrs store.Attributes) error {
	rec, err := s.own(r)
	if err != nil {
		return err
	}
	if err := rec.Assign(attrs); err != nil {
		return err
	}
	return mapErr(orm.Update(ctx, rec.exhibit))
}

func (s *Store) Destroy(ctx context.Context, r store.Record) error {
	rec, err := s.own(r)
	if err != nil {
		return err
	}
	return mapErr(orm.Delete(ctx, rec.exhibit))
}

func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.conn.Transaction(ctx, fn)
}

func (s *Store) Count(ctx context.Context, table string) (int64, error) {
	switch table {
	case store.UsersTable:
		return orm.Query[User]().Count(ctx)
	case store.ExhibitsTable:
		return orm.Query[Exhibit]().Count(ctx)
	}
	return 0, fmt.Errorf("unknown table %s", table)
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.conn.AutoMigrate(ctx)
}

func (s *Store) DropTables(ctx context.Context) error {
	return s.conn.DropTables(ctx)
}

// Schematic prints the inferred schema of both tables.
func (s *Store) Schematic(w io.Writer) {
	s.conn.Schematic(w)
}

// DB is the pool the mapper runs on.
func (s *Store) DB() *sql.DB {
	return s.conn.DB
}

func (s *Store) Close() error {
	return orm.CloseConnection(Name)
}
