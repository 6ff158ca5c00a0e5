// Package gormstore binds gorm to store.RecordStore.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/golobby/ormperf/store"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const Name = "gorm"

// relationUser is the only relation gorm preloads.
const relationUser = "User"

type Config struct {
	Driver string
	DSN    string
	Logger *zap.Logger
	// Verbose logs every statement instead of only slow ones and errors.
	Verbose bool
}

type Store struct {
	db *gorm.DB
}

var (
	_ store.RecordStore = (*Store)(nil)
	_ store.Migrator    = (*Store)(nil)
	_ store.EagerLoader = (*Store)(nil)
)

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite", "sqlite3":
		return sqlite.Open(dsn), nil
	}
	return nil, fmt.Errorf("gorm has no dialector for driver %q", driver)
}

// Open connects gorm and pings the database.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	dialector, err := dialectorFor(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   newLogger(cfg.Logger, cfg.Verbose),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

type txKey struct{}

// conn returns the transaction carried by ctx or a session bound to ctx.
func (s *Store) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return s.db.WithContext(ctx)
}

func mapErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}

func (s *Store) Name() string { return Name }

func (s *Store) EagerLoads() []string { return []string{relationUser} }

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
	var e Exhibit
	if err := s.conn(ctx).First(&e, id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &record{exhibit: &e}, nil
}

func (s *Store) First(ctx context.Context) (store.Record, error) {
	var e Exhibit
	if err := s.conn(ctx).Order("id").First(&e).Error; err != nil {
		return nil, mapErr(err)
	}
	return &record{exhibit: &e}, nil
}

func (s *Store) All(ctx context.Context, q store.Query) ([]store.Record, error) {
	tx := s.conn(ctx)
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	for _, rel := range store.Preloads(s, q.Preload...) {
		tx = tx.Preload(rel)
	}
	var exhibits []Exhibit
	if err := tx.Find(&exhibits).Error; err != nil {
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
	if err := s.conn(ctx).Create(r.exhibit).Error; err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) CreateUser(ctx context.Context, attrs store.Attributes) (int64, error) {
	u, err := newUser(attrs)
	if err != nil {
		return 0, err
	}
	if err := s.conn(ctx).Create(u).Error; err != nil {
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

// Update writes only the given columns. Zero affected rows means the
// record was destroyed.
func (s *Store) Update(ctx context.Context, r store.Record, attrs store.Attributes) error {
	rec, err := s.own(r)
	if err != nil {
		return err
	}
	if err := rec.Assign(attrs); err != nil {
		return err
	}
	res := s.conn(ctx).Model(rec.exhibit).Updates(map[string]interface{}(attrs))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Destroy(ctx context.Context, r store.Record) error {
	rec, err := s.own(r)
	if err != nil {
		return err
	}
	res := s.conn(ctx).Delete(rec.exhibit)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func (s *Store) Count(ctx context.Context, table string) (int64, error) {
	var model interface{}
	switch table {
	case store.UsersTable:
		model = &User{}
	case store.ExhibitsTable:
		model = &Exhibit{}
	default:
		return 0, fmt.Errorf("unknown table %s", table)
	}
	var n int64
	err := s.conn(ctx).Model(model).Count(&n).Error
	return n, err
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.conn(ctx).AutoMigrate(&User{}, &Exhibit{})
}

func (s *Store) DropTables(ctx context.Context) error {
	return s.conn(ctx).Migrator().DropTable(&Exhibit{}, &User{})
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
