package gormstore

import (
	"fmt"
	"time"

	"github.com/golobby/ormperf/store"
)

type User struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"size:255"`
	Email     string    `gorm:"size:255"`
	About     string    `gorm:"type:text"`
	CreatedOn time.Time `gorm:"type:date"`
}

func (User) TableName() string { return store.UsersTable }

type Exhibit struct {
	ID        int64  `gorm:"primaryKey"`
	Name      string `gorm:"size:255"`
	ZooID     int64
	UserID    *int64
	User      *User
	Notes     string    `gorm:"type:text"`
	CreatedOn time.Time `gorm:"type:date"`
}

func (Exhibit) TableName() string { return store.ExhibitsTable }

type record struct {
	exhibit *Exhibit
}

func (r *record) ID() int64            { return r.exhibit.ID }
func (r *record) Name() string         { return r.exhibit.Name }
func (r *record) CreatedOn() time.Time { return r.exhibit.CreatedOn }

// Owner is the preloaded user, nil unless the record was fetched with the
// User relation.
func (r *record) Owner() *User { return r.exhibit.User }

func (r *record) Assign(attrs store.Attributes) error {
	e := r.exhibit
	for col, v := range attrs {
		var err error
		switch col {
		case store.ColName:
			e.Name, err = asString(v)
		case store.ColZooID:
			e.ZooID, err = asInt64(v)
		case store.ColUserID:
			if v == nil {
				e.UserID = nil
				continue
			}
			var id int64
			id, err = asInt64(v)
			e.UserID = &id
		case store.ColNotes:
			e.Notes, err = asString(v)
		case store.ColCreatedOn:
			e.CreatedOn, err = asTime(v)
		default:
			err = fmt.Errorf("exhibits has no column %s", col)
		}
		if err != nil {
			return fmt.Errorf("assign %s: %w", col, err)
		}
	}
	return nil
}

func newUser(attrs store.Attributes) (*User, error) {
	u := &User{}
	for col, v := range attrs {
		var err error
		switch col {
		case store.ColName:
			u.Name, err = asString(v)
		case store.ColEmail:
			u.Email, err = asString(v)
		case store.ColAbout:
			u.About, err = asString(v)
		case store.ColCreatedOn:
			u.CreatedOn, err = asTime(v)
		default:
			err = fmt.Errorf("users has no column %s", col)
		}
		if err != nil {
			return nil, fmt.Errorf("assign %s: %w", col, err)
		}
	}
	return u, nil
}

func asString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("want string, got %T", v)
	}
	return s, nil
}

func asTime(v any) (time.Time, error) {
	t, ok := v.(time.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("want time.Time, got %T", v)
	}
	return t, nil
}

func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	}
	return 0, fmt.Errorf("want an integer, got %T", v)
}
