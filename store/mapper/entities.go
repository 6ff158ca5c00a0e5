package mapper

import (
	"context"
	"database/sql"
	"time"

	"github.com/golobby/ormperf/orm"
	"github.com/golobby/ormperf/store"
)

type User struct {
	ID        int64
	Name      string
	Email     string
	About     string
	CreatedOn time.Time
}

func (u User) ConfigureEntity(e *orm.EntityConfigurator) {
	e.Table(store.UsersTable)
	e.Field("About").Text()
}

type Exhibit struct {
	ID        int64
	Name      string
	ZooID     int64
	UserID    sql.NullInt64
	Notes     string
	CreatedOn time.Time
}

func (ex Exhibit) ConfigureEntity(e *orm.EntityConfigurator) {
	e.Table(store.ExhibitsTable).BelongsTo(User{}, orm.BelongsToConfig{})
	e.Field("Notes").Text()
}

// record is the mapper's store.Record. The owning user is only loaded on
// demand through Owner.
type record struct {
	exhibit *Exhibit
}

func (r *record) ID() int64            { return r.exhibit.ID }
func (r *record) Name() string         { return r.exhibit.Name }
func (r *record) CreatedOn() time.Time { return r.exhibit.CreatedOn }

func (r *record) Assign(attrs store.Attributes) error {
	return orm.Assign(r.exhibit, orm.KV(attrs))
}

// Owner lazily loads the user the exhibit belongs to.
func (r *record) Owner(ctx context.Context) (User, error) {
	u, err := orm.BelongsTo[User](ctx, r.exhibit)
	return u, mapErr(err)
}
