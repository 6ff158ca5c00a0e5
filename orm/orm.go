package orm

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"reflect"

	"github.com/golobby/ormperf/internal/qb"
)

// KV maps column names to values.
type KV map[string]interface{}

// Insert given entities one row at a time and set their generated primary
// keys. Entities must be passed as pointers.
func Insert(ctx context.Context, objs ...Entity) error {
	for _, obj := range objs {
		if err := insert(ctx, obj); err != nil {
			return err
		}
	}
	return nil
}

func insert(ctx context.Context, obj Entity) error {
	s, err := getSchemaFor(obj)
	if err != nil {
		return err
	}
	ins := qb.Insert{
		PlaceholderGenerator: s.dialect.PlaceHolderGenerator,
		Into:                 s.Table,
		Columns:              s.columnNames(false),
		Values:               [][]interface{}{s.values(obj, false)},
	}
	if s.dialect.ReturningPK {
		ins.Returning = s.pk.Name
		q, args := ins.ToSql()
		var id int64
		if err := s.conn.queryRow(ctx, q, args...).Scan(&id); err != nil {
			return err
		}
		return s.setPK(obj, id)
	}

	q, args := ins.ToSql()
	res, err := s.conn.exec(ctx, q, args...)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	return s.setPK(obj, id)
}

func isZero(val interface{}) bool {
	return reflect.ValueOf(val).IsZero()
}

// Save upserts given entity.
func Save(ctx context.Context, obj Entity) error {
	s, err := getSchemaFor(obj)
	if err != nil {
		return err
	}
	if isZero(s.pkValue(obj)) {
		return Insert(ctx, obj)
	}
	return Update(ctx, obj)
}

func pkWhere(s *schema, id interface{}) *qb.Where {
	return &qb.Where{Cond: qb.Cond{Lhs: s.pk.Name, Op: qb.Eq, Rhs: id}}
}

// Find finds the Entity you want based on Entity generic type and primary key you passed.
// T must be the entity struct type itself. A missing row yields sql.ErrNoRows.
func Find[T Entity](ctx context.Context, id interface{}) (T, error) {
	var out T
	s, err := getSchemaFor(out)
	if err != nil {
		return out, err
	}
	q, args, err := qb.Select{
		PlaceholderGenerator: s.dialect.PlaceHolderGenerator,
		Table:                s.Table,
		Selected:             &qb.Selected{Columns: s.Columns(true)},
		Where:                pkWhere(s, id),
	}.ToSql()
	if err != nil {
		return out, err
	}
	n, err := bindContext(ctx, s, &out, q, args)
	if err != nil {
		return out, err
	}
	if n == 0 {
		return out, sql.ErrNoRows
	}
	return out, nil
}

// First returns the entity with the lowest primary key.
func First[T Entity](ctx context.Context) (T, error) {
	return Query[T]().OrderBy(OrderASC).One(ctx)
}

func toTuples(s *schema, obj Entity) [][2]interface{} {
	var tuples [][2]interface{}
	vs := s.values(obj, false)
	for i, col := range s.columnNames(false) {
		tuples = append(tuples, [2]interface{}{col, vs[i]})
	}
	return tuples
}

// Update given Entity in database. Updating a row that no longer exists is
// an error wrapping sql.ErrNoRows.
func Update(ctx context.Context, obj Entity) error {
	s, err := getSchemaFor(obj)
	if err != nil {
		return err
	}
	q, args := qb.Update{
		PlaceholderGenerator: s.dialect.PlaceHolderGenerator,
		Table:                s.Table,
		Set:                  toTuples(s, obj),
		Where:                pkWhere(s, s.pkValue(obj)),
	}.ToSql()
	res, err := s.conn.exec(ctx, q, args...)
	if err != nil {
		return err
	}
	return expectAffected(res, s, obj)
}

// Delete given Entity from database. Deleting a row that no longer exists
// is an error wrapping sql.ErrNoRows.
func Delete(ctx context.Context, obj Entity) error {
	s, err := getSchemaFor(obj)
	if err != nil {
		return err
	}
	q, args := qb.Delete{
		PlaceholderGenerator: s.dialect.PlaceHolderGenerator,
		From:                 s.Table,
		Where:                pkWhere(s, s.pkValue(obj)),
	}.ToSql()
	res, err := s.conn.exec(ctx, q, args...)
	if err != nil {
		return err
	}
	return expectAffected(res, s, obj)
}

// expectAffected treats zero affected rows as a missing record. MySQL
// connections need clientFoundRows=true so that an update writing the same
// values still counts the row.
func expectAffected(res sql.Result, s *schema, obj Entity) error {
	n, err := res.RowsAffected()
	if err != nil || n > 0 {
		return err
	}
	return fmt.Errorf("%s with %s=%v: %w", s.Table, s.pk.Name, s.pkValue(obj), sql.ErrNoRows)
}

func bindContext(ctx context.Context, s *schema, output interface{}, q string, args []interface{}) (int, error) {
	rows, err := s.conn.query(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return newBinder(s).bind(rows, output)
}

// BelongsTo loads the owner of property through the relation declared with
// EntityConfigurator.BelongsTo. A null foreign key yields sql.ErrNoRows.
func BelongsTo[OWNER Entity](ctx context.Context, property Entity) (OWNER, error) {
	var out OWNER
	owner, err := getSchemaFor(out)
	if err != nil {
		return out, err
	}
	s, err := getSchemaFor(property)
	if err != nil {
		return out, err
	}
	c, ok := s.relations[owner.Table].(BelongsToConfig)
	if !ok {
		return out, fmt.Errorf("wrong config passed for BelongsTo")
	}
	local, ok := s.byColumn[c.LocalForeignKey]
	if !ok {
		return out, fmt.Errorf("%s has no column %s", s.Table, c.LocalForeignKey)
	}
	fv := reflect.Indirect(reflect.ValueOf(property)).Field(local.Index)
	if fv.Kind() == reflect.Ptr {
		if fv.IsNil() {
			return out, sql.ErrNoRows
		}
		fv = fv.Elem()
	}
	ownerID := fv.Interface()
	if valuer, ok := ownerID.(driver.Valuer); ok {
		v, err := valuer.Value()
		if err != nil {
			return out, err
		}
		ownerID = v
	}
	if ownerID == nil {
		return out, sql.ErrNoRows
	}
	q, args, err := qb.Select{
		PlaceholderGenerator: owner.dialect.PlaceHolderGenerator,
		Table:                c.OwnerTable,
		Selected:             &qb.Selected{Columns: owner.Columns(true)},
		Where:                &qb.Where{Cond: qb.Cond{Lhs: c.ForeignColumnName, Op: qb.Eq, Rhs: ownerID}},
	}.ToSql()
	if err != nil {
		return out, err
	}
	n, err := bindContext(ctx, owner, &out, q, args)
	if err != nil {
		return out, err
	}
	if n == 0 {
		return out, sql.ErrNoRows
	}
	return out, nil
}

// Assign sets fields of obj from kv, keyed by column name. obj must be a
// pointer. Unknown columns are an error and leave obj partly assigned.
func Assign(obj Entity, kv KV) error {
	s, err := getSchemaFor(obj)
	if err != nil {
		return err
	}
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Ptr {
		return fmt.Errorf("cannot assign to non pointer %T", obj)
	}
	v = v.Elem()
	for col, value := range kv {
		f, ok := s.byColumn[col]
		if !ok {
			return fmt.Errorf("%s has no column %s", s.Table, col)
		}
		if err := setValue(v.Field(f.Index), value); err != nil {
			return fmt.Errorf("assign %s: %w", col, err)
		}
	}
	return nil
}
