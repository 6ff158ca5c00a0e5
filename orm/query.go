package orm

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/golobby/ormperf/internal/qb"
)

type Order = qb.OrderByOrder

const (
	OrderASC  = qb.OrderByASC
	OrderDESC = qb.OrderByDESC
)

// QueryBuilder selects entities of type E. Errors found while building are
// kept and returned by the finisher.
type QueryBuilder[E Entity] struct {
	s       *schema
	err     error
	where   *qb.Where
	last    *qb.Where
	orderBy *qb.OrderBy
	limit   *qb.Limit
	offset  *qb.Offset
}

func Query[E Entity]() *QueryBuilder[E] {
	var e E
	s, err := getSchemaFor(e)
	return &QueryBuilder[E]{s: s, err: err}
}

func (q *QueryBuilder[E]) chain(cond qb.Cond, or bool) *QueryBuilder[E] {
	w := &qb.Where{Cond: cond}
	switch {
	case q.where == nil:
		q.where = w
	case or:
		q.last.Or = w
	default:
		q.last.And = w
	}
	q.last = w
	return q
}

// Where adds column = value, joined to earlier conditions with AND.
func (q *QueryBuilder[E]) Where(column string, value interface{}) *QueryBuilder[E] {
	return q.chain(qb.Cond{Lhs: column, Op: qb.Eq, Rhs: value}, false)
}

// WhereOp adds a condition with an explicit operator such as ">" or "IN".
// IN takes a []interface{}.
func (q *QueryBuilder[E]) WhereOp(column string, op string, value interface{}) *QueryBuilder[E] {
	bop, err := parseOp(op, value)
	if err != nil {
		q.err = err
		return q
	}
	return q.chain(qb.Cond{Lhs: column, Op: bop, Rhs: value}, false)
}

// OrWhere adds column = value, joined to earlier conditions with OR.
func (q *QueryBuilder[E]) OrWhere(column string, value interface{}) *QueryBuilder[E] {
	return q.chain(qb.Cond{Lhs: column, Op: qb.Eq, Rhs: value}, true)
}

func parseOp(op string, value interface{}) (qb.BinaryOp, error) {
	bop := qb.BinaryOp(strings.ToUpper(strings.TrimSpace(op)))
	switch bop {
	case qb.Eq, qb.GT, qb.LT, qb.GE, qb.LE, qb.NE, qb.Like:
		return bop, nil
	case qb.In:
		if _, ok := value.([]interface{}); !ok {
			return "", fmt.Errorf("IN needs a []interface{}, got %T", value)
		}
		return bop, nil
	}
	return "", fmt.Errorf("unsupported operator %q", op)
}

// OrderBy sorts by the given columns, or by the primary key when none are
// given.
func (q *QueryBuilder[E]) OrderBy(order Order, columns ...string) *QueryBuilder[E] {
	if q.err != nil {
		return q
	}
	if len(columns) == 0 {
		columns = []string{q.s.pk.Name}
	}
	q.orderBy = &qb.OrderBy{Columns: columns, Order: order}
	return q
}

func (q *QueryBuilder[E]) Limit(n int) *QueryBuilder[E] {
	q.limit = &qb.Limit{N: n}
	return q
}

func (q *QueryBuilder[E]) Offset(n int) *QueryBuilder[E] {
	q.offset = &qb.Offset{N: n}
	return q
}

func (q *QueryBuilder[E]) ToSql() (string, []interface{}, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	return qb.Select{
		PlaceholderGenerator: q.s.dialect.PlaceHolderGenerator,
		Table:                q.s.Table,
		Selected:             &qb.Selected{Columns: q.s.Columns(true)},
		Where:                q.where,
		OrderBy:              q.orderBy,
		Limit:                q.limit,
		Offset:               q.offset,
	}.ToSql()
}

// All returns every matching entity.
func (q *QueryBuilder[E]) All(ctx context.Context) ([]E, error) {
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	var out []E
	if _, err := bindContext(ctx, q.s, &out, sqlStr, args); err != nil {
		return nil, err
	}
	return out, nil
}

// One returns the first matching entity or sql.ErrNoRows.
func (q *QueryBuilder[E]) One(ctx context.Context) (E, error) {
	var out E
	q.Limit(1)
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return out, err
	}
	n, err := bindContext(ctx, q.s, &out, sqlStr, args)
	if err != nil {
		return out, err
	}
	if n == 0 {
		return out, sql.ErrNoRows
	}
	return out, nil
}

// Count returns the number of matching rows, ignoring order, limit and
// offset.
func (q *QueryBuilder[E]) Count(ctx context.Context) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	sqlStr, args, err := qb.Select{
		PlaceholderGenerator: q.s.dialect.PlaceHolderGenerator,
		Table:                q.s.Table,
		Selected:             &qb.Selected{Columns: []string{"COUNT(*)"}},
		Where:                q.where,
	}.ToSql()
	if err != nil {
		return 0, err
	}
	var n int64
	err = q.s.conn.queryRow(ctx, sqlStr, args...).Scan(&n)
	return n, err
}
