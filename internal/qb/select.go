package qb

import (
	"fmt"
	"strings"
)

type Selected struct {
	Columns []string
}

type OrderByOrder string

const (
	OrderByASC  OrderByOrder = "ASC"
	OrderByDESC OrderByOrder = "DESC"
)

type OrderBy struct {
	Columns []string
	Order   OrderByOrder
}

type Limit struct {
	N int
}

type Offset struct {
	N int
}

type Select struct {
	PlaceholderGenerator PlaceholderGenerator
	Table                string
	Selected             *Selected
	Where                *Where
	OrderBy              *OrderBy
	Limit                *Limit
	Offset               *Offset
}

func (s Select) ToSql() (string, []interface{}, error) {
	if s.Table == "" {
		return "", nil, fmt.Errorf("table name cannot be empty")
	}
	sections := []string{"SELECT"}
	if s.Selected == nil || len(s.Selected.Columns) == 0 {
		sections = append(sections, "*")
	} else {
		sections = append(sections, strings.Join(s.Selected.Columns, ","))
	}
	sections = append(sections, "FROM", s.Table)

	var args []interface{}
	if s.Where != nil {
		p := newPlaceholders(s.PlaceholderGenerator, s.Where.argCount())
		where, whereArgs := s.Where.toSql(p)
		sections = append(sections, "WHERE", where)
		args = append(args, whereArgs...)
	}
	if s.OrderBy != nil {
		order := s.OrderBy.Order
		if order == "" {
			order = OrderByASC
		}
		sections = append(sections, "ORDER BY", strings.Join(s.OrderBy.Columns, ","), string(order))
	}
	if s.Limit != nil {
		sections = append(sections, fmt.Sprintf("LIMIT %d", s.Limit.N))
	}
	if s.Offset != nil {
		sections = append(sections, fmt.Sprintf("OFFSET %d", s.Offset.N))
	}
	return strings.Join(sections, " "), args, nil
}
