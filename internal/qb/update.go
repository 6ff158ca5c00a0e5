package qb

import (
	"fmt"
	"strings"
)

type Update struct {
	PlaceholderGenerator PlaceholderGenerator
	Table                string
	Set                  [][2]interface{}
	Where                *Where
}

func (u Update) ToSql() (string, []interface{}) {
	n := len(u.Set)
	if u.Where != nil {
		n += u.Where.argCount()
	}
	p := newPlaceholders(u.PlaceholderGenerator, n)

	pairs := make([]string, 0, len(u.Set))
	args := make([]interface{}, 0, n)
	for _, kv := range u.Set {
		pairs = append(pairs, fmt.Sprintf("%s=%s", kv[0], p.pop()))
		args = append(args, kv[1])
	}
	base := fmt.Sprintf("UPDATE %s SET %s", u.Table, strings.Join(pairs, ","))
	if u.Where != nil {
		where, whereArgs := u.Where.toSql(p)
		base += " WHERE " + where
		args = append(args, whereArgs...)
	}
	return base, args
}
