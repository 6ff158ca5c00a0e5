package qb

import "fmt"

type Delete struct {
	PlaceholderGenerator PlaceholderGenerator
	From                 string
	Where                *Where
}

func (d Delete) ToSql() (string, []interface{}) {
	base := fmt.Sprintf("DELETE FROM %s", d.From)
	var args []interface{}
	if d.Where != nil {
		p := newPlaceholders(d.PlaceholderGenerator, d.Where.argCount())
		where, whereArgs := d.Where.toSql(p)
		base += " WHERE " + where
		args = append(args, whereArgs...)
	}
	return base, args
}
