package qb

import (
	"fmt"
	"strings"
)

type Insert struct {
	PlaceholderGenerator PlaceholderGenerator
	Into                 string
	Columns              []string
	Values               [][]interface{}
	// Returning is appended as RETURNING <col> for dialects without LastInsertId.
	Returning string
}

func (i Insert) flatValues() []interface{} {
	var values []interface{}
	for _, row := range i.Values {
		values = append(values, row...)
	}
	return values
}

func (i Insert) valuesStr() string {
	n := 0
	for _, row := range i.Values {
		n += len(row)
	}
	p := newPlaceholders(i.PlaceholderGenerator, n)

	output := make([]string, 0, len(i.Values))
	for _, row := range i.Values {
		phs := make([]string, 0, len(row))
		for range row {
			phs = append(phs, p.pop())
		}
		output = append(output, fmt.Sprintf("(%s)", strings.Join(phs, ",")))
	}
	return strings.Join(output, ",")
}

func (i Insert) ToSql() (string, []interface{}) {
	base := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		i.Into,
		strings.Join(i.Columns, ","),
		i.valuesStr(),
	)
	if i.Returning != "" {
		base += " RETURNING " + i.Returning
	}
	return base, i.flatValues()
}
