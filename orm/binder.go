package orm

import (
	"database/sql"
	"fmt"
	"reflect"
)

type binder struct {
	s *schema
}

func newBinder(s *schema) *binder {
	return &binder{s: s}
}

// ptrsFor returns one scan destination per column. Columns without a
// matching field are scanned into a throwaway value.
func (b *binder) ptrsFor(v reflect.Value, columns []string) []interface{} {
	ptrs := make([]interface{}, 0, len(columns))
	for _, col := range columns {
		if f, ok := b.s.byColumn[col]; ok {
			ptrs = append(ptrs, v.Field(f.Index).Addr().Interface())
			continue
		}
		ptrs = append(ptrs, new(interface{}))
	}
	return ptrs
}

// bind scans rows into obj, which is a pointer to an entity struct or to a
// slice of entities or entity pointers. A struct receives only the first
// row. bind returns the number of rows scanned and closes rows.
func (b *binder) bind(rows *sql.Rows, obj interface{}) (int, error) {
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return 0, err
	}

	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return 0, fmt.Errorf("obj should be a non nil ptr, got %T", obj)
	}
	v = v.Elem()

	n := 0
	switch v.Kind() {
	case reflect.Slice:
		elem := v.Type().Elem()
		isPtr := elem.Kind() == reflect.Ptr
		if isPtr {
			elem = elem.Elem()
		}
		if elem != b.s.typ {
			return 0, fmt.Errorf("cannot bind %s rows into %s", b.s.Table, v.Type())
		}
		for rows.Next() {
			row := reflect.New(elem)
			if err := rows.Scan(b.ptrsFor(row.Elem(), columns)...); err != nil {
				return n, err
			}
			if isPtr {
				v.Set(reflect.Append(v, row))
			} else {
				v.Set(reflect.Append(v, row.Elem()))
			}
			n++
		}
	case reflect.Struct:
		if v.Type() != b.s.typ {
			return 0, fmt.Errorf("cannot bind %s rows into %s", b.s.Table, v.Type())
		}
		if rows.Next() {
			if err := rows.Scan(b.ptrsFor(v, columns)...); err != nil {
				return 0, err
			}
			n++
		}
	default:
		return 0, fmt.Errorf("cannot bind rows into %s", v.Type())
	}
	return n, rows.Err()
}
