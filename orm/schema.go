package orm

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
)

type Entity interface {
	ConfigureEntity(e *EntityConfigurator)
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
)

type field struct {
	Name     string
	Index    int
	IsPK     bool
	Virtual  bool
	LongText bool
	Type     reflect.Type
}

func (f *field) kind() columnKind {
	t := f.Type
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t {
	case timeType, reflect.TypeOf(sql.NullTime{}):
		return kindDate
	case reflect.TypeOf(sql.NullInt64{}), reflect.TypeOf(sql.NullInt32{}), reflect.TypeOf(sql.NullInt16{}):
		return kindInteger
	case reflect.TypeOf(sql.NullFloat64{}):
		return kindFloat
	case reflect.TypeOf(sql.NullBool{}):
		return kindBool
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return kindInteger
	case reflect.Float32, reflect.Float64:
		return kindFloat
	case reflect.Bool:
		return kindBool
	}
	if f.LongText {
		return kindLongText
	}
	return kindText
}

// isRelationType reports whether a struct field holds something other than a
// column value, like an embedded owner or a slice of children.
func isRelationType(t reflect.Type) bool {
	if t == timeType || reflect.PtrTo(t).Implements(scannerType) {
		return false
	}
	switch t.Kind() {
	case reflect.Struct, reflect.Map, reflect.Interface:
		return true
	case reflect.Slice:
		return t.Elem().Kind() != reflect.Uint8
	case reflect.Ptr:
		return isRelationType(t.Elem())
	}
	return false
}

func typeOf(obj interface{}) reflect.Type {
	t := reflect.TypeOf(obj)
	for t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	return t
}

func fieldsOf(t reflect.Type, constraints []*FieldConfigurator) []*field {
	byName := map[string]*FieldConfigurator{}
	for _, fc := range constraints {
		byName[fc.fieldName] = fc
	}
	var fms []*field
	for i := 0; i < t.NumField(); i++ {
		ft := t.Field(i)
		if ft.PkgPath != "" {
			continue
		}
		fm := &field{Index: i, Type: ft.Type, Name: strcase.ToSnake(ft.Name)}
		fc := byName[ft.Name]
		if fc != nil && fc.column != "" {
			fm.Name = fc.column
		}
		if (fc != nil && fc.primaryKey) || strings.ToLower(ft.Name) == "id" {
			fm.IsPK = true
		}
		if (fc != nil && fc.virtual) || isRelationType(ft.Type) {
			fm.Virtual = true
		}
		if fc != nil && fc.longText {
			fm.LongText = true
		}
		fms = append(fms, fm)
	}
	return fms
}

type schema struct {
	Table     string
	conn      *Connection
	dialect   *Dialect
	typ       reflect.Type
	fields    []*field
	byColumn  map[string]*field
	pk        *field
	relations map[string]interface{}
}

func schemaOf(e Entity, dialect *Dialect) (*schema, error) {
	configurator := newEntityConfigurator()
	e.ConfigureEntity(configurator)
	for _, resolve := range configurator.resolveRelations {
		resolve()
	}
	if configurator.table == "" {
		return nil, fmt.Errorf("table name is mandatory for entities, %T has none", e)
	}
	s := &schema{
		Table:     configurator.table,
		dialect:   dialect,
		typ:       typeOf(e),
		relations: configurator.relations,
		byColumn:  map[string]*field{},
	}
	s.fields = fieldsOf(s.typ, configurator.columnConstraints)
	for _, f := range s.fields {
		if f.IsPK {
			s.pk = f
		}
		if !f.Virtual {
			s.byColumn[f.Name] = f
		}
	}
	if s.pk == nil {
		return nil, fmt.Errorf("%s has no primary key field", s.typ)
	}
	return s, nil
}

// getSchemaFor finds the schema registered for the entity type. When the
// type lives on several connections the entity's configured connection
// decides.
func getSchemaFor(obj interface{}) (*schema, error) {
	t := typeOf(obj)
	var found []*schema
	for _, c := range globalConnections {
		if s, ok := c.byType[t]; ok {
			found = append(found, s)
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%s is not registered on any connection", t)
	case 1:
		return found[0], nil
	}
	e, ok := reflect.New(t).Interface().(Entity)
	if !ok {
		return nil, fmt.Errorf("%s is not an entity", t)
	}
	configurator := newEntityConfigurator()
	e.ConfigureEntity(configurator)
	c, ok := globalConnections[configurator.connection]
	if !ok {
		return nil, fmt.Errorf("%s is registered on %d connections, configure its connection name", t, len(found))
	}
	return c.byType[t], nil
}

// Columns returns the selectable columns, qualified by table name when the
// dialect asks for it.
func (s *schema) Columns(withPK bool) []string {
	var cols []string
	for _, name := range s.columnNames(withPK) {
		if s.dialect.AddTableNameInSelectColumns {
			cols = append(cols, s.Table+"."+name)
		} else {
			cols = append(cols, name)
		}
	}
	return cols
}

func (s *schema) columnNames(withPK bool) []string {
	var cols []string
	for _, f := range s.fields {
		if f.Virtual || (!withPK && f.IsPK) {
			continue
		}
		cols = append(cols, f.Name)
	}
	return cols
}

func (s *schema) values(obj interface{}, withPK bool) []interface{} {
	v := reflect.Indirect(reflect.ValueOf(obj))
	var values []interface{}
	for _, f := range s.fields {
		if f.Virtual || (!withPK && f.IsPK) {
			continue
		}
		values = append(values, v.Field(f.Index).Interface())
	}
	return values
}

func (s *schema) pkValue(obj interface{}) interface{} {
	return reflect.Indirect(reflect.ValueOf(obj)).Field(s.pk.Index).Interface()
}

func (s *schema) setPK(obj interface{}, id int64) error {
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Ptr {
		return fmt.Errorf("cannot set primary key on non pointer %T", obj)
	}
	return setValue(v.Elem().Field(s.pk.Index), id)
}

// setValue assigns v to dst, converting between compatible kinds and going
// through sql.Scanner for types like sql.NullInt64.
func setValue(dst reflect.Value, v interface{}) error {
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	if dst.CanAddr() {
		if sc, ok := dst.Addr().Interface().(sql.Scanner); ok {
			return sc.Scan(v)
		}
	}
	src := reflect.ValueOf(v)
	if src.Type().AssignableTo(dst.Type()) {
		dst.Set(src)
		return nil
	}
	target := dst.Type()
	if target.Kind() == reflect.Ptr {
		target = target.Elem()
	}
	if !src.Type().ConvertibleTo(target) || (target.Kind() == reflect.String) != (src.Kind() == reflect.String) {
		return fmt.Errorf("value of type %s is not assignable to %s", src.Type(), dst.Type())
	}
	converted := src.Convert(target)
	if dst.Kind() == reflect.Ptr {
		p := reflect.New(target)
		p.Elem().Set(converted)
		converted = p
	}
	dst.Set(converted)
	return nil
}
