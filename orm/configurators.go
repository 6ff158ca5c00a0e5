package orm

import (
	"github.com/gertd/go-pluralize"
)

type EntityConfigurator struct {
	connection        string
	table             string
	relations         map[string]interface{}
	resolveRelations  []func()
	columnConstraints []*FieldConfigurator
}

func newEntityConfigurator() *EntityConfigurator {
	return &EntityConfigurator{}
}

func (ec *EntityConfigurator) Table(name string) *EntityConfigurator {
	ec.table = name
	return ec
}

func (ec *EntityConfigurator) Connection(name string) *EntityConfigurator {
	ec.connection = name
	return ec
}

type BelongsToConfig struct {
	OwnerTable        string
	LocalForeignKey   string
	ForeignColumnName string
}

// BelongsTo declares that this entity points at one owner row. Empty config
// values are inferred: the owner table from the owner's configurator, the
// local key as singular(owner table)+"_id" and the owner column as "id".
func (ec *EntityConfigurator) BelongsTo(owner Entity, config BelongsToConfig) *EntityConfigurator {
	if ec.relations == nil {
		ec.relations = map[string]interface{}{}
	}
	ec.resolveRelations = append(ec.resolveRelations, func() {
		if config.ForeignColumnName != "" && config.LocalForeignKey != "" && config.OwnerTable != "" {
			ec.relations[config.OwnerTable] = config
			return
		}
		ownerConfigurator := newEntityConfigurator()
		owner.ConfigureEntity(ownerConfigurator)
		if config.OwnerTable == "" {
			config.OwnerTable = ownerConfigurator.table
		}
		if config.LocalForeignKey == "" {
			config.LocalForeignKey = pluralize.NewClient().Singular(config.OwnerTable) + "_id"
		}
		if config.ForeignColumnName == "" {
			config.ForeignColumnName = "id"
		}
		ec.relations[config.OwnerTable] = config
	})
	return ec
}

type FieldConfigurator struct {
	fieldName  string
	primaryKey bool
	column     string
	longText   bool
	virtual    bool
}

func (ec *EntityConfigurator) Field(name string) *FieldConfigurator {
	cc := &FieldConfigurator{fieldName: name}
	ec.columnConstraints = append(ec.columnConstraints, cc)
	return cc
}

func (fc *FieldConfigurator) IsPrimaryKey() *FieldConfigurator {
	fc.primaryKey = true
	return fc
}

func (fc *FieldConfigurator) ColumnName(name string) *FieldConfigurator {
	fc.column = name
	return fc
}

// Text maps a string field to the dialect's unbounded text type.
func (fc *FieldConfigurator) Text() *FieldConfigurator {
	fc.longText = true
	return fc
}

// Virtual keeps the field out of every generated statement.
func (fc *FieldConfigurator) Virtual() *FieldConfigurator {
	fc.virtual = true
	return fc
}
