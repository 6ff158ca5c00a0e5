package orm

import (
	"fmt"

	"github.com/golobby/ormperf/internal/qb"
)

type columnKind int

const (
	kindInteger columnKind = iota
	kindFloat
	kindBool
	kindText
	kindLongText
	kindDate
)

type Dialect struct {
	DriverName                  string
	AddTableNameInSelectColumns bool
	PlaceHolderGenerator        qb.PlaceholderGenerator
	// ReturningPK makes inserts read the generated key with RETURNING instead
	// of sql.Result.LastInsertId, which lib/pq does not support.
	ReturningPK bool
	// PrimaryKeyType is the full column definition of an auto generated key.
	PrimaryKeyType string
	ColumnTypes    map[columnKind]string
}

var Dialects = &struct {
	MySQL      *Dialect
	PostgreSQL *Dialect
	SQLite3    *Dialect
}{
	MySQL: &Dialect{
		DriverName:                  "mysql",
		AddTableNameInSelectColumns: true,
		PlaceHolderGenerator:        qb.QuestionMarks,
		PrimaryKeyType:              "BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY",
		ColumnTypes: map[columnKind]string{
			kindInteger:  "BIGINT",
			kindFloat:    "DOUBLE",
			kindBool:     "BOOLEAN",
			kindText:     "VARCHAR(255)",
			kindLongText: "TEXT",
			kindDate:     "DATE",
		},
	},
	PostgreSQL: &Dialect{
		DriverName:                  "postgres",
		AddTableNameInSelectColumns: true,
		PlaceHolderGenerator:        qb.DollarSigns,
		ReturningPK:                 true,
		PrimaryKeyType:              "BIGSERIAL PRIMARY KEY",
		ColumnTypes: map[columnKind]string{
			kindInteger:  "BIGINT",
			kindFloat:    "DOUBLE PRECISION",
			kindBool:     "BOOLEAN",
			kindText:     "VARCHAR(255)",
			kindLongText: "TEXT",
			kindDate:     "DATE",
		},
	},
	SQLite3: &Dialect{
		DriverName:                  "sqlite3",
		AddTableNameInSelectColumns: false,
		PlaceHolderGenerator:        qb.QuestionMarks,
		PrimaryKeyType:              "INTEGER PRIMARY KEY AUTOINCREMENT",
		ColumnTypes: map[columnKind]string{
			kindInteger:  "INTEGER",
			kindFloat:    "REAL",
			kindBool:     "BOOLEAN",
			kindText:     "VARCHAR(255)",
			kindLongText: "TEXT",
			kindDate:     "DATE",
		},
	},
}

func getDialect(driver string) (*Dialect, error) {
	switch driver {
	case "mysql":
		return Dialects.MySQL, nil
	case "sqlite", "sqlite3":
		return Dialects.SQLite3, nil
	case "postgres":
		return Dialects.PostgreSQL, nil
	default:
		return nil, fmt.Errorf("err no dialect matched with driver %q", driver)
	}
}
