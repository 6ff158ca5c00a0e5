package orm

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"reflect"

	"github.com/jedib0t/go-pretty/table"
)

type Connection struct {
	Name    string
	Dialect *Dialect
	DB      *sql.DB
	Schemas map[string]*schema
	// tables keeps registration order, which is also creation order.
	tables []string
	byType map[reflect.Type]*schema
	logger Logger
}

var globalConnections = map[string]*Connection{}

var sqlOpen = sql.Open

type ConnectionConfig struct {
	Name             string
	Driver           string
	ConnectionString string
	DB               *sql.DB
	Dialect          *Dialect
	Entities         []Entity
	// Logger receives every statement at debug level. Nil discards them.
	Logger Logger
}

// SetupConnections registers one connection per config. A config that
// carries both DB and Dialect reuses them, otherwise the driver is opened
// with sql.Open. Registering a name twice closes and replaces the earlier
// connection.
func SetupConnections(configs ...ConnectionConfig) error {
	for _, config := range configs {
		if _, err := setupConnection(config); err != nil {
			return err
		}
	}
	return nil
}

func setupConnection(config ConnectionConfig) (*Connection, error) {
	var dialect *Dialect
	var db *sql.DB
	var err error
	owned := false
	if config.DB != nil && config.Dialect != nil {
		dialect = config.Dialect
		db = config.DB
	} else {
		dialect, err = getDialect(config.Driver)
		if err != nil {
			return nil, err
		}
		db, err = sqlOpen(config.Driver, config.ConnectionString)
		if err != nil {
			return nil, err
		}
		owned = true
	}
	if config.Name == "" {
		config.Name = "default"
	}
	logger := config.Logger
	if logger == nil {
		logger = nopLogger{}
	}

	c := &Connection{
		Name:    config.Name,
		Dialect: dialect,
		DB:      db,
		Schemas: map[string]*schema{},
		byType:  map[reflect.Type]*schema{},
		logger:  logger,
	}
	for _, entity := range config.Entities {
		s, err := schemaOf(entity, dialect)
		if err != nil {
			if owned {
				_ = db.Close()
			}
			return nil, err
		}
		s.conn = c
		if _, exists := c.Schemas[s.Table]; !exists {
			c.tables = append(c.tables, s.Table)
		}
		c.Schemas[s.Table] = s
		c.byType[s.typ] = s
	}
	if old, ok := globalConnections[c.Name]; ok && old.DB != db {
		if err := old.DB.Close(); err != nil {
			c.logger.Warnf("closing replaced connection %s: %v", c.Name, err)
		}
	}
	globalConnections[c.Name] = c
	return c, nil
}

func GetConnection(name string) *Connection {
	return globalConnections[name]
}

// CloseConnection closes the connection's pool and unregisters it.
func CloseConnection(name string) error {
	c, ok := globalConnections[name]
	if !ok {
		return fmt.Errorf("no connection named %s", name)
	}
	delete(globalConnections, name)
	return c.DB.Close()
}

func Schematic(w io.Writer) {
	for name, c := range globalConnections {
		fmt.Fprintf(w, "----------------%s---------------\n", name)
		c.Schematic(w)
		fmt.Fprintln(w, "-----------------------------------")
	}
}

func (c *Connection) Schematic(w io.Writer) {
	fmt.Fprintf(w, "SQL Dialect: %s\n", c.Dialect.DriverName)
	for _, t := range c.tables {
		s := c.Schemas[t]
		fmt.Fprintf(w, "Table: %s\n", t)
		tw := table.NewWriter()
		tw.AppendHeader(table.Row{"SQL Name", "Type", "Is Primary Key", "Is Virtual"})
		for _, field := range s.fields {
			tw.AppendRow(table.Row{field.Name, field.Type, field.IsPK, field.Virtual})
		}
		fmt.Fprintln(w, tw.Render())
		for owner, rel := range s.relations {
			if _, ok := rel.(BelongsToConfig); ok {
				fmt.Fprintf(w, "%s N-1 %s => %+v\n", t, owner, rel)
			}
		}
		fmt.Fprintln(w, "")
	}
}

func (c *Connection) getSchema(t string) *schema {
	return c.Schemas[t]
}

type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// executor returns the transaction carried by ctx for this connection, or
// the pool itself.
func (c *Connection) executor(ctx context.Context) executor {
	if tx, ok := ctx.Value(txKey{c.Name}).(*sql.Tx); ok {
		return tx
	}
	return c.DB
}

func (c *Connection) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	c.logger.Debugf("%s %v", q, args)
	return c.executor(ctx).ExecContext(ctx, q, args...)
}

func (c *Connection) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	c.logger.Debugf("%s %v", q, args)
	return c.executor(ctx).QueryContext(ctx, q, args...)
}

func (c *Connection) queryRow(ctx context.Context, q string, args ...any) *sql.Row {
	c.logger.Debugf("%s %v", q, args)
	return c.executor(ctx).QueryRowContext(ctx, q, args...)
}
