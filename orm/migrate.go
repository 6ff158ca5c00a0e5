package orm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

func (c *Connection) createTableSQL(s *schema) string {
	var cols []string
	for _, f := range s.fields {
		if f.Virtual {
			continue
		}
		if f.IsPK {
			cols = append(cols, f.Name+" "+c.Dialect.PrimaryKeyType)
			continue
		}
		cols = append(cols, f.Name+" "+c.Dialect.ColumnTypes[f.kind()])
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", s.Table, strings.Join(cols, ", "))
}

// AutoMigrate creates every registered table that does not exist yet. It
// never alters an existing table and creates no foreign key constraints.
func (c *Connection) AutoMigrate(ctx context.Context) error {
	for _, t := range c.tables {
		if _, err := c.exec(ctx, c.createTableSQL(c.getSchema(t))); err != nil {
			return fmt.Errorf("create table %s: %w", t, err)
		}
	}
	return nil
}

// DropTables drops every registered table in reverse registration order,
// so dependents go before their owners. It attempts all of them and
// returns the combined errors.
func (c *Connection) DropTables(ctx context.Context) error {
	var errs error
	for i := len(c.tables) - 1; i >= 0; i-- {
		if _, err := c.exec(ctx, "DROP TABLE IF EXISTS "+c.tables[i]); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("drop table %s: %w", c.tables[i], err))
		}
	}
	return errs
}
