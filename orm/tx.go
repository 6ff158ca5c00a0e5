package orm

import (
	"context"
	"database/sql"
	"fmt"
)

type txKey struct {
	connection string
}

// Transaction runs fn inside one database transaction. Every orm call that
// receives the context handed to fn joins it. A nested call joins the
// outer transaction. The transaction commits when fn returns nil and rolls
// back when it returns an error or panics.
func (c *Connection) Transaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{c.Name}).(*sql.Tx); ok {
		return fn(ctx)
	}
	c.logger.Debugf("BEGIN")
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err = fn(context.WithValue(ctx, txKey{c.Name}, tx)); err != nil {
		c.logger.Debugf("ROLLBACK")
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	c.logger.Debugf("COMMIT")
	return tx.Commit()
}

// Transaction runs fn in a transaction on the only registered connection,
// or on the one named "default".
func Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	c, err := defaultConnection()
	if err != nil {
		return err
	}
	return c.Transaction(ctx, fn)
}

func defaultConnection() (*Connection, error) {
	if len(globalConnections) == 1 {
		for _, c := range globalConnections {
			return c, nil
		}
	}
	if c, ok := globalConnections["default"]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("no default connection among %d registered", len(globalConnections))
}
