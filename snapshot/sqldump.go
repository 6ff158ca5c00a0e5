package snapshot

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// sqliteTimeFormat is the layout go-sqlite3 writes time.Time values with.
const sqliteTimeFormat = "2006-01-02 15:04:05.999999999-07:00"

// SQLDump snapshots tables through database/sql. The file holds one
// statement per line: a DELETE per table followed by its INSERTs. Text is
// hex encoded so values with newlines or quotes stay on one line.
type SQLDump struct {
	db     *sql.DB
	tables []string
}

func NewSQLDump(db *sql.DB, tables ...string) *SQLDump {
	return &SQLDump{db: db, tables: tables}
}

func (d *SQLDump) Export(ctx context.Context, path string) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	w := bufio.NewWriter(f)
	for _, table := range d.tables {
		if err := d.exportTable(ctx, w, table); err != nil {
			return fmt.Errorf("dump %s: %w", table, err)
		}
	}
	return w.Flush()
}

func (d *SQLDump) exportTable(ctx context.Context, w *bufio.Writer, table string) error {
	if _, err := fmt.Fprintf(w, "DELETE FROM %s;\n", table); err != nil {
		return err
	}
	rows, err := d.db.QueryContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return err
	}
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return err
	}
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES (", table, strings.Join(columns, ","))
	values := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		literals := make([]string, len(values))
		for i, v := range values {
			lit, err := literal(v)
			if err != nil {
				return fmt.Errorf("column %s: %w", columns[i], err)
			}
			literals[i] = lit
		}
		if _, err := w.WriteString(prefix + strings.Join(literals, ",") + ");\n"); err != nil {
			return err
		}
	}
	return rows.Err()
}

func hexText(s string) string {
	return "CAST(X'" + hex.EncodeToString([]byte(s)) + "' AS TEXT)"
}

func literal(v interface{}) (string, error) {
	switch x := v.(type) {
	case nil:
		return "NULL", nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case bool:
		if x {
			return "1", nil
		}
		return "0", nil
	case string:
		return hexText(x), nil
	case []byte:
		return hexText(string(x)), nil
	case time.Time:
		return hexText(x.Format(sqliteTimeFormat)), nil
	}
	return "", fmt.Errorf("cannot dump value of type %T", v)
}

// Import replays a dump written by Export inside one transaction.
func (d *SQLDump) Import(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		stmt := strings.TrimSpace(scanner.Text())
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
