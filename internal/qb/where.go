package qb

import (
	"fmt"
	"strings"
)

type BinaryOp string

const (
	Eq   BinaryOp = "="
	GT   BinaryOp = ">"
	LT   BinaryOp = "<"
	GE   BinaryOp = ">="
	LE   BinaryOp = "<="
	NE   BinaryOp = "!="
	Like BinaryOp = "LIKE"
	In   BinaryOp = "IN"
)

type Cond struct {
	Lhs string
	Op  BinaryOp
	Rhs interface{}
}

func (c Cond) argCount() int {
	if c.Op == In {
		return len(c.Rhs.([]interface{}))
	}
	return 1
}

func (c Cond) toSql(p *placeholders) (string, []interface{}) {
	if c.Op == In {
		values := c.Rhs.([]interface{})
		phs := make([]string, 0, len(values))
		for range values {
			phs = append(phs, p.pop())
		}
		return fmt.Sprintf("%s IN (%s)", c.Lhs, strings.Join(phs, ",")), values
	}
	return fmt.Sprintf("%s %s %s", c.Lhs, c.Op, p.pop()), []interface{}{c.Rhs}
}

// Where is a condition optionally chained to one more with AND or OR.
// When both are set, And wins.
type Where struct {
	Cond
	And *Where
	Or  *Where
}

func (w *Where) next() (string, *Where) {
	if w.And != nil {
		return "AND", w.And
	}
	if w.Or != nil {
		return "OR", w.Or
	}
	return "", nil
}

func (w *Where) argCount() int {
	n := w.Cond.argCount()
	if _, next := w.next(); next != nil {
		n += next.argCount()
	}
	return n
}

func (w *Where) toSql(p *placeholders) (string, []interface{}) {
	base, args := w.Cond.toSql(p)
	op, next := w.next()
	if next == nil {
		return base, args
	}
	rest, restArgs := next.toSql(p)
	return base + " " + op + " " + rest, append(args, restArgs...)
}
