package storetables

import (
	"database/sql"

	"gorm.io/gorm"
)

// Cursor is a forward-only walk over filter results. The sequence is
// finite and not restartable: once Next returns false it stays exhausted.
type Cursor[T any] struct {
	db   *gorm.DB
	rows *sql.Rows
	cur  T
	err  error
}

func newCursor[T any](db *gorm.DB, rows *sql.Rows) *Cursor[T] {
	return &Cursor[T]{db: db, rows: rows}
}

// Next advances to the next row. It returns false when the sequence is
// exhausted or a scan failed; check Err after the loop.
func (c *Cursor[T]) Next() bool {
	if c.err != nil || !c.rows.Next() {
		return false
	}
	var v T
	if err := c.db.ScanRows(c.rows, &v); err != nil {
		c.err = err
		return false
	}
	c.cur = v
	return true
}

// Value returns the row Next positioned the cursor on.
func (c *Cursor[T]) Value() T { return c.cur }

func (c *Cursor[T]) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.rows.Err()
}

func (c *Cursor[T]) Close() error { return c.rows.Close() }

// Collect drains the cursor into a slice and closes it.
func (c *Cursor[T]) Collect() ([]T, error) {
	defer c.rows.Close()
	var out []T
	for c.Next() {
		out = append(out, c.Value())
	}
	return out, c.Err()
}
