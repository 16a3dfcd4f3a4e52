package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/screen-admin-api/pkg/database"
)

// ErrDuplicate reports a unique index violation on insert or update.
var ErrDuplicate = errors.New("duplicate key")

// conditions accumulates positional WHERE clauses.
type conditions struct {
	clauses []string
	args    []interface{}
}

// add appends a clause whose placeholders reference the new argument via
// %[1]d.
func (c *conditions) add(format string, value interface{}) {
	c.args = append(c.args, value)
	c.clauses = append(c.clauses, fmt.Sprintf(format, len(c.args)))
}

// raw appends a clause without arguments.
func (c *conditions) raw(clause string) {
	c.clauses = append(c.clauses, clause)
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " AND " + strings.Join(c.clauses, " AND ")
}

func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}

// mapWriteError converts unique violations to ErrDuplicate, keeping op as
// context.
func mapWriteError(op string, err error) error {
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}
