package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
)

// querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	// keeps (page-1)*limit inside a 32-bit OFFSET
	maxPage          = math.MaxInt32 / maxPageLimit
)

// normalizePage applies the 1-based page default and cap, and the limit
// default and cap.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

// likePattern escapes LIKE wildcards so user input matches as a plain substring.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// placeholders returns "$start, $start+1, ..." for count parameters.
func placeholders(count, start int) string {
	out := make([]string, count)
	for i := range out {
		out[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(out, ", ")
}

// whereBuilder accumulates AND-ed clauses with positional arguments.
type whereBuilder struct {
	clauses []string
	args    []interface{}
}

// arg registers a value and returns its placeholder.
func (w *whereBuilder) arg(v interface{}) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *whereBuilder) add(clause string) {
	w.clauses = append(w.clauses, clause)
}

// anyILike adds "(c1 ILIKE $n OR c2 ILIKE $n ...)" sharing one argument.
func (w *whereBuilder) anyILike(term string, cols ...string) {
	ph := w.arg(likePattern(term))
	ors := make([]string, len(cols))
	for i, c := range cols {
		ors[i] = c + " ILIKE " + ph
	}
	w.add("(" + strings.Join(ors, " OR ") + ")")
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}
