// Package repository provides the data access layer for the ShieldHer backend.
// Every repository is a stateless struct that talks to the package-level
// database.DB pool, so tests can swap the pool for pgxmock.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/VeeCC-T/ShieldHer/internal/database"
	"github.com/VeeCC-T/ShieldHer/internal/models"
	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// filterQuery accumulates an AND-ed WHERE clause and its positional args.
type filterQuery struct {
	where strings.Builder
	args  []interface{}
}

func newFilterQuery() *filterQuery {
	f := &filterQuery{}
	f.where.WriteString("WHERE 1=1")
	return f
}

func (f *filterQuery) arg(v interface{}) int {
	f.args = append(f.args, v)
	return len(f.args)
}

// eq adds "column = $n".
func (f *filterQuery) eq(column string, value interface{}) {
	fmt.Fprintf(&f.where, " AND %s = $%d", column, f.arg(value))
}

// gte adds "column >= $n".
func (f *filterQuery) gte(column string, value interface{}) {
	fmt.Fprintf(&f.where, " AND %s >= $%d", column, f.arg(value))
}

// lt adds "column < $n".
func (f *filterQuery) lt(column string, value interface{}) {
	fmt.Fprintf(&f.where, " AND %s < $%d", column, f.arg(value))
}

// search adds a case-insensitive substring match over any of columns.
func (f *filterQuery) search(term string, columns ...string) {
	n := f.arg("%" + escapeLike(term) + "%")
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = fmt.Sprintf("%s ILIKE $%d", c, n)
	}
	fmt.Fprintf(&f.where, " AND (%s)", strings.Join(parts, " OR "))
}

// String returns the WHERE clause.
func (f *filterQuery) String() string {
	return f.where.String()
}

// limitOffset returns the LIMIT/OFFSET clause for p and the full argument list.
// Call it after all conditions have been added.
func (f *filterQuery) limitOffset(p models.PageRequest) (string, []interface{}) {
	args := append(append([]interface{}{}, f.args...), p.PageSize, p.Offset())
	return fmt.Sprintf("LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// listPage runs the count and page queries shared by the content listings.
// table, columns and orderBy are compile-time constants, never user input.
func listPage[T any](
	ctx context.Context,
	table, columns, orderBy string,
	f *filterQuery,
	page models.PageRequest,
	scan func(pgx.Row) (*T, error),
) (models.Page[T], error) {
	result := models.Page[T]{PageRequest: page}

	if err := database.DB.QueryRow(ctx, "SELECT COUNT(*) FROM "+table+" "+f.String(), f.args...).Scan(&result.Total); err != nil {
		return result, fmt.Errorf("failed to count %s: %w", table, err)
	}

	limit, args := f.limitOffset(page)
	query := "SELECT " + columns + " FROM " + table + " " + f.String() + " ORDER BY " + orderBy + " " + limit

	rows, err := database.DB.Query(ctx, query, args...)
	if err != nil {
		return result, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	result.Items = []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return result, err
		}
		result.Items = append(result.Items, *item)
	}
	return result, rows.Err()
}

// deleteByID removes one row and reports ErrNotFound when nothing matched.
func deleteByID(ctx context.Context, table string, id int) error {
	tag, err := database.DB.Exec(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
