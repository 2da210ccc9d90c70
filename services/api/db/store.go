package db

import (
	"context"
	_ "embed"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/pipeline"
)

// Schema is the DDL of the hydro tables the API reads.
//
//go:embed schema.sql
var Schema string

// Store wraps database access helpers.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by a pgx pool.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate creates the hydro schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	return err
}

// where accumulates AND-ed conditions with positional arguments.
type where struct {
	conds []string
	args  []any
}

func (w *where) next(v any) string {
	w.args = append(w.args, v)
	return "$" + strconv.Itoa(len(w.args))
}

// in adds "col = ANY($n)". Empty sets add nothing.
func in[T any](w *where, col string, vals []T) {
	if len(vals) == 0 {
		return
	}
	w.conds = append(w.conds, col+" = ANY("+w.next(vals)+")")
}

// between adds an inclusive point-in-time date filter.
// emptySet reports a filter that was given but matches nothing.
func emptySet[T any](vals []T) bool {
	return vals != nil && len(vals) == 0
}

func (w *where) between(col string, r pipeline.DateRange) {
	w.conds = append(w.conds, col+" BETWEEN "+w.next(r.From)+" AND "+w.next(r.To))
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}
