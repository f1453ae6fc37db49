package repo

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeExecutor records the last statement and answers from canned values.
type fakeExecutor struct {
	lastQuery string
	lastArgs  []any

	row      []any
	rowErr   error
	rows     [][]any
	queryErr error
	tag      pgconn.CommandTag
	execErr  error
}

func (f *fakeExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	f.lastQuery, f.lastArgs = query, args
	return f.tag, f.execErr
}

func (f *fakeExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	f.lastQuery, f.lastArgs = query, args
	if f.rowErr != nil {
		return valuesRow{err: f.rowErr}
	}
	if f.row == nil {
		return valuesRow{err: pgx.ErrNoRows}
	}
	return valuesRow{values: f.row}
}

func (f *fakeExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	f.lastQuery, f.lastArgs = query, args
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &valuesRows{data: f.rows, idx: -1}, nil
}

type valuesRow struct {
	values []any
	err    error
}

func (r valuesRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.values, dest)
}

// assign copies values into pointers with matching element types.
func assign(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: %d values into %d destinations", len(values), len(dest))
	}
	for i, d := range dest {
		dv := reflect.ValueOf(d)
		if dv.Kind() != reflect.Pointer {
			return errors.New("scan: destination is not a pointer")
		}
		v := reflect.ValueOf(values[i])
		if !v.Type().AssignableTo(dv.Elem().Type()) {
			return fmt.Errorf("scan: column %d: %s not assignable to %s", i, v.Type(), dv.Elem().Type())
		}
		dv.Elem().Set(v)
	}
	return nil
}

type valuesRows struct {
	data [][]any
	idx  int
}

func (r *valuesRows) Close()                                       {}
func (r *valuesRows) Err() error                                   { return nil }
func (r *valuesRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *valuesRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *valuesRows) Values() ([]any, error)                       { return r.data[r.idx], nil }
func (r *valuesRows) RawValues() [][]byte                          { return nil }
func (r *valuesRows) Conn() *pgx.Conn                              { return nil }

func (r *valuesRows) Next() bool {
	r.idx++
	return r.idx < len(r.data)
}

func (r *valuesRows) Scan(dest ...any) error {
	return assign(r.data[r.idx], dest)
}
