// Package repositorytest provides a scripted, in-memory stand-in for the pgx
// query surface so repository and service tests can drive the real SQL paths
// without a database. Tests enqueue results in call order and inspect the
// statements that were executed.
package repositorytest

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Statement records one executed SQL statement with its arguments.
type Statement struct {
	SQL  string
	Args []any
}

// Querier satisfies the three-method query interface shared by pools and
// transactions. Results are consumed FIFO; an empty queue yields an empty
// result set rather than an error.
type Querier struct {
	Statements []Statement

	queryQueue []*Rows
	execQueue  []pgconn.CommandTag
	rowQueue   [][]any
}

// EnqueueRows schedules the result set for the next Query call.
func (q *Querier) EnqueueRows(rows *Rows) {
	q.queryQueue = append(q.queryQueue, rows)
}

// EnqueueExec schedules the command tag (e.g. "DELETE 1") for the next Exec call.
func (q *Querier) EnqueueExec(tag string) {
	q.execQueue = append(q.execQueue, pgconn.NewCommandTag(tag))
}

// EnqueueRow schedules the single row scanned by the next QueryRow call.
func (q *Querier) EnqueueRow(values ...any) {
	q.rowQueue = append(q.rowQueue, values)
}

func (q *Querier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.record(sql, args)
	if len(q.execQueue) == 0 {
		return pgconn.CommandTag{}, nil
	}
	tag := q.execQueue[0]
	q.execQueue = q.execQueue[1:]
	return tag, nil
}

func (q *Querier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.record(sql, args)
	if len(q.queryQueue) == 0 {
		return NewRows(nil), nil
	}
	rows := q.queryQueue[0]
	q.queryQueue = q.queryQueue[1:]
	return rows, nil
}

func (q *Querier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.record(sql, args)
	if len(q.rowQueue) == 0 {
		return row{}
	}
	values := q.rowQueue[0]
	q.rowQueue = q.rowQueue[1:]
	return row{values: values}
}

func (q *Querier) record(sql string, args []any) {
	q.Statements = append(q.Statements, Statement{SQL: sql, Args: args})
}

// Rows satisfies pgx.Rows over canned column names and values.
type Rows struct {
	columns []string
	data    [][]any
	idx     int
}

// NewRows builds a result set. Values must carry the Go types of the struct
// fields they will be scanned into.
func NewRows(columns []string, data ...[]any) *Rows {
	return &Rows{columns: columns, data: data}
}

func (r *Rows) Close()     {}
func (r *Rows) Err() error { return nil }

func (r *Rows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (r *Rows) FieldDescriptions() []pgconn.FieldDescription {
	fds := make([]pgconn.FieldDescription, len(r.columns))
	for i, name := range r.columns {
		fds[i] = pgconn.FieldDescription{Name: name}
	}
	return fds
}

func (r *Rows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *Rows) Scan(dest ...any) error {
	// Mirror pgx's Rows.Scan contract: a single destination implementing
	// pgx.RowScanner (e.g. the scanner behind pgx.RowToStructByName) takes
	// over the whole row.
	if len(dest) == 1 {
		if rs, ok := dest[0].(pgx.RowScanner); ok {
			return rs.ScanRow(r)
		}
	}
	values := r.data[r.idx-1]
	if len(dest) != len(values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(values))
	}
	for i, d := range dest {
		if err := assign(d, values[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Rows) Values() ([]any, error) { return r.data[r.idx-1], nil }
func (r *Rows) RawValues() [][]byte    { return nil }
func (r *Rows) Conn() *pgx.Conn        { return nil }

type row struct {
	values []any
}

func (r row) Scan(dest ...any) error {
	if len(r.values) == 0 {
		return pgx.ErrNoRows
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(r.values))
	}
	for i, d := range dest {
		if err := assign(d, r.values[i]); err != nil {
			return err
		}
	}
	return nil
}

func assign(dest, value any) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return fmt.Errorf("scan destination must be a non-nil pointer, got %T", dest)
	}
	elem := dv.Elem()
	if value == nil {
		elem.Set(reflect.Zero(elem.Type()))
		return nil
	}
	vv := reflect.ValueOf(value)
	switch {
	case vv.Type().AssignableTo(elem.Type()):
		elem.Set(vv)
	case vv.Type().ConvertibleTo(elem.Type()):
		elem.Set(vv.Convert(elem.Type()))
	default:
		return fmt.Errorf("cannot scan %T into %s", value, elem.Type())
	}
	return nil
}
