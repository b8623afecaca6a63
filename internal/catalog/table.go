package catalog

import (
	"strings"
	"time"

	"github.com/leengari/mini-rdbms/internal/types"
)

// Row is a table-local, insertion-ordered record. ID is assigned on
// insertion, monotonically increasing, never reused, never exposed in SQL.
// Values holds one types.Value per column, positionally aligned with the
// owning Table's Columns slice.
type Row struct {
	ID     int64
	Values []types.Value
}

// Copy returns a deep copy of the row (Values is a fresh slice), so
// callers mutating a returned row never corrupt table state.
func (r Row) Copy() Row {
	v := make([]types.Value, len(r.Values))
	copy(v, r.Values)
	return Row{ID: r.ID, Values: v}
}

// Table is the in-memory mirror of one table: its schema, its
// insertion-ordered rows, and bookkeeping for row-id assignment.
// Indexes are NOT stored here — the Catalog owns them (spec.md §9).
type Table struct {
	Name         string
	Columns      []Column
	Rows         []Row
	NextRowID    int64
	CreatedAt    time.Time
	PrimaryKeyOf string // canonical name of the PK column, "" if none
}

// ColumnIndex returns the position of a column by case-insensitive name,
// or -1 if absent.
func (t *Table) ColumnIndex(name string) int {
	name = strings.ToLower(name)
	for i, c := range t.Columns {
		if strings.ToLower(c.Name) == name {
			return i
		}
	}
	return -1
}

// Column looks up a column definition by case-insensitive name.
func (t *Table) Column(name string) (Column, bool) {
	i := t.ColumnIndex(name)
	if i < 0 {
		return Column{}, false
	}
	return t.Columns[i], true
}

// PrimaryKeyColumn returns the table's PRIMARY KEY column, if any.
func (t *Table) PrimaryKeyColumn() (Column, bool) {
	if t.PrimaryKeyOf == "" {
		return Column{}, false
	}
	return t.Column(t.PrimaryKeyOf)
}

// RowByID locates a row by its row-id via linear scan. Callers that need
// repeated lookups should go through an index instead.
func (t *Table) RowByID(id int64) (int, bool) {
	for i, r := range t.Rows {
		if r.ID == id {
			return i, true
		}
	}
	return -1, false
}
