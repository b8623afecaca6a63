// Package catalog implements the schema and catalog model of spec.md §3–§4.4
// (C2): table definitions, constraint metadata, and the index registry. The
// catalog owns every index, keyed by (table, column) rather than letting a
// table own its own indexes, so the executor can hold multiple index
// references at once for join planning without re-entrant access to a
// table (spec.md §9, "Ownership of indexes").
package catalog

import "github.com/leengari/mini-rdbms/internal/types"

// ForeignKey is a column-level or table-level FOREIGN KEY reference.
type ForeignKey struct {
	Table  string
	Column string
}

// Column describes one column of a table: its canonical name, declared
// type, and constraints. PRIMARY KEY implies UNIQUE and NOT NULL.
type Column struct {
	Name       string
	Type       types.ColumnType
	PrimaryKey bool
	Unique     bool
	NotNull    bool
	ForeignKey *ForeignKey
}

// IsNullable reports whether NULL is an acceptable value for this column.
func (c Column) IsNullable() bool {
	return !c.NotNull && !c.PrimaryKey
}

// IsUniqueKey reports whether this column carries a uniqueness constraint
// (directly or via PRIMARY KEY), i.e. whether it gets an implicit index.
func (c Column) IsUniqueKey() bool {
	return c.PrimaryKey || c.Unique
}
