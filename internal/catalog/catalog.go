package catalog

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leengari/mini-rdbms/internal/dberrors"
	"github.com/leengari/mini-rdbms/internal/index"
)

// fkRef identifies a (table, column) pair using canonical (lower-cased)
// names, used as a map key for the reverse foreign-key ledger.
type fkRef struct{ Table, Column string }

// Catalog holds process-wide, per-database-directory state: the set of
// tables and, for each, its schema, its rows, and its indexes. Indexes are
// owned here (not by Table) per spec.md §9, keyed by (table, column).
type Catalog struct {
	Dir    string
	logger *slog.Logger

	tables  map[string]*Table    // canonical (lower) name -> table
	indexes map[string]*index.Index // index name -> index

	// colIndex gives O(1) access to "does table.column have an index" for
	// the planner's index-selection logic (spec.md §4.7 step 2–3).
	colIndex map[fkRef]*index.Index

	// reverseFK maps a referenced (table, column) to every (table, column)
	// that references it, so DELETE/DROP TABLE can check in
	// O(referencing-columns) rather than scanning every table (§9).
	reverseFK map[fkRef][]fkRef
}

// New creates an empty catalog rooted at dir.
func New(dir string, logger *slog.Logger) *Catalog {
	return &Catalog{
		Dir:       dir,
		logger:    logger,
		tables:    make(map[string]*Table),
		indexes:   make(map[string]*index.Index),
		colIndex:  make(map[fkRef]*index.Index),
		reverseFK: make(map[fkRef][]fkRef),
	}
}

func canon(s string) string { return strings.ToLower(s) }

// GetTable looks up a table by case-insensitive name.
func (c *Catalog) GetTable(name string) (*Table, bool) {
	t, ok := c.tables[canon(name)]
	return t, ok
}

// TableNames returns every table name in the catalog, in no particular
// order (callers that need determinism sort it).
func (c *Catalog) TableNames() []string {
	names := make([]string, 0, len(c.tables))
	for _, t := range c.tables {
		names = append(names, t.Name)
	}
	return names
}

// IndexForColumn returns the index registered on table.column, if any.
func (c *Catalog) IndexForColumn(table, column string) (*index.Index, bool) {
	ix, ok := c.colIndex[fkRef{canon(table), canon(column)}]
	return ix, ok
}

// IndexByName looks up an index by its registered name.
func (c *Catalog) IndexByName(name string) (*index.Index, bool) {
	ix, ok := c.indexes[canon(name)]
	return ix, ok
}

// IndexesOnTable returns every index registered against a table, in no
// particular order; callers that need a stable order sort the result.
func (c *Catalog) IndexesOnTable(table string) []*index.Index {
	var out []*index.Index
	for _, ix := range c.indexes {
		if canon(ix.Table) == canon(table) {
			out = append(out, ix)
		}
	}
	return out
}

// AllIndexes returns every registered index.
func (c *Catalog) AllIndexes() []*index.Index {
	out := make([]*index.Index, 0, len(c.indexes))
	for _, ix := range c.indexes {
		out = append(out, ix)
	}
	return out
}

// CreateTable validates the definition against spec.md §4.4 and registers
// the table plus its implicit PRIMARY KEY/UNIQUE indexes. It does not
// touch disk; the caller persists the schema afterward (§4.5).
func (c *Catalog) CreateTable(name string, columns []Column) (*Table, error) {
	if _, exists := c.GetTable(name); exists {
		return nil, fmt.Errorf("table already exists: %s", name)
	}

	seen := make(map[string]bool, len(columns))
	pkCount := 0
	pkName := ""
	for _, col := range columns {
		lc := canon(col.Name)
		if seen[lc] {
			return nil, fmt.Errorf("duplicate column name: %s", col.Name)
		}
		seen[lc] = true
		if col.PrimaryKey {
			pkCount++
			pkName = col.Name
		}
		if col.ForeignKey != nil {
			refTable, ok := c.GetTable(col.ForeignKey.Table)
			if !ok {
				return nil, &dberrors.UnknownTableError{Table: col.ForeignKey.Table}
			}
			refCol, ok := refTable.Column(col.ForeignKey.Column)
			if !ok {
				return nil, &dberrors.UnknownColumnError{Table: refTable.Name, Column: col.ForeignKey.Column}
			}
			if !refCol.IsUniqueKey() {
				return nil, fmt.Errorf("foreign key target %s.%s must be UNIQUE or PRIMARY KEY", refTable.Name, refCol.Name)
			}
		}
	}
	if pkCount > 1 {
		return nil, fmt.Errorf("table %s declares more than one PRIMARY KEY", name)
	}

	t := &Table{
		Name:         name,
		Columns:      columns,
		CreatedAt:    time.Now(),
		PrimaryKeyOf: pkName,
	}
	c.tables[canon(name)] = t

	// Implicit unique indexes for PRIMARY KEY / UNIQUE columns.
	for _, col := range columns {
		if !col.IsUniqueKey() {
			continue
		}
		idxName := fmt.Sprintf("%s_%s_idx", name, col.Name)
		if err := c.registerIndex(idxName, t, col, true); err != nil {
			delete(c.tables, canon(name))
			return nil, err
		}
	}

	// Register reverse FK links for every column of the new table that
	// references another table.
	for _, col := range columns {
		if col.ForeignKey == nil {
			continue
		}
		ref := fkRef{canon(col.ForeignKey.Table), canon(col.ForeignKey.Column)}
		c.reverseFK[ref] = append(c.reverseFK[ref], fkRef{canon(name), canon(col.Name)})
	}

	if c.logger != nil {
		c.logger.Debug("table created", "table", name, "columns", len(columns))
	}
	return t, nil
}

// ReferencingTables reports the set of (table, column) pairs with a
// foreign key pointing at table.column, used by DROP TABLE and DELETE to
// enforce referential integrity in O(referencing-columns).
func (c *Catalog) ReferencingTables(table, column string) []string {
	refs := c.reverseFK[fkRef{canon(table), canon(column)}]
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, fmt.Sprintf("%s.%s", r.Table, r.Column))
	}
	return out
}

// DropTable removes a table and its indexes. It refuses if any other
// table's foreign key targets one of this table's columns.
func (c *Catalog) DropTable(name string) error {
	t, ok := c.GetTable(name)
	if !ok {
		return &dberrors.UnknownTableError{Table: name}
	}
	for _, col := range t.Columns {
		if refs := c.ReferencingTables(t.Name, col.Name); len(refs) > 0 {
			return &dberrors.RefusedDropError{Table: t.Name, Referencer: refs[0]}
		}
	}

	for idxName, ix := range c.indexes {
		if canon(ix.Table) == canon(t.Name) {
			delete(c.indexes, idxName)
			delete(c.colIndex, fkRef{canon(ix.Table), canon(ix.Column)})
		}
	}
	// Drop this table's own outbound FK reverse-links.
	for _, col := range t.Columns {
		if col.ForeignKey == nil {
			continue
		}
		ref := fkRef{canon(col.ForeignKey.Table), canon(col.ForeignKey.Column)}
		src := fkRef{canon(t.Name), canon(col.Name)}
		filtered := c.reverseFK[ref][:0]
		for _, r := range c.reverseFK[ref] {
			if r != src {
				filtered = append(filtered, r)
			}
		}
		c.reverseFK[ref] = filtered
	}

	delete(c.tables, canon(name))
	if c.logger != nil {
		c.logger.Debug("table dropped", "table", name)
	}
	return nil
}

// CreateIndex registers a new (non-implicit) index named name on
// table.column and populates it by scanning existing rows, skipping NULLs
// (spec.md §4.7, CREATE INDEX).
func (c *Catalog) CreateIndex(name, table, column string, unique bool) (*index.Index, error) {
	if _, exists := c.IndexByName(name); exists {
		return nil, fmt.Errorf("index already exists: %s", name)
	}
	t, ok := c.GetTable(table)
	if !ok {
		return nil, &dberrors.UnknownTableError{Table: table}
	}
	colPos := t.ColumnIndex(column)
	if colPos < 0 {
		return nil, &dberrors.UnknownColumnError{Table: table, Column: column}
	}

	if err := c.registerIndex(name, t, t.Columns[colPos], unique); err != nil {
		return nil, err
	}
	ix, _ := c.IndexByName(name)
	if c.logger != nil {
		c.logger.Debug("index created", "index", name, "table", table, "column", column, "entries", ix.Len())
	}
	return ix, nil
}

// registerIndex builds an index over col's existing values in t (skipping
// NULLs) and registers it under name. Used both for the implicit indexes
// CreateTable creates (t.Rows is empty at that point) and for CreateIndex /
// load-time index reconstruction (t.Rows may already be populated).
func (c *Catalog) registerIndex(name string, t *Table, col Column, unique bool) error {
	colPos := t.ColumnIndex(col.Name)
	ix := index.New(name, t.Name, col.Name, unique)
	for _, row := range t.Rows {
		v := row.Values[colPos]
		if v.IsNull() {
			continue
		}
		if err := ix.Insert(v, row.ID); err != nil {
			return &dberrors.UniqueViolationError{Table: t.Name, Column: col.Name, Value: v.String()}
		}
	}
	c.indexes[canon(name)] = ix
	c.colIndex[fkRef{canon(t.Name), canon(col.Name)}] = ix
	return nil
}

// LoadTable registers an already-populated table (read back from disk by
// the storage layer) without re-running CreateTable's validation, then
// rebuilds its implicit PRIMARY KEY/UNIQUE indexes from row data, per
// spec.md §4.5's "indexes live only in memory and are rebuilt... on open".
func (c *Catalog) LoadTable(t *Table) error {
	c.tables[canon(t.Name)] = t
	for _, col := range t.Columns {
		if !col.IsUniqueKey() {
			continue
		}
		idxName := fmt.Sprintf("%s_%s_idx", t.Name, col.Name)
		if err := c.registerIndex(idxName, t, col, true); err != nil {
			return err
		}
	}
	for _, col := range t.Columns {
		if col.ForeignKey == nil {
			continue
		}
		ref := fkRef{canon(col.ForeignKey.Table), canon(col.ForeignKey.Column)}
		c.reverseFK[ref] = append(c.reverseFK[ref], fkRef{canon(t.Name), canon(col.Name)})
	}
	return nil
}

// RestoreIndex rebuilds a non-implicit (explicitly CREATE INDEX'd) index
// from a persisted index-registry entry at load time.
func (c *Catalog) RestoreIndex(name, table, column string, unique bool) error {
	t, ok := c.GetTable(table)
	if !ok {
		return &dberrors.UnknownTableError{Table: table}
	}
	col, ok := t.Column(column)
	if !ok {
		return &dberrors.UnknownColumnError{Table: table, Column: column}
	}
	if _, exists := c.IndexByName(name); exists {
		return nil
	}
	return c.registerIndex(name, t, col, unique)
}
