// Package storage implements the durable per-table persistence layer of
// spec.md §4.5 (C4): atomic-rename writes of self-describing JSON
// artefacts, and the in-memory-mirror load path. Grounded on the
// teacher's internal/storage/writer (tmp-file + os.Rename) and
// internal/storage/{database_loader,table_loader}.go (per-table
// directory layout), adapted from the teacher's incompatible
// domain.schema.Table shape onto this module's catalog.Table/Row.
package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/leengari/mini-rdbms/internal/catalog"
	"github.com/leengari/mini-rdbms/internal/dberrors"
	"github.com/leengari/mini-rdbms/internal/types"
)

const (
	schemaFileName  = "schema.json"
	rowsFileName    = "rows.json"
	indexRegistry   = "_indexes.json"
	dirPerm         = 0o755
	filePerm        = 0o644
)

// Store is the durable handle for one catalog directory.
type Store struct {
	Dir    string
	logger *slog.Logger
}

// New returns a Store rooted at dir, creating it if absent.
func New(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, &dberrors.IOError{Op: "mkdir catalog directory", Err: err}
	}
	return &Store{Dir: dir, logger: logger}, nil
}

func (s *Store) tableDir(name string) string { return filepath.Join(s.Dir, name) }

// writeAtomic writes data to path via a sibling temp file plus rename,
// the durability contract spec.md §4.5 requires: after a crash the target
// is either the pre-write or post-write bytes, never a mixture.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, filePerm); err != nil {
		return err
	}
	f, err := os.OpenFile(tmp, os.O_WRONLY, filePerm)
	if err == nil {
		_ = f.Sync()
		_ = f.Close()
	}
	return os.Rename(tmp, path)
}

// --- on-disk DTOs ---

type columnDoc struct {
	Name             string `json:"name"`
	Type             string `json:"type"`
	Length           int    `json:"length,omitempty"`
	PrimaryKey       bool   `json:"primary_key,omitempty"`
	Unique           bool   `json:"unique,omitempty"`
	NotNull          bool   `json:"not_null,omitempty"`
	ForeignKeyTable  string `json:"foreign_key_table,omitempty"`
	ForeignKeyColumn string `json:"foreign_key_column,omitempty"`
}

type schemaDoc struct {
	TableName    string      `json:"table_name"`
	Columns      []columnDoc `json:"columns"`
	NextRowID    int64       `json:"next_row_id"`
	PrimaryKeyOf string      `json:"primary_key_of,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

type rowDoc struct {
	ID     int64          `json:"id"`
	Values []types.Value  `json:"values"`
}

type rowsDoc struct {
	Rows []rowDoc `json:"rows"`
}

type indexDoc struct {
	Name   string `json:"name"`
	Table  string `json:"table"`
	Column string `json:"column"`
	Unique bool   `json:"unique"`
}

func columnToDoc(c catalog.Column) columnDoc {
	d := columnDoc{
		Name:       c.Name,
		Type:       c.Type.Kind.String(),
		Length:     c.Type.Length,
		PrimaryKey: c.PrimaryKey,
		Unique:     c.Unique,
		NotNull:    c.NotNull,
	}
	if c.ForeignKey != nil {
		d.ForeignKeyTable = c.ForeignKey.Table
		d.ForeignKeyColumn = c.ForeignKey.Column
	}
	return d
}

func docToColumn(d columnDoc) (catalog.Column, error) {
	var ct types.ColumnType
	switch d.Type {
	case "INTEGER":
		ct = types.Int()
	case "FLOAT":
		ct = types.FloatType()
	case "TEXT":
		ct = types.Varchar(d.Length)
	case "DATE":
		ct = types.DateType()
	case "BOOLEAN":
		ct = types.BooleanType()
	default:
		return catalog.Column{}, fmt.Errorf("storage: unknown column type %q", d.Type)
	}
	col := catalog.Column{
		Name:       d.Name,
		Type:       ct,
		PrimaryKey: d.PrimaryKey,
		Unique:     d.Unique,
		NotNull:    d.NotNull,
	}
	if d.ForeignKeyTable != "" {
		col.ForeignKey = &catalog.ForeignKey{Table: d.ForeignKeyTable, Column: d.ForeignKeyColumn}
	}
	return col, nil
}

// SaveSchema persists a table's schema descriptor via atomic rename.
func (s *Store) SaveSchema(t *catalog.Table) error {
	dir := s.tableDir(t.Name)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return &dberrors.IOError{Op: "mkdir table directory", Err: err}
	}
	doc := schemaDoc{
		TableName:    t.Name,
		NextRowID:    t.NextRowID,
		PrimaryKeyOf: t.PrimaryKeyOf,
		CreatedAt:    t.CreatedAt,
	}
	for _, c := range t.Columns {
		doc.Columns = append(doc.Columns, columnToDoc(c))
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, schemaFileName), data); err != nil {
		return &dberrors.IOError{Op: "write schema " + t.Name, Err: err}
	}
	return nil
}

// SaveRows persists a table's full row file via atomic rename. Per
// spec.md §4.5, each mutating operation triggers exactly one such save
// of the affected table.
func (s *Store) SaveRows(t *catalog.Table) error {
	dir := s.tableDir(t.Name)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return &dberrors.IOError{Op: "mkdir table directory", Err: err}
	}
	doc := rowsDoc{}
	for _, r := range t.Rows {
		doc.Rows = append(doc.Rows, rowDoc{ID: r.ID, Values: r.Values})
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal rows: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, rowsFileName), data); err != nil {
		return &dberrors.IOError{Op: "write rows " + t.Name, Err: err}
	}
	return nil
}

// SaveTable persists both artefacts of a table (used by CREATE TABLE, and
// by INSERT, which advances the schema's next row id alongside the rows).
func (s *Store) SaveTable(t *catalog.Table) error {
	if err := s.SaveSchema(t); err != nil {
		return err
	}
	return s.SaveRows(t)
}

// SaveIndexRegistry persists the set of index definitions (table, column,
// uniqueness) so non-implicit indexes survive a restart: spec.md §4.5
// states indexes live only in memory and are rebuilt from row data on
// open, which requires remembering which indexes existed to rebuild.
func (s *Store) SaveIndexRegistry(cat *catalog.Catalog) error {
	var docs []indexDoc
	for _, ix := range cat.AllIndexes() {
		docs = append(docs, indexDoc{Name: ix.Name, Table: ix.Table, Column: ix.Column, Unique: ix.Unique})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index registry: %w", err)
	}
	if err := writeAtomic(filepath.Join(s.Dir, indexRegistry), data); err != nil {
		return &dberrors.IOError{Op: "write index registry", Err: err}
	}
	return nil
}

// DropTable removes a table's on-disk directory entirely.
func (s *Store) DropTable(name string) error {
	if err := os.RemoveAll(s.tableDir(name)); err != nil {
		return &dberrors.IOError{Op: "remove table directory " + name, Err: err}
	}
	return nil
}

// LoadAll reads every table directory under Dir and the index registry,
// reconstructing a fully populated Catalog — the "in-memory mirror"
// spec.md §4.5 requires at open.
func LoadAll(dir string, logger *slog.Logger) (*catalog.Catalog, *Store, error) {
	store, err := New(dir, logger)
	if err != nil {
		return nil, nil, err
	}
	cat := catalog.New(dir, logger)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, &dberrors.IOError{Op: "read catalog directory", Err: err}
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		t, err := store.loadTable(entry.Name())
		if err != nil {
			return nil, nil, err
		}
		if err := cat.LoadTable(t); err != nil {
			return nil, nil, err
		}
	}

	if err := store.loadIndexRegistry(cat); err != nil {
		return nil, nil, err
	}
	if logger != nil {
		logger.Debug("catalog loaded", "dir", dir, "tables", len(cat.TableNames()))
	}
	return cat, store, nil
}

func (s *Store) loadTable(name string) (*catalog.Table, error) {
	dir := s.tableDir(name)

	schemaBytes, err := os.ReadFile(filepath.Join(dir, schemaFileName))
	if err != nil {
		return nil, &dberrors.IOError{Op: "read schema " + name, Err: err}
	}
	var sdoc schemaDoc
	if err := json.Unmarshal(schemaBytes, &sdoc); err != nil {
		return nil, fmt.Errorf("unmarshal schema %s: %w", name, err)
	}

	t := &catalog.Table{
		Name:         sdoc.TableName,
		NextRowID:    sdoc.NextRowID,
		PrimaryKeyOf: sdoc.PrimaryKeyOf,
		CreatedAt:    sdoc.CreatedAt,
	}
	for _, cd := range sdoc.Columns {
		col, err := docToColumn(cd)
		if err != nil {
			return nil, err
		}
		t.Columns = append(t.Columns, col)
	}

	rowsPath := filepath.Join(dir, rowsFileName)
	if rowBytes, err := os.ReadFile(rowsPath); err == nil {
		var rdoc rowsDoc
		if err := json.Unmarshal(rowBytes, &rdoc); err != nil {
			return nil, fmt.Errorf("unmarshal rows %s: %w", name, err)
		}
		for _, rd := range rdoc.Rows {
			t.Rows = append(t.Rows, catalog.Row{ID: rd.ID, Values: rd.Values})
		}
	} else if !os.IsNotExist(err) {
		return nil, &dberrors.IOError{Op: "read rows " + name, Err: err}
	}

	return t, nil
}

func (s *Store) loadIndexRegistry(cat *catalog.Catalog) error {
	data, err := os.ReadFile(filepath.Join(s.Dir, indexRegistry))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &dberrors.IOError{Op: "read index registry", Err: err}
	}
	var docs []indexDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return fmt.Errorf("unmarshal index registry: %w", err)
	}
	for _, d := range docs {
		if _, ok := cat.IndexByName(d.Name); ok {
			continue
		}
		if err := cat.RestoreIndex(d.Name, d.Table, d.Column, d.Unique); err != nil {
			return err
		}
	}
	return nil
}
