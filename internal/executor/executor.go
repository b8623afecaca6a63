// Package executor implements the plan-and-run half of C7 (spec.md §4.7):
// DDL/DML mutation with per-statement atomicity, and the nine-step SELECT
// pipeline (source resolution, joins, filtering, grouping, aggregation,
// HAVING, ORDER BY, LIMIT, projection). internal/planner imports
// ChooseWhereAccess/ChooseJoinAccess from this package so EXPLAIN and the
// real executor never disagree about which index a query would use.
package executor

import (
	"fmt"

	"github.com/leengari/mini-rdbms/internal/ast"
	"github.com/leengari/mini-rdbms/internal/catalog"
	"github.com/leengari/mini-rdbms/internal/storage"
)

// Executor binds a catalog and its backing store for one database
// directory. Per spec.md §5, callers serialize Execute/Explain calls
// against a given Executor themselves; it performs no internal locking.
type Executor struct {
	Cat   *catalog.Catalog
	Store *storage.Store
}

// New builds an Executor over an already-loaded catalog and store.
func New(cat *catalog.Catalog, store *storage.Store) *Executor {
	return &Executor{Cat: cat, Store: store}
}

// Execute runs one parsed statement to completion.
func (ex *Executor) Execute(stmt ast.Statement) (*Result, error) {
	switch s := stmt.(type) {
	case *ast.CreateTableStatement:
		return ex.execCreateTable(s)
	case *ast.CreateIndexStatement:
		return ex.execCreateIndex(s)
	case *ast.DropTableStatement:
		return ex.execDropTable(s)
	case *ast.InsertStatement:
		return ex.execInsert(s)
	case *ast.UpdateStatement:
		return ex.execUpdate(s)
	case *ast.DeleteStatement:
		return ex.execDelete(s)
	case *ast.SelectStatement:
		return ex.execSelect(s)
	default:
		return nil, fmt.Errorf("executor: unsupported statement %T", stmt)
	}
}
