package engine

import (
	"fmt"
	"sort"

	"github.com/leengari/mini-rdbms/internal/executor"
	"github.com/leengari/mini-rdbms/internal/types"
)

// introspectTables builds the "tables" projection of spec.md §4.1/line 96:
// one row per table with its name, column count, row count, primary key,
// and the names of the indexes registered against it.
func (e *Engine) introspectTables() *executor.Result {
	names := e.cat.TableNames()
	sort.Strings(names)

	rows := make([][]types.Value, 0, len(names))
	for _, name := range names {
		t, ok := e.cat.GetTable(name)
		if !ok {
			continue
		}
		pk := "-"
		if col, ok := t.PrimaryKeyColumn(); ok {
			pk = col.Name
		}
		var idxNames []string
		for _, ix := range e.cat.IndexesOnTable(t.Name) {
			idxNames = append(idxNames, ix.Name)
		}
		sort.Strings(idxNames)
		idxList := "-"
		if len(idxNames) > 0 {
			idxList = joinStrings(idxNames, ", ")
		}

		rows = append(rows, []types.Value{
			types.Text(t.Name),
			types.Integer(int64(len(t.Columns))),
			types.Integer(int64(len(t.Rows))),
			types.Text(pk),
			types.Text(idxList),
		})
	}

	return &executor.Result{
		Columns: []string{"table", "columns", "rows", "primary_key", "indexes"},
		Rows:    rows,
	}
}

// introspectIndexes builds the "indexes" projection: one row per index
// with its table.column, uniqueness, and entry count.
func (e *Engine) introspectIndexes() *executor.Result {
	indexes := e.cat.AllIndexes()
	sort.Slice(indexes, func(i, j int) bool { return indexes[i].Name < indexes[j].Name })

	rows := make([][]types.Value, 0, len(indexes))
	for _, ix := range indexes {
		rows = append(rows, []types.Value{
			types.Text(ix.Name),
			types.Text(fmt.Sprintf("%s.%s", ix.Table, ix.Column)),
			types.Boolean(ix.Unique),
			types.Integer(int64(ix.Len())),
		})
	}

	return &executor.Result{
		Columns: []string{"index", "table.column", "unique", "entries"},
		Rows:    rows,
	}
}

func joinStrings(ss []string, sep string) string {
	out := ss[0]
	for _, s := range ss[1:] {
		out += sep + s
	}
	return out
}
