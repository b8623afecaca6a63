package executor

import (
	"strings"

	"github.com/leengari/mini-rdbms/internal/ast"
	"github.com/leengari/mini-rdbms/internal/catalog"
	"github.com/leengari/mini-rdbms/internal/dberrors"
	"github.com/leengari/mini-rdbms/internal/eval"
	"github.com/leengari/mini-rdbms/internal/types"
)

// --- INSERT ---

func (ex *Executor) execInsert(s *ast.InsertStatement) (*Result, error) {
	t, ok := ex.Cat.GetTable(s.TableName)
	if !ok {
		return nil, &dberrors.UnknownTableError{Table: s.TableName}
	}

	positions, err := insertPositions(t, s.Columns)
	if err != nil {
		return nil, err
	}

	// Shadow-build and validate every row before any mutation: spec.md's
	// INSERT rule is that all rows of a multi-row statement commit or
	// none do.
	proposed := make([][]types.Value, 0, len(s.Rows))
	batchSeen := make(map[int]map[string]bool) // column position -> stringified value -> seen this batch
	for _, exprs := range s.Rows {
		if len(exprs) != len(positions) {
			return nil, &dberrors.SyntaxError{Pos: -1, Message: "INSERT value count does not match column count"}
		}
		values := make([]types.Value, len(t.Columns))
		for i := range values {
			values[i] = types.Null
		}
		for i, expr := range exprs {
			v, err := eval.Eval(expr, noopEnv{})
			if err != nil {
				return nil, err
			}
			values[positions[i]] = v
		}
		if err := validateRow(t, values); err != nil {
			return nil, err
		}
		if err := checkUniqueAndFK(ex.Cat, t, values, -1, batchSeen); err != nil {
			return nil, err
		}
		proposed = append(proposed, values)
	}

	for _, values := range proposed {
		id := t.NextRowID
		t.NextRowID++
		row := catalog.Row{ID: id, Values: values}
		t.Rows = append(t.Rows, row)
		insertIntoIndexes(ex.Cat, t, row)
	}

	if err := ex.Store.SaveTable(t); err != nil {
		return nil, err
	}
	return &Result{AffectedRows: len(proposed)}, nil
}

// insertPositions maps each VALUES expression slot to its column position
// in t.Columns. An absent column list means positional, one-to-one with
// t.Columns.
func insertPositions(t *catalog.Table, cols []string) ([]int, error) {
	if len(cols) == 0 {
		positions := make([]int, len(t.Columns))
		for i := range positions {
			positions[i] = i
		}
		return positions, nil
	}
	positions := make([]int, len(cols))
	for i, name := range cols {
		pos := t.ColumnIndex(name)
		if pos < 0 {
			return nil, &dberrors.UnknownColumnError{Table: t.Name, Column: name}
		}
		positions[i] = pos
	}
	return positions, nil
}

func validateRow(t *catalog.Table, values []types.Value) error {
	for i, col := range t.Columns {
		v := values[i]
		if v.IsNull() {
			if !col.IsNullable() {
				return &dberrors.NullViolationError{Table: t.Name, Column: col.Name}
			}
			continue
		}
		if err := col.Type.Validate(v); err != nil {
			return &dberrors.TypeMismatchError{Table: t.Name, Column: col.Name, Reason: err.Error()}
		}
	}
	return nil
}

// checkUniqueAndFK enforces UNIQUE/PRIMARY KEY and FOREIGN KEY constraints
// for one proposed row against both the catalog's indexes and the rest of
// the batch being inserted/updated alongside it. excludeRowID is the row's
// own id (for UPDATE, so it doesn't collide with itself); pass -1 for
// INSERT, where no such row exists yet.
func checkUniqueAndFK(cat *catalog.Catalog, t *catalog.Table, values []types.Value, excludeRowID int64, batchSeen map[int]map[string]bool) error {
	for i, col := range t.Columns {
		v := values[i]
		if v.IsNull() {
			continue
		}
		if col.IsUniqueKey() {
			if ix, ok := cat.IndexForColumn(t.Name, col.Name); ok {
				for _, id := range ix.PointLookup(v) {
					if id != excludeRowID {
						return &dberrors.UniqueViolationError{Table: t.Name, Column: col.Name, Value: v.String()}
					}
				}
			}
			if batchSeen[i] == nil {
				batchSeen[i] = make(map[string]bool)
			}
			key := v.String()
			if batchSeen[i][key] {
				return &dberrors.UniqueViolationError{Table: t.Name, Column: col.Name, Value: v.String()}
			}
			batchSeen[i][key] = true
		}
		if col.ForeignKey != nil {
			refIx, ok := cat.IndexForColumn(col.ForeignKey.Table, col.ForeignKey.Column)
			if !ok || len(refIx.PointLookup(v)) == 0 {
				return &dberrors.FKViolationError{
					Table: t.Name, Column: col.Name,
					RefTable: col.ForeignKey.Table, RefColumn: col.ForeignKey.Column,
					Value: v.String(),
				}
			}
		}
	}
	return nil
}

func insertIntoIndexes(cat *catalog.Catalog, t *catalog.Table, row catalog.Row) {
	for i, col := range t.Columns {
		v := row.Values[i]
		if v.IsNull() {
			continue
		}
		if ix, ok := cat.IndexForColumn(t.Name, col.Name); ok {
			_ = ix.Insert(v, row.ID)
		}
	}
}

func removeFromIndexes(cat *catalog.Catalog, t *catalog.Table, row catalog.Row) {
	for i, col := range t.Columns {
		v := row.Values[i]
		if v.IsNull() {
			continue
		}
		if ix, ok := cat.IndexForColumn(t.Name, col.Name); ok {
			ix.Remove(v, row.ID)
		}
	}
}

// --- UPDATE ---

func (ex *Executor) execUpdate(s *ast.UpdateStatement) (*Result, error) {
	t, ok := ex.Cat.GetTable(s.TableName)
	if !ok {
		return nil, &dberrors.UnknownTableError{Table: s.TableName}
	}

	matchIdx, err := matchingRowIndexes(ex.Cat, t, s.Where)
	if err != nil {
		return nil, err
	}

	type pending struct {
		rowIdx int
		values []types.Value
	}
	batchSeen := make(map[int]map[string]bool)
	updates := make([]pending, 0, len(matchIdx))
	for _, idx := range matchIdx {
		row := t.Rows[idx]
		env := &rowEnv{sources: []source{{alias: t.Name, table: t, row: &row}}}
		newValues := append([]types.Value(nil), row.Values...)
		for _, asg := range s.Set {
			pos := t.ColumnIndex(asg.Column)
			if pos < 0 {
				return nil, &dberrors.UnknownColumnError{Table: t.Name, Column: asg.Column}
			}
			v, err := eval.Eval(asg.Value, env)
			if err != nil {
				return nil, err
			}
			newValues[pos] = v
		}
		if err := validateRow(t, newValues); err != nil {
			return nil, err
		}
		if err := checkUniqueAndFK(ex.Cat, t, newValues, row.ID, batchSeen); err != nil {
			return nil, err
		}
		updates = append(updates, pending{rowIdx: idx, values: newValues})
	}

	for _, u := range updates {
		old := t.Rows[u.rowIdx]
		removeFromIndexes(ex.Cat, t, old)
		t.Rows[u.rowIdx].Values = u.values
		insertIntoIndexes(ex.Cat, t, t.Rows[u.rowIdx])
	}

	if len(updates) > 0 {
		if err := ex.Store.SaveRows(t); err != nil {
			return nil, err
		}
	}
	return &Result{AffectedRows: len(updates)}, nil
}

// --- DELETE ---

func (ex *Executor) execDelete(s *ast.DeleteStatement) (*Result, error) {
	t, ok := ex.Cat.GetTable(s.TableName)
	if !ok {
		return nil, &dberrors.UnknownTableError{Table: s.TableName}
	}

	matchIdx, err := matchingRowIndexes(ex.Cat, t, s.Where)
	if err != nil {
		return nil, err
	}

	for _, idx := range matchIdx {
		row := t.Rows[idx]
		for _, col := range t.Columns {
			if !col.IsUniqueKey() {
				continue
			}
			v := row.Values[t.ColumnIndex(col.Name)]
			if v.IsNull() {
				continue
			}
			for _, ref := range ex.Cat.ReferencingTables(t.Name, col.Name) {
				refTable, refCol := splitRef(ref)
				if referencingRowExists(ex.Cat, refTable, refCol, v) {
					return nil, &dberrors.RefusedDeleteError{Table: t.Name, Referencer: ref}
				}
			}
		}
	}

	// Collect matched row-ids first, then rebuild Rows by filtering them
	// out in one pass, so removing one match never shifts another match's
	// index out from under us.
	ids := make(map[int64]bool, len(matchIdx))
	for _, idx := range matchIdx {
		ids[t.Rows[idx].ID] = true
		removeFromIndexes(ex.Cat, t, t.Rows[idx])
	}
	if len(ids) > 0 {
		kept := t.Rows[:0]
		for _, r := range t.Rows {
			if !ids[r.ID] {
				kept = append(kept, r)
			}
		}
		t.Rows = kept
	}

	if len(matchIdx) > 0 {
		if err := ex.Store.SaveRows(t); err != nil {
			return nil, err
		}
	}
	return &Result{AffectedRows: len(matchIdx)}, nil
}

func splitRef(ref string) (table, column string) {
	i := strings.LastIndexByte(ref, '.')
	if i < 0 {
		return ref, ""
	}
	return ref[:i], ref[i+1:]
}

func referencingRowExists(cat *catalog.Catalog, table, column string, value types.Value) bool {
	t, ok := cat.GetTable(table)
	if !ok {
		return false
	}
	if ix, ok := cat.IndexForColumn(table, column); ok {
		return len(ix.PointLookup(value)) > 0
	}
	pos := t.ColumnIndex(column)
	if pos < 0 {
		return false
	}
	for _, r := range t.Rows {
		if r.Values[pos].Equal(value) {
			return true
		}
	}
	return false
}

// matchingRowIndexes evaluates where against every row of t (via an
// index-scan substitution when ChooseWhereAccess finds one) and returns
// the matching row positions within t.Rows, in ascending order.
func matchingRowIndexes(cat *catalog.Catalog, t *catalog.Table, where ast.Expression) ([]int, error) {
	access := ChooseWhereAccess(cat, t.Name, t, where)

	var candidates []int
	if access.Indexed {
		ix, _ := cat.IndexByName(access.IndexName)
		var ids []int64
		switch access.Op {
		case "=":
			ids = ix.PointLookup(access.Key)
		case "<":
			ids = ix.RangeLookup(nil, &access.Key, false, false)
		case "<=":
			ids = ix.RangeLookup(nil, &access.Key, false, true)
		case ">":
			ids = ix.RangeLookup(&access.Key, nil, false, false)
		case ">=":
			ids = ix.RangeLookup(&access.Key, nil, true, false)
		}
		idset := make(map[int64]bool, len(ids))
		for _, id := range ids {
			idset[id] = true
		}
		for i, r := range t.Rows {
			if idset[r.ID] {
				candidates = append(candidates, i)
			}
		}
	} else {
		for i := range t.Rows {
			candidates = append(candidates, i)
		}
	}

	if access.Residual == nil {
		return candidates, nil
	}

	var out []int
	for _, i := range candidates {
		row := t.Rows[i]
		env := &rowEnv{sources: []source{{alias: t.Name, table: t, row: &row}}}
		tb, err := eval.EvalPredicate(access.Residual, env)
		if err != nil {
			return nil, err
		}
		if tb.IsTrue() {
			out = append(out, i)
		}
	}
	return out, nil
}
