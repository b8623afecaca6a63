package executor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leengari/mini-rdbms/internal/ast"
	"github.com/leengari/mini-rdbms/internal/catalog"
	"github.com/leengari/mini-rdbms/internal/dberrors"
	"github.com/leengari/mini-rdbms/internal/eval"
	"github.com/leengari/mini-rdbms/internal/types"
)

// schemaSource names one FROM-list entry independent of any particular
// row, used to resolve SELECT * and to build per-table scans/joins.
type schemaSource struct {
	alias string
	table *catalog.Table
}

func (ex *Executor) buildSchema(s *ast.SelectStatement) ([]schemaSource, error) {
	baseTable, ok := ex.Cat.GetTable(s.TableName)
	if !ok {
		return nil, &dberrors.UnknownTableError{Table: s.TableName}
	}
	baseAlias := s.Alias
	if baseAlias == "" {
		baseAlias = s.TableName
	}
	schema := []schemaSource{{alias: baseAlias, table: baseTable}}
	for _, j := range s.Joins {
		t, ok := ex.Cat.GetTable(j.Table)
		if !ok {
			return nil, &dberrors.UnknownTableError{Table: j.Table}
		}
		alias := j.Alias
		if alias == "" {
			alias = j.Table
		}
		schema = append(schema, schemaSource{alias: alias, table: t})
	}
	return schema, nil
}

func (ex *Executor) execSelect(s *ast.SelectStatement) (*Result, error) {
	schema, err := ex.buildSchema(s)
	if err != nil {
		return nil, err
	}

	// Steps 1-2: source resolution plus left-to-right joins.
	var envs []*rowEnv
	if len(s.Joins) == 0 {
		envs, err = ex.scanSingleTable(schema[0], s.Where)
		if err != nil {
			return nil, err
		}
	} else {
		envs, err = ex.runJoins(s, schema)
		if err != nil {
			return nil, err
		}
		if s.Where != nil {
			envs, err = filterRows(envs, s.Where)
			if err != nil {
				return nil, err
			}
		}
	}

	items := expandStar(s.Items, schema)

	isGrouped := len(s.GroupBy) > 0 || projectionHasAggregate(items) || exprHasAggregate(s.Having)

	var units []eval.Env
	if isGrouped {
		units, err = ex.runGrouped(s, items, envs)
	} else {
		units = toEnvSlice(envs)
	}
	if err != nil {
		return nil, err
	}

	if len(s.OrderBy) > 0 {
		if err := sortUnits(units, s.OrderBy); err != nil {
			return nil, err
		}
	}

	if s.Limit != nil && int64(len(units)) > *s.Limit {
		units = units[:*s.Limit]
	}

	columns, rows, err := projectUnits(units, items)
	if err != nil {
		return nil, err
	}
	return &Result{Columns: columns, Rows: rows}, nil
}

// scanSingleTable implements step 3's index-scan substitution for the
// single-table (no-join) case.
func (ex *Executor) scanSingleTable(src schemaSource, where ast.Expression) ([]*rowEnv, error) {
	access := ChooseWhereAccess(ex.Cat, src.alias, src.table, where)

	var positions []int
	if access.Indexed {
		ix, _ := ex.Cat.IndexByName(access.IndexName)
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
		for _, id := range ids {
			if pos, ok := src.table.RowByID(id); ok {
				positions = append(positions, pos)
			}
		}
	} else {
		positions = make([]int, len(src.table.Rows))
		for i := range positions {
			positions[i] = i
		}
	}

	envs := make([]*rowEnv, 0, len(positions))
	for _, pos := range positions {
		row := src.table.Rows[pos]
		envs = append(envs, &rowEnv{sources: []source{{alias: src.alias, table: src.table, row: &row}}})
	}

	if access.Residual == nil {
		return envs, nil
	}
	return filterRows(envs, access.Residual)
}

func filterRows(envs []*rowEnv, predicate ast.Expression) ([]*rowEnv, error) {
	out := envs[:0]
	for _, e := range envs {
		tb, err := eval.EvalPredicate(predicate, e)
		if err != nil {
			return nil, err
		}
		if tb.IsTrue() {
			out = append(out, e)
		}
	}
	return out, nil
}

// runJoins performs the left-to-right nested-loop joins of step 2,
// substituting an index probe wherever ChooseJoinAccess finds an
// equality conjunct over an indexed column of the newly-joined table.
func (ex *Executor) runJoins(s *ast.SelectStatement, schema []schemaSource) ([]*rowEnv, error) {
	base := schema[0]
	envs := make([]*rowEnv, 0, len(base.table.Rows))
	for i := range base.table.Rows {
		row := base.table.Rows[i]
		envs = append(envs, &rowEnv{sources: []source{{alias: base.alias, table: base.table, row: &row}}})
	}

	for ji, j := range s.Joins {
		right := schema[ji+1]

		if strings.EqualFold(j.Kind, "CROSS") {
			var next []*rowEnv
			for _, outer := range envs {
				for k := range right.table.Rows {
					rrow := right.table.Rows[k]
					next = append(next, extendEnv(outer, right.alias, right.table, &rrow))
				}
			}
			envs = next
			continue
		}

		access := ChooseJoinAccess(ex.Cat, right.alias, right.table, j.On)
		var next []*rowEnv
		for _, outer := range envs {
			positions, err := ex.joinCandidates(right.table, access, outer)
			if err != nil {
				return nil, err
			}
			matched := false
			for _, pos := range positions {
				rrow := right.table.Rows[pos]
				combined := extendEnv(outer, right.alias, right.table, &rrow)
				if access.Residual != nil {
					tb, err := eval.EvalPredicate(access.Residual, combined)
					if err != nil {
						return nil, err
					}
					if !tb.IsTrue() {
						continue
					}
				}
				next = append(next, combined)
				matched = true
			}
			if !matched && strings.EqualFold(j.Kind, "LEFT") {
				next = append(next, extendEnv(outer, right.alias, right.table, nil))
			}
		}
		envs = next
	}
	return envs, nil
}

func (ex *Executor) joinCandidates(t *catalog.Table, access JoinAccess, outer *rowEnv) ([]int, error) {
	if !access.IndexAware {
		out := make([]int, len(t.Rows))
		for i := range out {
			out[i] = i
		}
		return out, nil
	}
	key, err := eval.Eval(access.ProbeExpr, outer)
	if err != nil {
		return nil, err
	}
	if key.IsNull() {
		return nil, nil
	}
	ix, _ := ex.Cat.IndexByName(access.IndexName)
	ids := ix.PointLookup(key)
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if pos, ok := t.RowByID(id); ok {
			out = append(out, pos)
		}
	}
	return out, nil
}

func extendEnv(outer *rowEnv, alias string, table *catalog.Table, row *catalog.Row) *rowEnv {
	sources := make([]source, len(outer.sources)+1)
	copy(sources, outer.sources)
	sources[len(outer.sources)] = source{alias: alias, table: table, row: row}
	return &rowEnv{sources: sources}
}

// expandStar replaces a bare `SELECT *` item with one item per column of
// every source, in FROM/JOIN order.
func expandStar(items []ast.SelectItem, schema []schemaSource) []ast.SelectItem {
	if len(items) != 1 {
		return items
	}
	id, ok := items[0].Expr.(*ast.Identifier)
	if !ok || id.Value != "*" || id.Qualifier != "" {
		return items
	}
	var out []ast.SelectItem
	for _, src := range schema {
		for _, col := range src.table.Columns {
			out = append(out, ast.SelectItem{
				Expr:  &ast.Identifier{Qualifier: src.alias, Value: col.Name},
				Alias: col.Name,
			})
		}
	}
	return out
}

func toEnvSlice(rows []*rowEnv) []eval.Env {
	out := make([]eval.Env, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}

func projectionHasAggregate(items []ast.SelectItem) bool {
	for _, it := range items {
		if exprHasAggregate(it.Expr) {
			return true
		}
	}
	return false
}

func exprHasAggregate(expr ast.Expression) bool {
	var calls []*ast.AggregateCall
	collectAggregateCalls(expr, &calls)
	return len(calls) > 0
}

// validateGroupProjection enforces spec's strict AggregateMisuse rule:
// every non-aggregated projection item must structurally match a GROUP
// BY expression.
func validateGroupProjection(groupBy []ast.Expression, items []ast.SelectItem) error {
	groupKeys := make(map[string]bool, len(groupBy))
	for _, g := range groupBy {
		groupKeys[g.String()] = true
	}
	for _, item := range items {
		if exprHasAggregate(item.Expr) {
			continue
		}
		if !groupKeys[item.Expr.String()] {
			return &dberrors.AggregateMisuseError{
				Reason: fmt.Sprintf("column %s must appear in GROUP BY or be aggregated", item.Expr.String()),
			}
		}
	}
	return nil
}

func sameKey(a, b []types.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

type groupBucket struct {
	keyVals []types.Value
	rows    []*rowEnv
}

// runGrouped implements steps 4-6: GROUP BY bucketing (or one implicit
// group when aggregates appear without an explicit GROUP BY), aggregate
// computation, and HAVING filtering.
func (ex *Executor) runGrouped(s *ast.SelectStatement, items []ast.SelectItem, rows []*rowEnv) ([]eval.Env, error) {
	if err := validateGroupProjection(s.GroupBy, items); err != nil {
		return nil, err
	}

	var buckets []*groupBucket
	for _, r := range rows {
		var keyVals []types.Value
		if len(s.GroupBy) > 0 {
			keyVals = make([]types.Value, len(s.GroupBy))
			for i, g := range s.GroupBy {
				v, err := eval.Eval(g, r)
				if err != nil {
					return nil, err
				}
				keyVals[i] = v
			}
		}
		var found *groupBucket
		for _, b := range buckets {
			if sameKey(b.keyVals, keyVals) {
				found = b
				break
			}
		}
		if found == nil {
			found = &groupBucket{keyVals: keyVals}
			buckets = append(buckets, found)
		}
		found.rows = append(found.rows, r)
	}
	if len(buckets) == 0 && len(s.GroupBy) == 0 {
		buckets = append(buckets, &groupBucket{})
	}

	var calls []*ast.AggregateCall
	for _, item := range items {
		collectAggregateCalls(item.Expr, &calls)
	}
	collectAggregateCalls(s.Having, &calls)
	for _, o := range s.OrderBy {
		collectAggregateCalls(o.Expr, &calls)
	}

	units := make([]eval.Env, 0, len(buckets))
	for _, b := range buckets {
		values := make(map[string]types.Value, len(s.GroupBy)+len(calls))
		for i, g := range s.GroupBy {
			values[g.String()] = b.keyVals[i]
		}
		for _, call := range calls {
			v, err := computeAggregate(call, b.rows)
			if err != nil {
				return nil, err
			}
			values[call.String()] = v
		}
		units = append(units, &groupEnv{values: values})
	}

	if s.Having == nil {
		return units, nil
	}
	var filtered []eval.Env
	for _, u := range units {
		tb, err := eval.EvalPredicate(s.Having, u)
		if err != nil {
			return nil, err
		}
		if tb.IsTrue() {
			filtered = append(filtered, u)
		}
	}
	return filtered, nil
}

// orderCompare returns negative/zero/positive the way sort comparators
// expect, applying spec's NULLs-last-ASC / NULLs-first-DESC placement.
func orderCompare(a, b types.Value, desc bool) int {
	switch {
	case a.IsNull() && b.IsNull():
		return 0
	case a.IsNull():
		if desc {
			return -1
		}
		return 1
	case b.IsNull():
		if desc {
			return 1
		}
		return -1
	}
	c, _ := types.Compare(a, b)
	if desc {
		return -c
	}
	return c
}

func sortUnits(units []eval.Env, orderBy []ast.OrderItem) error {
	var sortErr error
	sort.SliceStable(units, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		for _, o := range orderBy {
			vi, err := eval.Eval(o.Expr, units[i])
			if err != nil {
				sortErr = err
				return false
			}
			vj, err := eval.Eval(o.Expr, units[j])
			if err != nil {
				sortErr = err
				return false
			}
			if c := orderCompare(vi, vj, o.Descending); c != 0 {
				return c < 0
			}
		}
		return false
	})
	return sortErr
}

// projectUnits implements step 9: the final aliased projection.
func projectUnits(units []eval.Env, items []ast.SelectItem) ([]string, [][]types.Value, error) {
	columns := make([]string, len(items))
	for i, it := range items {
		if it.Alias != "" {
			columns[i] = it.Alias
		} else {
			columns[i] = it.Expr.String()
		}
	}
	rows := make([][]types.Value, len(units))
	for ri, u := range units {
		row := make([]types.Value, len(items))
		for ci, it := range items {
			v, err := eval.Eval(it.Expr, u)
			if err != nil {
				return nil, nil, err
			}
			row[ci] = v
		}
		rows[ri] = row
	}
	return columns, rows, nil
}
