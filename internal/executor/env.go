package executor

import (
	"fmt"

	"github.com/leengari/mini-rdbms/internal/ast"
	"github.com/leengari/mini-rdbms/internal/catalog"
	"github.com/leengari/mini-rdbms/internal/dberrors"
	"github.com/leengari/mini-rdbms/internal/eval"
	"github.com/leengari/mini-rdbms/internal/types"
)

// source is one bound FROM-list entry: a table together with the alias it
// was introduced under and the current candidate row. row is nil for the
// unmatched (NULL-padded) side of a LEFT JOIN.
type source struct {
	alias string
	table *catalog.Table
	row   *catalog.Row
}

func (s source) tryColumn(name string) (types.Value, bool) {
	pos := s.table.ColumnIndex(name)
	if pos < 0 {
		return types.Value{}, false
	}
	if s.row == nil {
		return types.Null, true
	}
	return s.row.Values[pos], true
}

// rowEnv implements eval.Env over one candidate combination of bound
// sources, the unit the SELECT pipeline filters, joins, and projects one
// at a time (spec.md §4.7 steps 1–3).
type rowEnv struct {
	sources []source
}

var _ eval.Env = (*rowEnv)(nil)

func (e *rowEnv) ResolveColumn(qualifier, name string) (types.Value, error) {
	if qualifier != "" {
		for _, s := range e.sources {
			if equalFold(s.alias, qualifier) {
				v, ok := s.tryColumn(name)
				if !ok {
					return types.Value{}, &dberrors.UnknownColumnError{Table: s.alias, Column: name}
				}
				return v, nil
			}
		}
		return types.Value{}, &dberrors.UnknownTableError{Table: qualifier}
	}

	var found types.Value
	count := 0
	for _, s := range e.sources {
		if v, ok := s.tryColumn(name); ok {
			found = v
			count++
		}
	}
	switch count {
	case 0:
		return types.Value{}, &dberrors.UnknownColumnError{Column: name}
	case 1:
		return found, nil
	default:
		return types.Value{}, &dberrors.AmbiguousColumnError{Column: name}
	}
}

func (e *rowEnv) ResolveAggregate(*ast.AggregateCall) (types.Value, bool) {
	return types.Value{}, false
}

// groupEnv implements eval.Env for the projection/HAVING/ORDER BY stage of
// a grouped or aggregated query: identifiers resolve only if they
// structurally match a GROUP BY expression, and aggregate calls resolve to
// a value already computed over the group's member rows — spec.md §4.7
// step 5's strict AggregateMisuse enforcement (DESIGN.md Open Question 4:
// chosen over the Python predecessor's permissive bug-compatible behavior).
type groupEnv struct {
	values map[string]types.Value // keyed by ast.Expression.String()
}

var _ eval.Env = (*groupEnv)(nil)

func (g *groupEnv) ResolveColumn(qualifier, name string) (types.Value, error) {
	key := (&ast.Identifier{Qualifier: qualifier, Value: name}).String()
	if v, ok := g.values[key]; ok {
		return v, nil
	}
	return types.Value{}, &dberrors.AggregateMisuseError{
		Reason: fmt.Sprintf("column %s must appear in GROUP BY or be wrapped in an aggregate", key),
	}
}

func (g *groupEnv) ResolveAggregate(call *ast.AggregateCall) (types.Value, bool) {
	v, ok := g.values[call.String()]
	return v, ok
}

// computeAggregate evaluates one aggregate call over a bucket of member
// rows, skipping NULLs for every function except COUNT(*) (spec.md §4.7
// step 5).
func computeAggregate(call *ast.AggregateCall, rows []*rowEnv) (types.Value, error) {
	if call.Star {
		return types.Integer(int64(len(rows))), nil
	}

	var nums []float64
	var nonNullCount int64
	var firstNonNull *types.Value
	for _, r := range rows {
		v, err := eval.Eval(call.Arg, r)
		if err != nil {
			return types.Value{}, err
		}
		if v.IsNull() {
			continue
		}
		nonNullCount++
		if firstNonNull == nil {
			firstNonNull = &v
		}
		if f, ok := v.AsFloat64(); ok {
			nums = append(nums, f)
		}
	}

	switch call.Func {
	case "COUNT":
		return types.Integer(nonNullCount), nil
	case "SUM":
		if nonNullCount == 0 {
			return types.Null, nil
		}
		return sumValue(nums, allInteger(rows, call.Arg)), nil
	case "AVG":
		if nonNullCount == 0 {
			return types.Null, nil
		}
		total := 0.0
		for _, n := range nums {
			total += n
		}
		return types.Float(total / float64(nonNullCount)), nil
	case "MIN", "MAX":
		if nonNullCount == 0 {
			return types.Null, nil
		}
		return minMax(call.Func, call.Arg, rows)
	default:
		return types.Value{}, fmt.Errorf("eval: unknown aggregate function %q", call.Func)
	}
}

func allInteger(rows []*rowEnv, arg ast.Expression) bool {
	for _, r := range rows {
		v, err := eval.Eval(arg, r)
		if err != nil || v.IsNull() {
			continue
		}
		return v.Kind == types.KindInteger
	}
	return false
}

func sumValue(nums []float64, wasInteger bool) types.Value {
	total := 0.0
	for _, n := range nums {
		total += n
	}
	if wasInteger {
		return types.Integer(int64(total))
	}
	return types.Float(total)
}

func minMax(fn string, arg ast.Expression, rows []*rowEnv) (types.Value, error) {
	var best *types.Value
	for _, r := range rows {
		v, err := eval.Eval(arg, r)
		if err != nil {
			return types.Value{}, err
		}
		if v.IsNull() {
			continue
		}
		if best == nil {
			cp := v
			best = &cp
			continue
		}
		c, err := types.Compare(v, *best)
		if err != nil {
			return types.Value{}, err
		}
		if (fn == "MIN" && c < 0) || (fn == "MAX" && c > 0) {
			cp := v
			best = &cp
		}
	}
	if best == nil {
		return types.Null, nil
	}
	return *best, nil
}

// collectAggregateCalls walks expr and appends every AggregateCall found,
// so the grouping stage knows which aggregates to precompute per bucket.
func collectAggregateCalls(expr ast.Expression, out *[]*ast.AggregateCall) {
	switch e := expr.(type) {
	case nil:
		return
	case *ast.AggregateCall:
		*out = append(*out, e)
		if !e.Star {
			collectAggregateCalls(e.Arg, out)
		}
	case *ast.BinaryExpression:
		collectAggregateCalls(e.Left, out)
		collectAggregateCalls(e.Right, out)
	case *ast.UnaryExpression:
		collectAggregateCalls(e.Operand, out)
	case *ast.IsNullExpression:
		collectAggregateCalls(e.Operand, out)
	case *ast.InExpression:
		collectAggregateCalls(e.Operand, out)
		for _, item := range e.List {
			collectAggregateCalls(item, out)
		}
	}
}
