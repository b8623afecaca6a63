// access.go implements the index-selection logic of spec.md §4.7 steps 2–3
// as a pair of functions, so the real executor and the EXPLAIN planner
// (internal/planner) consult the exact same decision path — spec.md §9
// is explicit that divergence here is a test-detected bug: "Extract the
// chooser into a function consumed by both."
package executor

import (
	"github.com/leengari/mini-rdbms/internal/ast"
	"github.com/leengari/mini-rdbms/internal/catalog"
	"github.com/leengari/mini-rdbms/internal/eval"
	"github.com/leengari/mini-rdbms/internal/types"
)

// WhereAccess describes how a single-table source is scanned.
type WhereAccess struct {
	Indexed   bool
	IndexName string
	Column    string
	Op        string // =, <, <=, >, >=
	Key       types.Value
	Residual  ast.Expression // remaining filter to apply per retrieved row; nil if WHERE fully consumed
}

// ChooseWhereAccess detects a `col OP literal` conjunct (OP in
// {=,<,<=,>,>=}) over an indexed column of table and, if found, returns
// the probe to use plus whatever of WHERE remains to apply as a residual
// filter. If no such conjunct exists, the caller falls back to a full
// scan with the entire WHERE as residual.
func ChooseWhereAccess(cat *catalog.Catalog, alias string, table *catalog.Table, where ast.Expression) WhereAccess {
	if where == nil {
		return WhereAccess{Residual: nil}
	}
	conjuncts := flattenAnd(where)
	for i, c := range conjuncts {
		col, op, lit, ok := indexableConjunct(c, alias)
		if !ok {
			continue
		}
		if _, hasCol := table.Column(col); !hasCol {
			continue
		}
		ix, hasIdx := cat.IndexForColumn(table.Name, col)
		if !hasIdx {
			continue
		}
		key, err := eval.Eval(lit, noopEnv{})
		if err != nil {
			continue
		}
		return WhereAccess{
			Indexed:   true,
			IndexName: ix.Name,
			Column:    col,
			Op:        op,
			Key:       key,
			Residual:  rebuildAnd(removeAt(conjuncts, i)),
		}
	}
	return WhereAccess{Residual: where}
}

// JoinAccess describes how one join clause is executed against its
// (already-partially-joined) outer stream.
type JoinAccess struct {
	IndexAware bool
	IndexName  string
	Column     string
	ProbeExpr  ast.Expression // evaluated against the outer row to get the probe key
	Residual   ast.Expression // remaining ON conjuncts, applied per candidate pair
}

// ChooseJoinAccess detects an equality conjunct of the ON predicate whose
// one side names rightAlias (the table this join clause introduces) and
// whose column carries an index, per spec.md §4.7 step 2. If both sides
// of an equality happen to be indexed, the right side wins (it is the
// only side this function considers).
func ChooseJoinAccess(cat *catalog.Catalog, rightAlias string, rightTable *catalog.Table, on ast.Expression) JoinAccess {
	if on == nil {
		return JoinAccess{}
	}
	conjuncts := flattenAnd(on)
	for i, c := range conjuncts {
		be, ok := c.(*ast.BinaryExpression)
		if !ok || be.Operator != "=" {
			continue
		}
		leftID, lok := be.Left.(*ast.Identifier)
		rightID, rok := be.Right.(*ast.Identifier)
		if !lok || !rok {
			continue
		}
		var rightCol string
		var probeExpr ast.Expression
		switch {
		case equalFold(leftID.Qualifier, rightAlias):
			rightCol, probeExpr = leftID.Value, be.Right
		case equalFold(rightID.Qualifier, rightAlias):
			rightCol, probeExpr = rightID.Value, be.Left
		default:
			continue
		}
		ix, hasIdx := cat.IndexForColumn(rightTable.Name, rightCol)
		if !hasIdx {
			continue
		}
		return JoinAccess{
			IndexAware: true,
			IndexName:  ix.Name,
			Column:     rightCol,
			ProbeExpr:  probeExpr,
			Residual:   rebuildAnd(removeAt(conjuncts, i)),
		}
	}
	return JoinAccess{Residual: on}
}

func equalFold(a, b string) bool {
	return len(a) == len(b) && foldEqual(a, b)
}

func foldEqual(a, b string) bool {
	if a == b {
		return true
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// flattenAnd decomposes a top-level chain of AND conjuncts into a flat
// list; an expression with a different top-level shape is returned as a
// single-element list.
func flattenAnd(expr ast.Expression) []ast.Expression {
	if expr == nil {
		return nil
	}
	if be, ok := expr.(*ast.BinaryExpression); ok && be.Operator == "AND" {
		return append(flattenAnd(be.Left), flattenAnd(be.Right)...)
	}
	return []ast.Expression{expr}
}

func rebuildAnd(exprs []ast.Expression) ast.Expression {
	if len(exprs) == 0 {
		return nil
	}
	out := exprs[0]
	for _, e := range exprs[1:] {
		out = &ast.BinaryExpression{Left: out, Operator: "AND", Right: e}
	}
	return out
}

func removeAt(exprs []ast.Expression, i int) []ast.Expression {
	out := make([]ast.Expression, 0, len(exprs)-1)
	out = append(out, exprs[:i]...)
	out = append(out, exprs[i+1:]...)
	return out
}

// indexableConjunct recognizes `col OP literal` or `literal OP col`,
// normalizing the latter to the former's operator direction. col may be
// bare or qualified to alias (the table this WHERE clause filters).
func indexableConjunct(expr ast.Expression, alias string) (col, op string, lit ast.Expression, ok bool) {
	be, isBin := expr.(*ast.BinaryExpression)
	if !isBin {
		return "", "", nil, false
	}
	switch be.Operator {
	case "=", "<", "<=", ">", ">=":
	default:
		return "", "", nil, false
	}
	idMatches := func(id *ast.Identifier) bool {
		return id.Qualifier == "" || equalFold(id.Qualifier, alias)
	}
	if id, isID := be.Left.(*ast.Identifier); isID && idMatches(id) {
		if _, isLit := be.Right.(*ast.Literal); isLit {
			return id.Value, be.Operator, be.Right, true
		}
	}
	if id, isID := be.Right.(*ast.Identifier); isID && idMatches(id) {
		if _, isLit := be.Left.(*ast.Literal); isLit {
			return id.Value, flipOp(be.Operator), be.Left, true
		}
	}
	return "", "", nil, false
}

func flipOp(op string) string {
	switch op {
	case "<":
		return ">"
	case "<=":
		return ">="
	case ">":
		return "<"
	case ">=":
		return "<="
	default:
		return op
	}
}

// noopEnv is used to evaluate a bare literal expression with no column
// references, as ChooseWhereAccess needs for the probe key and INSERT
// needs for its VALUES rows — any column lookup on it is a bug in the
// caller.
type noopEnv struct{}

func (noopEnv) ResolveColumn(qualifier, name string) (types.Value, error) {
	return types.Value{}, &unexpectedColumnLookup{qualifier: qualifier, name: name}
}
func (noopEnv) ResolveAggregate(*ast.AggregateCall) (types.Value, bool) { return types.Value{}, false }

type unexpectedColumnLookup struct{ qualifier, name string }

func (e *unexpectedColumnLookup) Error() string {
	return "internal: unexpected column lookup " + e.qualifier + "." + e.name + " while evaluating a literal"
}
