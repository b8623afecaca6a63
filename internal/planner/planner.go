// Package planner implements EXPLAIN (C8, spec.md §4.8): a structural
// description of how a SELECT would run, without reading or writing a
// single row. It imports internal/executor's ChooseWhereAccess /
// ChooseJoinAccess rather than re-deriving index selection, so EXPLAIN
// can never disagree with what Execute actually does (spec.md §9,
// "Extract the chooser into a function consumed by both").
package planner

import (
	"fmt"

	"github.com/leengari/mini-rdbms/internal/ast"
	"github.com/leengari/mini-rdbms/internal/catalog"
	"github.com/leengari/mini-rdbms/internal/dberrors"
	"github.com/leengari/mini-rdbms/internal/executor"
)

// TableAccess describes how one FROM-list source would be scanned.
type TableAccess struct {
	Alias     string `json:"alias"`
	Table     string `json:"table"`
	Method    string `json:"method"` // "full scan" or "index scan"
	IndexName string `json:"index_name,omitempty"`
	ProbeKey  string `json:"probe_key,omitempty"`
}

// JoinAccess describes how one join clause would be executed.
type JoinAccess struct {
	Kind       string `json:"kind"`
	Table      string `json:"table"`
	IndexAware bool   `json:"index_aware"`
	IndexName  string `json:"index_name,omitempty"`
}

// Plan is the structural description EXPLAIN returns, per spec.md §4.8.
type Plan struct {
	StatementKind string        `json:"statement_kind"`
	Source        *TableAccess  `json:"source,omitempty"`
	Joins         []JoinAccess  `json:"joins,omitempty"`
	Grouped       bool          `json:"grouped"`
	Aggregates    []string      `json:"aggregates,omitempty"`
	OrderBy       []string      `json:"order_by,omitempty"`
	Limit         *int64        `json:"limit,omitempty"`
}

// Planner consults a catalog to build plans; it never touches a Store.
type Planner struct {
	Cat *catalog.Catalog
}

func New(cat *catalog.Catalog) *Planner {
	return &Planner{Cat: cat}
}

// Explain builds the plan for stmt. Only SELECT (optionally wrapped in
// ExplainStatement) carries a source/join/grouping shape; other
// statement kinds report just their kind; the plan does not describe the
// access path UPDATE or DELETE uses to find their target rows.
func (p *Planner) Explain(stmt ast.Statement) (*Plan, error) {
	if ex, ok := stmt.(*ast.ExplainStatement); ok {
		stmt = ex.Statement
	}
	switch s := stmt.(type) {
	case *ast.SelectStatement:
		return p.explainSelect(s)
	case *ast.InsertStatement:
		return &Plan{StatementKind: "INSERT"}, nil
	case *ast.UpdateStatement:
		return &Plan{StatementKind: "UPDATE"}, nil
	case *ast.DeleteStatement:
		return &Plan{StatementKind: "DELETE"}, nil
	case *ast.CreateTableStatement:
		return &Plan{StatementKind: "CREATE TABLE"}, nil
	case *ast.CreateIndexStatement:
		return &Plan{StatementKind: "CREATE INDEX"}, nil
	case *ast.DropTableStatement:
		return &Plan{StatementKind: "DROP TABLE"}, nil
	default:
		return nil, fmt.Errorf("planner: unsupported statement %T", stmt)
	}
}

func (p *Planner) explainSelect(s *ast.SelectStatement) (*Plan, error) {
	baseTable, ok := p.Cat.GetTable(s.TableName)
	if !ok {
		return nil, &dberrors.UnknownTableError{Table: s.TableName}
	}
	baseAlias := s.Alias
	if baseAlias == "" {
		baseAlias = s.TableName
	}

	plan := &Plan{StatementKind: "SELECT", Limit: s.Limit}

	if len(s.Joins) == 0 {
		access := executor.ChooseWhereAccess(p.Cat, baseAlias, baseTable, s.Where)
		ta := &TableAccess{Alias: baseAlias, Table: baseTable.Name, Method: "full scan"}
		if access.Indexed {
			ta.Method = "index scan"
			ta.IndexName = access.IndexName
			ta.ProbeKey = fmt.Sprintf("%s %s %s", access.Column, access.Op, access.Key.String())
		}
		plan.Source = ta
	} else {
		plan.Source = &TableAccess{Alias: baseAlias, Table: baseTable.Name, Method: "full scan"}
		for _, j := range s.Joins {
			rightTable, ok := p.Cat.GetTable(j.Table)
			if !ok {
				return nil, &dberrors.UnknownTableError{Table: j.Table}
			}
			alias := j.Alias
			if alias == "" {
				alias = j.Table
			}
			ja := JoinAccess{Kind: j.Kind, Table: rightTable.Name}
			if !isCross(j.Kind) {
				access := executor.ChooseJoinAccess(p.Cat, alias, rightTable, j.On)
				ja.IndexAware = access.IndexAware
				ja.IndexName = access.IndexName
			}
			plan.Joins = append(plan.Joins, ja)
		}
	}

	if len(s.GroupBy) > 0 || selectHasAggregate(s.Items) {
		plan.Grouped = true
		for _, item := range s.Items {
			collectAggregateStrings(item.Expr, &plan.Aggregates)
		}
	}

	for _, o := range s.OrderBy {
		dir := "ASC"
		if o.Descending {
			dir = "DESC"
		}
		plan.OrderBy = append(plan.OrderBy, fmt.Sprintf("%s %s", o.Expr.String(), dir))
	}

	return plan, nil
}

func isCross(kind string) bool {
	return kind == "CROSS"
}

func selectHasAggregate(items []ast.SelectItem) bool {
	for _, it := range items {
		var calls []*ast.AggregateCall
		collectAggregateCalls(it.Expr, &calls)
		if len(calls) > 0 {
			return true
		}
	}
	return false
}

func collectAggregateStrings(expr ast.Expression, out *[]string) {
	var calls []*ast.AggregateCall
	collectAggregateCalls(expr, &calls)
	for _, c := range calls {
		*out = append(*out, c.String())
	}
}

// collectAggregateCalls mirrors internal/executor's walk (unexported
// there), duplicated here rather than exported across the package
// boundary since it is a small, self-contained AST walk with no shared
// state.
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
