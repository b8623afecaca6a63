package planner

import (
	"testing"

	"github.com/leengari/mini-rdbms/internal/catalog"
	"github.com/leengari/mini-rdbms/internal/parser"
	"github.com/leengari/mini-rdbms/internal/types"
)

func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat := catalog.New(t.TempDir(), nil)
	if _, err := cat.CreateTable("departments", []catalog.Column{
		{Name: "id", Type: types.Int(), PrimaryKey: true},
		{Name: "name", Type: types.Varchar(32)},
	}); err != nil {
		t.Fatalf("create departments: %v", err)
	}
	if _, err := cat.CreateTable("employees", []catalog.Column{
		{Name: "id", Type: types.Int(), PrimaryKey: true},
		{Name: "dept_id", Type: types.Int(), ForeignKey: &catalog.ForeignKey{Table: "departments", Column: "id"}},
		{Name: "salary", Type: types.FloatType()},
	}); err != nil {
		t.Fatalf("create employees: %v", err)
	}
	if _, err := cat.CreateIndex("idx_emp_dept", "employees", "dept_id", false); err != nil {
		t.Fatalf("create index: %v", err)
	}
	return cat
}

func explain(t *testing.T, cat *catalog.Catalog, sql string) *Plan {
	t.Helper()
	stmt, err := parser.Parse(sql)
	if err != nil {
		t.Fatalf("parse %q: %v", sql, err)
	}
	plan, err := New(cat).Explain(stmt)
	if err != nil {
		t.Fatalf("explain %q: %v", sql, err)
	}
	return plan
}

func TestExplainChoosesIndexScanForEquality(t *testing.T) {
	cat := newTestCatalog(t)
	plan := explain(t, cat, `EXPLAIN SELECT * FROM employees WHERE dept_id = 1`)
	if plan.Source == nil || plan.Source.Method != "index scan" {
		t.Fatalf("expected an index scan, got %+v", plan.Source)
	}
	if plan.Source.IndexName != "idx_emp_dept" {
		t.Fatalf("expected idx_emp_dept, got %s", plan.Source.IndexName)
	}
}

func TestExplainFullScanWithoutIndexableWhere(t *testing.T) {
	cat := newTestCatalog(t)
	plan := explain(t, cat, `EXPLAIN SELECT * FROM employees WHERE salary > 100`)
	if plan.Source == nil || plan.Source.Method != "full scan" {
		t.Fatalf("expected a full scan (salary has no index), got %+v", plan.Source)
	}
}

func TestExplainJoinIsIndexAware(t *testing.T) {
	cat := newTestCatalog(t)
	plan := explain(t, cat, `EXPLAIN SELECT e.id FROM employees e JOIN departments d ON e.dept_id = d.id`)
	if len(plan.Joins) != 1 || !plan.Joins[0].IndexAware {
		t.Fatalf("expected one index-aware join, got %+v", plan.Joins)
	}
}

func TestExplainReportsGroupingAndAggregates(t *testing.T) {
	cat := newTestCatalog(t)
	plan := explain(t, cat, `EXPLAIN SELECT dept_id, COUNT(*) FROM employees GROUP BY dept_id`)
	if !plan.Grouped {
		t.Fatal("expected Grouped to be true")
	}
	if len(plan.Aggregates) != 1 {
		t.Fatalf("expected one aggregate, got %+v", plan.Aggregates)
	}
}

func TestExplainNonSelectReportsBareKind(t *testing.T) {
	cat := newTestCatalog(t)
	plan := explain(t, cat, `EXPLAIN DELETE FROM employees WHERE id = 1`)
	if plan.StatementKind != "DELETE" || plan.Source != nil {
		t.Fatalf("expected a bare DELETE plan, got %+v", plan)
	}
}

func TestExplainUnknownTable(t *testing.T) {
	cat := newTestCatalog(t)
	stmt, err := parser.Parse(`EXPLAIN SELECT * FROM ghosts`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := New(cat).Explain(stmt); err == nil {
		t.Fatal("expected an UnknownTable error")
	}
}
