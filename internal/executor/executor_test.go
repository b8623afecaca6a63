package executor

import (
	"testing"

	"github.com/leengari/mini-rdbms/internal/ast"
	"github.com/leengari/mini-rdbms/internal/catalog"
	"github.com/leengari/mini-rdbms/internal/parser"
	"github.com/leengari/mini-rdbms/internal/storage"
	"github.com/leengari/mini-rdbms/internal/types"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.New(dir, nil)
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	cat := catalog.New(dir, nil)
	return New(cat, store)
}

func mustExec(t *testing.T, ex *Executor, sql string) *Result {
	t.Helper()
	stmt, err := parser.Parse(sql)
	if err != nil {
		t.Fatalf("parse %q: %v", sql, err)
	}
	res, err := ex.Execute(stmt)
	if err != nil {
		t.Fatalf("execute %q: %v", sql, err)
	}
	return res
}

func mustFail(t *testing.T, ex *Executor, sql string) error {
	t.Helper()
	stmt, err := parser.Parse(sql)
	if err != nil {
		return err
	}
	_, err = ex.Execute(stmt)
	if err == nil {
		t.Fatalf("expected %q to fail", sql)
	}
	return err
}

func seedEmployees(t *testing.T, ex *Executor) {
	t.Helper()
	mustExec(t, ex, `CREATE TABLE departments (id INTEGER PRIMARY KEY, name VARCHAR(32) UNIQUE)`)
	mustExec(t, ex, `CREATE TABLE employees (
		id INTEGER PRIMARY KEY,
		name VARCHAR(32) NOT NULL,
		dept_id INTEGER REFERENCES departments(id),
		salary FLOAT
	)`)
	mustExec(t, ex, `CREATE INDEX idx_emp_dept ON employees (dept_id)`)
	mustExec(t, ex, `INSERT INTO departments (id, name) VALUES (1, 'eng'), (2, 'sales'), (3, 'hr')`)
	mustExec(t, ex, `INSERT INTO employees (id, name, dept_id, salary) VALUES
		(1, 'alice', 1, 100.0),
		(2, 'bob', 1, 200.0),
		(3, 'carol', 2, 150.0),
		(4, 'dave', NULL, 90.0)`)
}

func TestInsertSelectRoundTrip(t *testing.T) {
	ex := newTestExecutor(t)
	seedEmployees(t, ex)

	res := mustExec(t, ex, `SELECT name FROM employees WHERE dept_id = 1 ORDER BY name ASC`)
	if len(res.Rows) != 2 || res.Rows[0][0].String() != "alice" || res.Rows[1][0].String() != "bob" {
		t.Fatalf("unexpected rows: %+v", res.Rows)
	}
}

func TestInsertBatchAtomicity(t *testing.T) {
	ex := newTestExecutor(t)
	seedEmployees(t, ex)

	// Second row duplicates an existing primary key; neither row of this
	// statement must commit.
	mustFail(t, ex, `INSERT INTO employees (id, name, dept_id, salary) VALUES (10, 'eve', 1, 50.0), (1, 'frank', 1, 60.0)`)
	res := mustExec(t, ex, `SELECT id FROM employees WHERE id = 10`)
	if len(res.Rows) != 0 {
		t.Fatalf("batch partially committed: %+v", res.Rows)
	}
}

func TestUpdateNullViolation(t *testing.T) {
	ex := newTestExecutor(t)
	seedEmployees(t, ex)

	mustFail(t, ex, `UPDATE employees SET name = NULL WHERE id = 1`)
	res := mustExec(t, ex, `SELECT name FROM employees WHERE id = 1`)
	if res.Rows[0][0].String() != "alice" {
		t.Fatalf("row mutated despite failed update: %+v", res.Rows)
	}
}

func TestDeleteRefusedByForeignKey(t *testing.T) {
	ex := newTestExecutor(t)
	seedEmployees(t, ex)

	mustFail(t, ex, `DELETE FROM departments WHERE id = 1`)
	res := mustExec(t, ex, `DELETE FROM departments WHERE id = 3`)
	if res.AffectedRows != 1 {
		t.Fatalf("expected the unreferenced hr department to delete cleanly: %+v", res)
	}
}

func TestJoinProjectsMatchedRows(t *testing.T) {
	ex := newTestExecutor(t)
	seedEmployees(t, ex)

	res := mustExec(t, ex, `SELECT e.name, d.name FROM employees e JOIN departments d ON e.dept_id = d.id ORDER BY e.name ASC`)
	if len(res.Rows) != 3 {
		t.Fatalf("expected 3 matched rows (dave has no dept), got %d: %+v", len(res.Rows), res.Rows)
	}
	if res.Rows[0][0].String() != "alice" || res.Rows[0][1].String() != "eng" {
		t.Fatalf("unexpected first row: %+v", res.Rows[0])
	}
}

func TestLeftJoinPadsUnmatchedWithNull(t *testing.T) {
	ex := newTestExecutor(t)
	seedEmployees(t, ex)

	res := mustExec(t, ex, `SELECT e.name, d.name FROM employees e LEFT JOIN departments d ON e.dept_id = d.id ORDER BY e.name ASC`)
	if len(res.Rows) != 4 {
		t.Fatalf("expected 4 rows (dave padded with NULL), got %d", len(res.Rows))
	}
	var daveRow []types.Value
	for _, r := range res.Rows {
		if r[0].String() == "dave" {
			daveRow = r
		}
	}
	if daveRow == nil || !daveRow[1].IsNull() {
		t.Fatalf("expected dave's department to be NULL, got %+v", daveRow)
	}
}

func TestGroupByWithHavingFiltersGroups(t *testing.T) {
	ex := newTestExecutor(t)
	seedEmployees(t, ex)

	res := mustExec(t, ex, `SELECT dept_id, COUNT(*) FROM employees GROUP BY dept_id HAVING COUNT(*) > 1`)
	if len(res.Rows) != 1 {
		t.Fatalf("expected exactly one group with more than 1 member, got %+v", res.Rows)
	}
	if v, ok := res.Rows[0][0].AsFloat64(); !ok || v != 1 {
		t.Fatalf("expected dept_id 1 to be the surviving group, got %+v", res.Rows[0])
	}
}

func TestAggregateMisuseRejectsUngroupedColumn(t *testing.T) {
	ex := newTestExecutor(t)
	seedEmployees(t, ex)

	mustFail(t, ex, `SELECT name, COUNT(*) FROM employees GROUP BY dept_id`)
}

func TestLimitTruncatesAfterOrderBy(t *testing.T) {
	ex := newTestExecutor(t)
	seedEmployees(t, ex)

	res := mustExec(t, ex, `SELECT name FROM employees ORDER BY salary DESC LIMIT 1`)
	if len(res.Rows) != 1 || res.Rows[0][0].String() != "bob" {
		t.Fatalf("expected bob (highest salary), got %+v", res.Rows)
	}
}

func TestIndexScanUsedForEqualityWhere(t *testing.T) {
	ex := newTestExecutor(t)
	seedEmployees(t, ex)

	t0, ok := ex.Cat.GetTable("employees")
	if !ok {
		t.Fatal("employees table missing")
	}
	where := &ast.BinaryExpression{
		Left:     &ast.Identifier{Value: "dept_id"},
		Operator: "=",
		Right:    &ast.Literal{Kind: ast.LitInt, Int: 1},
	}
	access := ChooseWhereAccess(ex.Cat, "employees", t0, where)
	if !access.Indexed {
		t.Fatalf("expected the dept_id index to be chosen, got %+v", access)
	}
}
