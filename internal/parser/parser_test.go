package parser

import (
	"testing"

	"github.com/leengari/mini-rdbms/internal/ast"
)

func TestParseSelectWithWhereAndOrder(t *testing.T) {
	stmt, err := Parse("SELECT id, name FROM users WHERE age >= 18 AND dept = 'eng' ORDER BY name DESC LIMIT 10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sel, ok := stmt.(*ast.SelectStatement)
	if !ok {
		t.Fatalf("expected *ast.SelectStatement, got %T", stmt)
	}
	if len(sel.Items) != 2 {
		t.Fatalf("expected 2 select items, got %d", len(sel.Items))
	}
	if sel.TableName != "users" {
		t.Fatalf("expected table users, got %s", sel.TableName)
	}
	if sel.Where == nil {
		t.Fatal("expected a WHERE clause")
	}
	if len(sel.OrderBy) != 1 || !sel.OrderBy[0].Descending {
		t.Fatalf("expected one descending ORDER BY item, got %+v", sel.OrderBy)
	}
	if sel.Limit == nil || *sel.Limit != 10 {
		t.Fatalf("expected LIMIT 10, got %+v", sel.Limit)
	}
}

func TestParseJoinWithIndexableOn(t *testing.T) {
	stmt, err := Parse("SELECT a.id FROM orders a JOIN customers b ON a.customer_id = b.id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sel := stmt.(*ast.SelectStatement)
	if len(sel.Joins) != 1 {
		t.Fatalf("expected 1 join, got %d", len(sel.Joins))
	}
	if sel.Joins[0].Kind != "INNER" || sel.Joins[0].Table != "customers" {
		t.Fatalf("unexpected join: %+v", sel.Joins[0])
	}
}

func TestParseGroupByHavingAggregate(t *testing.T) {
	stmt, err := Parse("SELECT dept, COUNT(*) FROM employees GROUP BY dept HAVING COUNT(*) > 2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sel := stmt.(*ast.SelectStatement)
	if len(sel.GroupBy) != 1 {
		t.Fatalf("expected 1 GROUP BY term, got %d", len(sel.GroupBy))
	}
	if sel.Having == nil {
		t.Fatal("expected a HAVING clause")
	}
}

func TestParseCreateTableWithConstraints(t *testing.T) {
	stmt, err := Parse(`CREATE TABLE employees (
		id INTEGER PRIMARY KEY,
		name VARCHAR(64) NOT NULL,
		dept_id INTEGER REFERENCES departments(id)
	)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ct := stmt.(*ast.CreateTableStatement)
	if len(ct.Columns) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(ct.Columns))
	}
	if !ct.Columns[0].PrimaryKey {
		t.Fatal("expected id to be PRIMARY KEY")
	}
	if ct.Columns[2].ReferencesTbl != "departments" || ct.Columns[2].ReferencesCol != "id" {
		t.Fatalf("unexpected foreign key: %+v", ct.Columns[2])
	}
}

func TestParseInsertMultiRow(t *testing.T) {
	stmt, err := Parse(`INSERT INTO t (a, b) VALUES (1, 'x'), (2, 'y')`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ins := stmt.(*ast.InsertStatement)
	if len(ins.Rows) != 2 {
		t.Fatalf("expected 2 value rows, got %d", len(ins.Rows))
	}
}

func TestParseNullComparisonAndIsNull(t *testing.T) {
	stmt, err := Parse(`SELECT * FROM t WHERE dept = NULL OR dept IS NULL`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sel := stmt.(*ast.SelectStatement)
	if sel.Where == nil {
		t.Fatal("expected a WHERE clause")
	}
}

func TestParseSyntaxError(t *testing.T) {
	if _, err := Parse("SELEKT * FROM t"); err == nil {
		t.Fatal("expected a syntax error")
	}
}

func TestParseRejectsTrailingStatement(t *testing.T) {
	if _, err := Parse("SELECT * FROM t; DROP TABLE t"); err == nil {
		t.Fatal("expected a second statement after the first to be a syntax error")
	}
}

func TestParseSingleStatementWithTrailingSemicolonOK(t *testing.T) {
	if _, err := Parse("SELECT * FROM t;"); err != nil {
		t.Fatalf("unexpected error for one statement with a trailing semicolon: %v", err)
	}
}

func TestParseForeignKeyOnDeleteRestrict(t *testing.T) {
	stmt, err := Parse(`CREATE TABLE employees (
		id INTEGER PRIMARY KEY,
		dept_id INTEGER REFERENCES departments(id) ON DELETE RESTRICT
	)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ct := stmt.(*ast.CreateTableStatement)
	if !ct.Columns[1].OnDeleteRestrict {
		t.Fatal("expected OnDeleteRestrict to be set")
	}
}

func TestParseForeignKeyOnDeleteCascadeRejected(t *testing.T) {
	_, err := Parse(`CREATE TABLE employees (
		id INTEGER PRIMARY KEY,
		dept_id INTEGER REFERENCES departments(id) ON DELETE CASCADE
	)`)
	if err == nil {
		t.Fatal("expected ON DELETE CASCADE to be rejected")
	}
}
