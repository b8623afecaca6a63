package storage

import (
	"testing"

	"github.com/leengari/mini-rdbms/internal/catalog"
	"github.com/leengari/mini-rdbms/internal/types"
)

func TestSaveAndLoadAllRoundTrip(t *testing.T) {
	dir := t.TempDir()

	store, err := New(dir, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cat := catalog.New(dir, nil)

	t1, err := cat.CreateTable("departments", []catalog.Column{
		{Name: "id", Type: types.Int(), PrimaryKey: true},
		{Name: "name", Type: types.Varchar(32), Unique: true},
	})
	if err != nil {
		t.Fatalf("create departments: %v", err)
	}
	t1.Rows = append(t1.Rows, catalog.Row{ID: 1, Values: []types.Value{types.Integer(1), types.Text("eng")}})
	t1.NextRowID = 2
	if err := store.SaveTable(t1); err != nil {
		t.Fatalf("save departments: %v", err)
	}

	t2, err := cat.CreateTable("employees", []catalog.Column{
		{Name: "id", Type: types.Int(), PrimaryKey: true},
		{Name: "dept_id", Type: types.Int(), ForeignKey: &catalog.ForeignKey{Table: "departments", Column: "id"}},
	})
	if err != nil {
		t.Fatalf("create employees: %v", err)
	}
	t2.Rows = append(t2.Rows,
		catalog.Row{ID: 1, Values: []types.Value{types.Integer(1), types.Integer(1)}},
		catalog.Row{ID: 2, Values: []types.Value{types.Integer(2), types.Null}},
	)
	t2.NextRowID = 3
	if err := store.SaveTable(t2); err != nil {
		t.Fatalf("save employees: %v", err)
	}

	if _, err := cat.CreateIndex("idx_emp_dept", "employees", "dept_id", false); err != nil {
		t.Fatalf("create index: %v", err)
	}
	if err := store.SaveIndexRegistry(cat); err != nil {
		t.Fatalf("save index registry: %v", err)
	}

	loaded, _, err := LoadAll(dir, nil)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	deps, ok := loaded.GetTable("departments")
	if !ok {
		t.Fatal("departments table missing after reload")
	}
	if len(deps.Rows) != 1 || deps.Rows[0].Values[1].String() != "eng" {
		t.Fatalf("unexpected departments rows after reload: %+v", deps.Rows)
	}
	if deps.NextRowID != 2 {
		t.Fatalf("expected NextRowID 2 to survive reload, got %d", deps.NextRowID)
	}

	emps, ok := loaded.GetTable("employees")
	if !ok {
		t.Fatal("employees table missing after reload")
	}
	if len(emps.Rows) != 2 || !emps.Rows[1].Values[1].IsNull() {
		t.Fatalf("unexpected employees rows after reload: %+v", emps.Rows)
	}

	// The implicit PRIMARY KEY index on departments.id and the explicit
	// idx_emp_dept must both survive the round trip.
	if _, ok := loaded.IndexForColumn("departments", "id"); !ok {
		t.Fatal("expected the implicit primary key index to be rebuilt on load")
	}
	ix, ok := loaded.IndexByName("idx_emp_dept")
	if !ok {
		t.Fatal("expected idx_emp_dept to be restored from the index registry")
	}
	if ids := ix.PointLookup(types.Integer(1)); len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("unexpected idx_emp_dept contents after reload: %+v", ids)
	}
}

func TestDropTableRemovesDirectory(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cat := catalog.New(dir, nil)
	tbl, err := cat.CreateTable("t", []catalog.Column{{Name: "id", Type: types.Int(), PrimaryKey: true}})
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	if err := store.SaveTable(tbl); err != nil {
		t.Fatalf("save table: %v", err)
	}
	if err := store.DropTable("t"); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	reloaded, _, err := LoadAll(dir, nil)
	if err != nil {
		t.Fatalf("LoadAll after drop: %v", err)
	}
	if _, ok := reloaded.GetTable("t"); ok {
		t.Fatal("expected table directory removal to survive a reload")
	}
}
