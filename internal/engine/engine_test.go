package engine

import (
	"testing"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return eng
}

func TestEngineExecuteCreateAndSelect(t *testing.T) {
	eng := newTestEngine(t)

	if _, err := eng.Execute(`CREATE TABLE t (id INTEGER PRIMARY KEY, name VARCHAR(16))`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := eng.Execute(`INSERT INTO t (id, name) VALUES (1, 'a'), (2, 'b')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	res, err := eng.Execute(`SELECT name FROM t ORDER BY id ASC`)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(res.Rows) != 2 || res.Rows[0][0].String() != "a" {
		t.Fatalf("unexpected rows: %+v", res.Rows)
	}
}

func TestEngineExplainDoesNotMutate(t *testing.T) {
	eng := newTestEngine(t)
	if _, err := eng.Execute(`CREATE TABLE t (id INTEGER PRIMARY KEY)`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	plan, err := eng.Explain(`EXPLAIN INSERT INTO t (id) VALUES (1)`)
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if plan.StatementKind != "INSERT" {
		t.Fatalf("unexpected plan: %+v", plan)
	}

	res, err := eng.Execute(`SELECT id FROM t`)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(res.Rows) != 0 {
		t.Fatalf("EXPLAIN must not mutate table state, found %d rows", len(res.Rows))
	}
}

func TestEngineIntrospectTables(t *testing.T) {
	eng := newTestEngine(t)
	if _, err := eng.Execute(`CREATE TABLE t (id INTEGER PRIMARY KEY, name VARCHAR(16))`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := eng.Execute(`INSERT INTO t (id, name) VALUES (1, 'a')`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	res, err := eng.Introspect("tables")
	if err != nil {
		t.Fatalf("introspect: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("expected one table descriptor, got %+v", res.Rows)
	}
	if res.Rows[0][0].String() != "t" {
		t.Fatalf("unexpected table name: %+v", res.Rows[0])
	}
}

func TestEngineIntrospectUnknownKind(t *testing.T) {
	eng := newTestEngine(t)
	if _, err := eng.Introspect("bogus"); err == nil {
		t.Fatal("expected an error for an unknown introspection kind")
	}
}

func TestEngineObserverReceivesLifecycleEvents(t *testing.T) {
	eng := newTestEngine(t)
	var seen []EventType
	eng.AddObserver(observerFunc(func(e Event) { seen = append(seen, e.Type) }))

	if _, err := eng.Execute(`CREATE TABLE t (id INTEGER PRIMARY KEY)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if len(seen) == 0 {
		t.Fatal("expected at least one lifecycle event")
	}
	if seen[0] != EventLexStart {
		t.Fatalf("expected the first event to be lex_start, got %s", seen[0])
	}
}

type observerFunc func(Event)

func (f observerFunc) OnEvent(e Event) { f(e) }
