// Package engine implements C0: the public facade wrapping the parser,
// planner, and executor behind Execute/Explain/Introspect (spec.md §4.1),
// one Engine per open catalog directory. It owns the single coarse lock
// spec.md §5 calls for ("a single coarse lock around execute/explain
// suffices") and fires the lifecycle Observer/Event notifications the
// teacher's internal/engine package established.
package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/leengari/mini-rdbms/internal/catalog"
	"github.com/leengari/mini-rdbms/internal/executor"
	"github.com/leengari/mini-rdbms/internal/parser"
	"github.com/leengari/mini-rdbms/internal/planner"
	"github.com/leengari/mini-rdbms/internal/storage"
	"github.com/leengari/mini-rdbms/internal/txn"
)

// Engine binds one catalog directory's catalog, store, executor, and
// planner behind a single lock.
type Engine struct {
	mu   sync.Mutex
	cat  *catalog.Catalog
	exec *executor.Executor
	plan *planner.Planner

	logger    *slog.Logger
	observers []Observer
}

// Open loads (or creates) the catalog rooted at dir and returns a ready
// Engine.
func Open(dir string, logger *slog.Logger) (*Engine, error) {
	cat, store, err := storage.LoadAll(dir, logger)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cat:    cat,
		exec:   executor.New(cat, store),
		plan:   planner.New(cat),
		logger: logger,
	}, nil
}

// AddObserver registers an Observer for lifecycle events. Not
// synchronized against a concurrent Execute/Explain call; register
// observers before use.
func (e *Engine) AddObserver(o Observer) {
	e.observers = append(e.observers, o)
}

func (e *Engine) emit(evt Event) {
	for _, o := range e.observers {
		o.OnEvent(evt)
	}
}

// Execute parses and runs one statement to completion.
func (e *Engine) Execute(sql string) (*executor.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx := txn.New()

	e.emit(Event{Type: EventLexStart, TxID: tx.ID, Timestamp: time.Now()})
	e.emit(Event{Type: EventLexEnd, TxID: tx.ID, Timestamp: time.Now()})

	e.emit(Event{Type: EventParseStart, TxID: tx.ID, Timestamp: time.Now()})
	stmt, err := parser.Parse(sql)
	e.emit(Event{Type: EventParseEnd, TxID: tx.ID, Timestamp: time.Now(), Data: err})
	if err != nil {
		return nil, err
	}

	e.emit(Event{Type: EventExecStart, TxID: tx.ID, Timestamp: time.Now()})
	result, err := e.exec.Execute(stmt)
	e.emit(Event{Type: EventExecEnd, TxID: tx.ID, Timestamp: time.Now(), Data: err})
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("execute failed", "tx_id", tx.ID, "error", err)
		}
		return nil, err
	}
	return result, nil
}

// Explain parses stmt and returns its plan without touching a row.
func (e *Engine) Explain(sql string) (*planner.Plan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx := txn.New()
	e.emit(Event{Type: EventLexStart, TxID: tx.ID, Timestamp: time.Now()})
	e.emit(Event{Type: EventLexEnd, TxID: tx.ID, Timestamp: time.Now()})

	e.emit(Event{Type: EventParseStart, TxID: tx.ID, Timestamp: time.Now()})
	stmt, err := parser.Parse(sql)
	e.emit(Event{Type: EventParseEnd, TxID: tx.ID, Timestamp: time.Now(), Data: err})
	if err != nil {
		return nil, err
	}

	e.emit(Event{Type: EventPlanStart, TxID: tx.ID, Timestamp: time.Now()})
	plan, err := e.plan.Explain(stmt)
	e.emit(Event{Type: EventPlanEnd, TxID: tx.ID, Timestamp: time.Now(), Data: err})
	return plan, err
}

// Introspect returns a synthetic ResultSet describing every table or
// every index in the catalog, per spec.md §4.1.
func (e *Engine) Introspect(kind string) (*executor.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx := txn.New()
	e.emit(Event{Type: EventPlanStart, TxID: tx.ID, Timestamp: time.Now()})
	var (
		res *executor.Result
		err error
	)
	switch kind {
	case "tables":
		res = e.introspectTables()
	case "indexes":
		res = e.introspectIndexes()
	default:
		err = fmt.Errorf("engine: unknown introspection kind %q (want tables or indexes)", kind)
	}
	e.emit(Event{Type: EventPlanEnd, TxID: tx.ID, Timestamp: time.Now(), Data: err})
	return res, err
}
