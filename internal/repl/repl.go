// Package repl implements the interactive SQL shell (C9), the sole
// carried outer-surface component: a read-eval-print loop over one open
// Engine, grounded on the teacher's internal/repl package and printed
// with the same text/tabwriter-based table layout.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/leengari/mini-rdbms/internal/engine"
	"github.com/leengari/mini-rdbms/internal/executor"
	"github.com/leengari/mini-rdbms/internal/planner"
)

// Start runs the shell against eng, reading statements from in and
// writing prompts/results to out, until EOF or an exit command.
func Start(eng *engine.Engine, in io.Reader, out io.Writer, logger *slog.Logger) {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, "mini-rdbms — type a SQL statement, or \\q to quit")

	for {
		fmt.Fprint(out, "sql> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "\\q" || line == "exit" || line == "quit" {
			return
		}

		if handled := handleMeta(eng, line, out); handled {
			continue
		}

		if strings.HasPrefix(strings.ToUpper(line), "EXPLAIN ") {
			plan, err := eng.Explain(line)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			printPlan(out, plan)
			continue
		}

		result, err := eng.Execute(line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			if logger != nil {
				logger.Warn("repl statement failed", "error", err)
			}
			continue
		}
		PrintResult(out, result)
	}
}

// handleMeta intercepts the two introspection shorthands (\dt, \di) that
// the shell accepts outside SQL, per spec.md §4.1's introspect(kind).
func handleMeta(eng *engine.Engine, line string, out io.Writer) bool {
	switch line {
	case "\\dt":
		res, err := eng.Introspect("tables")
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return true
		}
		PrintResult(out, res)
		return true
	case "\\di":
		res, err := eng.Introspect("indexes")
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return true
		}
		PrintResult(out, res)
		return true
	default:
		return false
	}
}

// PrintResult renders a statement's Result as a tab-aligned table (for
// SELECT/introspection output) or a one-line acknowledgement
// (for DDL/DML), matching the teacher's repl.PrintResult shape.
func PrintResult(w io.Writer, res *executor.Result) {
	if res.Message != "" {
		fmt.Fprintln(w, res.Message)
	}
	if res.Message == "" && len(res.Columns) == 0 {
		fmt.Fprintf(w, "OK (%d row(s) affected)\n", res.AffectedRows)
		return
	}
	if len(res.Columns) == 0 {
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(res.Columns, "\t"))

	seps := make([]string, len(res.Columns))
	for i := range seps {
		seps[i] = "---"
	}
	fmt.Fprintln(tw, strings.Join(seps, "\t"))

	for _, row := range res.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			if v.IsNull() {
				cells[i] = "NULL"
			} else {
				cells[i] = v.String()
			}
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()

	fmt.Fprintf(w, "(%d row(s))\n", len(res.Rows))
}

func printPlan(w io.Writer, plan *planner.Plan) {
	fmt.Fprintf(w, "statement: %s\n", plan.StatementKind)
	if plan.Source != nil {
		fmt.Fprintf(w, "source: %s AS %s (%s", plan.Source.Table, plan.Source.Alias, plan.Source.Method)
		if plan.Source.IndexName != "" {
			fmt.Fprintf(w, " %s on %s", plan.Source.IndexName, plan.Source.ProbeKey)
		}
		fmt.Fprintln(w, ")")
	}
	for _, j := range plan.Joins {
		fmt.Fprintf(w, "join: %s %s", j.Kind, j.Table)
		if j.IndexAware {
			fmt.Fprintf(w, " (index scan %s)", j.IndexName)
		} else {
			fmt.Fprint(w, " (full scan)")
		}
		fmt.Fprintln(w)
	}
	if plan.Grouped {
		fmt.Fprintf(w, "grouped: true, aggregates: %s\n", strings.Join(plan.Aggregates, ", "))
	}
	if len(plan.OrderBy) > 0 {
		fmt.Fprintf(w, "order by: %s\n", strings.Join(plan.OrderBy, ", "))
	}
	if plan.Limit != nil {
		fmt.Fprintf(w, "limit: %d\n", *plan.Limit)
	}
}
