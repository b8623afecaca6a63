package executor

import "github.com/leengari/mini-rdbms/internal/types"

// Result is the uniform shape every statement kind produces, per
// spec.md §6: a ResultSet (Columns/Rows) for SELECT, an
// AffectedRows count for INSERT/UPDATE/DELETE, or an Ack message for DDL.
type Result struct {
	Columns      []string
	Rows         [][]types.Value
	AffectedRows int
	Message      string
}
