// Package txn provides per-statement correlation identity, grounded on
// the teacher's internal/domain/transaction package. spec.md §5 is
// explicit that there is no multi-statement transaction support, so
// unlike the teacher's Transaction (which accumulates a Changes log
// across an open/close lifespan), this Context is a single-statement
// correlation token: a UUID plus a monotonic sequence number, used only
// for log correlation.
package txn

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var seq uint64

// Context identifies one statement's execution for log correlation.
type Context struct {
	ID        string
	Seq       uint64
	StartTime time.Time
}

// New starts a fresh correlation context for one Execute, Explain or
// Introspect call.
func New() *Context {
	return &Context{
		ID:        uuid.New().String(),
		Seq:       atomic.AddUint64(&seq, 1),
		StartTime: time.Now(),
	}
}
