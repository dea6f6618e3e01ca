package engine

import (
	"fmt"
	"time"
)

// MaxDebugEntries caps a request's debug log; older entries are dropped.
const MaxDebugEntries = 50

// DebugLog accumulates timestamped notes for one request. It is not safe
// for concurrent use; each request owns its own log.
type DebugLog struct {
	entries []string
	now     func() time.Time
}

func newDebugLog(now func() time.Time) *DebugLog {
	return &DebugLog{now: now}
}

// Addf appends a formatted entry.
func (d *DebugLog) Addf(format string, args ...any) {
	entry := fmt.Sprintf("[%s] %s", d.now().Format("15:04:05"), fmt.Sprintf(format, args...))
	d.entries = append(d.entries, entry)
	if len(d.entries) > MaxDebugEntries {
		d.entries = append([]string(nil), d.entries[len(d.entries)-MaxDebugEntries:]...)
	}
}

// Entries returns the log contents, oldest first.
func (d *DebugLog) Entries() []string {
	return append([]string(nil), d.entries...)
}
