package monitoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntry(op, outcome string) AuditEntry {
	return AuditEntry{Op: op, Service: "jira", UserID: "alice", Outcome: outcome}
}

func TestOpLogNewestFirst(t *testing.T) {
	l := NewOpLog()
	l.Record(testEntry("upsert", "ok"))
	l.Record(testEntry("get", "ok"))
	l.Record(testEntry("delete", "ok"))

	recent := l.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "delete", recent[0].Op)
	assert.Equal(t, "get", recent[1].Op)

	assert.Equal(t, 3, l.Count())
}

func TestOpLogRecentBounds(t *testing.T) {
	l := NewOpLog()
	assert.Nil(t, l.Recent(5))

	l.Record(testEntry("get", "ok"))
	assert.Len(t, l.Recent(10), 1)
	assert.Nil(t, l.Recent(0))
	assert.Nil(t, l.Recent(-1))
}

func TestOpLogRingOverflow(t *testing.T) {
	l := NewOpLog()
	for i := 0; i < maxOpLogEntries+10; i++ {
		l.Record(AuditEntry{Op: "get", UserID: fmt.Sprintf("user-%d", i), Outcome: "ok"})
	}

	assert.Equal(t, maxOpLogEntries, l.Count())

	newest := l.Recent(1)
	require.Len(t, newest, 1)
	assert.Equal(t, fmt.Sprintf("user-%d", maxOpLogEntries+9), newest[0].UserID)

	// The ten oldest entries were dropped.
	all := l.Recent(maxOpLogEntries)
	assert.Equal(t, "user-10", all[len(all)-1].UserID)
}

func TestOpLogSummary(t *testing.T) {
	l := NewOpLog()
	l.Record(testEntry("upsert", "ok"))
	l.Record(testEntry("get", "not_found"))
	l.Record(testEntry("get", "decrypt_failed"))
	l.Record(testEntry("upsert", "schema_rejected"))

	s := l.Summary()
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.OK)
	assert.Equal(t, 2, s.Failures)
}
