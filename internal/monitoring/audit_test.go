package monitoring

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestAuditWritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	a, err := NewAudit(AuditConfig{Enabled: true, LogPath: path})
	require.NoError(t, err)

	a.Record(AuditEntry{Op: "upsert", Service: "jira", UserID: "alice", Outcome: "ok"})
	a.Record(AuditEntry{Timestamp: "2026-08-25T10:00:00Z", Op: "delete", Service: "jira", UserID: "alice", Outcome: "ok"})
	require.NoError(t, a.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	assert.Equal(t, "upsert", gjson.Get(lines[0], "op").String())
	assert.NotEmpty(t, gjson.Get(lines[0], "ts").String())
	assert.Equal(t, "2026-08-25T10:00:00Z", gjson.Get(lines[1], "ts").String())
	assert.Equal(t, "alice", gjson.Get(lines[1], "user_id").String())
}

func TestAuditDisabledWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	a, err := NewAudit(AuditConfig{Enabled: false, LogPath: path})
	require.NoError(t, err)

	a.Record(testEntry("get", "ok"))
	require.NoError(t, a.Close())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestAuditNilSafe(t *testing.T) {
	var a *Audit
	a.Record(testEntry("get", "ok"))
	assert.NoError(t, a.Close())
}

func TestRecorderFansOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	audit, err := NewAudit(AuditConfig{Enabled: true, LogPath: path})
	require.NoError(t, err)
	metrics := NewMetricsCollector()
	ops := NewOpLog()

	r := NewRecorder(audit, metrics, ops)
	r.CredentialOp("upsert", "jira", "alice", "ok")
	r.CredentialOp("get", "jira", "alice", "decrypt_failed")

	assert.Equal(t, int64(1), metrics.DecryptFailures())
	assert.Equal(t, 2, ops.Count())
	assert.Equal(t, "get", ops.Recent(1)[0].Op)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 2)
}

func TestRecorderNilSinks(t *testing.T) {
	r := NewRecorder(nil, nil, nil)
	r.CredentialOp("get", "jira", "alice", "ok")
}
