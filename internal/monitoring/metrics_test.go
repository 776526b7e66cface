package monitoring

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsZeroState(t *testing.T) {
	mc := NewMetricsCollector()
	stats := mc.Stats()

	assert.Equal(t, int64(0), stats["requests"])
	assert.Equal(t, int64(0), stats["successes"])
	assert.Equal(t, int64(0), stats["resolutions"])
	assert.Equal(t, int64(0), stats["upserts"])
	assert.Equal(t, int64(0), stats["gets"])
	assert.Equal(t, int64(0), stats["deletes"])
	assert.Equal(t, int64(0), stats["decrypt_failures"])
}

func TestMetricsRecordRequest(t *testing.T) {
	mc := NewMetricsCollector()

	mc.RecordRequest(true, time.Millisecond)
	mc.RecordRequest(true, time.Millisecond)
	mc.RecordRequest(false, time.Millisecond)

	stats := mc.Stats()
	assert.Equal(t, int64(3), stats["requests"])
	assert.Equal(t, int64(2), stats["successes"])

	full := mc.FullStats()
	assert.Equal(t, int64(3), full.Requests.Total)
	assert.Equal(t, int64(2), full.Requests.Successful)
	assert.Equal(t, int64(1), full.Requests.Failed)
}

func TestMetricsRecordResolution(t *testing.T) {
	mc := NewMetricsCollector()

	mc.RecordResolution("body")
	mc.RecordResolution("header")
	mc.RecordResolution("header")
	mc.RecordResolution("none")

	full := mc.FullStats()
	assert.Equal(t, int64(4), full.Identity.Resolutions)
	assert.Equal(t, int64(1), full.Identity.Anonymous)
	assert.Equal(t, int64(1), full.Identity.BySource["body"])
	assert.Equal(t, int64(2), full.Identity.BySource["header"])
	assert.Equal(t, int64(1), full.Identity.BySource["none"])
}

func TestMetricsRecordVaultOp(t *testing.T) {
	mc := NewMetricsCollector()

	mc.RecordVaultOp("upsert", "ok")
	mc.RecordVaultOp("get", "ok")
	mc.RecordVaultOp("get", "not_found")
	mc.RecordVaultOp("get", "decrypt_failed")
	mc.RecordVaultOp("upsert", "schema_rejected")
	mc.RecordVaultOp("delete", "ok")

	full := mc.FullStats()
	assert.Equal(t, int64(2), full.Vault.Upserts)
	assert.Equal(t, int64(3), full.Vault.Gets)
	assert.Equal(t, int64(1), full.Vault.Deletes)
	assert.Equal(t, int64(1), full.Vault.NotFound)
	assert.Equal(t, int64(1), full.Vault.DecryptFailures)
	assert.Equal(t, int64(1), full.Vault.SchemaRejections)
	assert.Equal(t, int64(1), mc.DecryptFailures())
}

func TestMetricsUptime(t *testing.T) {
	mc := NewMetricsCollector()

	full := mc.FullStats()
	require.NotEmpty(t, full.Uptime)
	require.NotEmpty(t, full.StartedAt)
	assert.GreaterOrEqual(t, full.UptimeSeconds, int64(0))
}

func TestMetricsStartedAt(t *testing.T) {
	before := time.Now()
	mc := NewMetricsCollector()
	after := time.Now()

	started := mc.StartedAt()
	assert.False(t, started.Before(before))
	assert.False(t, started.After(after))
}

func TestMetricsConcurrentAccess(t *testing.T) {
	mc := NewMetricsCollector()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mc.RecordRequest(true, time.Millisecond)
			mc.RecordResolution("header")
			mc.RecordVaultOp("get", "ok")
			_ = mc.Stats()
			_ = mc.FullStats()
		}()
	}
	wg.Wait()

	stats := mc.Stats()
	assert.Equal(t, int64(100), stats["requests"])
	assert.Equal(t, int64(100), stats["resolutions"])
	assert.Equal(t, int64(100), stats["gets"])

	full := mc.FullStats()
	assert.Equal(t, int64(100), full.Identity.BySource["header"])
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{name: "zero", d: 0, want: "0s"},
		{name: "seconds only", d: 42 * time.Second, want: "42s"},
		{name: "sub-second rounds", d: 900 * time.Millisecond, want: "1s"},
		{name: "minutes and seconds", d: 3*time.Minute + 5*time.Second, want: "3m5s"},
		{name: "hours", d: 2*time.Hour + 15*time.Minute + time.Second, want: "2h15m1s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatDuration(tt.d))
		})
	}
}
