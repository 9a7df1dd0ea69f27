package sink

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sentinel/core"
)

var testTime = time.Date(2025, 8, 13, 12, 0, 0, 0, time.UTC)

func alertOf(id string, kind core.AlertKind, severity core.Severity) *core.Alert {
	return &core.Alert{
		AlertID:   id,
		Timestamp: testTime,
		Kind:      kind,
		Severity:  severity,
		StationID: "SCC1",
	}
}

func TestSink_AppendAndRecent(t *testing.T) {
	s := NewSink("", 50, zap.NewNop().Sugar())
	s.Append(alertOf("SENTINEL-0001", core.KindScanAvoidance, core.SeverityMedium))
	s.Append(alertOf("SENTINEL-0002", core.KindLongQueue, core.SeverityHigh))
	s.Append(alertOf("SENTINEL-0003", core.KindScanAvoidance, core.SeverityHigh))

	assert.Equal(t, 3, s.Len())

	recent := s.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "SENTINEL-0002", recent[0].AlertID)
	assert.Equal(t, "SENTINEL-0003", recent[1].AlertID)

	// Zero or oversized limits return everything.
	assert.Len(t, s.Recent(0), 3)
	assert.Len(t, s.Recent(100), 3)
}

func TestSink_ExportAggregates(t *testing.T) {
	s := NewSink("", 50, zap.NewNop().Sugar())
	s.Append(alertOf("SENTINEL-0001", core.KindScanAvoidance, core.SeverityMedium))
	s.Append(alertOf("SENTINEL-0002", core.KindScanAvoidance, core.SeverityHigh))
	s.Append(alertOf("SENTINEL-0003", core.KindLongQueue, core.SeverityHigh))

	summary := s.Export("")
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.ByKind[string(core.KindScanAvoidance)])
	assert.Equal(t, 1, summary.ByKind[string(core.KindLongQueue)])
	assert.Equal(t, 2, summary.BySeverity[string(core.SeverityHigh)])
	assert.Len(t, summary.Recent, 3)
	assert.False(t, summary.GeneratedAt.IsZero())
}

func TestSink_ExportFiltersByKind(t *testing.T) {
	s := NewSink("", 50, zap.NewNop().Sugar())
	s.Append(alertOf("SENTINEL-0001", core.KindScanAvoidance, core.SeverityMedium))
	s.Append(alertOf("SENTINEL-0002", core.KindLongQueue, core.SeverityHigh))

	summary := s.Export(core.KindLongQueue)
	assert.Equal(t, 1, summary.Total)
	assert.Empty(t, summary.ByKind[string(core.KindScanAvoidance)])
	require.Len(t, summary.Recent, 1)
	assert.Equal(t, "SENTINEL-0002", summary.Recent[0].AlertID)
}

func TestSink_RecentLimitCapsExport(t *testing.T) {
	s := NewSink("", 2, zap.NewNop().Sugar())
	for _, id := range []string{"SENTINEL-0001", "SENTINEL-0002", "SENTINEL-0003"} {
		s.Append(alertOf(id, core.KindLongQueue, core.SeverityHigh))
	}

	summary := s.Export("")
	assert.Equal(t, 3, summary.Total)
	require.Len(t, summary.Recent, 2)
	assert.Equal(t, "SENTINEL-0002", summary.Recent[0].AlertID)
}

func TestSink_WritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.jsonl")
	s := NewSink(path, 50, zap.NewNop().Sugar())

	s.Append(alertOf("SENTINEL-0001", core.KindScanAvoidance, core.SeverityMedium))
	s.Append(alertOf("SENTINEL-0002", core.KindLongQueue, core.SeverityHigh))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []core.Alert
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var alert core.Alert
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &alert))
		lines = append(lines, alert)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, lines, 2)
	assert.Equal(t, "SENTINEL-0001", lines[0].AlertID)
	assert.Equal(t, core.KindLongQueue, lines[1].Kind)
}

func TestSink_WriteSummaryFile(t *testing.T) {
	dir := t.TempDir()
	s := NewSink("", 50, zap.NewNop().Sugar())
	s.Append(alertOf("SENTINEL-0001", core.KindScanAvoidance, core.SeverityMedium))

	path := filepath.Join(dir, "summary.json")
	require.NoError(t, s.WriteSummary(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var summary Summary
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.ByKind[string(core.KindScanAvoidance)])
}

func TestSink_KindsSeenSorted(t *testing.T) {
	s := NewSink("", 50, zap.NewNop().Sugar())
	s.Append(alertOf("SENTINEL-0001", core.KindLongQueue, core.SeverityHigh))
	s.Append(alertOf("SENTINEL-0002", core.KindScanAvoidance, core.SeverityMedium))
	s.Append(alertOf("SENTINEL-0003", core.KindLongQueue, core.SeverityHigh))

	assert.Equal(t, []string{
		string(core.KindLongQueue),
		string(core.KindScanAvoidance),
	}, s.KindsSeen())
}
