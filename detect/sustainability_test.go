package detect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/core"
)

func TestIdleStation_UnderutilizedStationFlagged(t *testing.T) {
	ctx := testContext(t)
	// RC01 carries the load; SCC2 rang one sale half an hour ago and has
	// shown an empty queue ever since.
	for i := 0; i < 20; i++ {
		ctx.POS = append(ctx.POS, posRecord("RC01", "C001", "PRD_A_02", 120, 200, baseTime))
	}
	ctx.POS = append(ctx.POS, posRecord("SCC2", "C002", "PRD_A_02", 120, 200, baseTime.Add(-30*time.Minute)))
	for i := 0; i < 11; i++ {
		ctx.Queue = append(ctx.Queue, queueRecord("SCC2", 0, 0, baseTime))
	}

	alerts, _, err := NewIdleStationDetector(ctx.Thresholds).Detect(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	alert := alerts[0]
	assert.Equal(t, core.KindEnergyOpportunity, alert.Kind)
	assert.Equal(t, core.SeverityLow, alert.Severity)
	assert.Equal(t, "SCC2", alert.StationID)
	assert.InDelta(t, 30.0, alert.Evidence["idle_duration_minutes"].(float64), 1e-9)
	// 0.2 kW for half an hour at 20 per kWh.
	assert.Equal(t, 2.0, alert.Evidence["estimated_energy_savings"])
}

func TestIdleStation_RecentActivityBlocksAlert(t *testing.T) {
	ctx := testContext(t)
	for i := 0; i < 20; i++ {
		ctx.POS = append(ctx.POS, posRecord("RC01", "C001", "PRD_A_02", 120, 200, baseTime))
	}
	// Idle pattern but the last sale was five minutes ago, inside the
	// ten-minute idle threshold.
	ctx.POS = append(ctx.POS, posRecord("SCC2", "C002", "PRD_A_02", 120, 200, baseTime.Add(-5*time.Minute)))
	for i := 0; i < 11; i++ {
		ctx.Queue = append(ctx.Queue, queueRecord("SCC2", 0, 0, baseTime))
	}

	alerts, _, err := NewIdleStationDetector(ctx.Thresholds).Detect(ctx)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestIdleStation_FewIdleSamplesNotEnough(t *testing.T) {
	ctx := testContext(t)
	for i := 0; i < 20; i++ {
		ctx.POS = append(ctx.POS, posRecord("RC01", "C001", "PRD_A_02", 120, 200, baseTime))
	}
	ctx.POS = append(ctx.POS, posRecord("SCC2", "C002", "PRD_A_02", 120, 200, baseTime.Add(-30*time.Minute)))
	for i := 0; i < 5; i++ {
		ctx.Queue = append(ctx.Queue, queueRecord("SCC2", 0, 0, baseTime))
	}

	alerts, _, err := NewIdleStationDetector(ctx.Thresholds).Detect(ctx)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestIdleStation_SystemWideOptimization(t *testing.T) {
	ctx := testContext(t)
	for i := 0; i < 30; i++ {
		ctx.POS = append(ctx.POS, posRecord("RC01", "C001", "PRD_A_02", 120, 200, baseTime))
	}
	for _, station := range []string{"SCC1", "SCC2"} {
		ctx.POS = append(ctx.POS, posRecord(station, "C002", "PRD_A_02", 120, 200, baseTime.Add(-30*time.Minute)))
		for i := 0; i < 11; i++ {
			ctx.Queue = append(ctx.Queue, queueRecord(station, 0, 0, baseTime))
		}
	}

	alerts, _, err := NewIdleStationDetector(ctx.Thresholds).Detect(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 3)

	var optimization *core.Alert
	for _, alert := range alerts {
		if alert.Kind == core.KindEnergyOptimization {
			optimization = alert
		}
	}
	require.NotNil(t, optimization)
	assert.Equal(t, []string{"SCC1", "SCC2"}, optimization.Evidence["underutilized_stations"])
	// Two stations, ten projected idle minutes each.
	assert.InDelta(t, 1.34, optimization.Evidence["potential_energy_savings"].(float64), 1e-9)
}

func TestEnergySavingsRounding(t *testing.T) {
	detector := NewIdleStationDetector(testThresholds()).(*idleStationDetector)
	assert.Equal(t, 2.0, detector.energySavings(30*time.Minute))
	assert.Equal(t, 0.67, detector.energySavings(10*time.Minute))
}
