package detect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/core"
)

func TestQueue_LongQueueSeverityScalesWithLength(t *testing.T) {
	cases := []struct {
		name     string
		length   int
		severity core.Severity
	}{
		{"just over threshold", 5, core.SeverityMedium},
		{"seven waiting", 7, core.SeverityHigh},
		{"nine waiting", 9, core.SeverityCritical},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := testContext(t)
			ctx.Queue = []*core.SensorRecord{
				queueRecord("RC01", tc.length, 350, baseTime),
			}

			alerts, _, err := NewQueueDetector(ctx.Thresholds).Detect(ctx)
			require.NoError(t, err)

			var longQueue *core.Alert
			for _, alert := range alerts {
				if alert.Kind == core.KindLongQueue {
					longQueue = alert
				}
			}
			require.NotNil(t, longQueue)
			assert.Equal(t, tc.severity, longQueue.Severity)
			assert.Equal(t, tc.length, longQueue.Evidence["current_queue_length"])
			assert.Equal(t, "moderate_negative", longQueue.Evidence["customer_satisfaction_impact"])
		})
	}
}

func TestQueue_SeverityTiersFollowConfiguredThreshold(t *testing.T) {
	// With the alert length lowered to 2, the tiers shift to >2 medium,
	// >4 high, >6 critical.
	cases := []struct {
		length   int
		severity core.Severity
	}{
		{3, core.SeverityMedium},
		{5, core.SeverityHigh},
		{7, core.SeverityCritical},
	}
	for _, tc := range cases {
		ctx := testContext(t)
		ctx.Thresholds.QueueLengthAlert = 2
		ctx.Queue = []*core.SensorRecord{
			queueRecord("RC01", tc.length, 350, baseTime),
		}

		alerts, _, err := NewQueueDetector(ctx.Thresholds).Detect(ctx)
		require.NoError(t, err)

		var longQueue *core.Alert
		for _, alert := range alerts {
			if alert.Kind == core.KindLongQueue {
				longQueue = alert
			}
		}
		require.NotNil(t, longQueue, "length %d", tc.length)
		assert.Equal(t, tc.severity, longQueue.Severity, "length %d", tc.length)
	}
}

func TestQueue_PredictedCongestionFromHourDefaults(t *testing.T) {
	ctx := testContext(t)
	// Noon default peak is 9; a queue of 2 with margin 3 forecasts
	// congestion without tripping the live-length alert.
	ctx.Queue = []*core.SensorRecord{
		queueRecord("RC02", 2, 60, baseTime),
	}

	alerts, _, err := NewQueueDetector(ctx.Thresholds).Detect(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	alert := alerts[0]
	assert.Equal(t, core.KindPredictedCongestion, alert.Kind)
	assert.Equal(t, core.SeverityMedium, alert.Severity)
	assert.Equal(t, 9, alert.Evidence["predicted_peak"])
	assert.Equal(t, baseTime.Add(10*time.Minute), alert.Evidence["estimated_peak_time"])
}

func TestQueue_SystemWideCongestion(t *testing.T) {
	ctx := testContext(t)
	ctx.Queue = []*core.SensorRecord{
		queueRecord("RC01", 8, 200, baseTime),
		queueRecord("RC02", 8, 200, baseTime),
		queueRecord("SCC1", 8, 200, baseTime),
	}

	alerts, _, err := NewQueueDetector(ctx.Thresholds).Detect(ctx)
	require.NoError(t, err)

	kinds := kindsOf(alerts)
	assert.Contains(t, kinds, core.KindSystemWideCongestion)

	for _, alert := range alerts {
		if alert.Kind == core.KindSystemWideCongestion {
			assert.Equal(t, 24, alert.Evidence["total_customers_waiting"])
			assert.Equal(t, 3, alert.Evidence["affected_stations"])
		}
	}
}

func TestQueue_LatestSamplePerStationWins(t *testing.T) {
	ctx := testContext(t)
	// Snapshots are oldest-first; the queue has drained by the last sample.
	ctx.Queue = []*core.SensorRecord{
		queueRecord("RC01", 9, 500, baseTime.Add(-time.Minute)),
		queueRecord("RC01", 1, 30, baseTime),
	}

	alerts, _, err := NewQueueDetector(ctx.Thresholds).Detect(ctx)
	require.NoError(t, err)
	for _, alert := range alerts {
		assert.NotEqual(t, core.KindLongQueue, alert.Kind)
	}
}

func TestQueue_HistoryDeduplicatesOverlappingSnapshots(t *testing.T) {
	detector := NewQueueDetector(testThresholds()).(*queueDetector)
	ctx := testContext(t)
	ctx.Queue = []*core.SensorRecord{
		queueRecord("RC01", 3, 60, baseTime),
	}

	_, _, err := detector.Detect(ctx)
	require.NoError(t, err)
	_, _, err = detector.Detect(ctx)
	require.NoError(t, err)

	key := historyKey("RC01", baseTime.Hour())
	assert.Len(t, detector.history[key], 1)
}

func TestQueue_PredictPeakUsesHistoryWhenAvailable(t *testing.T) {
	detector := NewQueueDetector(testThresholds()).(*queueDetector)
	ctx := testContext(t)
	ctx.Queue = []*core.SensorRecord{
		queueRecord("RC01", 2, 60, baseTime),
		queueRecord("RC01", 4, 60, baseTime.Add(time.Second)),
		queueRecord("RC01", 6, 60, baseTime.Add(2*time.Second)),
	}

	_, _, err := detector.Detect(ctx)
	require.NoError(t, err)

	// Three samples flip the predictor from the hour default to the
	// 90th percentile of observed lengths.
	assert.Equal(t, 5, detector.predictPeak("RC01", baseTime.Hour()))
	// No history for this station and hour: noon default applies.
	assert.Equal(t, 9, detector.predictPeak("RC99", 12))
	// No history and no default for 3am.
	assert.Equal(t, 5, detector.predictPeak("RC99", 3))
}

func TestPercentile90(t *testing.T) {
	assert.Equal(t, 7, percentile90([]int{7}))
	assert.Equal(t, 10, percentile90([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 10}))
	// rank 0.9*(2-1) = 0.9 between 2 and 10: 2 + 0.9*8 = 9.2 truncated.
	assert.Equal(t, 9, percentile90([]int{10, 2}))
}

func TestSatisfactionImpact(t *testing.T) {
	assert.Equal(t, "acceptable", satisfactionImpact(90))
	assert.Equal(t, "minor_negative", satisfactionImpact(200))
	assert.Equal(t, "moderate_negative", satisfactionImpact(400))
	assert.Equal(t, "severe_negative", satisfactionImpact(700))
}
