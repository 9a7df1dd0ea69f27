package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/core"
)

func TestWeight_DeviationBeyondToleranceFires(t *testing.T) {
	ctx := testContext(t)
	// Catalog weight 500g, scale read 300g: 40% off.
	ctx.POS = []*core.SensorRecord{
		posRecord("SCC1", "C001", "PRD_A_01", 2500, 300, baseTime),
	}

	alerts, deltas, err := NewWeightDetector(ctx.Thresholds).Detect(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	alert := alerts[0]
	assert.Equal(t, core.KindWeightDiscrepancy, alert.Kind)
	assert.Equal(t, core.SeverityHigh, alert.Severity)
	assert.Equal(t, 0.9, alert.Confidence)
	assert.Equal(t, 500.0, alert.Evidence["expected_weight"])
	assert.Equal(t, 300.0, alert.Evidence["actual_weight"])
	assert.InDelta(t, 40.0, alert.Evidence["variance_percentage"].(float64), 1e-9)
	assert.Equal(t, false, alert.Evidence["potential_fraud"])

	require.Len(t, deltas, 1)
	assert.Equal(t, 0.3, deltas[0].Score)
}

func TestWeight_BoundaryEqualityIsWithinTolerance(t *testing.T) {
	ctx := testContext(t)
	// 575g on a 500g product is exactly the 15% tolerance.
	ctx.POS = []*core.SensorRecord{
		posRecord("SCC1", "C001", "PRD_A_01", 2500, 575, baseTime),
	}

	alerts, deltas, err := NewWeightDetector(ctx.Thresholds).Detect(ctx)
	require.NoError(t, err)
	assert.Empty(t, alerts)
	assert.Empty(t, deltas)
}

func TestWeight_VariableWeightCategoryGetsWiderTolerance(t *testing.T) {
	ctx := testContext(t)
	// Bananas are produce: 20% off is inside the 25% variable tolerance.
	ctx.POS = []*core.SensorRecord{
		posRecord("SCC2", "C002", "PRD_P_01", 90, 800, baseTime),
	}

	alerts, _, err := NewWeightDetector(ctx.Thresholds).Detect(ctx)
	require.NoError(t, err)
	assert.Empty(t, alerts)

	// 30% off breaches even the variable tolerance.
	ctx.POS = []*core.SensorRecord{
		posRecord("SCC2", "C002", "PRD_P_01", 90, 700, baseTime),
	}
	alerts, _, err = NewWeightDetector(ctx.Thresholds).Detect(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, core.SeverityMedium, alerts[0].Severity)
}

func TestWeight_StaffedLanesAreIgnored(t *testing.T) {
	ctx := testContext(t)
	ctx.POS = []*core.SensorRecord{
		posRecord("RC01", "C001", "PRD_A_01", 2500, 100, baseTime),
	}

	alerts, _, err := NewWeightDetector(ctx.Thresholds).Detect(ctx)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestWeight_UnknownProductSkipped(t *testing.T) {
	ctx := testContext(t)
	ctx.POS = []*core.SensorRecord{
		posRecord("SCC1", "C001", "MISSING_SKU", 100, 100, baseTime),
	}

	alerts, _, err := NewWeightDetector(ctx.Thresholds).Detect(ctx)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}
