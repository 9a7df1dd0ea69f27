package detect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/core"
)

func TestJoin_PairsWithinWindow(t *testing.T) {
	rfid := rfidRecord("SCC1", "C001", "PRD_A_01", core.RFIDLocationInScanArea, baseTime)
	pos := posRecord("SCC1", "C001", "PRD_A_01", 2500, 500, baseTime.Add(20*time.Second))
	far := posRecord("SCC1", "C001", "PRD_A_01", 2500, 500, baseTime.Add(2*time.Minute))

	pairs := Join(
		[]*core.SensorRecord{rfid},
		[]*core.SensorRecord{far, pos},
		StationCustomerSKUKey, StationCustomerSKUKey,
		45*time.Second,
	)

	require.Len(t, pairs, 1)
	assert.Same(t, rfid, pairs[0].A)
	assert.Same(t, pos, pairs[0].B)
}

func TestJoin_NearestCandidateWins(t *testing.T) {
	rec := recognitionRecord("RC01", "C002", "PRD_A_01", baseTime)
	near := posRecord("RC01", "C002", "PRD_A_02", 120, 200, baseTime.Add(5*time.Second))
	later := posRecord("RC01", "C002", "PRD_A_02", 120, 200, baseTime.Add(30*time.Second))

	pairs := Join(
		[]*core.SensorRecord{rec},
		[]*core.SensorRecord{later, near},
		StationCustomerKey, StationCustomerKey,
		45*time.Second,
	)

	require.Len(t, pairs, 1)
	assert.Same(t, near, pairs[0].B)
}

func TestJoin_WindowIsSymmetric(t *testing.T) {
	rec := rfidRecord("SCC1", "C001", "PRD_A_01", core.RFIDLocationInScanArea, baseTime)
	before := posRecord("SCC1", "C001", "PRD_A_01", 2500, 500, baseTime.Add(-30*time.Second))

	pairs := Join(
		[]*core.SensorRecord{rec},
		[]*core.SensorRecord{before},
		StationCustomerSKUKey, StationCustomerSKUKey,
		45*time.Second,
	)

	require.Len(t, pairs, 1)
}

func TestJoin_SkipsRecordsWithoutTimestamp(t *testing.T) {
	noTS := rfidRecord("SCC1", "C001", "PRD_A_01", core.RFIDLocationInScanArea, time.Time{})
	pos := posRecord("SCC1", "C001", "PRD_A_01", 2500, 500, baseTime)

	pairs := Join(
		[]*core.SensorRecord{noTS},
		[]*core.SensorRecord{pos},
		StationCustomerSKUKey, StationCustomerSKUKey,
		45*time.Second,
	)
	assert.Empty(t, pairs)

	noTSPos := posRecord("SCC1", "C001", "PRD_A_01", 2500, 500, time.Time{})
	withTS := rfidRecord("SCC1", "C001", "PRD_A_01", core.RFIDLocationInScanArea, baseTime)
	pairs = Join(
		[]*core.SensorRecord{withTS},
		[]*core.SensorRecord{noTSPos},
		StationCustomerSKUKey, StationCustomerSKUKey,
		45*time.Second,
	)
	assert.Empty(t, pairs)
}

func TestJoin_EmptyInputs(t *testing.T) {
	pos := posRecord("RC01", "C001", "PRD_A_01", 2500, 500, baseTime)
	assert.Empty(t, Join(nil, []*core.SensorRecord{pos}, StationCustomerKey, StationCustomerKey, time.Minute))
	assert.Empty(t, Join([]*core.SensorRecord{pos}, nil, StationCustomerKey, StationCustomerKey, time.Minute))
}

func TestKeyFuncs_RejectIncompleteRecords(t *testing.T) {
	noCustomer := posRecord("RC01", "", "PRD_A_01", 2500, 500, baseTime)
	_, ok := StationCustomerKey(noCustomer)
	assert.False(t, ok)

	noSKU := posRecord("RC01", "C001", "", 0, 0, baseTime)
	_, ok = StationCustomerSKUKey(noSKU)
	assert.False(t, ok)
	_, ok = StationSKUKey(noSKU)
	assert.False(t, ok)

	full := posRecord("RC01", "C001", "PRD_A_01", 2500, 500, baseTime)
	key, ok := StationCustomerSKUKey(full)
	require.True(t, ok)
	assert.Equal(t, "RC01|C001|PRD_A_01", key)
}
