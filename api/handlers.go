package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"sentinel/core"
)

// statusSnapshotSize bounds how many recent records the station and status
// views are derived from.
const statusSnapshotSize = 100

func (a *API) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger.Errorw("Failed to encode response", "error", err)
	}
}

// handleAlerts returns recent accepted alerts, newest last. Query params:
// limit (default 50) and kind (exact event name filter).
func (a *API) handleAlerts(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	alerts := a.sink.Recent(limit)
	if kind := r.URL.Query().Get("kind"); kind != "" {
		filtered := alerts[:0]
		for _, alert := range alerts {
			if string(alert.Kind) == kind {
				filtered = append(filtered, alert)
			}
		}
		alerts = filtered
	}
	if alerts == nil {
		alerts = []*core.Alert{}
	}
	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// handleAlertSummary returns aggregated counts by kind and severity.
func (a *API) handleAlertSummary(w http.ResponseWriter, r *http.Request) {
	kind := core.AlertKind(r.URL.Query().Get("kind"))
	a.writeJSON(w, http.StatusOK, a.sink.Export(kind))
}

// stationView is the per-station slice of the status endpoint.
type stationView struct {
	StationID        string     `json:"station_id"`
	LastTransaction  *time.Time `json:"last_transaction,omitempty"`
	TransactionCount int        `json:"transaction_count"`
	ErrorCount       int        `json:"error_count"`
	QueueLength      int        `json:"queue_length"`
	AverageWaitTime  float64    `json:"average_wait_time"`
}

// handleStations derives current station state from the ingestion buffers.
func (a *API) handleStations(w http.ResponseWriter, r *http.Request) {
	views := make(map[string]*stationView)
	get := func(stationID string) *stationView {
		v := views[stationID]
		if v == nil {
			v = &stationView{StationID: stationID}
			views[stationID] = v
		}
		return v
	}

	for _, rec := range a.buffers.POS.Snapshot(statusSnapshotSize) {
		if rec.StationID == "" {
			continue
		}
		v := get(rec.StationID)
		v.TransactionCount++
		if rec.IsError() {
			v.ErrorCount++
		}
		if rec.HasTimestamp() && (v.LastTransaction == nil || rec.Timestamp.After(*v.LastTransaction)) {
			ts := rec.Timestamp
			v.LastTransaction = &ts
		}
	}
	for _, rec := range a.buffers.Queue.Snapshot(statusSnapshotSize) {
		if rec.Queue == nil || rec.StationID == "" {
			continue
		}
		v := get(rec.StationID)
		v.QueueLength = rec.Queue.CustomerCount
		v.AverageWaitTime = rec.Queue.AverageDwellTime
	}

	stations := make([]*stationView, 0, len(views))
	for _, v := range views {
		stations = append(stations, v)
	}
	sort.Slice(stations, func(i, j int) bool { return stations[i].StationID < stations[j].StationID })

	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"stations": stations,
		"count":    len(stations),
	})
}

// handleStatus reports service health: feed connectivity, buffer fill and
// alert totals.
func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"uptime_seconds": int64(time.Since(a.startedAt).Seconds()),
		"buffers":        a.buffers.Counts(),
		"alerts_total":   a.sink.Len(),
		"risk_profiles":  a.risk.Len(),
	}
	if a.feed != nil {
		status["feed"] = a.feed.Status()
	}
	a.writeJSON(w, http.StatusOK, status)
}
