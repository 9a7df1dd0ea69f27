package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sentinel/core"
)

// AlertStorage persists accepted alerts.
type AlertStorage struct {
	sqlite *SQLite
	logger *zap.SugaredLogger
}

// NewAlertStorage creates alert persistence over an open database.
func NewAlertStorage(sqlite *SQLite, logger *zap.SugaredLogger) *AlertStorage {
	return &AlertStorage{sqlite: sqlite, logger: logger}
}

// SaveAlert inserts one accepted alert.
func (s *AlertStorage) SaveAlert(alert *core.Alert) error {
	evidence, err := json.Marshal(alert.Evidence)
	if err != nil {
		return fmt.Errorf("failed to marshal alert evidence: %w", err)
	}

	_, err = s.sqlite.DB.Exec(
		`INSERT INTO alerts (alert_id, timestamp, event_name, station_id, customer_id, severity, confidence, evidence)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		alert.AlertID,
		alert.Timestamp.UTC().Format(time.RFC3339Nano),
		string(alert.Kind),
		alert.StationID,
		alert.CustomerID,
		string(alert.Severity),
		alert.Confidence,
		string(evidence),
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert %s: %w", alert.AlertID, err)
	}
	return nil
}

// RecentAlerts returns up to limit alerts, newest first. An empty kind
// matches all kinds.
func (s *AlertStorage) RecentAlerts(kind string, limit int) ([]*core.Alert, error) {
	query := `SELECT alert_id, timestamp, event_name, station_id, customer_id, severity, confidence, evidence
	          FROM alerts`
	args := []interface{}{}
	if kind != "" {
		query += ` WHERE event_name = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY timestamp DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.sqlite.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*core.Alert
	for rows.Next() {
		var alert core.Alert
		var timestamp, kindStr, severity, evidence string
		if err := rows.Scan(&alert.AlertID, &timestamp, &kindStr, &alert.StationID,
			&alert.CustomerID, &severity, &alert.Confidence, &evidence); err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w", err)
		}
		alert.Kind = core.AlertKind(kindStr)
		alert.Severity = core.Severity(severity)
		if ts, err := time.Parse(time.RFC3339Nano, timestamp); err == nil {
			alert.Timestamp = ts
		}
		if err := json.Unmarshal([]byte(evidence), &alert.Evidence); err != nil {
			s.logger.Warnw("Failed to decode alert evidence", "alert_id", alert.AlertID, "error", err)
			alert.Evidence = map[string]interface{}{}
		}
		alerts = append(alerts, &alert)
	}
	return alerts, rows.Err()
}

// CountAlerts returns the total number of stored alerts.
func (s *AlertStorage) CountAlerts() (int64, error) {
	var n int64
	err := s.sqlite.DB.QueryRow(`SELECT COUNT(*) FROM alerts`).Scan(&n)
	return n, err
}
