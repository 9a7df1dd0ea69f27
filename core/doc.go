// Package core defines the domain model for the Sentinel retail monitoring engine.
//
// The core package provides:
//   - Sensor record types with one tagged payload per source kind
//   - Alert types, severity levels and the monotonic alert ID sequence
//   - Constants shared by ingestion, detection and suppression
//
// Records are immutable once constructed by the ingest package; detectors and
// the correlation engine only ever read buffer snapshots of them. Alerts are
// immutable once accepted by the suppressor.
package core
