package ingest

import (
	"database/sql"

	"go.uber.org/zap"
)

// FailedRecord is a malformed feed line that failed ingestion.
type FailedRecord struct {
	RawLine     string // original raw line
	ErrorReason string // error category, e.g. "parse_failure"
	ErrorDetail string // detailed error message
}

// DLQ stores malformed feed lines so they can be inspected later. Writes are
// best-effort: a DLQ failure is logged and never interrupts ingestion.
type DLQ struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// NewDLQ creates a DLQ writer over the given database.
func NewDLQ(db *sql.DB, logger *zap.SugaredLogger) *DLQ {
	return &DLQ{db: db, logger: logger}
}

// Add writes a failed record to the dead letter table.
func (d *DLQ) Add(rec *FailedRecord) {
	if d.db == nil {
		return
	}
	_, err := d.db.Exec(
		`INSERT INTO dead_letter_queue (raw_line, error_reason, error_detail) VALUES (?, ?, ?)`,
		rec.RawLine, rec.ErrorReason, rec.ErrorDetail,
	)
	if err != nil {
		d.logger.Errorw("Failed to write record to DLQ",
			"error", err,
			"reason", rec.ErrorReason)
	}
}

// Count returns the number of dead-lettered records.
func (d *DLQ) Count() (int64, error) {
	if d.db == nil {
		return 0, nil
	}
	var n int64
	err := d.db.QueryRow(`SELECT COUNT(*) FROM dead_letter_queue`).Scan(&n)
	return n, err
}
