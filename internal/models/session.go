package models

import "time"

// WorkSession is a technician's working period. ScanCount is derived from
// scans referencing the session.
type WorkSession struct {
	ID           string     `db:"id" json:"id"`
	TechnicianID *string    `db:"technician_id" json:"technician_id,omitempty"`
	Technician   *string    `db:"technician" json:"technician,omitempty"`
	Department   string     `db:"department" json:"department"`
	StartTime    time.Time  `db:"start_time" json:"start_time"`
	EndTime      *time.Time `db:"end_time" json:"end_time,omitempty"`
	ScanCount    int        `db:"scan_count" json:"scan_count"`
	Active       bool       `db:"-" json:"active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// SessionFilter captures listSessions criteria. Dates bound start_time.
type SessionFilter struct {
	DateFrom   *time.Time
	DateTo     *time.Time
	Department string
	Technician string
	Active     *bool
	Page       int
	Limit      int
}

// SessionDetail bundles a session with its scans.
type SessionDetail struct {
	WorkSession
	Scans []ScanRecord `json:"scans"`
}
