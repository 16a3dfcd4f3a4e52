package models

import "time"

// ScanStatus is the assessed condition of an inspected screen.
type ScanStatus string

const (
	ScanStatusHealthy      ScanStatus = "Healthy"
	ScanStatusReparable    ScanStatus = "Reparable"
	ScanStatusBeyondRepair ScanStatus = "Beyond Repair"
)

// ScanStatuses lists every valid status in display order.
var ScanStatuses = []ScanStatus{ScanStatusHealthy, ScanStatusReparable, ScanStatusBeyondRepair}

// Valid reports whether s is one of the known statuses.
func (s ScanStatus) Valid() bool {
	for _, known := range ScanStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ScanRecord is one inspection of a screen. Department is the technician's
// department when the technician is known, otherwise the value recorded by
// the mobile app.
type ScanRecord struct {
	ID           string     `db:"id" json:"id"`
	Barcode      string     `db:"barcode" json:"barcode"`
	Status       ScanStatus `db:"status" json:"status"`
	Timestamp    time.Time  `db:"timestamp" json:"timestamp"`
	TechnicianID *string    `db:"technician_id" json:"technician_id,omitempty"`
	Technician   *string    `db:"technician" json:"technician,omitempty"`
	Department   string     `db:"department" json:"department"`
	SessionID    *string    `db:"session_id" json:"session_id,omitempty"`
	ArchivedAt   *time.Time `db:"archived_at" json:"archived_at,omitempty"`
	Archived     bool       `db:"-" json:"archived"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// ScanFilter captures the listScans criteria. Date bounds are inclusive.
type ScanFilter struct {
	DateFrom        *time.Time
	DateTo          *time.Time
	Status          *ScanStatus
	Department      string
	Technician      string
	Search          string
	SessionID       string
	IncludeArchived bool
	Page            int
	Limit           int
}

// UpdateScanRequest patches a scan; only status and barcode are editable.
type UpdateScanRequest struct {
	Status  *ScanStatus `json:"status" validate:"omitempty,oneof=Healthy Reparable 'Beyond Repair'"`
	Barcode *string     `json:"barcode" validate:"omitempty,min=1,max=128"`
}

// StatusBreakdown counts scans per status. Every status is always present.
type StatusBreakdown struct {
	Healthy      int `json:"Healthy"`
	Reparable    int `json:"Reparable"`
	BeyondRepair int `json:"Beyond Repair"`
}

// Add increments the bucket for status. Unknown statuses are ignored.
func (b *StatusBreakdown) Add(status ScanStatus, n int) {
	switch status {
	case ScanStatusHealthy:
		b.Healthy += n
	case ScanStatusReparable:
		b.Reparable += n
	case ScanStatusBeyondRepair:
		b.BeyondRepair += n
	}
}

// Total sums every bucket.
func (b StatusBreakdown) Total() int {
	return b.Healthy + b.Reparable + b.BeyondRepair
}

// StatusCount is one row of a grouped status query.
type StatusCount struct {
	Status ScanStatus `db:"status"`
	Count  int        `db:"count"`
}
