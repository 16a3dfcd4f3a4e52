package models

import "time"

// Audit actions recorded for mutating admin operations.
const (
	AuditActionLogin            = "LOGIN"
	AuditActionRegister         = "REGISTER"
	AuditActionPasswordChange   = "PASSWORD_CHANGE"
	AuditActionTechnicianCreate = "TECHNICIAN_CREATE"
	AuditActionTechnicianUpdate = "TECHNICIAN_UPDATE"
	AuditActionTechnicianDelete = "TECHNICIAN_DELETE"
	AuditActionScanUpdate       = "SCAN_UPDATE"
	AuditActionScanDelete       = "SCAN_DELETE"
	AuditActionScanArchive      = "SCAN_ARCHIVE"
	AuditActionMessageSend      = "MESSAGE_SEND"
	AuditActionMessageBroadcast = "MESSAGE_BROADCAST"
	AuditActionMessageDelete    = "MESSAGE_DELETE"
	AuditActionReportExport     = "REPORT_EXPORT"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	Actor      string    `db:"actor" json:"actor"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Status     int       `db:"status" json:"status"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
