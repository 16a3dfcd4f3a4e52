package dto

import "time"

// ReportFile describes a rendered report waiting to be streamed.
type ReportFile struct {
	Name        string
	Path        string
	FileName    string
	ContentType string
	Rows        int
	GeneratedAt time.Time
}
