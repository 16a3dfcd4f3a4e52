package service

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/screen-admin-api/internal/models"
	appErrors "github.com/noah-isme/screen-admin-api/pkg/errors"
	"github.com/noah-isme/screen-admin-api/pkg/export"
	"github.com/noah-isme/screen-admin-api/pkg/storage"
)

func newReportFixture(t *testing.T) (*ReportService, *fakeScanRepo) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	techs, scans := newScanFixture(time.Now())
	sessions := &fakeSessionRepo{items: []models.WorkSession{
		{ID: "w1", TechnicianID: strPtr("t1"), Technician: strPtr("tech1"), Department: "Repairs", StartTime: time.Now().Add(-2 * time.Hour), ScanCount: 2},
	}}
	svc := NewReportService(scans, techs, sessions, store, nil, nil, ReportServiceConfig{Location: time.UTC})
	return svc, scans
}

func TestReportServiceScansCSV(t *testing.T) {
	svc, scans := newReportFixture(t)
	require.NoError(t, scans.Archive(context.Background(), "s2", time.Now()))

	file, err := svc.Generate(context.Background(), ReportRequest{Format: export.FormatCSV, Type: ReportTypeScans})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, 2, file.Rows)
	assert.Regexp(t, `^scans_report_\d{8}_\d{6}\.csv$`, file.FileName)

	f, err := os.Open(file.Path)
	require.NoError(t, err)
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, f.Close())
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Barcode", records[0][1])

	require.NoError(t, svc.Delete(file.Name))
	_, err = os.Stat(file.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestReportServiceFormats(t *testing.T) {
	svc, _ := newReportFixture(t)

	for _, tc := range []struct {
		format      export.Format
		reportType  ReportType
		contentType string
		ext         string
	}{
		{export.FormatExcel, ReportTypeUsers, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", ".xlsx"},
		{export.FormatPDF, ReportTypeSessions, "application/pdf", ".pdf"},
	} {
		file, err := svc.Generate(context.Background(), ReportRequest{Format: tc.format, Type: tc.reportType})
		require.NoError(t, err)
		assert.Equal(t, tc.contentType, file.ContentType)
		assert.Contains(t, file.FileName, tc.ext)
		info, err := os.Stat(file.Path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestReportServiceRejectsUnknownFormat(t *testing.T) {
	svc, _ := newReportFixture(t)

	_, err := svc.Generate(context.Background(), ReportRequest{Format: "docx", Type: ReportTypeScans})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestParseReportType(t *testing.T) {
	typ, err := ParseReportType("")
	require.NoError(t, err)
	assert.Equal(t, ReportTypeScans, typ)

	typ, err = ParseReportType("Sessions")
	require.NoError(t, err)
	assert.Equal(t, ReportTypeSessions, typ)

	_, err = ParseReportType("grades")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestReportServiceCleanup(t *testing.T) {
	svc, _ := newReportFixture(t)
	file, err := svc.Generate(context.Background(), ReportRequest{Format: export.FormatCSV, Type: ReportTypeUsers})
	require.NoError(t, err)

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(file.Path, old, old))

	removed, err := svc.Cleanup(0)
	require.NoError(t, err)
	assert.Len(t, removed, 1)
}
