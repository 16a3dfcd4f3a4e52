package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/noah-isme/screen-admin-api/internal/models"
	"github.com/noah-isme/screen-admin-api/internal/repository"
)

func strPtr(v string) *string { return &v }

func page[T any](items []T, pageNum, limit int) []T {
	offset := models.Offset(pageNum, limit)
	_, limit = models.NormalizePage(pageNum, limit)
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return append([]T(nil), items[offset:end]...)
}

type fakeTechnicianRepo struct {
	mu    sync.Mutex
	items []models.Technician
	seq   int
}

func (f *fakeTechnicianRepo) filtered(filter models.TechnicianFilter) []models.Technician {
	out := make([]models.Technician, 0)
	for _, t := range f.items {
		if filter.Department != "" && t.Department != filter.Department {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

func (f *fakeTechnicianRepo) List(_ context.Context, filter models.TechnicianFilter) ([]models.Technician, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.filtered(filter)
	return page(all, filter.Page, filter.Limit), len(all), nil
}

func (f *fakeTechnicianRepo) FindByID(_ context.Context, id string) (*models.Technician, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.items {
		if t.ID == id {
			copied := t
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeTechnicianRepo) FindByIdentifiers(_ context.Context, identifiers []string) ([]models.Technician, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Technician, 0)
	for _, t := range f.items {
		for _, ident := range identifiers {
			if t.ID == ident || t.Username == ident {
				out = append(out, t)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeTechnicianRepo) ListIDs(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.items))
	for _, t := range f.items {
		ids = append(ids, t.ID)
	}
	return ids, nil
}

func (f *fakeTechnicianRepo) conflicts(t *models.Technician) bool {
	for _, existing := range f.items {
		if existing.ID == t.ID {
			continue
		}
		if existing.Username == t.Username {
			return true
		}
		if existing.Email != nil && t.Email != nil && *existing.Email == *t.Email {
			return true
		}
	}
	return false
}

func (f *fakeTechnicianRepo) Create(_ context.Context, t *models.Technician) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID == "" {
		f.seq++
		t.ID = "tech-" + strconv.Itoa(f.seq)
	}
	if f.conflicts(t) {
		return fmt.Errorf("create technician: %w", repository.ErrDuplicate)
	}
	f.items = append(f.items, *t)
	return nil
}

func (f *fakeTechnicianRepo) Update(_ context.Context, t *models.Technician) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conflicts(t) {
		return fmt.Errorf("update technician: %w", repository.ErrDuplicate)
	}
	for i := range f.items {
		if f.items[i].ID == t.ID {
			f.items[i] = *t
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeTechnicianRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeTechnicianRepo) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items), nil
}

func (f *fakeTechnicianRepo) DepartmentCounts(_ context.Context) ([]repository.DepartmentUsers, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[string]int{}
	for _, t := range f.items {
		counts[t.Department]++
	}
	rows := make([]repository.DepartmentUsers, 0, len(counts))
	for dept, n := range counts {
		rows = append(rows, repository.DepartmentUsers{Department: dept, Users: n})
	}
	return rows, nil
}

func (f *fakeTechnicianRepo) department(id *string) (string, bool) {
	if id == nil {
		return "", false
	}
	for _, t := range f.items {
		if t.ID == *id {
			return t.Department, true
		}
	}
	return "", false
}

type fakeScanRepo struct {
	mu          sync.Mutex
	items       []models.ScanRecord
	technicians *fakeTechnicianRepo
	listErr     error
}

func (f *fakeScanRepo) matches(s models.ScanRecord, filter models.ScanFilter) bool {
	if !filter.IncludeArchived && s.ArchivedAt != nil {
		return false
	}
	if filter.DateFrom != nil && s.Timestamp.Before(*filter.DateFrom) {
		return false
	}
	if filter.DateTo != nil && s.Timestamp.After(*filter.DateTo) {
		return false
	}
	if filter.Status != nil && s.Status != *filter.Status {
		return false
	}
	if filter.Department != "" {
		dept, ok := f.technicians.department(s.TechnicianID)
		if !ok {
			dept = s.Department
		}
		if dept != filter.Department {
			return false
		}
	}
	if filter.SessionID != "" && (s.SessionID == nil || *s.SessionID != filter.SessionID) {
		return false
	}
	return true
}

func (f *fakeScanRepo) filtered(filter models.ScanFilter) []models.ScanRecord {
	out := make([]models.ScanRecord, 0)
	for _, s := range f.items {
		if f.matches(s, filter) {
			s.Archived = s.ArchivedAt != nil
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

func (f *fakeScanRepo) List(_ context.Context, filter models.ScanFilter) ([]models.ScanRecord, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	all := f.filtered(filter)
	return page(all, filter.Page, filter.Limit), len(all), nil
}

func (f *fakeScanRepo) ListAll(_ context.Context, filter models.ScanFilter, max int) ([]models.ScanRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	all := f.filtered(filter)
	if max > 0 && len(all) > max {
		all = all[:max]
	}
	return all, nil
}

func (f *fakeScanRepo) Count(_ context.Context, filter models.ScanFilter) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.filtered(filter)), nil
}

func (f *fakeScanRepo) StatusCounts(_ context.Context, filter models.ScanFilter) ([]models.StatusCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[models.ScanStatus]int{}
	for _, s := range f.filtered(filter) {
		counts[s.Status]++
	}
	rows := make([]models.StatusCount, 0, len(counts))
	for status, n := range counts {
		rows = append(rows, models.StatusCount{Status: status, Count: n})
	}
	return rows, nil
}

func (f *fakeScanRepo) DepartmentCounts(_ context.Context) ([]repository.DepartmentScans, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[string]int{}
	for _, s := range f.filtered(models.ScanFilter{}) {
		if dept, ok := f.technicians.department(s.TechnicianID); ok {
			counts[dept]++
		}
	}
	rows := make([]repository.DepartmentScans, 0, len(counts))
	for dept, n := range counts {
		rows = append(rows, repository.DepartmentScans{Department: dept, Scans: n})
	}
	return rows, nil
}

func (f *fakeScanRepo) FindByID(_ context.Context, id string) (*models.ScanRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.items {
		if s.ID == id {
			s.Archived = s.ArchivedAt != nil
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeScanRepo) Update(_ context.Context, scan *models.ScanRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == scan.ID {
			f.items[i].Status = scan.Status
			f.items[i].Barcode = scan.Barcode
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeScanRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeScanRepo) Archive(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id && f.items[i].ArchivedAt == nil {
			f.items[i].ArchivedAt = &at
			return nil
		}
	}
	return sql.ErrNoRows
}

type fakeSessionRepo struct {
	items []models.WorkSession
}

func (f *fakeSessionRepo) filtered(filter models.SessionFilter) []models.WorkSession {
	out := make([]models.WorkSession, 0)
	for _, s := range f.items {
		s.Active = s.EndTime == nil
		if filter.Active != nil && s.Active != *filter.Active {
			continue
		}
		if filter.Department != "" && s.Department != filter.Department {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out
}

func (f *fakeSessionRepo) List(_ context.Context, filter models.SessionFilter) ([]models.WorkSession, int, error) {
	all := f.filtered(filter)
	return page(all, filter.Page, filter.Limit), len(all), nil
}

func (f *fakeSessionRepo) FindByID(_ context.Context, id string) (*models.WorkSession, error) {
	for _, s := range f.items {
		if s.ID == id {
			s.Active = s.EndTime == nil
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSessionRepo) Count(_ context.Context, filter models.SessionFilter) (int, error) {
	return len(f.filtered(filter)), nil
}

type fakeMessageRepo struct {
	mu            sync.Mutex
	messages      []models.Message
	notifications []models.Notification
	createErr     error
}

func (f *fakeMessageRepo) CreateWithNotifications(_ context.Context, message *models.Message, notifications []models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	message.ID = "msg-" + strconv.Itoa(len(f.messages)+1)
	f.messages = append(f.messages, *message)
	for i, n := range notifications {
		n.ID = fmt.Sprintf("%s-n%d", message.ID, i+1)
		n.MessageID = message.ID
		f.notifications = append(f.notifications, n)
	}
	return nil
}

func (f *fakeMessageRepo) List(_ context.Context, filter models.MessageFilter) ([]models.Message, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Message, 0)
	for _, m := range f.messages {
		if filter.Priority != nil && m.Priority != *filter.Priority {
			continue
		}
		if filter.Read != nil && m.Read != *filter.Read {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, filter.Page, filter.Limit), len(out), nil
}

func (f *fakeMessageRepo) FindByID(_ context.Context, id string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeMessageRepo) MarkRead(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.messages {
		if f.messages[i].ID == id {
			f.messages[i].Read = true
			f.messages[i].ReadAt = &at
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeMessageRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.messages {
		if f.messages[i].ID == id {
			f.messages = append(f.messages[:i], f.messages[i+1:]...)
			kept := f.notifications[:0]
			for _, n := range f.notifications {
				if n.MessageID != id {
					kept = append(kept, n)
				}
			}
			f.notifications = kept
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeMessageRepo) ListNotifications(_ context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Notification, 0)
	for _, n := range f.notifications {
		if filter.Read != nil && n.Read != *filter.Read {
			continue
		}
		out = append(out, n)
	}
	return page(out, filter.Page, filter.Limit), len(out), nil
}

func (f *fakeMessageRepo) MarkNotificationRead(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.notifications {
		if f.notifications[i].ID == id {
			f.notifications[i].Read = true
			f.notifications[i].ReadAt = &at
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeMessageRepo) UnreadCounts(_ context.Context) (*models.UnreadCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := &models.UnreadCount{}
	for _, m := range f.messages {
		if !m.Read {
			counts.UnreadMessages++
		}
	}
	for _, n := range f.notifications {
		if !n.Read {
			counts.UnreadNotifications++
		}
	}
	return counts, nil
}
