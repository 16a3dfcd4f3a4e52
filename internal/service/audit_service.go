package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/screen-admin-api/internal/models"
	"github.com/noah-isme/screen-admin-api/pkg/jobs"
)

const auditJobType = "audit_log"

type auditRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

type auditQueue interface {
	TryEnqueue(job jobs.Job) error
}

// AuditService records mutating admin actions asynchronously. Recording
// never fails the originating request.
type AuditService struct {
	repo    auditRepository
	queue   auditQueue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAuditService constructs an AuditService. Without a queue entries are
// written synchronously.
func NewAuditService(repo auditRepository, metrics *MetricsService, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, metrics: metrics, logger: logger}
}

// UseQueue routes entries through the worker queue.
func (s *AuditService) UseQueue(queue auditQueue) {
	s.queue = queue
}

// Handle is the queue handler persisting one audit entry.
func (s *AuditService) Handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(*models.AuditLog)
	if !ok {
		return fmt.Errorf("unexpected audit payload %T", job.Payload)
	}
	return s.repo.Create(ctx, entry)
}

// Record stores an audit entry.
func (s *AuditService) Record(ctx context.Context, entry models.AuditLog) {
	if s == nil || s.repo == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	if s.queue == nil {
		if err := s.repo.Create(ctx, &entry); err != nil {
			s.logger.Warn("audit log write failed", zap.String("action", entry.Action), zap.Error(err))
		}
		return
	}

	job := jobs.Job{ID: entry.ID, Type: auditJobType, Payload: &entry}
	if err := s.queue.TryEnqueue(job); err != nil {
		s.metrics.RecordAuditDropped()
		s.logger.Warn("audit log dropped", zap.String("action", entry.Action), zap.Error(err))
	}
}
