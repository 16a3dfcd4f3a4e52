package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/screen-admin-api/internal/models"
	"github.com/noah-isme/screen-admin-api/internal/repository"
	"github.com/noah-isme/screen-admin-api/pkg/config"
	"github.com/noah-isme/screen-admin-api/pkg/database"
	"github.com/noah-isme/screen-admin-api/pkg/logger"
)

func main() {
	path := flag.String("fixture", "scripts/seed/fixture.yaml", "path to the seed fixture")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	f, err := loadFixture(*path)
	if err != nil {
		logr.Fatal("invalid fixture", zap.String("path", *path), zap.Error(err))
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("connect postgres", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()
	if _, err := database.Migrate(ctx, db, logr); err != nil {
		logr.Fatal("migrate", zap.Error(err))
	}

	s := &seeder{
		technicians: repository.NewTechnicianRepository(db),
		sessions:    repository.NewSessionRepository(db),
		scans:       repository.NewScanRepository(db),
		logger:      logr,
		now:         time.Now().UTC(),
	}
	if err := s.run(ctx, f); err != nil {
		logr.Fatal("seed failed", zap.Error(err))
	}
}

type technicianStore interface {
	Create(ctx context.Context, technician *models.Technician) error
	FindByIdentifiers(ctx context.Context, identifiers []string) ([]models.Technician, error)
}

type sessionStore interface {
	Create(ctx context.Context, session *models.WorkSession) error
}

type scanStore interface {
	Create(ctx context.Context, scan *models.ScanRecord) error
}

type seeder struct {
	technicians technicianStore
	sessions    sessionStore
	scans       scanStore
	logger      *zap.Logger
	now         time.Time
}

// run inserts the fixture. Technicians that already exist are reused so the
// command can be re-run against a seeded database.
func (s *seeder) run(ctx context.Context, f *fixture) error {
	techs := make(map[string]models.Technician, len(f.Technicians))
	for _, t := range f.Technicians {
		tech := models.Technician{
			Username:   t.Username,
			Name:       t.Name,
			Surname:    t.Surname,
			Department: t.Department,
		}
		if t.Email != "" {
			email := t.Email
			tech.Email = &email
		}
		err := s.technicians.Create(ctx, &tech)
		if errors.Is(err, repository.ErrDuplicate) {
			existing, lookupErr := s.technicians.FindByIdentifiers(ctx, []string{t.Username})
			if lookupErr != nil || len(existing) == 0 {
				return errors.Join(err, lookupErr)
			}
			tech = existing[0]
		} else if err != nil {
			return err
		}
		techs[t.Username] = tech
	}

	sessionIDs := make(map[string]string, len(f.Sessions))
	for _, fs := range f.Sessions {
		tech := techs[fs.Technician]
		session := models.WorkSession{
			TechnicianID: &tech.ID,
			Department:   tech.Department,
			StartTime:    s.now.Add(-fs.StartedAgo),
		}
		if fs.Duration > 0 {
			end := session.StartTime.Add(fs.Duration)
			session.EndTime = &end
		}
		if err := s.sessions.Create(ctx, &session); err != nil {
			return err
		}
		sessionIDs[fs.Key] = session.ID
	}

	for _, fs := range f.Scans {
		scan := models.ScanRecord{
			Barcode:   fs.Barcode,
			Status:    fs.Status,
			Timestamp: s.now.Add(-fs.Ago),
		}
		if tech, ok := techs[fs.Technician]; ok {
			id := tech.ID
			scan.TechnicianID = &id
			scan.Department = tech.Department
		}
		if id, ok := sessionIDs[fs.Session]; ok {
			scan.SessionID = &id
		}
		if fs.Archived {
			at := s.now
			scan.ArchivedAt = &at
		}
		if err := s.scans.Create(ctx, &scan); err != nil {
			return err
		}
	}

	s.logger.Info("seed complete",
		zap.Int("technicians", len(techs)),
		zap.Int("sessions", len(sessionIDs)),
		zap.Int("scans", len(f.Scans)),
	)
	return nil
}
