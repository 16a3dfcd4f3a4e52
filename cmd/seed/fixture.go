package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/screen-admin-api/internal/models"
)

// fixture is the on-disk seed format. Times are offsets back from now so a
// fresh seed always populates today's and this week's dashboard figures.
type fixture struct {
	Technicians []fixtureTechnician `yaml:"technicians"`
	Sessions    []fixtureSession    `yaml:"sessions"`
	Scans       []fixtureScan       `yaml:"scans"`
}

type fixtureTechnician struct {
	Username   string `yaml:"username"`
	Name       string `yaml:"name"`
	Surname    string `yaml:"surname"`
	Email      string `yaml:"email"`
	Department string `yaml:"department"`
}

type fixtureSession struct {
	Key        string        `yaml:"key"`
	Technician string        `yaml:"technician"`
	StartedAgo time.Duration `yaml:"started_ago"`
	Duration   time.Duration `yaml:"duration"`
}

type fixtureScan struct {
	Barcode    string            `yaml:"barcode"`
	Status     models.ScanStatus `yaml:"status"`
	Technician string            `yaml:"technician"`
	Session    string            `yaml:"session"`
	Ago        time.Duration     `yaml:"ago"`
	Archived   bool              `yaml:"archived"`
}

func loadFixture(path string) (*fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var f fixture
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *fixture) validate() error {
	techs := make(map[string]struct{}, len(f.Technicians))
	for _, t := range f.Technicians {
		if t.Username == "" || t.Department == "" {
			return fmt.Errorf("technician %q: username and department are required", t.Username)
		}
		techs[t.Username] = struct{}{}
	}
	sessions := make(map[string]struct{}, len(f.Sessions))
	for _, s := range f.Sessions {
		if _, ok := techs[s.Technician]; !ok {
			return fmt.Errorf("session %q: unknown technician %q", s.Key, s.Technician)
		}
		sessions[s.Key] = struct{}{}
	}
	for _, s := range f.Scans {
		if !s.Status.Valid() {
			return fmt.Errorf("scan %q: invalid status %q", s.Barcode, s.Status)
		}
		if s.Technician != "" {
			if _, ok := techs[s.Technician]; !ok {
				return fmt.Errorf("scan %q: unknown technician %q", s.Barcode, s.Technician)
			}
		}
		if s.Session != "" {
			if _, ok := sessions[s.Session]; !ok {
				return fmt.Errorf("scan %q: unknown session %q", s.Barcode, s.Session)
			}
		}
	}
	return nil
}
