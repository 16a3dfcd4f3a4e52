package models

import "time"

// Technician is a field worker who performs scans through the mobile app.
type Technician struct {
	ID         string    `db:"id" json:"id"`
	Username   string    `db:"username" json:"username"`
	Name       string    `db:"name" json:"name"`
	Surname    string    `db:"surname" json:"surname"`
	Email      *string   `db:"email" json:"email,omitempty"`
	Department string    `db:"department" json:"department"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// TechnicianFilter captures filtering criteria for listing technicians.
type TechnicianFilter struct {
	Department string
	Search     string
	Page       int
	Limit      int
}

// CreateTechnicianRequest registers a technician.
type CreateTechnicianRequest struct {
	Username   string  `json:"username" validate:"required,min=2,max=64"`
	Name       string  `json:"name" validate:"required,max=100"`
	Surname    string  `json:"surname" validate:"omitempty,max=100"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Department string  `json:"department" validate:"required,max=100"`
}

// UpdateTechnicianRequest patches technician fields; nil means unchanged.
type UpdateTechnicianRequest struct {
	Username   *string `json:"username" validate:"omitempty,min=2,max=64"`
	Name       *string `json:"name" validate:"omitempty,max=100"`
	Surname    *string `json:"surname" validate:"omitempty,max=100"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Department *string `json:"department" validate:"omitempty,max=100"`
}

// DepartmentStat aggregates technicians and scans for one department.
type DepartmentStat struct {
	Users int `json:"users"`
	Scans int `json:"scans"`
}
