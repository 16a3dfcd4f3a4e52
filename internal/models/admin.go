package models

import "time"

// AdminRole represents the roles an administrator account may hold.
type AdminRole string

const (
	RoleAdmin AdminRole = "admin"
)

// AdminAccount is an operator of the back-office stored in admin_accounts.
type AdminAccount struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	Surname      string    `db:"surname" json:"surname"`
	Department   string    `db:"department" json:"department"`
	Role         AdminRole `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// AdminInfo describes the authenticated administrator in responses.
type AdminInfo struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Name       string    `json:"name,omitempty"`
	Surname    string    `json:"surname,omitempty"`
	Department string    `json:"department"`
	Role       AdminRole `json:"role"`
}

// Info projects the account onto its public fields.
func (a *AdminAccount) Info() AdminInfo {
	return AdminInfo{
		ID:         a.ID,
		Username:   a.Username,
		Email:      a.Email,
		Name:       a.Name,
		Surname:    a.Surname,
		Department: a.Department,
		Role:       a.Role,
	}
}
