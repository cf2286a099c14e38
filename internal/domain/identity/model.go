package identity

import (
	"time"
)

// User is an account in the system. Patients self-register; clinician
// accounts are provisioned through the clinician registration endpoint or the
// seed command. Username is optional and only set for provisioned accounts;
// self-registered patients authenticate with their email.
type User struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	Username     *string   `json:"username,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserDTO is the account shape returned by the auth endpoints.
type UserDTO struct {
	ID        int64    `json:"id"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
}

func (u *User) DTO() UserDTO {
	return UserDTO{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Roles:     []string{u.Role},
	}
}
