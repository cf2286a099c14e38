package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/godwitcare/godwitcare/internal/platform/apperr"
	"github.com/godwitcare/godwitcare/internal/platform/auth"
)

// Bootstrap clinician account created by the seed command.
const (
	seedClinicianEmail    = "doctor@godwitcare.com"
	seedClinicianPassword = "demo"
)

type Service struct {
	users  Repository
	logger zerolog.Logger
}

func NewService(users Repository, logger zerolog.Logger) *Service {
	return &Service{users: users, logger: logger}
}

// Register creates a patient account. The email must not already be taken.
func (s *Service) Register(ctx context.Context, firstName, lastName, email, password string) (*User, error) {
	taken, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Statusf(apperr.ErrValidation, "email already registered")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		Role:         auth.RolePatient,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// RegisterClinician creates a clinician account. Conflicts with an existing
// email are rejected rather than silently upgraded.
func (s *Service) RegisterClinician(ctx context.Context, firstName, lastName, email, password string) (*User, error) {
	taken, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Statusf(apperr.ErrConflict, "email already registered")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		Role:         auth.RoleClinician,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate verifies credentials and returns the account. The login handle
// is tried as a username first, then as a case-insensitive email.
func (s *Service) Authenticate(ctx context.Context, login, password string) (*User, error) {
	u, err := s.Resolve(ctx, login)
	if err != nil {
		return nil, apperr.Statusf(apperr.ErrUnauthorized, "invalid credentials")
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, apperr.Statusf(apperr.ErrUnauthorized, "invalid credentials")
	}
	return u, nil
}

// Resolve maps a principal string to an account, username first and
// lowercased email second.
func (s *Service) Resolve(ctx context.Context, principal string) (*User, error) {
	principal = strings.TrimSpace(principal)
	if principal == "" {
		return nil, apperr.Statusf(apperr.ErrUnauthorized, "empty principal")
	}

	u, err := s.users.GetByUsername(ctx, principal)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	return s.users.GetByEmail(ctx, strings.ToLower(principal))
}

// Get returns the account with the given id.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// PrincipalByID satisfies the authentication middleware's principal source.
func (s *Service) PrincipalByID(ctx context.Context, userID int64) (*auth.Principal, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	username := ""
	if u.Username != nil {
		username = *u.Username
	}
	return &auth.Principal{
		UserID:   u.ID,
		Username: username,
		Email:    u.Email,
		Role:     u.Role,
	}, nil
}

// SeedClinician creates the bootstrap clinician account if it does not exist.
func (s *Service) SeedClinician(ctx context.Context) error {
	taken, err := s.users.ExistsByEmail(ctx, seedClinicianEmail)
	if err != nil {
		return err
	}
	if taken {
		s.logger.Info().Str("email", seedClinicianEmail).Msg("clinician account already present")
		return nil
	}

	u, err := s.RegisterClinician(ctx, "Dimitris-Christos", "Zachariades", seedClinicianEmail, seedClinicianPassword)
	if err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", u.ID).Str("email", u.Email).Msg("seeded clinician account")
	return nil
}
