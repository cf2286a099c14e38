package registration

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/godwitcare/godwitcare/internal/platform/apperr"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// normalizeTravelers drops rows without a name or date of birth. The web form
// always posts six rows and leaves unused ones blank.
func normalizeTravelers(in []Traveler) ([]Traveler, error) {
	out := make([]Traveler, 0, len(in))
	for _, t := range in {
		if strings.TrimSpace(t.FullName) == "" || t.DateOfBirth == nil || t.DateOfBirth.IsZero() {
			continue
		}
		out = append(out, t)
	}
	if len(out) > MaxTravelers {
		return nil, apperr.Statusf(apperr.ErrValidation, "at most %d travelers allowed", MaxTravelers)
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, reg *Registration) (*Registration, error) {
	travelers, err := normalizeTravelers(reg.Travelers)
	if err != nil {
		return nil, err
	}
	reg.Travelers = travelers
	reg.EmailAddress = strings.ToLower(strings.TrimSpace(reg.EmailAddress))

	if err := s.repo.Create(ctx, reg); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("registration_id", reg.ID).Str("email", reg.EmailAddress).
		Int("travelers", len(reg.Travelers)).Msg("registration created")
	return reg, nil
}

func (s *Service) Update(ctx context.Context, id int64, reg *Registration) (*Registration, error) {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.Statusf(apperr.ErrNotFound, "registration %d: not found", id)
	}

	travelers, err := normalizeTravelers(reg.Travelers)
	if err != nil {
		return nil, err
	}
	reg.ID = id
	reg.Travelers = travelers
	reg.EmailAddress = strings.ToLower(strings.TrimSpace(reg.EmailAddress))

	if err := s.repo.Update(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Registration, error) {
	return s.repo.GetByID(ctx, id)
}

// LatestByEmail returns the most recent registration for the email, nil when
// none exists.
func (s *Service) LatestByEmail(ctx context.Context, email string) (*Registration, error) {
	return s.repo.LatestByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// Upload attaches a document to the registration. Empty uploads are rejected.
func (s *Service) Upload(ctx context.Context, registrationID int64, fileName, contentType string, data []byte) (*Document, error) {
	exists, err := s.repo.Exists(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.Statusf(apperr.ErrNotFound, "registration %d: not found", registrationID)
	}
	if len(data) == 0 {
		return nil, apperr.Statusf(apperr.ErrValidation, "empty upload")
	}

	if fileName == "" {
		fileName = "upload.bin"
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	d := &Document{
		RegistrationID:   registrationID,
		OriginalFileName: fileName,
		ContentType:      contentType,
		SizeBytes:        int64(len(data)),
		Data:             data,
	}
	if err := s.repo.AddDocument(ctx, d); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("registration_id", registrationID).Int64("document_id", d.ID).
		Int64("size_bytes", d.SizeBytes).Msg("document uploaded")
	return d, nil
}

func (s *Service) Documents(ctx context.Context, registrationID int64) ([]*DocumentMeta, error) {
	exists, err := s.repo.Exists(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.Statusf(apperr.ErrNotFound, "registration %d: not found", registrationID)
	}
	return s.repo.ListDocuments(ctx, registrationID)
}

func (s *Service) Document(ctx context.Context, registrationID, docID int64) (*Document, error) {
	return s.repo.GetDocument(ctx, registrationID, docID)
}
