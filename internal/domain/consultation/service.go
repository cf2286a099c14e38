package consultation

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/godwitcare/godwitcare/internal/platform/apperr"
)

// Attempts at minting an unused patient identifier before giving up.
const patientIDAttempts = 5

type Service struct {
	repo   Repository
	logger zerolog.Logger

	// newPatientID is swapped out in tests for a deterministic generator.
	newPatientID func() string
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger, newPatientID: randomPatientID}
}

func randomPatientID() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000_000))
	if err != nil {
		panic(fmt.Sprintf("consultation: read random: %v", err))
	}
	return fmt.Sprintf("PV-%09d", n.Int64())
}

// SubmitInput carries the questionnaire form. Absent string fields arrive as
// "" and are stored as such.
type SubmitInput struct {
	CurrentLocation   string            `json:"currentLocation"`
	ContactName       string            `json:"contactName"`
	ContactPhone      string            `json:"contactPhone"`
	ContactAddress    string            `json:"contactAddress"`
	DOB               string            `json:"dob"`
	Answers           map[string]string `json:"answers"`
	DetailsByQuestion map[string]string `json:"detailsByQuestion"`
}

// EditInput overwrites a consultation. Nil string pointers keep the stored
// value; nil maps overwrite with an empty map, matching the submit form which
// always resends both in full.
type EditInput struct {
	CurrentLocation   *string           `json:"currentLocation"`
	ContactName       *string           `json:"contactName"`
	ContactPhone      *string           `json:"contactPhone"`
	ContactAddress    *string           `json:"contactAddress"`
	DOB               string            `json:"dob"`
	Answers           map[string]string `json:"answers"`
	DetailsByQuestion map[string]string `json:"detailsByQuestion"`
}

// parseDOB accepts an ISO date. Blank or unparseable input yields nil so a
// typo in the date never rejects the whole form.
func parseDOB(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

// Submit records a new consultation for the user with a freshly minted
// patient identifier.
func (s *Service) Submit(ctx context.Context, userID int64, in SubmitInput) (*Consultation, error) {
	patientID, err := s.mintPatientID(ctx)
	if err != nil {
		return nil, err
	}

	c := &Consultation{
		UserID:            userID,
		PatientID:         patientID,
		CurrentLocation:   in.CurrentLocation,
		ContactName:       in.ContactName,
		ContactPhone:      in.ContactPhone,
		ContactAddress:    in.ContactAddress,
		DOB:               parseDOB(in.DOB),
		Answers:           in.Answers,
		DetailsByQuestion: in.DetailsByQuestion,
		Status:            StatusPending,
	}
	if c.Answers == nil {
		c.Answers = map[string]string{}
	}
	if c.DetailsByQuestion == nil {
		c.DetailsByQuestion = map[string]string{}
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("consultation_id", c.ID).Str("patient_id", c.PatientID).
		Msg("consultation submitted")
	return c, nil
}

func (s *Service) mintPatientID(ctx context.Context) (string, error) {
	for i := 0; i < patientIDAttempts; i++ {
		id := s.newPatientID()
		taken, err := s.repo.ExistsPatientID(ctx, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}
	return "", apperr.Statusf(apperr.ErrConflict, "could not allocate patient id")
}

// GetOwn returns the consultation only when the caller owns it.
func (s *Service) GetOwn(ctx context.Context, userID, id int64) (*Consultation, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, apperr.Statusf(apperr.ErrForbidden, "consultation %d: not owned by caller", id)
	}
	return c, nil
}

// LatestMine returns the caller's most recent consultation, nil when they
// have none.
func (s *Service) LatestMine(ctx context.Context, userID int64) (*Consultation, error) {
	return s.repo.LatestForUser(ctx, userID)
}

// EditOwn overwrites the caller's consultation. The stored version must still
// match and the consultation must not be COMPLETED.
func (s *Service) EditOwn(ctx context.Context, userID, id int64, in EditInput) (*Consultation, error) {
	c, err := s.GetOwn(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if c.Status == StatusCompleted {
		return nil, apperr.Statusf(apperr.ErrState, "consultation %d: already completed", id)
	}

	if in.CurrentLocation != nil {
		c.CurrentLocation = *in.CurrentLocation
	}
	if in.ContactName != nil {
		c.ContactName = *in.ContactName
	}
	if in.ContactPhone != nil {
		c.ContactPhone = *in.ContactPhone
	}
	if in.ContactAddress != nil {
		c.ContactAddress = *in.ContactAddress
	}
	if dob := parseDOB(in.DOB); dob != nil {
		c.DOB = dob
	}
	c.Answers = in.Answers
	c.DetailsByQuestion = in.DetailsByQuestion
	if c.Answers == nil {
		c.Answers = map[string]string{}
	}
	if c.DetailsByQuestion == nil {
		c.DetailsByQuestion = map[string]string{}
	}

	written, err := s.repo.UpdateMutable(ctx, c)
	if err != nil {
		return nil, err
	}
	if !written {
		// Distinguish "completed under us" from a plain concurrent edit.
		cur, rerr := s.repo.GetByID(ctx, id)
		if rerr == nil && cur.Status == StatusCompleted {
			return nil, apperr.Statusf(apperr.ErrState, "consultation %d: already completed", id)
		}
		return nil, apperr.Statusf(apperr.ErrConflict, "consultation %d: concurrent modification", id)
	}
	c.Version++
	return c, nil
}

// ListForClinician returns the worklist. Unknown status filters fall back to
// all rows rather than erroring.
func (s *Service) ListForClinician(ctx context.Context, status string) ([]*Summary, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	if status == "" || status == "ALL" || !ValidStatus(status) {
		status = ""
	}
	return s.repo.List(ctx, status)
}

// Detail returns any consultation by id for clinician review.
func (s *Service) Detail(ctx context.Context, id int64) (*Consultation, error) {
	return s.repo.GetByID(ctx, id)
}

// Complete forces the consultation to COMPLETED. Issuing a prescription
// calls this inside the same transaction that stores the document.
func (s *Service) Complete(ctx context.Context, id int64) error {
	return s.repo.SetStatus(ctx, id, StatusCompleted)
}

// MarkInProgress moves a PENDING consultation forward when a clinician opens
// it. The advance is a single conditional write, so a completion landing
// concurrently can never be walked back. Reports whether the row advanced.
func (s *Service) MarkInProgress(ctx context.Context, id int64) (bool, error) {
	return s.repo.AdvanceToInProgress(ctx, id)
}
