package artifact

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/godwitcare/godwitcare/internal/config"
	"github.com/godwitcare/godwitcare/internal/domain/consultation"
	"github.com/godwitcare/godwitcare/internal/domain/identity"
	"github.com/godwitcare/godwitcare/internal/platform/apperr"
	"github.com/godwitcare/godwitcare/internal/platform/pdf"
)

// TxRunner runs a function inside one database transaction. Satisfied by
// db.TxManager.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	artifacts     Repository
	consultations consultation.Repository
	users         identity.Repository
	renderer      *pdf.Renderer
	clinician     config.Clinician
	tx            TxRunner
	logger        zerolog.Logger
	now           func() time.Time
}

func NewService(
	artifacts Repository,
	consultations consultation.Repository,
	users identity.Repository,
	renderer *pdf.Renderer,
	clinician config.Clinician,
	tx TxRunner,
	logger zerolog.Logger,
) *Service {
	return &Service{
		artifacts:     artifacts,
		consultations: consultations,
		users:         users,
		renderer:      renderer,
		clinician:     clinician,
		tx:            tx,
		logger:        logger,
		now:           time.Now,
	}
}

// PrescriptionInput is the clinician's prescription form.
type PrescriptionInput struct {
	History         string   `json:"history"`
	Diagnosis       string   `json:"diagnosis"`
	Medicines       []string `json:"medicines"`
	Recommendations string   `json:"recommendations"`
}

func (s *Service) clinicianInfo() pdf.ClinicianInfo {
	return pdf.ClinicianInfo{
		Name:         s.clinician.Name,
		Registration: s.clinician.Registration,
		Address:      s.clinician.Address,
		Phone:        s.clinician.Phone,
		Email:        s.clinician.Email,
	}
}

// patientInfo snapshots the consultation's contact fields. A blank contact
// name falls back to the owning account's name.
func (s *Service) patientInfo(ctx context.Context, c *consultation.Consultation) pdf.PatientInfo {
	name := strings.TrimSpace(c.ContactName)
	if name == "" {
		if u, err := s.users.GetByID(ctx, c.UserID); err == nil {
			name = strings.TrimSpace(u.FirstName + " " + u.LastName)
		}
	}
	return pdf.PatientInfo{
		Name:      name,
		DOB:       c.DOBString(),
		Phone:     c.ContactPhone,
		PatientID: c.PatientID,
		Address:   c.ContactAddress,
	}
}

// IssuePrescription renders and stores a prescription for the consultation
// and forces the consultation to COMPLETED. The store write and the status
// transition commit together: if either fails the consultation keeps its
// prior status and no artifact becomes visible.
func (s *Service) IssuePrescription(ctx context.Context, consultationID int64, in PrescriptionInput) (*Artifact, error) {
	c, err := s.consultations.GetByID(ctx, consultationID)
	if err != nil {
		return nil, err
	}

	patient := s.patientInfo(ctx, c)
	bytes, err := s.renderer.RenderPrescription(ctx, pdf.Prescription{
		Patient:         patient,
		Clinician:       s.clinicianInfo(),
		Diagnosis:       in.Diagnosis,
		History:         in.History,
		Medicines:       in.Medicines,
		Recommendations: in.Recommendations,
	})
	if err != nil {
		return nil, err
	}

	a := &Artifact{
		ConsultationID:  c.ID,
		Kind:            KindPrescription,
		PatientID:       c.PatientID,
		PatientName:     patient.Name,
		PatientDOB:      c.DOBString(),
		PatientPhone:    c.ContactPhone,
		PatientAddress:  c.ContactAddress,
		History:         in.History,
		Diagnosis:       in.Diagnosis,
		Medicines:       strings.Join(in.Medicines, "\n"),
		Recommendations: in.Recommendations,
		PDFBytes:        bytes,
		SizeBytes:       int64(len(bytes)),
		FileName:        fmt.Sprintf("prescription-%d.pdf", s.now().UnixMilli()),
		ContentType:     "application/pdf",
	}
	s.stampClinician(a)

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.artifacts.Create(ctx, a); err != nil {
			return err
		}
		return s.consultations.SetStatus(ctx, c.ID, consultation.StatusCompleted)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("consultation_id", c.ID).Int64("prescription_id", a.ID).
		Int64("size_bytes", a.SizeBytes).Msg("prescription issued")
	return a, nil
}

// IssueReferral renders and stores a referral letter. Referrals do not move
// the consultation's lifecycle state.
func (s *Service) IssueReferral(ctx context.Context, consultationID int64, paragraph string) (*Artifact, error) {
	c, err := s.consultations.GetByID(ctx, consultationID)
	if err != nil {
		return nil, err
	}

	patient := s.patientInfo(ctx, c)
	bytes, err := s.renderer.RenderReferral(ctx, pdf.Referral{
		Patient:   patient,
		Clinician: s.clinicianInfo(),
		Body:      strings.TrimSpace(paragraph),
	})
	if err != nil {
		return nil, err
	}

	a := &Artifact{
		ConsultationID: c.ID,
		Kind:           KindReferral,
		PatientID:      c.PatientID,
		PatientName:    patient.Name,
		PatientDOB:     c.DOBString(),
		PatientPhone:   c.ContactPhone,
		PatientAddress: c.ContactAddress,
		Body:           strings.TrimSpace(paragraph),
		PDFBytes:       bytes,
		SizeBytes:      int64(len(bytes)),
		FileName:       "referral.pdf",
		ContentType:    "application/pdf",
	}
	s.stampClinician(a)

	if err := s.artifacts.Create(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("consultation_id", c.ID).Int64("referral_id", a.ID).
		Int64("size_bytes", a.SizeBytes).Msg("referral issued")
	return a, nil
}

func (s *Service) stampClinician(a *Artifact) {
	a.ClinicianName = s.clinician.Name
	a.ClinicianReg = s.clinician.Registration
	a.ClinicianAddress = s.clinician.Address
	a.ClinicianPhone = s.clinician.Phone
	a.ClinicianEmail = s.clinician.Email
}

// ListForConsultation returns every artifact of the kind issued for a
// consultation, newest first.
func (s *Service) ListForConsultation(ctx context.Context, kind string, consultationID int64) ([]*Artifact, error) {
	return s.artifacts.ListForConsultation(ctx, kind, consultationID)
}

// LatestForConsultation returns the newest artifact of the kind for a
// consultation, nil when none exists.
func (s *Service) LatestForConsultation(ctx context.Context, kind string, consultationID int64) (*Artifact, error) {
	return s.artifacts.LatestForConsultation(ctx, kind, consultationID)
}

// LatestForUser returns the user's newest artifact of the kind, nil when none
// exists.
func (s *Service) LatestForUser(ctx context.Context, kind string, userID int64) (*Artifact, error) {
	return s.artifacts.LatestForUser(ctx, kind, userID)
}

// Download returns the artifact for the clinician path. Missing payloads read
// as not found.
func (s *Service) Download(ctx context.Context, kind string, id int64) (*Artifact, error) {
	a, err := s.artifacts.GetByID(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if len(a.PDFBytes) == 0 {
		return nil, apperr.Statusf(apperr.ErrNotFound, "artifact %d: no payload", id)
	}
	return a, nil
}

// DownloadOwned returns the artifact only when the requesting user owns the
// consultation it was issued against.
func (s *Service) DownloadOwned(ctx context.Context, kind string, id, userID int64) (*Artifact, error) {
	a, err := s.artifacts.GetByID(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	c, err := s.consultations.GetByID(ctx, a.ConsultationID)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, apperr.Statusf(apperr.ErrForbidden, "artifact %d: not owned by caller", id)
	}
	if len(a.PDFBytes) == 0 {
		return nil, apperr.Statusf(apperr.ErrNotFound, "artifact %d: no payload", id)
	}
	return a, nil
}

// CareHistoryItem is one prescription-bearing consultation in the patient's
// timeline.
type CareHistoryItem struct {
	ConsultationID       int64     `json:"consultationId"`
	Date                 time.Time `json:"date"`
	LocationTravellingTo string    `json:"locationTravellingTo"`
	PresentingComplaint  string    `json:"presentingComplaint"`
	Diagnosis            string    `json:"diagnosis"`
	Medicines            string    `json:"medicines"`
	Recommendations      string    `json:"recommendations"`
}

// CareHistoryPatient is the header block sourced from the most recent
// consultation.
type CareHistoryPatient struct {
	Name      string `json:"name"`
	PatientID string `json:"patientId"`
	DOB       string `json:"dob"`
}

type CareHistory struct {
	Patient CareHistoryPatient `json:"patient"`
	Items   []CareHistoryItem  `json:"items"`
}

// CareHistoryFor builds the patient's timeline of prescription-bearing
// consultations, newest first. Returns nil when the patient has no
// consultations or none carry a prescription yet.
func (s *Service) CareHistoryFor(ctx context.Context, userID int64) (*CareHistory, error) {
	list, err := s.consultations.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	latest := list[0]
	out := &CareHistory{
		Patient: CareHistoryPatient{
			Name:      latest.ContactName,
			PatientID: latest.PatientID,
			DOB:       latest.DOBString(),
		},
	}

	for _, c := range list {
		rx, err := s.artifacts.LatestForConsultation(ctx, KindPrescription, c.ID)
		if err != nil {
			return nil, err
		}
		if rx == nil {
			continue
		}
		out.Items = append(out.Items, CareHistoryItem{
			ConsultationID:       c.ID,
			Date:                 c.CreatedAt,
			LocationTravellingTo: c.CurrentLocation,
			PresentingComplaint:  rx.History,
			Diagnosis:            rx.Diagnosis,
			Medicines:            rx.Medicines,
			Recommendations:      rx.Recommendations,
		})
	}
	if len(out.Items) == 0 {
		return nil, nil
	}
	return out, nil
}
