package artifact

import "time"

// Artifact kinds. Each kind lives in its own table but shares one record
// shape in the domain.
const (
	KindPrescription = "PRESCRIPTION"
	KindReferral     = "REFERRAL"
)

// Artifact is an immutable rendered document plus the patient and clinician
// fingerprints it was issued under. The fingerprints are denormalized at
// issuance time so later consultation edits never change what a stored
// document claims.
type Artifact struct {
	ID             int64
	ConsultationID int64
	Kind           string

	PatientID      string
	PatientName    string
	PatientDOB     string
	PatientPhone   string
	PatientAddress string

	ClinicianName    string
	ClinicianReg     string
	ClinicianAddress string
	ClinicianPhone   string
	ClinicianEmail   string

	// Prescription content. Medicines is newline-joined.
	History         string
	Diagnosis       string
	Medicines       string
	Recommendations string

	// Referral content.
	Body string

	PDFBytes    []byte
	SizeBytes   int64
	FileName    string
	ContentType string
	CreatedAt   time.Time
}
