package consultation

import (
	"time"
)

// Consultation lifecycle. Status only ever advances; a prescription issuance
// forces COMPLETED from any state.
const (
	StatusPending    = "PENDING"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
)

// ValidStatus reports whether s names a known lifecycle state.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Consultation is one questionnaire submission by a patient. The contact
// fields are denormalized from the form rather than the account so the
// clinician sees exactly what the patient entered. PatientID, UserID, and
// CreatedAt never change after creation; Version guards concurrent writes.
type Consultation struct {
	ID                int64             `json:"id"`
	UserID            int64             `json:"-"`
	PatientID         string            `json:"patientId"`
	CurrentLocation   string            `json:"currentLocation"`
	ContactName       string            `json:"contactName"`
	ContactPhone      string            `json:"contactPhone"`
	ContactAddress    string            `json:"contactAddress"`
	DOB               *time.Time        `json:"-"`
	Answers           map[string]string `json:"answers"`
	DetailsByQuestion map[string]string `json:"detailsByQuestion"`
	Status            string            `json:"status"`
	Version           int64             `json:"-"`
	CreatedAt         time.Time         `json:"createdAt"`
}

// DOBString renders the date of birth as an ISO date, empty when unset.
func (c *Consultation) DOBString() string {
	if c.DOB == nil {
		return ""
	}
	return c.DOB.Format("2006-01-02")
}

// Summary is one row of the clinician's worklist.
type Summary struct {
	ID           int64     `json:"id"`
	PatientEmail *string   `json:"patientEmail"`
	PatientName  string    `json:"patientName"`
	CreatedAt    time.Time `json:"createdAt"`
	Status       string    `json:"status"`
}
