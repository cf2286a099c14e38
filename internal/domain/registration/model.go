package registration

import (
	"fmt"
	"strings"
	"time"
)

// MaxTravelers caps the traveler rows accepted on one registration.
const MaxTravelers = 6

// Date is a calendar date serialized as "2006-01-02". Null and empty JSON
// values decode to the zero Date.
type Date struct{ time.Time }

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", d.Format("2006-01-02"))), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Registration is a travel-health intake form. EmailAddress links it to the
// account that later logs in; there is no hard foreign key because intake
// happens before signup.
type Registration struct {
	ID int64 `json:"id"`

	FirstName                    string `json:"firstName"`
	MiddleName                   string `json:"middleName"`
	LastName                     string `json:"lastName"`
	DateOfBirth                  *Date  `json:"dateOfBirth"`
	Gender                       string `json:"gender"`
	PrimaryWhatsAppNumber        string `json:"primaryWhatsAppNumber"`
	CarerSecondaryWhatsAppNumber string `json:"carerSecondaryWhatsAppNumber"`
	EmailAddress                 string `json:"emailAddress" validate:"required,email"`

	LongTermMedication  *bool `json:"longTermMedication"`
	HealthCondition     *bool `json:"healthCondition"`
	Allergies           *bool `json:"allergies"`
	FitToFlyCertificate *bool `json:"fitToFlyCertificate"`

	TravellingFrom  string `json:"travellingFrom"`
	TravellingTo    string `json:"travellingTo"`
	TravelStartDate *Date  `json:"travelStartDate"`
	TravelEndDate   *Date  `json:"travelEndDate"`
	PackageDays     *int   `json:"packageDays"`

	DocumentFileName string `json:"documentFileName"`

	Travelers []Traveler `json:"travelers"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Traveler is one accompanying traveler row on a registration.
type Traveler struct {
	ID          int64  `json:"id"`
	FullName    string `json:"fullName"`
	DateOfBirth *Date  `json:"dateOfBirth"`
}

// Document is an uploaded identity or medical file attached to a
// registration.
type Document struct {
	ID               int64
	RegistrationID   int64
	OriginalFileName string
	ContentType      string
	SizeBytes        int64
	Data             []byte
	CreatedAt        time.Time
}

// DocumentMeta is the listing shape without the payload.
type DocumentMeta struct {
	ID        int64     `json:"id"`
	FileName  string    `json:"fileName"`
	SizeBytes int64     `json:"sizeBytes"`
	CreatedAt time.Time `json:"createdAt"`
}
