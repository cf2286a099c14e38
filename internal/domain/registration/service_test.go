package registration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/godwitcare/godwitcare/internal/platform/apperr"
)

type mockRepo struct {
	byID      map[int64]*Registration
	docs      map[int64]*Document
	nextID    int64
	nextDocID int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{byID: map[int64]*Registration{}, docs: map[int64]*Document{}}
}

func (m *mockRepo) Create(_ context.Context, r *Registration) error {
	m.nextID++
	r.ID = m.nextID
	r.CreatedAt = time.Now()
	cp := *r
	m.byID[r.ID] = &cp
	return nil
}

func (m *mockRepo) Update(_ context.Context, r *Registration) error {
	if _, ok := m.byID[r.ID]; !ok {
		return apperr.Statusf(apperr.ErrNotFound, "registration %d", r.ID)
	}
	cp := *r
	m.byID[r.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*Registration, error) {
	r, ok := m.byID[id]
	if !ok {
		return nil, apperr.Statusf(apperr.ErrNotFound, "registration %d", id)
	}
	cp := *r
	return &cp, nil
}

func (m *mockRepo) LatestByEmail(_ context.Context, email string) (*Registration, error) {
	var best *Registration
	for _, r := range m.byID {
		if r.EmailAddress == email && (best == nil || r.ID > best.ID) {
			best = r
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (m *mockRepo) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := m.byID[id]
	return ok, nil
}

func (m *mockRepo) AddDocument(_ context.Context, d *Document) error {
	m.nextDocID++
	d.ID = m.nextDocID
	d.CreatedAt = time.Now()
	cp := *d
	m.docs[d.ID] = &cp
	return nil
}

func (m *mockRepo) ListDocuments(_ context.Context, registrationID int64) ([]*DocumentMeta, error) {
	var out []*DocumentMeta
	for id := m.nextDocID; id > 0; id-- {
		if d, ok := m.docs[id]; ok && d.RegistrationID == registrationID {
			out = append(out, &DocumentMeta{
				ID: d.ID, FileName: d.OriginalFileName,
				SizeBytes: d.SizeBytes, CreatedAt: d.CreatedAt,
			})
		}
	}
	return out, nil
}

func (m *mockRepo) GetDocument(_ context.Context, registrationID, docID int64) (*Document, error) {
	d, ok := m.docs[docID]
	if !ok || d.RegistrationID != registrationID {
		return nil, apperr.Statusf(apperr.ErrNotFound, "document %d", docID)
	}
	cp := *d
	return &cp, nil
}

func date(s string) *Date {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &Date{Time: t}
}

func TestCreateDropsBlankTravelerRows(t *testing.T) {
	svc := NewService(newMockRepo(), zerolog.Nop())

	reg, err := svc.Create(context.Background(), &Registration{
		EmailAddress: "Ada@Example.com",
		Travelers: []Traveler{
			{FullName: "Ada Lovelace", DateOfBirth: date("1990-05-17")},
			{FullName: "   "},
			{FullName: "Charles Babbage"}, // no date of birth
			{DateOfBirth: date("2000-01-01")},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(reg.Travelers) != 1 {
		t.Errorf("travelers = %d, want 1 after dropping blanks", len(reg.Travelers))
	}
	if reg.EmailAddress != "ada@example.com" {
		t.Errorf("email = %q, want lowercased", reg.EmailAddress)
	}
}

func TestCreateCapsTravelers(t *testing.T) {
	svc := NewService(newMockRepo(), zerolog.Nop())

	travelers := make([]Traveler, MaxTravelers+1)
	for i := range travelers {
		travelers[i] = Traveler{FullName: "T", DateOfBirth: date("1990-01-01")}
	}

	_, err := svc.Create(context.Background(), &Registration{
		EmailAddress: "a@b.com",
		Travelers:    travelers,
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error over the cap, got %v", err)
	}
}

func TestUpdateUnknownRegistration(t *testing.T) {
	svc := NewService(newMockRepo(), zerolog.Nop())
	_, err := svc.Update(context.Background(), 42, &Registration{EmailAddress: "a@b.com"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateReplacesTravelers(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())

	reg, err := svc.Create(context.Background(), &Registration{
		EmailAddress: "a@b.com",
		Travelers:    []Traveler{{FullName: "Old", DateOfBirth: date("1980-01-01")}},
	})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.Update(context.Background(), reg.ID, &Registration{
		EmailAddress: "a@b.com",
		Travelers:    []Traveler{{FullName: "New", DateOfBirth: date("1985-01-01")}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(updated.Travelers) != 1 || updated.Travelers[0].FullName != "New" {
		t.Errorf("travelers = %+v", updated.Travelers)
	}
}

func TestLatestByEmail(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())

	got, err := svc.LatestByEmail(context.Background(), "a@b.com")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("expected nil for unknown email, got %+v", got)
	}

	if _, err := svc.Create(context.Background(), &Registration{EmailAddress: "a@b.com", FirstName: "First"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(context.Background(), &Registration{EmailAddress: "a@b.com", FirstName: "Second"}); err != nil {
		t.Fatal(err)
	}

	got, err = svc.LatestByEmail(context.Background(), "A@B.com")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.FirstName != "Second" {
		t.Errorf("latest = %+v, want the second registration", got)
	}
}

func TestUploadValidation(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())

	reg, err := svc.Create(context.Background(), &Registration{EmailAddress: "a@b.com"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Upload(context.Background(), 99, "f.pdf", "application/pdf", []byte("x")); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown registration: got %v", err)
	}
	if _, err := svc.Upload(context.Background(), reg.ID, "f.pdf", "application/pdf", nil); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("empty upload: got %v", err)
	}

	d, err := svc.Upload(context.Background(), reg.ID, "", "", []byte("content"))
	if err != nil {
		t.Fatal(err)
	}
	if d.OriginalFileName != "upload.bin" || d.ContentType != "application/octet-stream" {
		t.Errorf("defaults not applied: %q %q", d.OriginalFileName, d.ContentType)
	}
	if d.SizeBytes != int64(len("content")) {
		t.Errorf("size = %d", d.SizeBytes)
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := date("1990-05-17")
	b, err := d.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"1990-05-17"` {
		t.Errorf("marshal = %s", b)
	}

	var back Date
	if err := back.UnmarshalJSON(b); err != nil {
		t.Fatal(err)
	}
	if !back.Equal(d.Time) {
		t.Errorf("round trip = %v, want %v", back, d)
	}

	var null Date
	if err := null.UnmarshalJSON([]byte("null")); err != nil {
		t.Fatal(err)
	}
	if !null.IsZero() {
		t.Errorf("null should decode to zero, got %v", null)
	}

	if err := back.UnmarshalJSON([]byte(`"17/05/1990"`)); err == nil {
		t.Error("expected error for non-ISO date")
	}
}
