package consultation

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/godwitcare/godwitcare/internal/platform/apperr"
)

type mockRepo struct {
	byID   map[int64]*Consultation
	nextID int64

	// beforeUpdate runs inside UpdateMutable before the version check,
	// simulating a writer that slips in between a read and the update.
	beforeUpdate func()
	// beforeAdvance does the same for AdvanceToInProgress.
	beforeAdvance func()
}

func newMockRepo() *mockRepo {
	return &mockRepo{byID: map[int64]*Consultation{}}
}

func (m *mockRepo) Create(_ context.Context, c *Consultation) error {
	m.nextID++
	c.ID = m.nextID
	c.Version = 0
	c.CreatedAt = time.Now()
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*Consultation, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, apperr.Statusf(apperr.ErrNotFound, "consultation %d", id)
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepo) LatestForUser(_ context.Context, userID int64) (*Consultation, error) {
	var best *Consultation
	for _, c := range m.byID {
		if c.UserID == userID && (best == nil || c.ID > best.ID) {
			best = c
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (m *mockRepo) ListForUser(_ context.Context, userID int64) ([]*Consultation, error) {
	var out []*Consultation
	for id := m.nextID; id > 0; id-- {
		if c, ok := m.byID[id]; ok && c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRepo) List(_ context.Context, status string) ([]*Summary, error) {
	var out []*Summary
	for id := m.nextID; id > 0; id-- {
		c, ok := m.byID[id]
		if !ok || (status != "" && c.Status != status) {
			continue
		}
		out = append(out, &Summary{
			ID:          c.ID,
			PatientName: c.ContactName,
			CreatedAt:   c.CreatedAt,
			Status:      c.Status,
		})
	}
	return out, nil
}

func (m *mockRepo) UpdateMutable(_ context.Context, c *Consultation) (bool, error) {
	if m.beforeUpdate != nil {
		m.beforeUpdate()
		m.beforeUpdate = nil
	}
	cur, ok := m.byID[c.ID]
	if !ok || cur.Version != c.Version || cur.Status == StatusCompleted {
		return false, nil
	}
	cp := *c
	cp.Version = cur.Version + 1
	cp.Status = cur.Status
	m.byID[c.ID] = &cp
	return true, nil
}

func (m *mockRepo) SetStatus(_ context.Context, id int64, status string) error {
	c, ok := m.byID[id]
	if !ok {
		return apperr.Statusf(apperr.ErrNotFound, "consultation %d", id)
	}
	c.Status = status
	c.Version++
	return nil
}

func (m *mockRepo) AdvanceToInProgress(_ context.Context, id int64) (bool, error) {
	if m.beforeAdvance != nil {
		hook := m.beforeAdvance
		m.beforeAdvance = nil
		hook()
	}
	c, ok := m.byID[id]
	if !ok || c.Status != StatusPending {
		return false, nil
	}
	c.Status = StatusInProgress
	c.Version++
	return true, nil
}

func (m *mockRepo) ExistsPatientID(_ context.Context, patientID string) (bool, error) {
	for _, c := range m.byID {
		if c.PatientID == patientID {
			return true, nil
		}
	}
	return false, nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, zerolog.Nop())
}

func TestSubmitAssignsPatientID(t *testing.T) {
	svc := newTestService(newMockRepo())

	c, err := svc.Submit(context.Background(), 1, SubmitInput{ContactName: "Ada"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !regexp.MustCompile(`^PV-\d{9}$`).MatchString(c.PatientID) {
		t.Errorf("patient id %q does not match PV-ddddddddd", c.PatientID)
	}
	if c.Status != StatusPending {
		t.Errorf("new consultation status = %q, want %q", c.Status, StatusPending)
	}
	if c.Answers == nil || c.DetailsByQuestion == nil {
		t.Error("nil questionnaire maps were not defaulted")
	}
}

func TestSubmitRetriesOnPatientIDCollision(t *testing.T) {
	repo := newMockRepo()
	taken := &Consultation{UserID: 9, PatientID: "PV-000000001", Status: StatusPending}
	if err := repo.Create(context.Background(), taken); err != nil {
		t.Fatal(err)
	}

	svc := newTestService(repo)
	ids := []string{"PV-000000001", "PV-000000001", "PV-000000002"}
	svc.newPatientID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	c, err := svc.Submit(context.Background(), 1, SubmitInput{})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if c.PatientID != "PV-000000002" {
		t.Errorf("patient id = %q, want the first free one", c.PatientID)
	}
}

func TestSubmitGivesUpAfterRepeatedCollisions(t *testing.T) {
	repo := newMockRepo()
	taken := &Consultation{UserID: 9, PatientID: "PV-000000001", Status: StatusPending}
	if err := repo.Create(context.Background(), taken); err != nil {
		t.Fatal(err)
	}

	svc := newTestService(repo)
	svc.newPatientID = func() string { return "PV-000000001" }

	_, err := svc.Submit(context.Background(), 1, SubmitInput{})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected ErrConflict after exhausting attempts, got %v", err)
	}
}

func TestSubmitDOBTolerance(t *testing.T) {
	svc := newTestService(newMockRepo())

	c, err := svc.Submit(context.Background(), 1, SubmitInput{DOB: "not-a-date"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if c.DOB != nil {
		t.Errorf("unparseable dob should be dropped, got %v", c.DOB)
	}

	c, err = svc.Submit(context.Background(), 1, SubmitInput{DOB: "1990-05-17"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if c.DOBString() != "1990-05-17" {
		t.Errorf("dob = %q, want 1990-05-17", c.DOBString())
	}
}

func TestGetOwnEnforcesOwnership(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	c, err := svc.Submit(context.Background(), 1, SubmitInput{})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.GetOwn(context.Background(), 2, c.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("other user's read should be forbidden, got %v", err)
	}
	if _, err := svc.GetOwn(context.Background(), 1, c.ID); err != nil {
		t.Errorf("owner's read failed: %v", err)
	}
	if _, err := svc.GetOwn(context.Background(), 1, 999); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing id should be not found, got %v", err)
	}
}

func TestLatestMineNilWhenNone(t *testing.T) {
	svc := newTestService(newMockRepo())
	c, err := svc.LatestMine(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if c != nil {
		t.Errorf("expected nil, got %+v", c)
	}
}

func TestEditOwnOverwrites(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	c, err := svc.Submit(context.Background(), 1, SubmitInput{
		ContactName: "Ada",
		DOB:         "1990-05-17",
		Answers:     map[string]string{"q1": "Yes"},
	})
	if err != nil {
		t.Fatal(err)
	}

	name := "Ada Lovelace"
	got, err := svc.EditOwn(context.Background(), 1, c.ID, EditInput{
		ContactName: &name,
		DOB:         "bogus",
		Answers:     map[string]string{"q2": "No"},
	})
	if err != nil {
		t.Fatalf("EditOwn: %v", err)
	}
	if got.ContactName != "Ada Lovelace" {
		t.Errorf("contact name = %q", got.ContactName)
	}
	if got.DOBString() != "1990-05-17" {
		t.Errorf("bogus dob should keep the stored value, got %q", got.DOBString())
	}
	if _, ok := got.Answers["q1"]; ok {
		t.Error("answers should be replaced wholesale, old key survived")
	}
	if got.Answers["q2"] != "No" {
		t.Errorf("answers = %v", got.Answers)
	}

	stored, err := repo.GetByID(context.Background(), c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Version != c.Version+1 {
		t.Errorf("version = %d, want %d", stored.Version, c.Version+1)
	}
}

func TestEditOwnRejectsCompleted(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	c, err := svc.Submit(context.Background(), 1, SubmitInput{})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Complete(context.Background(), c.ID); err != nil {
		t.Fatal(err)
	}

	_, err = svc.EditOwn(context.Background(), 1, c.ID, EditInput{})
	if !errors.Is(err, apperr.ErrState) {
		t.Fatalf("editing a completed consultation should fail with ErrState, got %v", err)
	}
}

func TestEditOwnStaleVersionConflict(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	c, err := svc.Submit(context.Background(), 1, SubmitInput{})
	if err != nil {
		t.Fatal(err)
	}
	// Another writer bumps the version between our read and write.
	repo.beforeUpdate = func() { repo.byID[c.ID].Version++ }

	_, err = svc.EditOwn(context.Background(), 1, c.ID, EditInput{})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("stale version should fail with ErrConflict, got %v", err)
	}
}

func TestEditOwnCompletedUnderneathIsState(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	c, err := svc.Submit(context.Background(), 1, SubmitInput{})
	if err != nil {
		t.Fatal(err)
	}
	// A prescription lands between our read and write, leaving the
	// consultation terminal.
	repo.beforeUpdate = func() {
		repo.byID[c.ID].Version++
		repo.byID[c.ID].Status = StatusCompleted
	}

	_, err = svc.EditOwn(context.Background(), 1, c.ID, EditInput{})
	if !errors.Is(err, apperr.ErrState) {
		t.Fatalf("completion racing an edit should surface ErrState, got %v", err)
	}
}

func TestListForClinicianStatusCoercion(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	for i := 0; i < 3; i++ {
		if _, err := svc.Submit(context.Background(), int64(i+1), SubmitInput{ContactName: fmt.Sprintf("p%d", i)}); err != nil {
			t.Fatal(err)
		}
	}
	if err := svc.Complete(context.Background(), 2); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		filter string
		want   int
	}{
		{"", 3},
		{"ALL", 3},
		{"all", 3},
		{"bogus", 3},
		{"PENDING", 2},
		{"pending", 2},
		{"COMPLETED", 1},
	}
	for _, tc := range cases {
		rows, err := svc.ListForClinician(context.Background(), tc.filter)
		if err != nil {
			t.Fatalf("List(%q): %v", tc.filter, err)
		}
		if len(rows) != tc.want {
			t.Errorf("List(%q) returned %d rows, want %d", tc.filter, len(rows), tc.want)
		}
	}
}

func TestMarkInProgressOnlyFromPending(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	c, err := svc.Submit(context.Background(), 1, SubmitInput{})
	if err != nil {
		t.Fatal(err)
	}

	advanced, err := svc.MarkInProgress(context.Background(), c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !advanced {
		t.Error("expected pending consultation to advance")
	}
	got, _ := repo.GetByID(context.Background(), c.ID)
	if got.Status != StatusInProgress {
		t.Errorf("status = %q, want %q", got.Status, StatusInProgress)
	}

	if err := svc.Complete(context.Background(), c.ID); err != nil {
		t.Fatal(err)
	}
	advanced, err = svc.MarkInProgress(context.Background(), c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if advanced {
		t.Error("completed consultation must not report an advance")
	}
	got, _ = repo.GetByID(context.Background(), c.ID)
	if got.Status != StatusCompleted {
		t.Errorf("completed consultation must not move back, got %q", got.Status)
	}
}

func TestMarkInProgressLosesRaceToCompletion(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	c, err := svc.Submit(context.Background(), 1, SubmitInput{})
	if err != nil {
		t.Fatal(err)
	}

	// A prescription issuance commits COMPLETED just before the advance
	// writes. The conditional write must not walk the status back.
	repo.beforeAdvance = func() {
		if err := svc.Complete(context.Background(), c.ID); err != nil {
			t.Fatal(err)
		}
	}

	advanced, err := svc.MarkInProgress(context.Background(), c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if advanced {
		t.Error("advance must lose against a concurrent completion")
	}
	got, _ := repo.GetByID(context.Background(), c.ID)
	if got.Status != StatusCompleted {
		t.Errorf("status = %q, want %q", got.Status, StatusCompleted)
	}
}
