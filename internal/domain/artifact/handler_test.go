package artifact

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/godwitcare/godwitcare/internal/platform/auth"
)

func newTestServer(f *fixture) *echo.Echo {
	e := echo.New()
	NewHandler(f.svc).RegisterRoutes(e.Group("/api"))
	return e
}

func do(e *echo.Echo, p *auth.Principal, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if p != nil {
		req = req.WithContext(auth.WithPrincipal(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

var (
	owner     = &auth.Principal{UserID: 10, Email: "ada@example.com", Role: auth.RolePatient}
	stranger  = &auth.Principal{UserID: 11, Email: "eve@example.com", Role: auth.RolePatient}
	clinician = &auth.Principal{UserID: 7, Email: "doctor@godwitcare.com", Role: auth.RoleClinician}
)

func TestIssuePrescriptionEndpoint(t *testing.T) {
	f := newFixture(t)
	e := newTestServer(f)

	rec := do(e, clinician, http.MethodPost, "/api/doctor/consultations/1/prescriptions",
		`{"history":"Fever","diagnosis":"Malaria","medicines":["Artemether"],"recommendations":"Rest"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["id"] == nil {
		t.Errorf("body = %v, want id", body)
	}
}

func TestIssueReferralEndpoint(t *testing.T) {
	f := newFixture(t)
	e := newTestServer(f)

	rec := do(e, clinician, http.MethodPost, "/api/doctor/consultations/1/referrals",
		`{"paragraph":"Please see this patient."}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var body struct {
		ID     int64  `json:"id"`
		PDFURL string `json:"pdfUrl"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.PDFURL != "/api/doctor/referrals/1/pdf" {
		t.Errorf("pdfUrl = %q", body.PDFURL)
	}
	if got := rec.Header().Get(echo.HeaderLocation); got != body.PDFURL {
		t.Errorf("Location = %q, want %q", got, body.PDFURL)
	}
}

func TestDoctorRoutesRequireClinicianRole(t *testing.T) {
	f := newFixture(t)
	e := newTestServer(f)

	rec := do(e, owner, http.MethodPost, "/api/doctor/consultations/1/referrals", `{"paragraph":"x"}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("patient on doctor route: status = %d, want 403", rec.Code)
	}
	rec = do(e, nil, http.MethodPost, "/api/doctor/consultations/1/referrals", `{"paragraph":"x"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous on doctor route: status = %d, want 401", rec.Code)
	}
}

func TestPDFStreamHeaders(t *testing.T) {
	f := newFixture(t)
	e := newTestServer(f)

	rec := do(e, clinician, http.MethodPost, "/api/doctor/consultations/1/referrals", `{"paragraph":"x"}`)
	if rec.Code != http.StatusCreated {
		t.Fatal(rec.Code)
	}

	rec = do(e, clinician, http.MethodGet, "/api/doctor/referrals/1/pdf", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); cd != `inline; filename="referral.pdf"` {
		t.Errorf("content disposition = %q", cd)
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF-") {
		t.Error("body is not a document")
	}
}

func TestOwnerGatedDownload(t *testing.T) {
	f := newFixture(t)
	e := newTestServer(f)

	rec := do(e, clinician, http.MethodPost, "/api/doctor/consultations/1/referrals", `{"paragraph":"x"}`)
	if rec.Code != http.StatusCreated {
		t.Fatal(rec.Code)
	}

	if rec = do(e, owner, http.MethodGet, "/api/referrals/1/pdf", ""); rec.Code != http.StatusOK {
		t.Errorf("owner download: status = %d", rec.Code)
	}
	if rec = do(e, stranger, http.MethodGet, "/api/referrals/1/pdf", ""); rec.Code != http.StatusForbidden {
		t.Errorf("stranger download: status = %d, want 403", rec.Code)
	}
	if rec = do(e, nil, http.MethodGet, "/api/referrals/1/pdf", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous download: status = %d, want 401", rec.Code)
	}
}

func TestLatestEndpointsNoContent(t *testing.T) {
	f := newFixture(t)
	e := newTestServer(f)

	for _, target := range []string{
		"/api/prescriptions/latest",
		"/api/referrals/latest",
		"/api/care-history/mine",
	} {
		if rec := do(e, owner, http.MethodGet, target, ""); rec.Code != http.StatusNoContent {
			t.Errorf("GET %s = %d, want 204", target, rec.Code)
		}
	}
	for _, target := range []string{
		"/api/doctor/consultations/1/prescriptions/latest",
		"/api/doctor/consultations/1/referrals/latest",
	} {
		if rec := do(e, clinician, http.MethodGet, target, ""); rec.Code != http.StatusNoContent {
			t.Errorf("GET %s = %d, want 204", target, rec.Code)
		}
	}
}

func TestPatientLatestPointsAtPatientRoute(t *testing.T) {
	f := newFixture(t)
	e := newTestServer(f)

	rec := do(e, clinician, http.MethodPost, "/api/doctor/consultations/1/prescriptions",
		`{"diagnosis":"Malaria"}`)
	if rec.Code != http.StatusOK {
		t.Fatal(rec.Code)
	}

	rec = do(e, owner, http.MethodGet, "/api/prescriptions/latest", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body latestMeta
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.PDFURL != "/api/prescriptions/1/pdf" {
		t.Errorf("pdfUrl = %q, want the patient route", body.PDFURL)
	}
	if body.Size == 0 || body.FileName == "" {
		t.Errorf("incomplete meta %+v", body)
	}
}
