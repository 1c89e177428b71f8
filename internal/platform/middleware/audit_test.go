package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/chartnote/chartnote/internal/platform/auth"
)

// mockRecorder collects audit entries for assertions.
type mockRecorder struct {
	mu      sync.Mutex
	entries []AuditEntry
	err     error // if set, RecordAccess returns this error
}

func (m *mockRecorder) RecordAccess(entry AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return m.err
}

func (m *mockRecorder) last() AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[len(m.entries)-1]
}

func (m *mockRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// newTestContext creates an echo context with optional request mutations.
func newTestContext(method, path string, opts ...func(*http.Request)) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

func withAuth(userID string, roles []string) func(*http.Request) {
	return func(req *http.Request) {
		ctx := req.Context()
		ctx = context.WithValue(ctx, auth.UserIDKey, userID)
		ctx = context.WithValue(ctx, auth.UserRolesKey, roles)
		*req = *req.WithContext(ctx)
	}
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func TestAudit_ChartRead(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	rec := &mockRecorder{}
	chartID := uuid.New().String()

	c, _ := newTestContext(http.MethodGet, "/api/v1/charts/"+chartID,
		withAuth("dr-jones", []string{"physician"}))
	c.Set("request_id", "req-1")

	h := Audit(logger, rec)(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.count() != 1 {
		t.Fatalf("expected 1 entry, got %d", rec.count())
	}
	entry := rec.last()
	if entry.UserID != "dr-jones" {
		t.Errorf("expected user dr-jones, got %s", entry.UserID)
	}
	if entry.ResourceType != "charts" {
		t.Errorf("expected resource charts, got %s", entry.ResourceType)
	}
	if entry.Action != "read" {
		t.Errorf("expected action read, got %s", entry.Action)
	}
	if entry.RequestID != "req-1" {
		t.Errorf("expected request id req-1, got %s", entry.RequestID)
	}
	if entry.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", entry.StatusCode)
	}
}

func TestAudit_ItemCreate(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	rec := &mockRecorder{}

	c, _ := newTestContext(http.MethodPost, "/api/v1/chart-items",
		withAuth("nurse-1", []string{"nurse"}))

	h := Audit(logger, rec)(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry := rec.last()
	if entry.Action != "create" {
		t.Errorf("expected action create, got %s", entry.Action)
	}
	if entry.ResourceType != "chart-items" {
		t.Errorf("expected resource chart-items, got %s", entry.ResourceType)
	}
}

func TestAudit_DeleteAction(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	rec := &mockRecorder{}

	c, _ := newTestContext(http.MethodDelete, "/api/v1/chart-items/"+uuid.New().String(),
		withAuth("dr-jones", []string{"physician"}))

	h := Audit(logger, rec)(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.last().Action != "delete" {
		t.Errorf("expected action delete, got %s", rec.last().Action)
	}
}

func TestAudit_SkipsNonAuditablePaths(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	rec := &mockRecorder{}

	c, _ := newTestContext(http.MethodGet, "/health")

	h := Audit(logger, rec)(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.count() != 0 {
		t.Errorf("expected no entries for /health, got %d", rec.count())
	}
}

func TestAudit_RecorderError_DoesNotBreakRequest(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	rec := &mockRecorder{err: errors.New("store unavailable")}

	c, _ := newTestContext(http.MethodGet, "/api/v1/charts")

	h := Audit(logger, rec)(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("recorder error must not fail the request: %v", err)
	}
}

func TestAudit_NoRecorder_LogOnly(t *testing.T) {
	logger := zerolog.New(os.Stderr)

	c, _ := newTestContext(http.MethodGet, "/api/v1/charts")

	h := Audit(logger)(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAudit_PatientIDFromQuery(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	rec := &mockRecorder{}
	pid := uuid.New().String()

	c, _ := newTestContext(http.MethodGet, "/api/v1/charts?patient_id="+pid)

	h := Audit(logger, rec)(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.last().PatientID != pid {
		t.Errorf("expected patient id %s, got %s", pid, rec.last().PatientID)
	}
}

func TestAudit_CapturesIPAndUserAgent(t *testing.T) {
	logger := zerolog.New(os.Stderr)
	rec := &mockRecorder{}

	c, _ := newTestContext(http.MethodGet, "/api/v1/charts", func(req *http.Request) {
		req.Header.Set("User-Agent", "chartnote-client/1.0")
	})

	h := Audit(logger, rec)(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry := rec.last()
	if entry.UserAgent != "chartnote-client/1.0" {
		t.Errorf("expected user agent, got %s", entry.UserAgent)
	}
	if entry.IPAddress == "" {
		t.Error("expected an IP address")
	}
}

func TestIsAuditablePath(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"/api/v1/charts", true},
		{"/api/v1/chart-items/123", true},
		{"/health", false},
		{"/health/db", false},
		{"/", false},
	}
	for _, tc := range cases {
		if got := isAuditablePath(tc.path); got != tc.want {
			t.Errorf("isAuditablePath(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestHttpMethodToAction(t *testing.T) {
	cases := map[string]string{
		http.MethodGet:    "read",
		http.MethodHead:   "read",
		http.MethodPost:   "create",
		http.MethodPut:    "update",
		http.MethodPatch:  "update",
		http.MethodDelete: "delete",
		"OPTIONS":         "read",
	}
	for method, want := range cases {
		if got := httpMethodToAction(method); got != want {
			t.Errorf("httpMethodToAction(%s) = %s, want %s", method, got, want)
		}
	}
}

func TestExtractResourceType(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/api/v1/charts", "charts"},
		{"/api/v1/charts/abc", "charts"},
		{"/api/v1/chart-items/abc", "chart-items"},
		{"/api/v1/", "unknown"},
		{"/other", "unknown"},
	}
	for _, tc := range cases {
		if got := extractResourceType(tc.path); got != tc.want {
			t.Errorf("extractResourceType(%q) = %s, want %s", tc.path, got, tc.want)
		}
	}
}

func TestExtractPatientID(t *testing.T) {
	pid := uuid.New().String()

	c, _ := newTestContext(http.MethodGet, "/api/v1/patients/"+pid+"/charts")
	if got := extractPatientID(c); got != pid {
		t.Errorf("expected %s from path, got %q", pid, got)
	}

	c, _ = newTestContext(http.MethodGet, "/api/v1/charts?patient_id="+pid)
	if got := extractPatientID(c); got != pid {
		t.Errorf("expected %s from query, got %q", pid, got)
	}

	c, _ = newTestContext(http.MethodGet, "/api/v1/charts")
	if got := extractPatientID(c); got != "" {
		t.Errorf("expected empty patient id, got %q", got)
	}
}

func TestIsUUIDLike(t *testing.T) {
	if !isUUIDLike(uuid.New().String()) {
		t.Error("expected valid UUID to be recognized")
	}
	if isUUIDLike("not-a-uuid") {
		t.Error("expected non-UUID to be rejected")
	}
	if isUUIDLike("") {
		t.Error("expected empty string to be rejected")
	}
}

func TestAuditRecorderFunc(t *testing.T) {
	var got AuditEntry
	f := AuditRecorderFunc(func(entry AuditEntry) error {
		got = entry
		return nil
	})
	if err := f.RecordAccess(AuditEntry{UserID: "u1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserID != "u1" {
		t.Errorf("expected entry to pass through, got %+v", got)
	}
}
