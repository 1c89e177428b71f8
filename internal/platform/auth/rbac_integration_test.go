package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

// helper creates an echo context with the given roles set on the request context.
func newContextWithRoles(method, path string, roles []string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	ctx := context.WithValue(req.Context(), UserRolesKey, roles)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

var okHandler = func(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// TestRequireRole_AdminAccessesAll verifies that the admin role can access any
// role-protected endpoint regardless of which roles are listed.
func TestRequireRole_AdminAccessesAll(t *testing.T) {
	endpointRoles := [][]string{
		{"physician", "nurse"},
		{"physician"},
		{"nurse"},
	}

	for _, roles := range endpointRoles {
		c, _ := newContextWithRoles(http.MethodGet, "/", []string{"admin"})
		mw := RequireRole(roles...)
		err := mw(okHandler)(c)
		if err != nil {
			t.Errorf("admin should access endpoint requiring %v, got error: %v", roles, err)
		}
	}
}

// TestRequireRole_PhysicianChartsAccess verifies that a physician can read and
// write charts and sign them.
func TestRequireRole_PhysicianChartsAccess(t *testing.T) {
	c, _ := newContextWithRoles(http.MethodGet, "/charts/1", []string{"physician"})
	mw := RequireRole("admin", "physician", "nurse")
	if err := mw(okHandler)(c); err != nil {
		t.Errorf("physician should read charts, got error: %v", err)
	}

	c, _ = newContextWithRoles(http.MethodPost, "/chart-items", []string{"physician"})
	mw = RequireRole("admin", "physician", "nurse")
	if err := mw(okHandler)(c); err != nil {
		t.Errorf("physician should write chart items, got error: %v", err)
	}

	// Signing: admin, physician only
	c, _ = newContextWithRoles(http.MethodPost, "/charts/1/sign", []string{"physician"})
	mw = RequireRole("admin", "physician")
	if err := mw(okHandler)(c); err != nil {
		t.Errorf("physician should sign charts, got error: %v", err)
	}
}

// TestRequireRole_NurseCannotSign verifies that a nurse can edit charts but not
// sign them.
func TestRequireRole_NurseCannotSign(t *testing.T) {
	c, _ := newContextWithRoles(http.MethodPost, "/chart-items", []string{"nurse"})
	mw := RequireRole("admin", "physician", "nurse")
	if err := mw(okHandler)(c); err != nil {
		t.Errorf("nurse should write chart items, got error: %v", err)
	}

	c, _ = newContextWithRoles(http.MethodPost, "/charts/1/sign", []string{"nurse"})
	mw = RequireRole("admin", "physician")
	err := mw(okHandler)(c)
	if err == nil {
		t.Error("nurse should NOT sign charts")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403 Forbidden, got %d", httpErr.Code)
	}
}

// TestRequireRole_PatientDeniedAuditTrail verifies that a patient role cannot
// access the admin-only audit trail.
func TestRequireRole_PatientDeniedAuditTrail(t *testing.T) {
	c, _ := newContextWithRoles(http.MethodGet, "/audit-events", []string{"patient"})
	mw := RequireRole("admin")
	err := mw(okHandler)(c)
	if err == nil {
		t.Error("patient role should NOT access the audit trail")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403 Forbidden, got %d", httpErr.Code)
	}
}

// TestRequireRole_NoRoleDenied verifies that a request with no roles is denied
// access to any role-protected endpoint.
func TestRequireRole_NoRoleDenied(t *testing.T) {
	c, _ := newContextWithRoles(http.MethodGet, "/charts/1", []string{})
	mw := RequireRole("admin", "physician", "nurse")
	err := mw(okHandler)(c)
	if err == nil {
		t.Error("empty roles should be denied")
	}

	// Nil roles (no context value)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/charts/1", nil)
	rec := httptest.NewRecorder()
	c = e.NewContext(req, rec)
	err = mw(okHandler)(c)
	if err == nil {
		t.Error("nil roles should be denied")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403 Forbidden, got %d", httpErr.Code)
	}
}
