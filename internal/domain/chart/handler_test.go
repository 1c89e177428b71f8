package chart

import (
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestHTTPErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"chart not found", ErrChartNotFound, http.StatusNotFound},
		{"item not found", ErrItemNotFound, http.StatusNotFound},
		{"vitals exists", ErrVitalsExists, http.StatusConflict},
		{"already signed", ErrChartSigned, http.StatusConflict},
		{"unsupported type", ErrUnsupportedItemType, http.StatusBadRequest},
		{"payload mismatch", ErrPayloadMismatch, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			he, ok := httpError(tc.err).(*echo.HTTPError)
			if !ok {
				t.Fatal("expected *echo.HTTPError")
			}
			if he.Code != tc.code {
				t.Errorf("expected status %d, got %d", tc.code, he.Code)
			}
		})
	}
}

func TestHTTPErrorValidationCarriesDetails(t *testing.T) {
	verrs := ValidationErrors{
		{Index: 0, Message: "duplicate option"},
		{Index: 2, Message: "option must not be empty"},
	}
	he, ok := httpError(verrs).(*echo.HTTPError)
	if !ok {
		t.Fatal("expected *echo.HTTPError")
	}
	if he.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status 422, got %d", he.Code)
	}
	body, ok := he.Message.(map[string]interface{})
	if !ok {
		t.Fatalf("expected structured body, got %T", he.Message)
	}
	if got, ok := body["errors"].(ValidationErrors); !ok || len(got) != 2 {
		t.Errorf("expected 2 validation rows in body, got %v", body["errors"])
	}
}

func TestHTTPErrorHidesInternalDetail(t *testing.T) {
	cause := errors.New("pq: connection refused on host db-internal:5432")
	he, ok := httpError(cause).(*echo.HTTPError)
	if !ok {
		t.Fatal("expected *echo.HTTPError")
	}
	if he.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", he.Code)
	}
	if msg, _ := he.Message.(string); msg != "internal server error" {
		t.Errorf("client-facing message leaks detail: %q", msg)
	}
	if !errors.Is(he.Internal, cause) {
		t.Error("cause not preserved for the request log")
	}
}
