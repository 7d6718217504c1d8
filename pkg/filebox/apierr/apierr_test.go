package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestIsMatchesKind(t *testing.T) {
	err := NotFound("this file does not exist")
	if !errors.Is(err, ErrNotFound) {
		t.Error("Expected NotFound error to match ErrNotFound")
	}
	if errors.Is(err, ErrAccessDenied) {
		t.Error("NotFound error must not match ErrAccessDenied")
	}

	wrapped := fmt.Errorf("delete: %w", AccessDenied("no"))
	if !errors.Is(wrapped, ErrAccessDenied) {
		t.Error("Expected wrapped error to match ErrAccessDenied")
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrUnauthenticated, http.StatusUnauthorized},
		{AccessDenied("x"), http.StatusForbidden},
		{NotFound("x"), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := Status(tt.err); got != tt.want {
			t.Errorf("Status(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestRespondHidesInternalErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/internal", func(c *gin.Context) { Respond(c, errors.New("dsn=secret")) })
	r.GET("/missing", func(c *gin.Context) { Respond(c, NotFound("this file does not exist")) })

	resp := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/internal", nil)
	r.ServeHTTP(resp, req)

	var body map[string]string
	json.Unmarshal(resp.Body.Bytes(), &body)
	if resp.Code != http.StatusInternalServerError || body["error"] != "Internal server error" {
		t.Errorf("Expected generic 500, got %d %v", resp.Code, body)
	}

	resp = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/missing", nil)
	r.ServeHTTP(resp, req)
	json.Unmarshal(resp.Body.Bytes(), &body)
	if resp.Code != http.StatusNotFound || body["error"] != "this file does not exist" {
		t.Errorf("Expected 404 with message, got %d %v", resp.Code, body)
	}
}
