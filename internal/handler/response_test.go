package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ashwinyue/kb-chat/internal/apperr"
	"github.com/gin-gonic/gin"
)

func TestErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"load error", apperr.Load("unsupported file type"), http.StatusUnprocessableEntity},
		{"service error", apperr.Service("llm unavailable"), http.StatusBadGateway},
		{"not found error", apperr.NotFound("knowledge base kb1"), http.StatusNotFound},
		{"persistence error", apperr.Persistence("insert failed"), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			Error(c, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestGetLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		query    string
		def      int
		expected int
	}{
		{"explicit limit", "limit=5", 100, 5},
		{"missing limit", "", 100, 100},
		{"invalid limit", "limit=abc", 100, 100},
		{"negative limit", "limit=-3", 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)

			if got := getLimit(c, tt.def); got != tt.expected {
				t.Errorf("getLimit() = %d, want %d", got, tt.expected)
			}
		})
	}
}
