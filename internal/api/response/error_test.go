package response

import (
	"ctchen222/todo-backend/internal/apperr"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestFromError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{name: "validation", err: apperr.Validation("No data to update"), wantStatus: http.StatusBadRequest, wantBody: `{"detail":"No data to update"}`},
		{name: "conflict", err: apperr.Conflict("Email already registered"), wantStatus: http.StatusBadRequest, wantBody: `{"detail":"Email already registered"}`},
		{name: "not found", err: apperr.NotFound("Todo not found"), wantStatus: http.StatusNotFound, wantBody: `{"detail":"Todo not found"}`},
		{name: "auth", err: apperr.Auth("Invalid credentials"), wantStatus: http.StatusUnauthorized, wantBody: `{"detail":"Invalid credentials"}`},
		{name: "upstream hides cause", err: apperr.Upstream("failed to list", errors.New("dial tcp 10.0.0.1")), wantStatus: http.StatusInternalServerError, wantBody: `{"detail":"Internal server error"}`},
		{name: "plain error", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantBody: `{"detail":"Internal server error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			FromError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestFromError_AuthSetsChallenge(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/login", nil)

	FromError(c, apperr.Auth("Invalid credentials"))

	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
}

func TestList_NilIsEmptyArray(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	List[string](c, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}
