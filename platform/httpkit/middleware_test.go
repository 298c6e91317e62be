package httpkit

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kazi_backend/platform/apperr"
	"kazi_backend/platform/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "middleware-test-secret"

func signed(t *testing.T, claims jwt.MapClaims, key string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func authEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/me", AuthRequired(&config.Config{JWTAccessSecret: secret}), func(c *gin.Context) {
		id := MustGetIdentity(c)
		c.JSON(http.StatusOK, gin.H{"id": id.UserID().String(), "roles": id.Roles()})
	})
	engine.GET("/providers-only", AuthRequired(&config.Config{JWTAccessSecret: secret}), RequireRole(RoleProvider), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return engine
}

func get(engine *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequired(t *testing.T) {
	engine := authEngine()
	userID := uuid.New()
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong key", signed(t, jwt.MapClaims{"sub": userID.String(), "type": "access", "exp": exp}, "other"), http.StatusUnauthorized},
		{"refresh token", signed(t, jwt.MapClaims{"sub": userID.String(), "type": "refresh", "exp": exp}, secret), http.StatusUnauthorized},
		{"bad subject", signed(t, jwt.MapClaims{"sub": "nope", "type": "access", "exp": exp}, secret), http.StatusUnauthorized},
		{"expired", signed(t, jwt.MapClaims{"sub": userID.String(), "type": "access", "exp": time.Now().Add(-time.Minute).Unix()}, secret), http.StatusUnauthorized},
		{"valid", signed(t, jwt.MapClaims{"sub": userID.String(), "type": "access", "exp": exp}, secret), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, get(engine, "/me", tt.token).Code)
		})
	}
}

func TestAuthRequiredAcceptsSingleRoleClaim(t *testing.T) {
	engine := authEngine()
	token := signed(t, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"type": "access",
		"role": RoleProvider,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}, secret)

	assert.Equal(t, http.StatusNoContent, get(engine, "/providers-only", token).Code)
}

func TestRequireRoleForbidsOtherRoles(t *testing.T) {
	engine := authEngine()
	token := signed(t, jwt.MapClaims{
		"sub":   uuid.NewString(),
		"type":  "access",
		"roles": []string{RoleClient},
		"exp":   time.Now().Add(time.Hour).Unix(),
	}, secret)

	assert.Equal(t, http.StatusForbidden, get(engine, "/providers-only", token).Code)
}

func TestHandleError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		status     int
		retryAfter string
	}{
		{"not found", apperr.NotFound("job not found"), http.StatusNotFound, ""},
		{"conflict", apperr.Conflict("busy").WithCode("INVALID_TRANSITION"), http.StatusConflict, ""},
		{"unavailable", apperr.Unavailable("retry"), http.StatusServiceUnavailable, "1"},
		{"plain", errors.New("db exploded"), http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			require.True(t, HandleError(c, tt.err))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.retryAfter, rec.Header().Get("Retry-After"))
			assert.NotContains(t, rec.Body.String(), "db exploded")
		})
	}
}
