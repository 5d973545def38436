package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/auth"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// revocable validates with a real JWT service and refuses listed token ids
type revocable struct {
	jwt     *auth.JWTService
	revoked map[string]bool
}

func (v *revocable) ValidateAccessToken(_ context.Context, token string) (*auth.Claims, error) {
	claims, err := v.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}
	if v.revoked[claims.ID] {
		return nil, shared.NewDomainError("TOKEN_REVOKED", "Token has been revoked")
	}
	return claims, nil
}

func newTestValidator() *revocable {
	return &revocable{
		jwt: auth.NewJWTService(config.JWTConfig{
			Secret:                 "test-secret-key-at-least-32-chars",
			AccessTokenExpiration:  15 * time.Minute,
			RefreshTokenExpiration: 24 * time.Hour,
			Issuer:                 "crm-test",
		}),
		revoked: map[string]bool{},
	}
}

func issue(t *testing.T, v *revocable, role string) (*auth.TokenPair, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	pair, err := v.jwt.GenerateTokenPair(auth.Subject{UserID: userID, Email: "agent@example.com", Role: role})
	require.NoError(t, err)
	return pair, userID
}

func authRouter(v TokenValidator, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), JWTAuthMiddleware(DefaultJWTConfig(v)))
	handlers := append(extra, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":     GetJWTUserID(c),
			"role":        GetJWTRole(c),
			"ctx_user_id": logger.UserID(c.Request.Context()),
		})
	})
	r.GET("/api/v1/leads", handlers...)
	r.POST("/api/v1/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestJWTAuthMiddleware(t *testing.T) {
	v := newTestValidator()
	r := authRouter(v)

	t.Run("valid token", func(t *testing.T) {
		pair, userID := issue(t, v, "agent")
		req := httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+pair.AccessToken)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, userID.String(), body["user_id"])
		assert.Equal(t, "agent", body["role"])
		assert.Equal(t, userID.String(), body["ctx_user_id"])
	})

	t.Run("skip path", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", dto.ErrCodeTokenInvalid},
		{"wrong scheme", "Basic abc", dto.ErrCodeTokenInvalid},
		{"empty token", "Bearer ", dto.ErrCodeTokenInvalid},
		{"garbage token", "Bearer not-a-jwt", dto.ErrCodeTokenInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}

	t.Run("refresh token is not an access token", func(t *testing.T) {
		pair, _ := issue(t, v, "agent")
		req := httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+pair.RefreshToken)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("revoked token", func(t *testing.T) {
		pair, _ := issue(t, v, "agent")
		claims, err := v.jwt.ValidateAccessToken(pair.AccessToken)
		require.NoError(t, err)
		v.revoked[claims.ID] = true

		req := httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+pair.AccessToken)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, dto.ErrCodeTokenRevoked, errorCode(t, rec))
	})
}

func TestRequireRole(t *testing.T) {
	v := newTestValidator()
	r := authRouter(v, RequireRole("admin", "manager"))

	for role, status := range map[string]int{
		"admin":   http.StatusOK,
		"manager": http.StatusOK,
		"agent":   http.StatusForbidden,
	} {
		t.Run(role, func(t *testing.T) {
			pair, _ := issue(t, v, role)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)
			req.Header.Set(AuthHeaderKey, BearerPrefix+pair.AccessToken)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, status, rec.Code)
		})
	}

	t.Run("without authentication", func(t *testing.T) {
		bare := gin.New()
		bare.GET("/x", RequireRole("admin"), func(c *gin.Context) { c.Status(http.StatusOK) })
		rec := httptest.NewRecorder()
		bare.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
