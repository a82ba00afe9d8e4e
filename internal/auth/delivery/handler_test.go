package delivery

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authdomain "outreach-backend/internal/auth/domain"
	authdto "outreach-backend/internal/auth/dto"
	"outreach-backend/internal/auth/repository"
	"outreach-backend/internal/auth/usecase"
	"outreach-backend/pkg/config"
	"outreach-backend/pkg/database"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewSQLiteConnection(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&authdomain.User{}, &authdomain.RefreshToken{}, &authdomain.FCMToken{}))

	uc := usecase.NewAuthUsecase(repository.NewUserRepository(db), repository.NewFCMTokenRepository(db), &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  time.Minute,
		JWTRefreshExpiry: time.Hour,
	})
	h := NewAuthHandler(uc)

	r := gin.New()
	r.POST("/api/auth/register", h.Register)
	r.POST("/api/auth/login", h.Login)
	r.GET("/api/auth/me", AuthMiddleware(uc), h.Me)
	r.POST("/api/fcm/register", AuthMiddleware(uc), h.RegisterFCMToken)
	r.DELETE("/api/fcm/:token", AuthMiddleware(uc), h.UnregisterFCMToken)
	return r
}

func doJSON(r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthFlow(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "dan@trinitymortgage.com", "password": "correct horse", "name": "Dan",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "dan@trinitymortgage.com", "password": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "dan@trinitymortgage.com", "password": "correct horse",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var tokens authdto.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tokens))

	w = doJSON(r, http.MethodGet, "/api/auth/me", tokens.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dan@trinitymortgage.com")

	w = doJSON(r, http.MethodPost, "/api/fcm/register", tokens.AccessToken, gin.H{"token": "tok-1"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodDelete, "/api/fcm/tok-1", tokens.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(r, http.MethodDelete, "/api/fcm/tok-1", tokens.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(r, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodGet, "/api/auth/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegister_SecondOperatorForbidden(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "dan@trinitymortgage.com", "password": "correct horse", "name": "Dan",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "ops@trinitymortgage.com", "password": "correct horse", "name": "Ops",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, http.MethodPost, "/api/auth/register", "", gin.H{"email": "bad"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
