package usecase

import (
	"testing"
	"time"

	authdomain "outreach-backend/internal/auth/domain"
	authdto "outreach-backend/internal/auth/dto"
	"outreach-backend/internal/auth/repository"
	"outreach-backend/pkg/config"
	"outreach-backend/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, allowRegistration bool) (AuthUsecase, repository.FCMTokenRepository) {
	t.Helper()
	db, err := database.NewSQLiteConnection(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&authdomain.User{}, &authdomain.RefreshToken{}, &authdomain.FCMToken{}))

	cfg := &config.Config{
		JWTSecret:         "test-secret",
		JWTAccessExpiry:   15 * time.Minute,
		JWTRefreshExpiry:  time.Hour,
		AllowRegistration: allowRegistration,
	}
	fcmRepo := repository.NewFCMTokenRepository(db)
	return NewAuthUsecase(repository.NewUserRepository(db), fcmRepo, cfg), fcmRepo
}

func registerDan(t *testing.T, uc AuthUsecase) *authdto.TokenResponse {
	t.Helper()
	resp, err := uc.Register(&authdto.RegisterRequest{
		Email:    "Dan@TrinityMortgage.com",
		Password: "correct horse",
		Name:     "Dan",
	})
	require.NoError(t, err)
	return resp
}

func TestRegister_FirstOperatorThenClosed(t *testing.T) {
	uc, _ := setup(t, false)

	resp := registerDan(t, uc)
	assert.Equal(t, "dan@trinitymortgage.com", resp.User.Email)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	_, err := uc.Register(&authdto.RegisterRequest{Email: "ops@trinitymortgage.com", Password: "whatever1", Name: "Ops"})
	assert.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	uc, _ := setup(t, true)
	registerDan(t, uc)

	_, err := uc.Register(&authdto.RegisterRequest{Email: "dan@trinitymortgage.com", Password: "another1", Name: "Dan"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	uc, _ := setup(t, false)
	registerDan(t, uc)

	resp, err := uc.Login(&authdto.LoginRequest{Email: "dan@trinitymortgage.com", Password: "correct horse"})
	require.NoError(t, err)
	require.NotNil(t, resp.User.LastLoginAt)

	_, err = uc.Login(&authdto.LoginRequest{Email: "dan@trinitymortgage.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = uc.Login(&authdto.LoginRequest{Email: "nobody@trinitymortgage.com", Password: "correct horse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateToken_RejectsRefreshToken(t *testing.T) {
	uc, _ := setup(t, false)
	resp := registerDan(t, uc)

	user, err := uc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)

	_, err = uc.ValidateToken(resp.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = uc.ValidateToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshToken_Rotates(t *testing.T) {
	uc, _ := setup(t, false)
	resp := registerDan(t, uc)

	next, err := uc.RefreshToken(resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, resp.RefreshToken, next.RefreshToken)

	_, err = uc.RefreshToken(resp.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = uc.RefreshToken(next.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	uc, _ := setup(t, false)
	resp := registerDan(t, uc)

	require.NoError(t, uc.Logout(resp.RefreshToken))
	_, err := uc.RefreshToken(resp.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDevices(t *testing.T) {
	uc, fcmRepo := setup(t, true)
	dan := registerDan(t, uc)
	ops, err := uc.Register(&authdto.RegisterRequest{Email: "ops@trinitymortgage.com", Password: "whatever1", Name: "Ops"})
	require.NoError(t, err)

	require.NoError(t, uc.RegisterDevice(dan.User.ID, &authdto.RegisterFCMTokenRequest{Token: "tok-1", DeviceInfo: "Chrome"}))
	require.NoError(t, uc.RegisterDevice(ops.User.ID, &authdto.RegisterFCMTokenRequest{Token: "tok-2"}))
	// re-registering moves the token instead of duplicating it
	require.NoError(t, uc.RegisterDevice(ops.User.ID, &authdto.RegisterFCMTokenRequest{Token: "tok-1"}))

	all, err := fcmRepo.ListAllTokens()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tok-1", "tok-2"}, all)

	assert.ErrorIs(t, uc.UnregisterDevice(dan.User.ID, "tok-1"), ErrTokenNotFound)
	require.NoError(t, uc.UnregisterDevice(ops.User.ID, "tok-1"))

	all, err = fcmRepo.ListAllTokens()
	require.NoError(t, err)
	assert.Equal(t, []string{"tok-2"}, all)
}
