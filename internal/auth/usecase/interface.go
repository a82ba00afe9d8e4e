package usecase

import (
	"errors"

	authdomain "outreach-backend/internal/auth/domain"
	authdto "outreach-backend/internal/auth/dto"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrRegistrationClosed = errors.New("registration is closed, ask an existing operator")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenNotFound      = errors.New("device token not found")
)

type AuthUsecase interface {
	Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error)
	Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error)
	RefreshToken(refreshToken string) (*authdto.TokenResponse, error)
	Logout(refreshToken string) error
	ValidateToken(accessToken string) (*authdomain.User, error)

	RegisterDevice(userID string, req *authdto.RegisterFCMTokenRequest) error
	UnregisterDevice(userID, token string) error
}
