package repository

import authdomain "outreach-backend/internal/auth/domain"

type UserRepository interface {
	Create(user *authdomain.User) error
	FindByEmail(email string) (*authdomain.User, error)
	FindByID(id string) (*authdomain.User, error)
	Count() (int64, error)
	Update(user *authdomain.User) error
	SaveRefreshToken(token *authdomain.RefreshToken) error
	FindRefreshToken(token string) (*authdomain.RefreshToken, error)
	DeleteRefreshToken(token string) error
	DeleteRefreshTokensByUser(userID string) error
}

// FCMTokenRepository stores operator push subscriptions.
type FCMTokenRepository interface {
	SaveToken(userID, token, deviceInfo string) error
	GetTokensByUserID(userID string) ([]authdomain.FCMToken, error)
	// ListAllTokens returns every registered token; pushes go to all operators.
	ListAllTokens() ([]string, error)
	DeleteToken(token string) error
	DeleteUserToken(userID, token string) (bool, error)
}
