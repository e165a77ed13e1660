package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jcastellanos/credifacil-api/internal/config"
	"github.com/jcastellanos/credifacil-api/internal/models"
	"github.com/jcastellanos/credifacil-api/internal/repository"
	"github.com/jcastellanos/credifacil-api/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles staff authentication and token lifecycle
type AuthService struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	audit            *AuditService
	jwtSecret        []byte
	tokenTTL         time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(repos *repository.Repositories, audit *AuditService, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:         repos.User,
		refreshTokenRepo: repos.RefreshToken,
		audit:            audit,
		jwtSecret:        []byte(cfg.JWTSecret),
		tokenTTL:         time.Duration(cfg.JWTExpirationHours) * time.Hour,
	}
}

// TokenPair is a matched access and refresh token
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Login verifies credentials and issues a token pair
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, nil, ErrUserInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.EncryptedPassword), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		logger.Warn("failed to record last login", "user_id", user.ID, "error", err)
	}
	s.audit.Record(ctx, user.ID, AuditActionLogin, AuditEntityUser, user.ID, "inicio de sesión")

	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a new pair, revoking the old
// one so each refresh token is single-use.
func (s *AuthService) Refresh(ctx context.Context, token string) (*models.User, *TokenPair, error) {
	rt, err := s.refreshTokenRepo.FindByToken(ctx, token)
	if err != nil || rt.IsExpired() {
		return nil, nil, ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, rt.UserID)
	if err != nil || !user.IsActive() {
		return nil, nil, ErrInvalidToken
	}

	if err := s.refreshTokenRepo.Revoke(ctx, token); err != nil {
		return nil, nil, err
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Logout revokes all of the user's refresh tokens
func (s *AuthService) Logout(ctx context.Context, userID uint) error {
	return s.refreshTokenRepo.RevokeAllForUser(ctx, userID)
}

// ValidateToken parses an access token and returns the authenticated user
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*models.User, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, uint(userID))
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !user.IsActive() {
		return nil, ErrUserInactive
	}
	return user, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	expiresAt := time.Now().Add(s.tokenTTL)

	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"exp":     expiresAt.Unix(),
		"iat":     time.Now().Unix(),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	refreshExpiry := time.Now().AddDate(0, 0, 30)
	refresh := &models.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: &refreshExpiry,
	}
	if err := s.refreshTokenRepo.Create(ctx, refresh); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh.Token,
		ExpiresAt:    expiresAt,
	}, nil
}

// CleanupExpiredTokens removes refresh tokens past their expiry. Run
// periodically by the job scheduler.
func (s *AuthService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	return s.refreshTokenRepo.DeleteExpired(ctx)
}
