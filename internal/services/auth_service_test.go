package services

import (
	"context"
	"testing"
	"time"

	"github.com/jcastellanos/credifacil-api/internal/config"
	"github.com/jcastellanos/credifacil-api/internal/models"
	"github.com/jcastellanos/credifacil-api/internal/repository"
	"github.com/jcastellanos/credifacil-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

type mockUserRepository struct {
	repository.UserRepository
	mockFindByEmail func(ctx context.Context, email string) (*models.User, error)
	mockFindByID    func(ctx context.Context, id uint) (*models.User, error)
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.mockFindByEmail != nil {
		return m.mockFindByEmail(ctx, email)
	}
	return nil, ErrUserNotFound
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return nil, ErrUserNotFound
}

func (m *mockUserRepository) UpdateLastLogin(ctx context.Context, id uint) error { return nil }

type mockRefreshTokenRepository struct {
	repository.RefreshTokenRepository
	mockFindByToken func(ctx context.Context, token string) (*models.RefreshToken, error)
	revoked         []string
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if m.mockFindByToken != nil {
		return m.mockFindByToken(ctx, token)
	}
	return nil, ErrInvalidToken
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	m.revoked = append(m.revoked, token)
	return nil
}

type mockAuditRepository struct {
	repository.AuditRepository
	entries []models.AuditLog
}

func (m *mockAuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	m.entries = append(m.entries, *entry)
	return nil
}

func newTestAuthService(userRepo repository.UserRepository, tokenRepo repository.RefreshTokenRepository) *AuthService {
	logger.Setup("test")
	repos := &repository.Repositories{User: userRepo, RefreshToken: tokenRepo}
	audit := NewAuditService(&mockAuditRepository{})
	return NewAuthService(repos, audit, &config.Config{JWTSecret: "test-secret", JWTExpirationHours: 1})
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)
	return string(hash)
}

func TestAuthService_Login(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestAuthService(userRepo, &mockRefreshTokenRepository{})

	userRepo.mockFindByEmail = func(ctx context.Context, email string) (*models.User, error) {
		return &models.User{
			ID:                1,
			Email:             email,
			EncryptedPassword: hashPassword(t, "secreta123"),
			Role:              models.RoleOfficer,
			Status:            models.StatusActive,
		}, nil
	}

	user, pair, err := svc.Login(context.Background(), "oficial@credifacil.app", "secreta123")
	assert.NoError(t, err)
	assert.Equal(t, uint(1), user.ID)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.True(t, pair.ExpiresAt.After(time.Now()))
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestAuthService(userRepo, &mockRefreshTokenRepository{})

	userRepo.mockFindByEmail = func(ctx context.Context, email string) (*models.User, error) {
		return &models.User{
			ID:                1,
			EncryptedPassword: hashPassword(t, "secreta123"),
			Status:            models.StatusActive,
		}, nil
	}

	_, _, err := svc.Login(context.Background(), "oficial@credifacil.app", "equivocada")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Login_InactiveUser(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestAuthService(userRepo, &mockRefreshTokenRepository{})

	userRepo.mockFindByEmail = func(ctx context.Context, email string) (*models.User, error) {
		return &models.User{
			ID:                1,
			EncryptedPassword: hashPassword(t, "secreta123"),
			Status:            models.StatusInactive,
		}, nil
	}

	_, _, err := svc.Login(context.Background(), "oficial@credifacil.app", "secreta123")
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	svc := newTestAuthService(&mockUserRepository{}, &mockRefreshTokenRepository{})

	_, _, err := svc.Login(context.Background(), "nadie@credifacil.app", "secreta123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Refresh_RevokesOldToken(t *testing.T) {
	userRepo := &mockUserRepository{}
	tokenRepo := &mockRefreshTokenRepository{}
	svc := newTestAuthService(userRepo, tokenRepo)

	expiry := time.Now().AddDate(0, 0, 7)
	tokenRepo.mockFindByToken = func(ctx context.Context, token string) (*models.RefreshToken, error) {
		return &models.RefreshToken{UserID: 1, Token: token, ExpiresAt: &expiry}, nil
	}
	userRepo.mockFindByID = func(ctx context.Context, id uint) (*models.User, error) {
		return &models.User{ID: id, Status: models.StatusActive, Role: models.RoleOfficer}, nil
	}

	_, pair, err := svc.Refresh(context.Background(), "old-token")
	assert.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEqual(t, "old-token", pair.RefreshToken)
	assert.Equal(t, []string{"old-token"}, tokenRepo.revoked)
}

func TestAuthService_Refresh_ExpiredToken(t *testing.T) {
	tokenRepo := &mockRefreshTokenRepository{}
	svc := newTestAuthService(&mockUserRepository{}, tokenRepo)

	expiry := time.Now().AddDate(0, 0, -1)
	tokenRepo.mockFindByToken = func(ctx context.Context, token string) (*models.RefreshToken, error) {
		return &models.RefreshToken{UserID: 1, Token: token, ExpiresAt: &expiry}, nil
	}

	_, _, err := svc.Refresh(context.Background(), "stale-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_ValidateToken(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestAuthService(userRepo, &mockRefreshTokenRepository{})

	userRepo.mockFindByEmail = func(ctx context.Context, email string) (*models.User, error) {
		return &models.User{
			ID:                7,
			Email:             email,
			EncryptedPassword: hashPassword(t, "secreta123"),
			Role:              models.RoleAdmin,
			Status:            models.StatusActive,
		}, nil
	}
	userRepo.mockFindByID = func(ctx context.Context, id uint) (*models.User, error) {
		return &models.User{ID: id, Status: models.StatusActive, Role: models.RoleAdmin}, nil
	}

	_, pair, err := svc.Login(context.Background(), "admin@credifacil.app", "secreta123")
	assert.NoError(t, err)

	user, err := svc.ValidateToken(context.Background(), pair.AccessToken)
	assert.NoError(t, err)
	assert.Equal(t, uint(7), user.ID)

	_, err = svc.ValidateToken(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
