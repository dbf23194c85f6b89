// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/javajoker/catalog-api/internal/config"
	"github.com/javajoker/catalog-api/internal/i18n"
	"github.com/javajoker/catalog-api/internal/models"
	"github.com/javajoker/catalog-api/internal/utils"
)

type AuthService struct {
	store store
	cfg   *config.Config
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,strong_password"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // in seconds
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{
		store: store{db: db, timeout: cfg.Database.QueryTimeout},
		cfg:   cfg,
	}
}

// Register creates a non-staff account. Staff accounts only come from the
// admin seed.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, utils.NewValidationError(utils.GetValidationErrors(err)...)
	}

	user := &models.User{Username: req.Username, Email: req.Email}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	err := s.store.write(ctx, "register user", func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.User{}).
			Where("username = ? OR email = ?", req.Username, req.Email).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return utils.NewConflictError(i18n.KeyAuthUserExists)
		}

		err := tx.Create(user).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.NewConflictError(i18n.KeyAuthUserExists)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	return s.issue(user)
}

// Login exchanges a username and password for a token pair.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, utils.NewValidationError(utils.GetValidationErrors(err)...)
	}

	var user models.User
	err := s.store.read(ctx, "find user", func(db *gorm.DB) error {
		return db.Where("username = ?", req.Username).First(&user).Error
	})
	if err != nil {
		if isNotFound(err) {
			return nil, utils.NewUnauthorizedError(i18n.KeyAuthInvalidCredentials)
		}
		return nil, err
	}

	if err := user.CheckPassword(req.Password); err != nil {
		return nil, utils.NewUnauthorizedError(i18n.KeyAuthInvalidCredentials)
	}

	return s.issue(&user)
}

// Refresh issues a new token pair. The staff flag is re-read so a demoted
// user loses access at the next refresh.
func (s *AuthService) Refresh(ctx context.Context, req *RefreshRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, utils.NewValidationError(utils.GetValidationErrors(err)...)
	}

	userID, err := utils.ValidateRefreshToken(req.Refresh)
	if err != nil {
		return nil, utils.NewUnauthorizedError(i18n.KeyAuthTokenExpired)
	}

	var user models.User
	err = s.store.read(ctx, "find user", func(db *gorm.DB) error {
		return db.First(&user, userID).Error
	})
	if err != nil {
		if isNotFound(err) {
			return nil, utils.NewUnauthorizedError(i18n.KeyAuthTokenExpired)
		}
		return nil, err
	}

	return s.issue(&user)
}

func (s *AuthService) issue(user *models.User) (*AuthResponse, error) {
	accessToken, err := utils.GenerateJWT(user.ID, user.Username, user.IsStaff, s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateRefreshToken(user.ID, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.cfg.JWT.AccessTokenTTL * 3600,
	}, nil
}
