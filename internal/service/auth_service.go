package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/unieval/course-review-api/internal/models"
	"github.com/unieval/course-review-api/internal/repository"
	appErrors "github.com/unieval/course-review-api/pkg/errors"
)

type authUserRepository interface {
	FindByID(ctx context.Context, userID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	RecordLoginFailure(ctx context.Context, userID string, lockThreshold int) (int, error)
	ResetLoginFailures(ctx context.Context, userID string) error
	Verify(ctx context.Context, token string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	SoftDelete(ctx context.Context, userID string) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	TokenSecret   string
	TokenExpiry   time.Duration
	Issuer        string
	LockThreshold int
	BcryptCost    int
}

// LoginRequest is the credential payload.
type LoginRequest struct {
	UserID   string `json:"userId" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	AccessToken string       `json:"accessToken"`
	ExpiresIn   int64        `json:"expiresIn"`
	User        *models.User `json:"user"`
}

// RegisterRequest describes account creation.
type RegisterRequest struct {
	UserID    string `json:"userId" validate:"required,max=32"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"firstName" validate:"required,max=64"`
	LastName  string `json:"lastName" validate:"required,max=64"`
}

// RegisterResponse returns the verification token for delivery.
type RegisterResponse struct {
	UserID            string `json:"userId"`
	VerificationToken string `json:"verificationToken"`
}

// ChangePasswordRequest describes a password update.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

// AuthService provides authentication use cases.
type AuthService struct {
	repo      authUserRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.LockThreshold <= 0 {
		config.LockThreshold = 5
	}
	if config.BcryptCost <= 0 {
		config.BcryptCost = 12
	}
	return &AuthService{repo: repo, validator: validate, logger: logger, config: config}
}

// Login authenticates a user. A wrong password bumps the failure counter; the
// account locks once the counter passes the threshold. Deleted accounts look
// identical to unknown ones.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.repo.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	if user.Deleted {
		return nil, appErrors.ErrInvalidCredentials
	}
	if user.Locked {
		return nil, appErrors.ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		failures, recordErr := s.repo.RecordLoginFailure(ctx, user.UserID, s.config.LockThreshold)
		if recordErr != nil {
			s.logger.Warn("failed to record login failure", zap.Error(recordErr))
		} else if failures > s.config.LockThreshold {
			return nil, appErrors.ErrAccountLocked
		}
		return nil, appErrors.ErrInvalidCredentials
	}

	if !user.Verified {
		return nil, appErrors.ErrAccountUnverified
	}

	if err := s.repo.ResetLoginFailures(ctx, user.UserID); err != nil {
		s.logger.Warn("failed to reset login failures", zap.Error(err))
	}

	token, err := s.generateAccessToken(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	s.logger.Info("user logged in", zap.String("user_id", user.UserID))
	return &LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.TokenExpiry.Seconds()),
		User:        user,
	}, nil
}

// Register creates an unverified account and returns the verification token
// so the caller can deliver it by email.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	if !passwordMeetsPolicy(req.Password) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "password must be at least 8 characters with a lowercase letter, an uppercase letter and a symbol")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	token := uuid.NewString()
	user := &models.User{
		UserID:            req.UserID,
		Email:             req.Email,
		PasswordHash:      string(hash),
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Role:              models.RoleStudent,
		VerificationToken: &token,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "user id or email already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.logger.Info("user registered", zap.String("user_id", user.UserID))
	return &RegisterResponse{UserID: user.UserID, VerificationToken: token}, nil
}

// VerifyEmail redeems a verification token.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return appErrors.Clone(appErrors.ErrValidation, "verification token is required")
	}
	if err := s.repo.Verify(ctx, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "verification token is unknown or already used")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify account")
	}
	return nil
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid password payload")
	}
	if !passwordMeetsPolicy(req.NewPassword) {
		return appErrors.Clone(appErrors.ErrValidation, "password must be at least 8 characters with a lowercase letter, an uppercase letter and a symbol")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrUnauthorized
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return appErrors.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.config.BcryptCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}
	s.logger.Info("password changed", zap.String("user_id", userID))
	return nil
}

// DeleteAccount soft deletes the caller's account after a password check.
func (s *AuthService) DeleteAccount(ctx context.Context, userID, password string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrUnauthorized
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return appErrors.ErrInvalidCredentials
	}
	if err := s.repo.SoftDelete(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete account")
	}
	s.logger.Info("account deleted", zap.String("user_id", userID))
	return nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.TokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}
	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	issuedAt := time.Now().UTC()
	claims := &models.JWTClaims{
		UserID:    user.UserID,
		Role:      user.Role,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.UserID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.TokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.TokenSecret))
}

func passwordMeetsPolicy(password string) bool {
	if len(password) < 8 {
		return false
	}
	var lower, upper, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	return lower && upper && symbol
}
