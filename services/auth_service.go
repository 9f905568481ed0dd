package services

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/maisonarome/storefront/models"
	"github.com/maisonarome/storefront/repository"
)

// AuthService handles registration, login and the refresh token lifecycle.
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, *ServiceError)
	VerifyEmail(ctx context.Context, email, code string) *ServiceError
	Login(ctx context.Context, req *models.LoginRequest) (*TokenPair, *models.User, *ServiceError)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, *ServiceError)
	Logout(ctx context.Context, refreshToken string) *ServiceError
	ForgotPassword(ctx context.Context, email string) *ServiceError
	ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) *ServiceError
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, *ServiceError)
}

type authServiceImpl struct {
	userRepo repository.UserRepository
	tokens   *TokenService
	mailer   Mailer
	logger   *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, tokens *TokenService, mailer Mailer, logger *zap.Logger) AuthService {
	return &authServiceImpl{userRepo: userRepo, tokens: tokens, mailer: mailer, logger: logger}
}

// Register creates an unverified account and mails a verification code.
func (s *authServiceImpl) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, *ServiceError) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, NewServiceError(http.StatusConflict, "Email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("User lookup failed during registration", zap.Error(err))
		return nil, NewServiceError(http.StatusInternalServerError, "Failed to create account")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, NewServiceError(http.StatusInternalServerError, "Failed to create account")
	}

	user := &models.User{
		Email:            email,
		Password:         string(hashed),
		Name:             req.Name,
		Phone:            req.Phone,
		Role:             "user",
		VerificationCode: randomCode(6),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, NewServiceError(http.StatusInternalServerError, "Failed to create account")
	}

	if err := s.mailer.SendVerificationEmail(user.Email, user.VerificationCode); err != nil {
		s.logger.Error("Failed to send verification email", zap.String("email", user.Email), zap.Error(err))
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID.String()), zap.String("email", user.Email))
	return user, nil
}

// VerifyEmail redeems the mailed code.
func (s *authServiceImpl) VerifyEmail(ctx context.Context, email, code string) *ServiceError {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return NewServiceError(http.StatusNotFound, "Account not found")
	}
	if user.EmailVerified {
		return nil
	}
	if user.VerificationCode == "" || user.VerificationCode != code {
		return NewServiceError(http.StatusBadRequest, "Invalid verification code")
	}

	user.EmailVerified = true
	user.VerificationCode = ""
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to mark email verified", zap.Error(err))
		return NewServiceError(http.StatusInternalServerError, "Failed to verify email")
	}
	return nil
}

// Login checks credentials and issues a token pair. The refresh token's
// jti is persisted so it can be rotated and revoked.
func (s *authServiceImpl) Login(ctx context.Context, req *models.LoginRequest) (*TokenPair, *models.User, *ServiceError) {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, nil, NewServiceError(http.StatusUnauthorized, "Invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, nil, NewServiceError(http.StatusUnauthorized, "Invalid email or password")
	}
	if !user.EmailVerified {
		return nil, nil, NewServiceError(http.StatusForbidden, "Email not verified")
	}

	pair, svcErr := s.issuePair(ctx, user)
	if svcErr != nil {
		return nil, nil, svcErr
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID.String()))
	return pair, user, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a
// fresh pair is issued. A revoked or unknown token is rejected.
func (s *authServiceImpl) Refresh(ctx context.Context, refreshToken string) (*TokenPair, *ServiceError) {
	claims, err := s.tokens.ValidateToken(refreshToken, "refresh")
	if err != nil {
		return nil, NewServiceError(http.StatusUnauthorized, "Invalid refresh token")
	}
	jti, _ := claims["jti"].(string)
	userIDStr, _ := claims["user_id"].(string)

	stored, err := s.userRepo.FindRefreshToken(ctx, jti)
	if err != nil || stored.Revoked || time.Now().After(stored.ExpiresAt) {
		return nil, NewServiceError(http.StatusUnauthorized, "Refresh token revoked or expired")
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, NewServiceError(http.StatusUnauthorized, "Invalid refresh token")
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, NewServiceError(http.StatusUnauthorized, "Account not found")
	}

	if err := s.userRepo.RevokeRefreshToken(ctx, jti); err != nil {
		s.logger.Error("Failed to revoke refresh token", zap.Error(err))
		return nil, NewServiceError(http.StatusInternalServerError, "Failed to refresh session")
	}

	return s.issuePair(ctx, user)
}

// Logout revokes the presented refresh token.
func (s *authServiceImpl) Logout(ctx context.Context, refreshToken string) *ServiceError {
	claims, err := s.tokens.ValidateToken(refreshToken, "refresh")
	if err != nil {
		// Already unusable; nothing to revoke.
		return nil
	}
	if jti, ok := claims["jti"].(string); ok {
		if err := s.userRepo.RevokeRefreshToken(ctx, jti); err != nil {
			s.logger.Error("Failed to revoke refresh token on logout", zap.Error(err))
			return NewServiceError(http.StatusInternalServerError, "Failed to log out")
		}
	}
	return nil
}

// ForgotPassword mails a reset code. The response is identical whether or
// not the account exists.
func (s *authServiceImpl) ForgotPassword(ctx context.Context, email string) *ServiceError {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil
	}

	user.ResetCode = randomCode(6)
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to store reset code", zap.Error(err))
		return NewServiceError(http.StatusInternalServerError, "Failed to process request")
	}
	if err := s.mailer.SendPasswordResetEmail(user.Email, user.ResetCode); err != nil {
		s.logger.Error("Failed to send reset email", zap.String("email", user.Email), zap.Error(err))
	}
	return nil
}

// ResetPassword redeems a reset code, replaces the password and revokes
// every outstanding refresh token.
func (s *authServiceImpl) ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) *ServiceError {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return NewServiceError(http.StatusBadRequest, "Invalid reset code")
	}
	if user.ResetCode == "" || user.ResetCode != req.Code {
		return NewServiceError(http.StatusBadRequest, "Invalid reset code")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return NewServiceError(http.StatusInternalServerError, "Failed to reset password")
	}
	user.Password = string(hashed)
	user.ResetCode = ""
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to update password", zap.Error(err))
		return NewServiceError(http.StatusInternalServerError, "Failed to reset password")
	}
	if err := s.userRepo.RevokeAllRefreshTokens(ctx, user.ID); err != nil {
		s.logger.Error("Failed to revoke sessions after password reset", zap.Error(err))
	}

	s.logger.Info("Password reset", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *authServiceImpl) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, *ServiceError) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, NewServiceError(http.StatusNotFound, "Account not found")
	}
	return user, nil
}

func (s *authServiceImpl) issuePair(ctx context.Context, user *models.User) (*TokenPair, *ServiceError) {
	pair, err := s.tokens.GenerateTokenPair(user.ID.String(), user.Email, user.Role)
	if err != nil {
		s.logger.Error("Failed to generate tokens", zap.Error(err))
		return nil, NewServiceError(http.StatusInternalServerError, "Failed to create session")
	}
	if err := s.userRepo.SaveRefreshToken(ctx, &models.RefreshToken{
		TokenID:   pair.RefreshTokenID,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.tokens.RefreshTTL()),
	}); err != nil {
		s.logger.Error("Failed to persist refresh token", zap.Error(err))
		return nil, NewServiceError(http.StatusInternalServerError, "Failed to create session")
	}
	return pair, nil
}

func randomCode(n int) string {
	const digits = "0123456789"
	code := make([]byte, n)
	for i := range code {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			idx = big.NewInt(int64(i) % 10)
		}
		code[i] = digits[idx.Int64()]
	}
	return string(code)
}
