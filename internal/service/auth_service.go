package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"bizdesk/internal/auth"
	"bizdesk/internal/cache"
	apperrors "bizdesk/internal/errors"
	"bizdesk/internal/logger"
	"bizdesk/internal/mailer"
	"bizdesk/internal/metrics"
	"bizdesk/internal/model"
	"bizdesk/internal/repository"
)

const bcryptCost = 10

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Email           string
	Username        string
	Password        string
	ConfirmPassword string
	FirstName       string
	LastName        string
}

// AuthOptions configures token lifetimes and the reset link target.
type AuthOptions struct {
	TokenTTL    time.Duration
	FrontendURL string
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (token string, user *model.User, err error)
	Login(ctx context.Context, email, password string) (token string, user *model.User, err error)
	Logout(ctx context.Context, userID uint) error
	ResolveSession(ctx context.Context, claims *auth.Claims) (*model.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, uid, token, password, confirmPassword string) error
}

type authService struct {
	userRepo    repository.UserRepository
	jwtService  *auth.JWTService
	tokenStore  auth.TokenStoreInterface
	resetTokens *auth.ResetTokenGenerator
	mail        mailer.Mailer
	cache       *cache.Client
	opts        AuthOptions
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	userRepo repository.UserRepository,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	resetTokens *auth.ResetTokenGenerator,
	mail mailer.Mailer,
	cache *cache.Client,
	opts AuthOptions,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		jwtService:  jwtService,
		tokenStore:  tokenStore,
		resetTokens: resetTokens,
		mail:        mail,
		cache:       cache,
		opts:        opts,
	}
}

// Register creates a new user with hashed password and issues its token.
func (s *authService) Register(ctx context.Context, in RegisterInput) (string, *model.User, error) {
	if err := checkNewPassword(in.Password, in.ConfirmPassword); err != nil {
		return "", nil, err
	}

	email := normalizeEmail(in.Email)
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return "", nil, apperrors.NewValidationError("email", "a user with this email already exists")
	}
	// If error is not "record not found", return it (could be a database error)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, fmt.Errorf("check user existence: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		Username:     strings.TrimSpace(in.Username),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: string(hashedPassword),
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", nil, apperrors.NewValidationError("email", "a user with this email already exists")
		}
		return "", nil, fmt.Errorf("create user: %w", err)
	}
	metrics.RegistrationsTotal.Inc()

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Login authenticates a user and returns its live bearer token.
func (s *authService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, fmt.Errorf("find user: %w", err)
		}
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return "", nil, apperrors.ErrAuthentication
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return "", nil, apperrors.ErrAuthentication
	}
	if !user.IsActive {
		metrics.LoginsTotal.WithLabelValues("disabled").Inc()
		return "", nil, apperrors.ErrAccountDisabled
	}

	now := time.Now().UTC()
	if err := s.userRepo.TouchLastLogin(ctx, user.ID, now); err != nil {
		return "", nil, fmt.Errorf("record login: %w", err)
	}
	user.LastLogin = &now
	_ = s.cache.Delete(ctx, userCacheKey(user.ID))

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return "", nil, err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return token, user, nil
}

// issueToken returns the user's live token, minting one when none is stored.
func (s *authService) issueToken(ctx context.Context, user *model.User) (string, error) {
	stored, err := s.tokenStore.GetUserToken(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	if stored != nil {
		return stored.Token, nil
	}

	tokenID, token, err := s.jwtService.GenerateToken(user.ID, user.Email, s.opts.TokenTTL)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	if err := s.tokenStore.StoreToken(ctx, user.ID, auth.StoredToken{ID: tokenID, Token: token}, s.opts.TokenTTL); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return token, nil
}

// Logout revokes the user's bearer token.
func (s *authService) Logout(ctx context.Context, userID uint) error {
	return s.tokenStore.RevokeUserToken(ctx, userID)
}

// ResolveSession maps verified bearer claims to an active user. The token
// must still be registered in the token store.
func (s *authService) ResolveSession(ctx context.Context, claims *auth.Claims) (*model.User, error) {
	ownerID, err := s.tokenStore.LookupTokenID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, auth.ErrTokenNotFound) {
			return nil, apperrors.ErrAuthentication
		}
		return nil, err
	}
	if ownerID != claims.UserID {
		return nil, apperrors.ErrAuthentication
	}

	user, err := s.userRepo.FindByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAuthentication
		}
		return nil, fmt.Errorf("load session user: %w", err)
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}
	return user, nil
}

// RequestPasswordReset mails a reset link when email belongs to an active
// user. Callers always see the same outcome.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.PasswordResetTotal.WithLabelValues("request", "unknown_email").Inc()
			return nil
		}
		return fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive {
		metrics.PasswordResetTotal.WithLabelValues("request", "unknown_email").Inc()
		return nil
	}

	token, err := s.resetTokens.Make(user)
	if err != nil {
		return fmt.Errorf("make reset token: %w", err)
	}

	msg := mailer.Message{
		To:      user.Email,
		Subject: "Password reset",
		Body: "Someone asked to reset the password for your account.\n\n" +
			"Use the link below to choose a new password:\n" +
			s.resetLink(user, token) + "\n\n" +
			"If you did not ask for this, you can ignore this email.\n",
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		log := logger.Get()
		log.Error().Err(err).Uint("user_id", user.ID).Msg("send password reset mail")
		metrics.PasswordResetTotal.WithLabelValues("request", "mail_failed").Inc()
		return nil
	}
	metrics.PasswordResetTotal.WithLabelValues("request", "sent").Inc()
	return nil
}

// resetLink builds the frontend URL embedded in reset mails.
func (s *authService) resetLink(user *model.User, token string) string {
	return fmt.Sprintf("%s/reset-password/%s/%s/", strings.TrimRight(s.opts.FrontendURL, "/"), auth.EncodeUID(user.ID), token)
}

// ConfirmPasswordReset sets a new password when uid and token verify. Every
// token failure is reported as ErrInvalidToken.
func (s *authService) ConfirmPasswordReset(ctx context.Context, uid, token, password, confirmPassword string) error {
	if err := checkNewPassword(password, confirmPassword); err != nil {
		return err
	}

	user, err := s.resetUser(ctx, uid, token)
	if err != nil {
		metrics.PasswordResetTotal.WithLabelValues("confirm", "invalid_token").Inc()
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, string(hashedPassword)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.tokenStore.RevokeUserToken(ctx, user.ID); err != nil {
		log := logger.Get()
		log.Warn().Err(err).Uint("user_id", user.ID).Msg("revoke token after password reset")
	}
	_ = s.cache.Delete(ctx, userCacheKey(user.ID))
	metrics.PasswordResetTotal.WithLabelValues("confirm", "success").Inc()
	return nil
}

func (s *authService) resetUser(ctx context.Context, uid, token string) (*model.User, error) {
	id, err := auth.DecodeUID(uid)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive {
		return nil, apperrors.ErrInvalidToken
	}
	if err := s.resetTokens.Check(user, token); err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	return user, nil
}
