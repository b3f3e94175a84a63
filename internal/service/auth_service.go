package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sealdesk/sealdesk/internal/domain"
	"github.com/sealdesk/sealdesk/internal/mailer"
	"github.com/sealdesk/sealdesk/internal/repository"
	"github.com/sealdesk/sealdesk/internal/token"
)

const otpTTL = 15 * time.Minute

// AuthService owns registration, login, and the OTP password-reset flow.
// HTTP handlers depend on this service, never on the repository directly.
type AuthService struct {
	users    repository.UserRepository
	mail     mailer.Mailer
	secret   string
	tokenTTL time.Duration
	logger   *zap.Logger
}

func NewAuthService(
	users repository.UserRepository,
	mail mailer.Mailer,
	jwtSecret string,
	tokenTTL time.Duration,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		mail:     mail,
		secret:   jwtSecret,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// Register creates a new account and returns the user plus a session token.
func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, string, error) {
	if err := req.Validate(); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	u := &domain.User{
		ID:           uuid.New().String(),
		AccountID:    uuid.New().String(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, u); err != nil {
		return nil, "", err
	}

	tok, err := s.issueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, tok, nil
}

// Login verifies credentials and returns the user plus a session token.
// Not-found and wrong-password both map to ErrInvalidCredentials so the
// response does not reveal which accounts exist.
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (*domain.User, string, error) {
	if err := req.Validate(); err != nil {
		return nil, "", err
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	tok, err := s.issueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, tok, nil
}

// ForgotPassword generates a six-digit OTP, stores its hash, and emails the
// code. An unknown email is treated as success so the endpoint cannot be
// used to enumerate accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	code, err := generateOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	if err := s.users.SetOTP(ctx, u.ID, hashOTP(code), time.Now().UTC().Add(otpTTL)); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	if err := s.mail.SendPasswordReset(ctx, u.Email, code); err != nil {
		s.logger.Warn("password reset email failed",
			zap.String("user_id", u.ID), zap.Error(err))
		return err
	}
	return nil
}

// ResetPassword redeems an OTP for a new password. The stored OTP is
// cleared on success; expired or mismatched codes fail with ErrInvalidOTP.
func (s *AuthService) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrInvalidOTP
	}
	if err != nil {
		return err
	}

	if u.OTPHash == nil || u.OTPExpiresAt == nil || time.Now().UTC().After(*u.OTPExpiresAt) {
		return domain.ErrInvalidOTP
	}
	if subtle.ConstantTimeCompare([]byte(*u.OTPHash), []byte(hashOTP(req.Code))) != 1 {
		return domain.ErrInvalidOTP
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, u.ID, string(hash))
}

// Authenticate parses a session token and loads its user.
func (s *AuthService) Authenticate(ctx context.Context, tok string) (*domain.User, error) {
	claims, err := token.Parse(tok, s.secret)
	if err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, claims.Subject)
}

func (s *AuthService) issueToken(u *domain.User) (string, error) {
	now := time.Now().UTC()
	return token.Sign(token.Claims{
		Subject:   u.ID,
		AccountID: u.AccountID,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.tokenTTL).Unix(),
	}, s.secret)
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func hashOTP(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
