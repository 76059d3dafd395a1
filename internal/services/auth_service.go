package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"catalogsync/internal/models"
	"catalogsync/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/gommon/random"
	"golang.org/x/crypto/bcrypt"
)

const secretLength = 32

// AuthService verifies provider API credentials and issues admin tokens.
type AuthService interface {
	Authenticate(ctx context.Context, username, secret string) (*models.Principal, error)
	CreateCredential(ctx context.Context, username string, capabilities []string) (secret string, err error)
	IssueAdminToken(subject string, capabilities []string, ttl time.Duration) (string, error)
}

// AdminClaims are carried by tokens for the client admin surface.
type AdminClaims struct {
	Capabilities []string `json:"capabilities"`
	jwt.RegisteredClaims
}

type authService struct {
	credentialRepo repositories.CredentialRepository
	jwtSecret      []byte
	logger         *slog.Logger
}

func NewAuthService(credentialRepo repositories.CredentialRepository, jwtSecret string, logger *slog.Logger) AuthService {
	return &authService{
		credentialRepo: credentialRepo,
		jwtSecret:      []byte(jwtSecret),
		logger:         logger,
	}
}

func (s *authService) Authenticate(ctx context.Context, username, secret string) (*models.Principal, error) {
	username = strings.TrimSpace(username)
	if username == "" || secret == "" {
		return nil, ErrInvalidCredentials
	}

	cred, err := s.credentialRepo.GetByUsername(ctx, username)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}

	// Application secrets may be pasted with the grouping spaces removed or kept.
	if err := bcrypt.CompareHashAndPassword([]byte(cred.SecretHash), []byte(strings.ReplaceAll(secret, " ", ""))); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &models.Principal{Subject: cred.Username, Capabilities: cred.Capabilities}, nil
}

// CreateCredential generates a new application secret for username and
// stores its hash. The plain secret is returned once and never stored.
func (s *authService) CreateCredential(ctx context.Context, username string, capabilities []string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", &ValidationError{Field: "username", Message: "username is required"}
	}

	secret := random.String(secretLength, random.Alphanumeric)
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}

	cred := &models.APICredential{
		Username:     username,
		SecretHash:   string(hash),
		Capabilities: capabilities,
	}
	if err := s.credentialRepo.Create(ctx, cred); err != nil {
		return "", fmt.Errorf("store credential: %w", err)
	}

	s.logger.Info("api credential created", "username", username, "capabilities", capabilities)
	return secret, nil
}

func (s *authService) IssueAdminToken(subject string, capabilities []string, ttl time.Duration) (string, error) {
	if len(s.jwtSecret) == 0 {
		return "", errors.New("jwt secret is not configured")
	}
	now := time.Now()
	claims := AdminClaims{
		Capabilities: capabilities,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}
