package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"pollquiz-service/internal/domain"
)

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	GetUserByID(ctx context.Context, userID string) (domain.User, error)
}

// Service registers users, checks credentials and issues access tokens.
type Service struct {
	users     UserStore
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

func NewService(users UserStore, jwtSecret string, tokenTTL time.Duration) *Service {
	return &Service{users: users, jwtSecret: []byte(jwtSecret), tokenTTL: tokenTTL, now: time.Now}
}

type Registration struct {
	FullName string
	Email    string
	Password string
	Role     domain.Role
}

const minPasswordLength = 8

func (s *Service) Register(ctx context.Context, reg Registration) (domain.User, error) {
	name := strings.TrimSpace(reg.FullName)
	if name == "" {
		return domain.User{}, domain.ErrInvalidPayload.With("full name is required")
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(reg.Email))
	if err != nil {
		return domain.User{}, domain.ErrInvalidPayload.With("invalid email")
	}
	if len(reg.Password) < minPasswordLength {
		return domain.User{}, domain.ErrInvalidPayload.With("password must be at least %d characters", minPasswordLength)
	}
	role := reg.Role
	switch role {
	case "":
		role = domain.RoleParticipant
	case domain.RoleHost, domain.RoleParticipant:
	default:
		return domain.User{}, domain.ErrInvalidPayload.With("unknown role %q", reg.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		ID:           uuid.NewString(),
		FullName:     name,
		Email:        strings.ToLower(addr.Address),
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.now(),
	}
	if err := s.users.CreateUser(ctx, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Login returns a signed access token for valid credentials. Unknown emails
// and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, domain.User, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.User{}, domain.ErrInvalidCredentials
		}
		return "", domain.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", domain.User{}, domain.ErrInvalidCredentials
	}
	token, err := s.issue(user)
	if err != nil {
		return "", domain.User{}, err
	}
	return token, user, nil
}

// Me returns the account behind an authenticated identity.
func (s *Service) Me(ctx context.Context, who *domain.Identity) (domain.User, error) {
	if who == nil {
		return domain.User{}, domain.ErrAuthenticationRequired
	}
	return s.users.GetUserByID(ctx, who.UserID)
}

type claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

func (s *Service) issue(user domain.User) (string, error) {
	now := s.now()
	c := claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses an access token into the identity it was issued for.
func (s *Service) Verify(token string) (*domain.Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || c.Subject == "" {
		return nil, domain.ErrAuthenticationRequired.With("invalid or expired token")
	}
	return &domain.Identity{UserID: c.Subject, Role: c.Role}, nil
}
