// Package auth authenticates portal administrators and issues the signed
// session tokens that gate package mutations.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/BearBump/ParcelPortal/internal/apperr"
	"github.com/BearBump/ParcelPortal/internal/models"
)

const DefaultTokenTTL = 24 * time.Hour

type Repository interface {
	GetAdminByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	UpsertAdmin(ctx context.Context, u *models.AdminUser) error
}

// Admin is the identity carried by a session token.
type Admin struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Admin     Admin     `json:"user"`
}

type claims struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	jwt.RegisteredClaims
}

type Service struct {
	repo   Repository
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

func New(repo Repository, secret string, ttl time.Duration) (*Service, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must be provided")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{
		repo:   repo,
		secret: []byte(secret),
		ttl:    ttl,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}, nil
}

// Login checks the credentials and issues a token. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	var missing []string
	if email == "" {
		missing = append(missing, "email")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, &apperr.ValidationError{Fields: missing}
	}

	u, err := s.repo.GetAdminByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Storage("get admin", err)
	}
	if u == nil {
		return nil, errors.Wrap(apperr.ErrUnauthorized, "invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, errors.Wrap(apperr.ErrUnauthorized, "invalid credentials")
	}

	admin := Admin{ID: u.ID, Email: u.Email, FullName: u.FullName}
	token, exp, err := s.sign(admin)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: exp, Admin: admin}, nil
}

func (s *Service) VerifyToken(token string) (*Admin, error) {
	if token == "" {
		return nil, errors.Wrap(apperr.ErrUnauthorized, "missing token")
	}
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, errors.Wrap(apperr.ErrUnauthorized, err.Error())
	}
	return &Admin{ID: c.ID, Email: c.Email, FullName: c.FullName}, nil
}

// EnsureAdmin creates the account or resets its password and name.
func (s *Service) EnsureAdmin(ctx context.Context, email, password, fullName string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return errors.New("admin email and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return errors.Wrap(err, "hash admin password")
	}
	now := s.now().UTC()
	err = s.repo.UpsertAdmin(ctx, &models.AdminUser{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(fullName),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	return apperr.Storage("upsert admin", err)
}

func (s *Service) sign(a Admin) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		ID:       a.ID,
		Email:    a.Email,
		FullName: a.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "sign token")
	}
	return signed, exp, nil
}
