package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Skotchmaster/records/internal/errs"
	"github.com/Skotchmaster/records/internal/events"
	"github.com/Skotchmaster/records/internal/logging"
	"github.com/Skotchmaster/records/internal/metrics"
	"github.com/Skotchmaster/records/internal/models"
	"github.com/Skotchmaster/records/internal/repo"
	"github.com/Skotchmaster/records/internal/tokens"
)

type AuthService struct {
	*Deps
	Issuer *tokens.Issuer

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(d *Deps, issuer *tokens.Issuer) *AuthService {
	return &AuthService{Deps: d, Issuer: issuer}
}

type SignInResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// SignIn fails with errs.ErrNotFound for an unknown email and
// errs.ErrUnauthorized for a wrong password. Both paths run one bcrypt compare.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.sign_in")

	user, err := s.Repo.FindUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			s.Hasher.Compare(password, s.dummy())
			metrics.SignIns.WithLabelValues("unknown_email").Inc()
			l.Info("sign_in_failed", "reason", "unknown email")
			return nil, err
		}
		return nil, err
	}

	if !s.Hasher.Compare(password, user.PasswordHash) {
		metrics.SignIns.WithLabelValues("bad_password").Inc()
		l.Info("sign_in_failed", "reason", "wrong password", "user_id", user.ID)
		return nil, fmt.Errorf("%w: wrong password", errs.ErrUnauthorized)
	}

	issued, err := s.Issuer.Issue(tokens.Principal{Subject: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return nil, err
	}
	metrics.SignIns.WithLabelValues("ok").Inc()
	return &SignInResult{Token: issued.Token, ExpiresAt: issued.ExpiresAt, User: user}, nil
}

// SignUp creates a user for a role that carries no profile. Student and
// staff accounts go through StudentService.Create and StaffService.Create.
func (s *AuthService) SignUp(ctx context.Context, email, password string, role models.Role) (*models.User, error) {
	if role.HasProfile() {
		return nil, fmt.Errorf("%w: %s accounts are created with their profile", errs.ErrValidation, role)
	}
	var user *models.User
	err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		u, err := s.createUser(ctx, tx, email, password, role)
		user = u
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.UserCreated, user)
	return user, nil
}

func (s *AuthService) UpdatePassword(ctx context.Context, userID, password string) error {
	var user *models.User
	err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		u, err := s.setPassword(ctx, tx, userID, password)
		user = u
		return err
	})
	if err != nil {
		return err
	}
	s.passwordChanged(ctx, user)
	return nil
}

// Logout revokes the presented token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, c *tokens.Claims) error {
	if c == nil {
		return fmt.Errorf("%w: no session", errs.ErrUnauthenticated)
	}
	if s.Revoker == nil || c.ExpiresAt == nil {
		return nil
	}
	return s.Revoker.RevokeToken(ctx, c.ID, c.ExpiresAt.Time)
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.Hasher.Hash("records-dummy-password")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

func (d *Deps) createUser(ctx context.Context, tx *repo.GormRepo, email, password string, role models.Role) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", errs.ErrValidation)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", errs.ErrValidation)
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", errs.ErrValidation, role)
	}

	pwHash, err := d.Hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{Email: email, PasswordHash: pwHash, Role: role}
	if err := tx.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Emails are stored and looked up lowercased.
func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (d *Deps) setPassword(ctx context.Context, tx *repo.GormRepo, userID, password string) (*models.User, error) {
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", errs.ErrValidation)
	}
	user, err := tx.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	pwHash, err := d.Hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := tx.UpdateUser(ctx, userID, map[string]any{"password_hash": pwHash}); err != nil {
		return nil, err
	}
	user.PasswordHash = pwHash
	return user, nil
}

func (d *Deps) passwordChanged(ctx context.Context, u *models.User) {
	d.revokeSubject(ctx, u.ID, d.now())
	d.publish(ctx, events.UserPasswordChanged, u)
}
