package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/records/internal/domain"
	"github.com/Skotchmaster/records/internal/errs"
	"github.com/Skotchmaster/records/internal/events"
	"github.com/Skotchmaster/records/internal/models"
	"github.com/Skotchmaster/records/internal/repo"
)

type UserService struct {
	*Deps
}

func NewUserService(d *Deps) *UserService {
	return &UserService{Deps: d}
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.Repo.ListUsers(ctx)
}

// Identity loads the user and the profile its role requires.
func (s *UserService) Identity(ctx context.Context, userID string) (domain.Identity, error) {
	return loadIdentity(ctx, s.Repo, userID)
}

// DeleteUser removes the user and its profile in one transaction.
func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	var deleted *models.User
	err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		u, err := tx.FindUserByID(ctx, userID)
		if err != nil {
			return err
		}
		if err := deleteProfile(ctx, tx, u); err != nil {
			return err
		}
		n, err := tx.DeleteUser(ctx, u.ID)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: user %s", errs.ErrNotFound, u.ID)
		}
		deleted = u
		return nil
	})
	if err != nil {
		return err
	}

	// Tokens issued during the deletion second are revoked too.
	s.revokeSubject(ctx, deleted.ID, s.now().Add(time.Second))
	if deleted.Role.HasProfile() {
		s.removeEntry(ctx, deleted.ID)
	}
	s.publish(ctx, events.UserDeleted, deleted)
	return nil
}

// ChangeRole moves a user to another role. Moving to admin drops the
// profile. A student or staff profile cannot be made up, so moving to
// either of those roles is a conflict.
func (s *UserService) ChangeRole(ctx context.Context, userID string, role models.Role) (*models.User, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", errs.ErrValidation, role)
	}

	var (
		user    *models.User
		changed bool
		oldRole models.Role
	)
	err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		u, err := tx.FindUserByID(ctx, userID)
		if err != nil {
			return err
		}
		user = u
		if u.Role == role {
			return nil
		}
		if role.HasProfile() {
			return fmt.Errorf("%w: cannot move user %s from %s to %s without a %s profile", errs.ErrConflict, u.ID, u.Role, role, role)
		}
		if err := deleteProfile(ctx, tx, u); err != nil {
			return err
		}
		if err := tx.UpdateUser(ctx, u.ID, map[string]any{"role": role}); err != nil {
			return err
		}
		oldRole = u.Role
		u.Role = role
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.revokeSubject(ctx, user.ID, s.now())
		if oldRole.HasProfile() {
			s.removeEntry(ctx, user.ID)
		}
		s.publish(ctx, events.UserRoleChanged, user)
	}
	return user, nil
}

// deleteProfile removes the profile the user's role requires. A missing
// profile is reported as errs.ErrNotFound.
func deleteProfile(ctx context.Context, tx *repo.GormRepo, u *models.User) error {
	var (
		n   int64
		err error
	)
	switch u.Role {
	case models.RoleStudent:
		n, err = tx.DeleteStudentByUserID(ctx, u.ID)
	case models.RoleStaff:
		n, err = tx.DeleteStaffByUserID(ctx, u.ID)
	default:
		return nil
	}
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s profile of user %s", errs.ErrNotFound, u.Role, u.ID)
	}
	return nil
}

func loadIdentity(ctx context.Context, r *repo.GormRepo, userID string) (domain.Identity, error) {
	u, err := r.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	st, err := r.FindStudentByUserID(ctx, u.ID)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}
	sf, err := r.FindStaffByUserID(ctx, u.ID)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}
	return domain.NewIdentity(u, st, sf)
}
