package domain

import (
	"fmt"

	"github.com/Skotchmaster/records/internal/errs"
	"github.com/Skotchmaster/records/internal/models"
)

// Identity is a user together with the profile its role requires.
// The concrete type is one of StudentIdentity, StaffIdentity or AdminIdentity.
type Identity interface {
	Account() *models.User
	Role() models.Role
	identity()
}

type StudentIdentity struct {
	User    *models.User
	Student *models.Student
}

type StaffIdentity struct {
	User  *models.User
	Staff *models.Staff
}

type AdminIdentity struct {
	User *models.User
}

func (i StudentIdentity) Account() *models.User { return i.User }
func (i StaffIdentity) Account() *models.User   { return i.User }
func (i AdminIdentity) Account() *models.User   { return i.User }

func (StudentIdentity) Role() models.Role { return models.RoleStudent }
func (StaffIdentity) Role() models.Role   { return models.RoleStaff }
func (AdminIdentity) Role() models.Role   { return models.RoleAdmin }

func (StudentIdentity) identity() {}
func (StaffIdentity) identity()   {}
func (AdminIdentity) identity()   {}

// NewIdentity checks that the profiles present match the user's role.
// A student must have a Student and no Staff, a staff member the reverse,
// and an admin neither.
func NewIdentity(u *models.User, st *models.Student, sf *models.Staff) (Identity, error) {
	if u == nil {
		return nil, fmt.Errorf("%w: user", errs.ErrNotFound)
	}
	switch u.Role {
	case models.RoleStudent:
		if st == nil {
			return nil, fmt.Errorf("%w: student profile for user %s", errs.ErrNotFound, u.ID)
		}
		if sf != nil {
			return nil, mismatch(u, "staff")
		}
		return StudentIdentity{User: u, Student: st}, nil
	case models.RoleStaff:
		if sf == nil {
			return nil, fmt.Errorf("%w: staff profile for user %s", errs.ErrNotFound, u.ID)
		}
		if st != nil {
			return nil, mismatch(u, "student")
		}
		return StaffIdentity{User: u, Staff: sf}, nil
	case models.RoleAdmin:
		if st != nil {
			return nil, mismatch(u, "student")
		}
		if sf != nil {
			return nil, mismatch(u, "staff")
		}
		return AdminIdentity{User: u}, nil
	default:
		return nil, fmt.Errorf("%w: unknown role %q", errs.ErrValidation, u.Role)
	}
}

func mismatch(u *models.User, kind string) error {
	return fmt.Errorf("%w: user %s with role %s has a %s profile", errs.ErrConflict, u.ID, u.Role, kind)
}
