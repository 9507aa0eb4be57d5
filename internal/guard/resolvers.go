package guard

import (
	"context"

	"github.com/Skotchmaster/records/internal/models"
)

type OwnerStore interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindStudentByUserID(ctx context.Context, userID string) (*models.Student, error)
	FindStaffByUserID(ctx context.Context, userID string) (*models.Staff, error)
}

// StoreResolvers registers the owner lookups for every entity kind. Routes
// address users and profiles by user id. A user owns itself; a profile is
// owned by its user and only resolves when the user holds that profile.
func StoreResolvers(s OwnerStore) Resolvers {
	return Resolvers{
		KindUser: OwnerResolverFunc(func(ctx context.Context, id string) (string, error) {
			u, err := s.FindUserByID(ctx, id)
			if err != nil {
				return "", err
			}
			return u.ID, nil
		}),
		KindStudent: OwnerResolverFunc(func(ctx context.Context, id string) (string, error) {
			st, err := s.FindStudentByUserID(ctx, id)
			if err != nil {
				return "", err
			}
			return st.UserID, nil
		}),
		KindStaff: OwnerResolverFunc(func(ctx context.Context, id string) (string, error) {
			sf, err := s.FindStaffByUserID(ctx, id)
			if err != nil {
				return "", err
			}
			return sf.UserID, nil
		}),
	}
}
