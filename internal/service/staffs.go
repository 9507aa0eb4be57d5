package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/records/internal/directory"
	"github.com/Skotchmaster/records/internal/domain"
	"github.com/Skotchmaster/records/internal/errs"
	"github.com/Skotchmaster/records/internal/events"
	"github.com/Skotchmaster/records/internal/models"
	"github.com/Skotchmaster/records/internal/repo"
)

type StaffService struct {
	*Deps
}

func NewStaffService(d *Deps) *StaffService {
	return &StaffService{Deps: d}
}

type NewStaff struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	DOB      string `json:"dob"`
	Phone    string `json:"phone"`
}

type StaffPatch struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Name     *string `json:"name"`
	DOB      *string `json:"dob"`
	Phone    *string `json:"phone"`
}

func (p StaffPatch) fields() map[string]any {
	f := map[string]any{}
	if p.Name != nil {
		f["name"] = *p.Name
	}
	if p.DOB != nil {
		f["dob"] = *p.DOB
	}
	if p.Phone != nil {
		f["phone"] = *p.Phone
	}
	return f
}

func (s *StaffService) Create(ctx context.Context, in NewStaff) (domain.StaffDetails, error) {
	if strings.TrimSpace(in.Name) == "" {
		return domain.StaffDetails{}, fmt.Errorf("%w: name is required", errs.ErrValidation)
	}

	var id domain.StaffIdentity
	err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		u, err := s.createUser(ctx, tx, in.Email, in.Password, models.RoleStaff)
		if err != nil {
			return err
		}
		sf := &models.Staff{UserID: u.ID, Name: in.Name, DOB: in.DOB, Phone: in.Phone}
		if err := tx.CreateStaff(ctx, sf); err != nil {
			return err
		}
		id = domain.StaffIdentity{User: u, Staff: sf}
		return nil
	})
	if err != nil {
		return domain.StaffDetails{}, err
	}

	s.indexEntry(ctx, staffEntry(id))
	s.publish(ctx, events.UserCreated, id.User)
	return id.Details(), nil
}

func (s *StaffService) Get(ctx context.Context, userID string) (domain.StaffDetails, error) {
	id, err := s.staff(ctx, s.Repo, userID)
	if err != nil {
		return domain.StaffDetails{}, err
	}
	return id.Details(), nil
}

// List returns every staff member, optionally filtered by name or email.
func (s *StaffService) List(ctx context.Context, search string) ([]domain.StaffDetails, error) {
	search = strings.TrimSpace(search)

	var (
		profiles []models.Staff
		err      error
	)
	if s.Directory != nil && search != "" {
		profiles, err = s.searchDirectory(ctx, search)
	} else {
		profiles, err = s.Repo.SearchStaff(ctx, search)
	}
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(profiles))
	for i, p := range profiles {
		ids[i] = p.UserID
	}
	users, err := s.Repo.FindUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domain.StaffDetails, 0, len(profiles))
	for i := range profiles {
		u, ok := users[profiles[i].UserID]
		if !ok {
			continue
		}
		out = append(out, domain.StaffIdentity{User: &u, Staff: &profiles[i]}.Details())
	}
	return out, nil
}

const staffDirectoryPage = 100

func (s *StaffService) searchDirectory(ctx context.Context, q string) ([]models.Staff, error) {
	_, entries, err := s.Directory.Search(ctx, directory.KindStaff, q, 0, staffDirectoryPage)
	if err != nil {
		return nil, err
	}
	out := make([]models.Staff, 0, len(entries))
	for _, e := range entries {
		sf, err := s.Repo.FindStaffByUserID(ctx, e.UserID)
		if err != nil {
			continue
		}
		out = append(out, *sf)
	}
	return out, nil
}

func (s *StaffService) Update(ctx context.Context, userID string, p StaffPatch) (domain.StaffDetails, error) {
	var id domain.StaffIdentity
	err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		if _, err := s.staff(ctx, tx, userID); err != nil {
			return err
		}
		if err := s.updateAccount(ctx, tx, userID, p.Email, p.Password); err != nil {
			return err
		}
		if err := tx.UpdateStaff(ctx, userID, p.fields()); err != nil {
			return err
		}
		loaded, err := s.staff(ctx, tx, userID)
		id = loaded
		return err
	})
	if err != nil {
		return domain.StaffDetails{}, err
	}

	if p.Password != nil {
		s.passwordChanged(ctx, id.User)
	}
	s.indexEntry(ctx, staffEntry(id))
	s.publish(ctx, events.ProfileUpdated, id.User)
	return id.Details(), nil
}

func (s *StaffService) Archive(ctx context.Context, userID string) (domain.StaffDetails, error) {
	return s.setArchived(ctx, userID, true)
}

func (s *StaffService) Unarchive(ctx context.Context, userID string) (domain.StaffDetails, error) {
	return s.setArchived(ctx, userID, false)
}

func (s *StaffService) setArchived(ctx context.Context, userID string, archived bool) (domain.StaffDetails, error) {
	sf, err := s.Repo.SetStaffArchived(ctx, userID, archived)
	if err != nil {
		return domain.StaffDetails{}, err
	}
	u, err := s.Repo.FindUserByID(ctx, userID)
	if err != nil {
		return domain.StaffDetails{}, err
	}
	id := domain.StaffIdentity{User: u, Staff: sf}

	s.indexEntry(ctx, staffEntry(id))
	t := events.ProfileUnarchived
	if archived {
		t = events.ProfileArchived
	}
	s.publish(ctx, t, u)
	return id.Details(), nil
}

func (s *StaffService) staff(ctx context.Context, r *repo.GormRepo, userID string) (domain.StaffIdentity, error) {
	id, err := loadIdentity(ctx, r, userID)
	if err != nil {
		return domain.StaffIdentity{}, err
	}
	sf, ok := id.(domain.StaffIdentity)
	if !ok {
		return domain.StaffIdentity{}, fmt.Errorf("%w: staff %s", errs.ErrNotFound, userID)
	}
	return sf, nil
}

func staffEntry(id domain.StaffIdentity) directory.Entry {
	return directory.Entry{
		UserID:     id.User.ID,
		Kind:       directory.KindStaff,
		Email:      id.User.Email,
		Name:       id.Staff.Name,
		IsArchived: id.Staff.IsArchived,
	}
}
