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

type StudentService struct {
	*Deps
}

func NewStudentService(d *Deps) *StudentService {
	return &StudentService{Deps: d}
}

type NewStudent struct {
	Email    string        `json:"email"`
	Password string        `json:"password"`
	UNID     string        `json:"unid"`
	Level    models.Level  `json:"level"`
	Name     string        `json:"name"`
	CourseID string        `json:"course_id"`
	DOB      string        `json:"dob"`
	Gender   models.Gender `json:"gender"`
}

func (n NewStudent) validate() error {
	switch {
	case strings.TrimSpace(n.UNID) == "":
		return fmt.Errorf("%w: unid is required", errs.ErrValidation)
	case strings.TrimSpace(n.Name) == "":
		return fmt.Errorf("%w: name is required", errs.ErrValidation)
	case !n.Level.IsValid():
		return fmt.Errorf("%w: unknown level %q", errs.ErrValidation, n.Level)
	case !n.Gender.IsValid():
		return fmt.Errorf("%w: unknown gender %q", errs.ErrValidation, n.Gender)
	}
	return nil
}

type StudentPatch struct {
	Email    *string        `json:"email"`
	Password *string        `json:"password"`
	UNID     *string        `json:"unid"`
	Level    *models.Level  `json:"level"`
	Name     *string        `json:"name"`
	CourseID *string        `json:"course_id"`
	DOB      *string        `json:"dob"`
	Gender   *models.Gender `json:"gender"`
}

func (p StudentPatch) fields() (map[string]any, error) {
	f := map[string]any{}
	if p.UNID != nil {
		f["unid"] = *p.UNID
	}
	if p.Level != nil {
		if !p.Level.IsValid() {
			return nil, fmt.Errorf("%w: unknown level %q", errs.ErrValidation, *p.Level)
		}
		f["level"] = *p.Level
	}
	if p.Name != nil {
		f["name"] = *p.Name
	}
	if p.CourseID != nil {
		f["course_id"] = *p.CourseID
	}
	if p.DOB != nil {
		f["dob"] = *p.DOB
	}
	if p.Gender != nil {
		if !p.Gender.IsValid() {
			return nil, fmt.Errorf("%w: unknown gender %q", errs.ErrValidation, *p.Gender)
		}
		f["gender"] = *p.Gender
	}
	return f, nil
}

type StudentPage struct {
	Total int64                   `json:"total"`
	Items []domain.StudentDetails `json:"items"`
}

// Create inserts the user and the student profile in one transaction.
func (s *StudentService) Create(ctx context.Context, in NewStudent) (domain.StudentDetails, error) {
	if err := in.validate(); err != nil {
		return domain.StudentDetails{}, err
	}

	var id domain.StudentIdentity
	err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		u, err := s.createUser(ctx, tx, in.Email, in.Password, models.RoleStudent)
		if err != nil {
			return err
		}
		st := &models.Student{
			UserID:   u.ID,
			UNID:     in.UNID,
			Level:    in.Level,
			Name:     in.Name,
			CourseID: in.CourseID,
			DOB:      in.DOB,
			Gender:   in.Gender,
		}
		if err := tx.CreateStudent(ctx, st); err != nil {
			return err
		}
		id = domain.StudentIdentity{User: u, Student: st}
		return nil
	})
	if err != nil {
		return domain.StudentDetails{}, err
	}

	s.indexEntry(ctx, studentEntry(id))
	s.publish(ctx, events.UserCreated, id.User)
	return id.Details(), nil
}

func (s *StudentService) Get(ctx context.Context, userID string) (domain.StudentDetails, error) {
	id, err := s.student(ctx, s.Repo, userID)
	if err != nil {
		return domain.StudentDetails{}, err
	}
	return id.Details(), nil
}

// List pages through students, optionally filtered by name or unid. With a
// directory configured and a non-empty search, matching goes through it.
func (s *StudentService) List(ctx context.Context, offset, limit int, search string) (StudentPage, error) {
	search = strings.TrimSpace(search)

	var (
		total    int64
		profiles []models.Student
		err      error
	)
	if s.Directory != nil && search != "" {
		total, profiles, err = s.searchDirectory(ctx, search, offset, limit)
	} else {
		total, profiles, err = s.Repo.SearchStudents(ctx, search, offset, limit)
	}
	if err != nil {
		return StudentPage{}, err
	}

	ids := make([]string, len(profiles))
	for i, p := range profiles {
		ids[i] = p.UserID
	}
	users, err := s.Repo.FindUsersByIDs(ctx, ids)
	if err != nil {
		return StudentPage{}, err
	}

	page := StudentPage{Total: total, Items: make([]domain.StudentDetails, 0, len(profiles))}
	for i := range profiles {
		u, ok := users[profiles[i].UserID]
		if !ok {
			continue
		}
		page.Items = append(page.Items, domain.StudentIdentity{User: &u, Student: &profiles[i]}.Details())
	}
	return page, nil
}

func (s *StudentService) searchDirectory(ctx context.Context, q string, offset, limit int) (int64, []models.Student, error) {
	total, entries, err := s.Directory.Search(ctx, directory.KindStudent, q, offset, limit)
	if err != nil {
		return 0, nil, err
	}
	out := make([]models.Student, 0, len(entries))
	for _, e := range entries {
		st, err := s.Repo.FindStudentByUserID(ctx, e.UserID)
		if err != nil {
			// The index may lag behind a deletion.
			continue
		}
		out = append(out, *st)
	}
	return total, out, nil
}

// Update applies email, password and profile changes in one transaction.
func (s *StudentService) Update(ctx context.Context, userID string, p StudentPatch) (domain.StudentDetails, error) {
	fields, err := p.fields()
	if err != nil {
		return domain.StudentDetails{}, err
	}

	var id domain.StudentIdentity
	err = s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		if _, err := s.student(ctx, tx, userID); err != nil {
			return err
		}
		if err := s.updateAccount(ctx, tx, userID, p.Email, p.Password); err != nil {
			return err
		}
		if err := tx.UpdateStudent(ctx, userID, fields); err != nil {
			return err
		}
		loaded, err := s.student(ctx, tx, userID)
		id = loaded
		return err
	})
	if err != nil {
		return domain.StudentDetails{}, err
	}

	if p.Password != nil {
		s.passwordChanged(ctx, id.User)
	}
	s.indexEntry(ctx, studentEntry(id))
	s.publish(ctx, events.ProfileUpdated, id.User)
	return id.Details(), nil
}

func (s *StudentService) Archive(ctx context.Context, userID string) (domain.StudentDetails, error) {
	return s.setArchived(ctx, userID, true)
}

func (s *StudentService) Unarchive(ctx context.Context, userID string) (domain.StudentDetails, error) {
	return s.setArchived(ctx, userID, false)
}

func (s *StudentService) setArchived(ctx context.Context, userID string, archived bool) (domain.StudentDetails, error) {
	st, err := s.Repo.SetStudentArchived(ctx, userID, archived)
	if err != nil {
		return domain.StudentDetails{}, err
	}
	u, err := s.Repo.FindUserByID(ctx, userID)
	if err != nil {
		return domain.StudentDetails{}, err
	}
	id := domain.StudentIdentity{User: u, Student: st}

	s.indexEntry(ctx, studentEntry(id))
	t := events.ProfileUnarchived
	if archived {
		t = events.ProfileArchived
	}
	s.publish(ctx, t, u)
	return id.Details(), nil
}

// student loads a user that must be a student.
func (s *StudentService) student(ctx context.Context, r *repo.GormRepo, userID string) (domain.StudentIdentity, error) {
	id, err := loadIdentity(ctx, r, userID)
	if err != nil {
		return domain.StudentIdentity{}, err
	}
	st, ok := id.(domain.StudentIdentity)
	if !ok {
		return domain.StudentIdentity{}, fmt.Errorf("%w: student %s", errs.ErrNotFound, userID)
	}
	return st, nil
}

// updateAccount changes the email and password of the user behind a profile.
func (d *Deps) updateAccount(ctx context.Context, tx *repo.GormRepo, userID string, email, password *string) error {
	if email != nil {
		e := normalizeEmail(*email)
		if e == "" {
			return fmt.Errorf("%w: email is required", errs.ErrValidation)
		}
		if err := tx.UpdateUser(ctx, userID, map[string]any{"email": e}); err != nil {
			return err
		}
	}
	if password != nil {
		if _, err := d.setPassword(ctx, tx, userID, *password); err != nil {
			return err
		}
	}
	return nil
}

func studentEntry(id domain.StudentIdentity) directory.Entry {
	return directory.Entry{
		UserID:     id.User.ID,
		Kind:       directory.KindStudent,
		Email:      id.User.Email,
		Name:       id.Student.Name,
		UNID:       id.Student.UNID,
		IsArchived: id.Student.IsArchived,
	}
}
