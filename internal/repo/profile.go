package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/records/internal/errs"
	"github.com/Skotchmaster/records/internal/models"
)

func (r *GormRepo) CreateStudent(ctx context.Context, st *models.Student) error {
	if err := r.DB.WithContext(ctx).Create(st).Error; err != nil {
		return classify(err, "student")
	}
	return nil
}

func (r *GormRepo) FindStudentByUserID(ctx context.Context, userID string) (*models.Student, error) {
	var st models.Student
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&st).Error; err != nil {
		return nil, classify(err, "student")
	}
	return &st, nil
}

func (r *GormRepo) UpdateStudent(ctx context.Context, userID string, fields map[string]any) error {
	return r.updateProfile(ctx, &models.Student{}, "student", userID, fields)
}

// DeleteStudentByUserID returns the number of profiles removed.
func (r *GormRepo) DeleteStudentByUserID(ctx context.Context, userID string) (int64, error) {
	res := r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Student{})
	if res.Error != nil {
		return 0, classify(res.Error, "student")
	}
	return res.RowsAffected, nil
}

func (r *GormRepo) SetStudentArchived(ctx context.Context, userID string, archived bool) (*models.Student, error) {
	if err := r.updateProfile(ctx, &models.Student{}, "student", userID, map[string]any{"is_archived": archived}); err != nil {
		return nil, err
	}
	return r.FindStudentByUserID(ctx, userID)
}

// SearchStudents matches q against name and unid, case-insensitively.
// An empty q lists everything.
func (r *GormRepo) SearchStudents(ctx context.Context, q string, offset, limit int) (int64, []models.Student, error) {
	base := r.DB.WithContext(ctx).Model(&models.Student{})
	if q != "" {
		p := likePattern(q)
		base = base.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(unid) LIKE ? ESCAPE '\'`, p, p)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, nil, classify(err, "students")
	}

	items := make([]models.Student, 0, limit)
	if err := base.Session(&gorm.Session{}).Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, classify(err, "students")
	}
	return total, items, nil
}

func (r *GormRepo) CreateStaff(ctx context.Context, sf *models.Staff) error {
	if err := r.DB.WithContext(ctx).Create(sf).Error; err != nil {
		return classify(err, "staff")
	}
	return nil
}

func (r *GormRepo) FindStaffByUserID(ctx context.Context, userID string) (*models.Staff, error) {
	var sf models.Staff
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&sf).Error; err != nil {
		return nil, classify(err, "staff")
	}
	return &sf, nil
}

func (r *GormRepo) UpdateStaff(ctx context.Context, userID string, fields map[string]any) error {
	return r.updateProfile(ctx, &models.Staff{}, "staff", userID, fields)
}

func (r *GormRepo) DeleteStaffByUserID(ctx context.Context, userID string) (int64, error) {
	res := r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Staff{})
	if res.Error != nil {
		return 0, classify(res.Error, "staff")
	}
	return res.RowsAffected, nil
}

func (r *GormRepo) SetStaffArchived(ctx context.Context, userID string, archived bool) (*models.Staff, error) {
	if err := r.updateProfile(ctx, &models.Staff{}, "staff", userID, map[string]any{"is_archived": archived}); err != nil {
		return nil, err
	}
	return r.FindStaffByUserID(ctx, userID)
}

// SearchStaff matches q against the staff name and the account email.
func (r *GormRepo) SearchStaff(ctx context.Context, q string) ([]models.Staff, error) {
	query := r.DB.WithContext(ctx).Model(&models.Staff{})
	if q != "" {
		p := likePattern(q)
		query = query.
			Select("staffs.*").
			Joins("JOIN users ON users.id = staffs.user_id").
			Where(`LOWER(staffs.name) LIKE ? ESCAPE '\' OR LOWER(users.email) LIKE ? ESCAPE '\'`, p, p)
	}

	var items []models.Staff
	if err := query.Order("staffs.id ASC").Find(&items).Error; err != nil {
		return nil, classify(err, "staffs")
	}
	return items, nil
}

func (r *GormRepo) updateProfile(ctx context.Context, model any, what, userID string, fields map[string]any) error {
	q := r.DB.WithContext(ctx).Model(model).Where("user_id = ?", userID)
	if len(fields) == 0 {
		var n int64
		if err := q.Count(&n).Error; err != nil {
			return classify(err, what)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", errs.ErrNotFound, what)
		}
		return nil
	}
	res := q.Updates(fields)
	if res.Error != nil {
		return classify(res.Error, what)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", errs.ErrNotFound, what)
	}
	return nil
}
