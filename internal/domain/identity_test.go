package domain

import (
	"testing"

	"github.com/Skotchmaster/records/internal/errs"
	"github.com/Skotchmaster/records/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIdentity(t *testing.T) {
	t.Parallel()

	student := &models.Student{UserID: "u1", Name: "Ada"}
	staff := &models.Staff{UserID: "u1", Name: "Bob"}

	tests := []struct {
		name    string
		role    models.Role
		st      *models.Student
		sf      *models.Staff
		wantErr error
		want    models.Role
	}{
		{name: "student ok", role: models.RoleStudent, st: student, want: models.RoleStudent},
		{name: "student without profile", role: models.RoleStudent, wantErr: errs.ErrNotFound},
		{name: "student with staff profile", role: models.RoleStudent, st: student, sf: staff, wantErr: errs.ErrConflict},
		{name: "staff ok", role: models.RoleStaff, sf: staff, want: models.RoleStaff},
		{name: "staff without profile", role: models.RoleStaff, wantErr: errs.ErrNotFound},
		{name: "staff with student profile", role: models.RoleStaff, st: student, sf: staff, wantErr: errs.ErrConflict},
		{name: "admin ok", role: models.RoleAdmin, want: models.RoleAdmin},
		{name: "admin with profile", role: models.RoleAdmin, sf: staff, wantErr: errs.ErrConflict},
		{name: "unknown role", role: "janitor", wantErr: errs.ErrValidation},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			u := &models.User{ID: "u1", Email: "a@b.c", Role: tt.role}
			id, err := NewIdentity(u, tt.st, tt.sf)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id.Role())
			assert.Same(t, u, id.Account())
		})
	}
}

func TestStudentIdentity_Details(t *testing.T) {
	t.Parallel()

	u := &models.User{ID: "u1", Email: "ada@uni.test", Role: models.RoleStudent}
	st := &models.Student{UserID: "u1", UNID: "N1", Name: "Ada", Level: models.LevelL5, Gender: models.GenderFemale, IsArchived: true}
	id, err := NewIdentity(u, st, nil)
	require.NoError(t, err)

	si, ok := id.(StudentIdentity)
	require.True(t, ok)
	d := si.Details()
	assert.Equal(t, "ada@uni.test", d.Email)
	assert.Equal(t, "N1", d.UNID)
	assert.Equal(t, models.LevelL5, d.Level)
	assert.True(t, d.IsArchived)
}
