package domain

import "github.com/Skotchmaster/records/internal/models"

type StudentDetails struct {
	UserID     string        `json:"user_id"`
	Email      string        `json:"email"`
	Role       models.Role   `json:"role"`
	UNID       string        `json:"unid"`
	Name       string        `json:"name"`
	DOB        string        `json:"dob"`
	Level      models.Level  `json:"level"`
	CourseID   string        `json:"course_id"`
	Gender     models.Gender `json:"gender"`
	IsArchived bool          `json:"is_archived"`
}

type StaffDetails struct {
	UserID     string      `json:"user_id"`
	Email      string      `json:"email"`
	Role       models.Role `json:"role"`
	Name       string      `json:"name"`
	DOB        string      `json:"dob"`
	Phone      string      `json:"phone"`
	IsArchived bool        `json:"is_archived"`
}

func (i StudentIdentity) Details() StudentDetails {
	return StudentDetails{
		UserID:     i.User.ID,
		Email:      i.User.Email,
		Role:       i.User.Role,
		UNID:       i.Student.UNID,
		Name:       i.Student.Name,
		DOB:        i.Student.DOB,
		Level:      i.Student.Level,
		CourseID:   i.Student.CourseID,
		Gender:     i.Student.Gender,
		IsArchived: i.Student.IsArchived,
	}
}

func (i StaffIdentity) Details() StaffDetails {
	return StaffDetails{
		UserID:     i.User.ID,
		Email:      i.User.Email,
		Role:       i.User.Role,
		Name:       i.Staff.Name,
		DOB:        i.Staff.DOB,
		Phone:      i.Staff.Phone,
		IsArchived: i.Staff.IsArchived,
	}
}
