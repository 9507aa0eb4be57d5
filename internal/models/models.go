package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleStaff, RoleAdmin:
		return true
	default:
		return false
	}
}

// HasProfile reports whether users with this role own a Student or Staff record.
func (r Role) HasProfile() bool {
	return r == RoleStudent || r == RoleStaff
}

// AllRoles returns the roles in ascending privilege.
func AllRoles() []Role {
	return []Role{RoleStudent, RoleStaff, RoleAdmin}
}

type User struct {
	ID           string    `gorm:"primaryKey;size:36"       json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Role         Role      `gorm:"size:16;not null"         json:"role"`
	CreatedAt    time.Time `                                json:"created_at"`
	UpdatedAt    time.Time `                                json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "O"
)

func (g Gender) IsValid() bool {
	return g == GenderMale || g == GenderFemale || g == GenderOther
}

type Level string

const (
	LevelL4 Level = "L4"
	LevelL5 Level = "L5"
	LevelL6 Level = "L6"
)

func (l Level) IsValid() bool {
	return l == LevelL4 || l == LevelL5 || l == LevelL6
}

type Student struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"  json:"-"`
	UserID     string `gorm:"uniqueIndex;size:36;not null" json:"user_id"`
	UNID       string `gorm:"column:unid;not null"      json:"unid"`
	Level      Level  `gorm:"size:4;not null"           json:"level"`
	Name       string `gorm:"not null"                  json:"name"`
	CourseID   string `gorm:"not null"                  json:"course_id"`
	DOB        string `gorm:"column:dob;not null"       json:"dob"`
	Gender     Gender `gorm:"size:1;not null"           json:"gender"`
	IsArchived bool   `gorm:"default:false"             json:"is_archived"`
}

type Staff struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"  json:"-"`
	UserID     string `gorm:"uniqueIndex;size:36;not null" json:"user_id"`
	Name       string `gorm:"not null"                  json:"name"`
	DOB        string `gorm:"column:dob;not null"       json:"dob"`
	Phone      string `gorm:"not null"                  json:"phone"`
	IsArchived bool   `gorm:"default:false"             json:"is_archived"`
}

// TableName keeps the plural form gorm would not infer for staff.
func (Staff) TableName() string { return "staffs" }

// All lists every model AutoMigrate has to know about.
func All() []any {
	return []any{&User{}, &Student{}, &Staff{}}
}
