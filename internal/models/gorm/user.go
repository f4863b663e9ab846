package gorm

import "strings"

type User struct {
	ID           uint    `gorm:"column:id;primaryKey" json:"id"`
	FirstName    string  `gorm:"column:first_name;size:100;not null" json:"first_name"`
	MiddleName   *string `gorm:"column:middle_name;size:100" json:"middle_name"`
	LastName     string  `gorm:"column:last_name;size:100;not null" json:"last_name"`
	Email        *string `gorm:"column:email;size:100;uniqueIndex" json:"email"`
	Phone        *string `gorm:"column:phone;size:100" json:"phone"`
	Username     string  `gorm:"column:username;size:100;not null;index" json:"username"`
	PasswordHash *string `gorm:"column:hash_password;size:500" json:"-"`
	IsAdmin      bool    `gorm:"column:is_admin;not null;default:false" json:"is_admin"`
	IsStaff      bool    `gorm:"column:is_staff;not null;default:false" json:"is_staff"`
	Avatar       *string `gorm:"column:avatar;size:100" json:"avatar"`
	MiscFields
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// FullName joins the non-empty name parts.
func (u User) FullName() string {
	parts := []string{u.FirstName}
	if u.MiddleName != nil && *u.MiddleName != "" {
		parts = append(parts, *u.MiddleName)
	}
	parts = append(parts, u.LastName)
	return strings.TrimSpace(strings.Join(parts, " "))
}

func (u User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

type UserDepartment struct {
	ID           uint        `gorm:"column:id;primaryKey" json:"id"`
	UserID       uint        `gorm:"column:user_id;not null;uniqueIndex:idx_user_department" json:"user_id"`
	DepartmentID uint        `gorm:"column:department_id;not null;uniqueIndex:idx_user_department;index" json:"department_id"`
	User         *User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Department   *Department `gorm:"foreignKey:DepartmentID;constraint:OnDelete:CASCADE" json:"department,omitempty"`
	MiscFields
}

func (UserDepartment) TableName() string {
	return "user_departments"
}

type UserCommittee struct {
	ID          uint       `gorm:"column:id;primaryKey" json:"id"`
	UserID      uint       `gorm:"column:user_id;not null;uniqueIndex:idx_user_committee" json:"user_id"`
	CommitteeID uint       `gorm:"column:committee_id;not null;uniqueIndex:idx_user_committee;index" json:"committee_id"`
	User        *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Committee   *Committee `gorm:"foreignKey:CommitteeID;constraint:OnDelete:CASCADE" json:"committee,omitempty"`
	MiscFields
}

func (UserCommittee) TableName() string {
	return "user_committees"
}
