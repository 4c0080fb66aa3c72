package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is the basic entity of the system
type User struct {
	gorm.Model
	Name       string                            `gorm:"uniqueIndex;type:varchar(32);not null;comment:username"`
	Email      string                            `gorm:"uniqueIndex;type:varchar(128);not null;comment:email address"`
	Password   *string                           `gorm:"type:varchar(128);comment:bcrypt hash"`
	Role       Role                              `gorm:"not null;comment:platform role (employee, pm, director, senior director, admin)"`
	Status     UserStatus                        `gorm:"not null;comment:account status (active, inactive)"`
	Attributes datatypes.JSONType[UserAttribute] `gorm:"comment:extra user attributes"`
}

// UserAttribute holds optional profile fields that do not need columns.
type UserAttribute struct {
	Nickname *string `json:"nickname,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
	Company  *string `json:"company,omitempty"`
}

// UserInfo is the subset of user fields embedded in other responses.
type UserInfo struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (u *User) Info() UserInfo {
	return UserInfo{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}
