package models

import (
	"gorm.io/gorm"
)

type User struct {
	gorm.Model

	FullName string `gorm:"column:full_name;size:255" json:"fullName"`
	Email    string `gorm:"column:email;size:150;uniqueIndex" json:"email"`
	Phone    string `gorm:"column:phone;size:50" json:"phone,omitempty"`
	Password string `gorm:"column:password;size:255" json:"-"`
	IsAdmin  bool   `gorm:"column:is_admin;default:false" json:"isAdmin"`
}
