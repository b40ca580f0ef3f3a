package models

import "gorm.io/gorm"

// User owns ingested rows. Name is stamped into last_updated_by.
type User struct {
	gorm.Model
	Name  string `gorm:"type:varchar(64);uniqueIndex"`
	Email string `gorm:"unique"`
}
