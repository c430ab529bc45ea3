package model

import "time"

// User is a person who signed in through the identity provider.
type User struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Email     string `gorm:"uniqueIndex:idx_users_email_unique"`
	Picture   string
	CreatedAt time.Time
}
