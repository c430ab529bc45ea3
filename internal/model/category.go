package model

import "time"

// Category groups catalog items. Titles are unique across the catalog.
type Category struct {
	ID        uint   `gorm:"primaryKey"`
	Title     string `gorm:"uniqueIndex;not null"`
	UserID    *uint  `gorm:"index"`
	CreatedAt time.Time
	Items     []CategoryItem `gorm:"foreignKey:CategoryID"`
}
