package model

import (
	"time"

	"golang.org/x/text/cases"
)

// Title and description limits enforced on input.
const (
	MaxItemTitleLen       = 80
	MaxItemDescriptionLen = 250
)

// CategoryItem is a catalog entry owned by the user who created it.
type CategoryItem struct {
	ID          uint      `gorm:"primaryKey"`
	Title       string    `gorm:"size:80;not null"`
	TitleFold   string    `gorm:"size:320"`
	Description string    `gorm:"size:250"`
	CategoryID  uint      `gorm:"index;not null"`
	Category    *Category `gorm:"foreignKey:CategoryID"`
	UserID      uint      `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OwnedBy reports whether userID created the item.
func (i CategoryItem) OwnedBy(userID uint) bool {
	return userID != 0 && i.UserID == userID
}

// FoldTitle returns the Unicode case-folded form used to compare titles.
func FoldTitle(title string) string {
	return cases.Fold().String(title)
}
