package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	domainerrors "item-catalog/internal/errors"
	"item-catalog/internal/model"
)

// CategoryRepository reads catalog categories.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List returns every category ordered by title.
func (r *CategoryRepository) List(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).Order("title ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// ListWithItems returns every category ordered by title with its items loaded.
func (r *CategoryRepository) ListWithItems(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("title ASC").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	return categories, nil
}

// FindByTitle looks a category up by its exact, case-sensitive title.
func (r *CategoryRepository) FindByTitle(ctx context.Context, title string) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).Where("title = ?", title).First(&category).Error
	if err != nil {
		return nil, translate(err, domainerrors.NotFoundf("category %q not found", title))
	}
	return &category, nil
}
