package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainerrors "item-catalog/internal/errors"
	"item-catalog/internal/model"
)

// ItemRepository handles CRUD for catalog items.
type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) Create(ctx context.Context, item *model.CategoryItem) error {
	item.TitleFold = model.FoldTitle(item.Title)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error; err != nil {
		return fmt.Errorf("create item: %w", translate(err, domainerrors.ErrNotFound))
	}
	return nil
}

// FindByTitle returns the item with exactly this title inside the category.
func (r *ItemRepository) FindByTitle(ctx context.Context, category *model.Category, title string) (*model.CategoryItem, error) {
	var item model.CategoryItem
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND title = ?", category.ID, title).
		First(&item).Error
	if err != nil {
		return nil, translate(err, domainerrors.NotFoundf("item %q not found in %q", title, category.Title))
	}
	item.Category = category
	return &item, nil
}

// FindByTitleFold returns an item of the category whose title matches
// after Unicode case folding, ignoring the item with id excludeID (0 excludes nothing).
func (r *ItemRepository) FindByTitleFold(ctx context.Context, categoryID uint, title string, excludeID uint) (*model.CategoryItem, error) {
	var item model.CategoryItem
	q := r.db.WithContext(ctx).Where("category_id = ? AND title_fold = ?", categoryID, model.FoldTitle(title))
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.First(&item).Error; err != nil {
		return nil, translate(err, domainerrors.NotFoundf("item %q not found", title))
	}
	return &item, nil
}

func (r *ItemRepository) ListByCategory(ctx context.Context, categoryID uint) ([]model.CategoryItem, error) {
	var items []model.CategoryItem
	if err := r.db.WithContext(ctx).Where("category_id = ?", categoryID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// ListRecent returns the newest items first, with their categories loaded.
func (r *ItemRepository) ListRecent(ctx context.Context, limit int) ([]model.CategoryItem, error) {
	var items []model.CategoryItem
	q := r.db.WithContext(ctx).Preload("Category").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list recent items: %w", err)
	}
	return items, nil
}

// ListCreatedBetween returns items created in the window (since, until],
// oldest first.
func (r *ItemRepository) ListCreatedBetween(ctx context.Context, since, until time.Time) ([]model.CategoryItem, error) {
	var items []model.CategoryItem
	err := r.db.WithContext(ctx).Preload("Category").
		Where("created_at > ? AND created_at <= ?", since, until).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list new items: %w", err)
	}
	return items, nil
}

// Update writes the given columns of the item in one statement.
func (r *ItemRepository) Update(ctx context.Context, item *model.CategoryItem, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	columns := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		columns[k] = v
	}
	if title, ok := fields["title"].(string); ok {
		columns["title_fold"] = model.FoldTitle(title)
	}
	err := r.db.WithContext(ctx).Model(item).Omit(clause.Associations).Updates(columns).Error
	if err != nil {
		return fmt.Errorf("update item: %w", translate(err, domainerrors.ErrNotFound))
	}
	return nil
}

func (r *ItemRepository) Delete(ctx context.Context, item *model.CategoryItem) error {
	if err := r.db.WithContext(ctx).Delete(&model.CategoryItem{}, item.ID).Error; err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}
