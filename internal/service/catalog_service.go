package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	domainerrors "item-catalog/internal/errors"
	"item-catalog/internal/model"
	"item-catalog/internal/repository"
)

// Notifier delivers short HTML-formatted messages about catalog changes.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// ItemInput is the data required to create an item.
type ItemInput struct {
	Title       string `validate:"required,max=80"`
	Description string `validate:"max=250"`
	Category    string `validate:"required"`
}

// ItemUpdate carries edited fields. Empty fields are left unchanged.
type ItemUpdate struct {
	Title       string `validate:"omitempty,max=80"`
	Description string `validate:"omitempty,max=250"`
	Category    string
}

// CatalogService implements the catalog read and mutation rules.
type CatalogService struct {
	categories  *repository.CategoryRepository
	items       *repository.ItemRepository
	users       *repository.UserRepository
	notifier    Notifier
	validate    *validator.Validate
	recentLimit int
	log         *slog.Logger
}

func NewCatalogService(
	categories *repository.CategoryRepository,
	items *repository.ItemRepository,
	users *repository.UserRepository,
	notifier Notifier,
	recentLimit int,
	log *slog.Logger,
) *CatalogService {
	if log == nil {
		log = slog.Default()
	}
	return &CatalogService{
		categories:  categories,
		items:       items,
		users:       users,
		notifier:    notifier,
		validate:    newValidator(),
		recentLimit: recentLimit,
		log:         log,
	}
}

func (s *CatalogService) Categories(ctx context.Context) ([]model.Category, error) {
	return s.categories.List(ctx)
}

// Catalog returns every category with its items.
func (s *CatalogService) Catalog(ctx context.Context) ([]model.Category, error) {
	return s.categories.ListWithItems(ctx)
}

// RecentItems returns the most recently created items, newest first.
func (s *CatalogService) RecentItems(ctx context.Context) ([]model.CategoryItem, error) {
	return s.items.ListRecent(ctx, s.recentLimit)
}

func (s *CatalogService) CategoryItems(ctx context.Context, categoryTitle string) (*model.Category, []model.CategoryItem, error) {
	category, err := s.categories.FindByTitle(ctx, categoryTitle)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.items.ListByCategory(ctx, category.ID)
	if err != nil {
		return nil, nil, err
	}
	return category, items, nil
}

// Item resolves an item by exact category and item titles.
func (s *CatalogService) Item(ctx context.Context, categoryTitle, itemTitle string) (*model.CategoryItem, error) {
	category, err := s.categories.FindByTitle(ctx, categoryTitle)
	if err != nil {
		return nil, err
	}
	return s.items.FindByTitle(ctx, category, itemTitle)
}

// OwnedItem resolves an item and checks that userID created it.
func (s *CatalogService) OwnedItem(ctx context.Context, userID uint, categoryTitle, itemTitle string) (*model.CategoryItem, error) {
	item, err := s.Item(ctx, categoryTitle, itemTitle)
	if err != nil {
		return nil, err
	}
	if !item.OwnedBy(userID) {
		return item, domainerrors.Forbidden("You are not authorized to change this item")
	}
	return item, nil
}

func (s *CatalogService) CreateItem(ctx context.Context, userID uint, input ItemInput) (*model.CategoryItem, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Category = strings.TrimSpace(input.Category)
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if domainerrors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.ErrUnauthenticated.WithCause(err)
		}
		return nil, err
	}

	category, err := s.categories.FindByTitle(ctx, input.Category)
	if err != nil {
		return nil, err
	}
	if err := s.ensureTitleFree(ctx, category, input.Title, 0); err != nil {
		return nil, err
	}

	item := model.CategoryItem{
		Title:       input.Title,
		Description: input.Description,
		CategoryID:  category.ID,
		UserID:      user.ID,
	}
	if err := s.items.Create(ctx, &item); err != nil {
		if domainerrors.Is(err, domainerrors.ErrConflict) {
			return nil, duplicateItem(input.Title, category)
		}
		return nil, err
	}
	item.Category = category

	s.log.Info("item created", slog.Uint64("item_id", uint64(item.ID)), slog.Uint64("user_id", uint64(user.ID)), slog.String("category", category.Title))
	s.notify(ctx, fmt.Sprintf("🆕 <b>%s</b> added to <i>%s</i> by %s",
		html.EscapeString(item.Title), html.EscapeString(category.Title), html.EscapeString(user.Name)))
	return &item, nil
}

// UpdateItem applies the non-empty fields of update to an item owned by userID.
func (s *CatalogService) UpdateItem(ctx context.Context, userID uint, categoryTitle, itemTitle string, update ItemUpdate) (*model.CategoryItem, error) {
	item, err := s.OwnedItem(ctx, userID, categoryTitle, itemTitle)
	if err != nil {
		return nil, err
	}
	update.Title = strings.TrimSpace(update.Title)
	update.Category = strings.TrimSpace(update.Category)
	if err := s.validate.Struct(update); err != nil {
		return nil, validationError(err)
	}

	target := item.Category
	if update.Category != "" && update.Category != target.Title {
		if target, err = s.categories.FindByTitle(ctx, update.Category); err != nil {
			return nil, err
		}
	}
	title := item.Title
	if update.Title != "" {
		title = update.Title
	}

	fields := map[string]any{}
	if title != item.Title {
		fields["title"] = title
	}
	if update.Description != "" && update.Description != item.Description {
		fields["description"] = update.Description
	}
	if target.ID != item.CategoryID {
		fields["category_id"] = target.ID
	}
	if _, ok := fields["title"]; ok || target.ID != item.CategoryID {
		if err := s.ensureTitleFree(ctx, target, title, item.ID); err != nil {
			return nil, err
		}
	}

	if err := s.items.Update(ctx, item, fields); err != nil {
		if domainerrors.Is(err, domainerrors.ErrConflict) {
			return nil, duplicateItem(title, target)
		}
		return nil, err
	}
	item.Title = title
	if d, ok := fields["description"].(string); ok {
		item.Description = d
	}
	item.CategoryID = target.ID
	item.Category = target

	s.log.Info("item updated", slog.Uint64("item_id", uint64(item.ID)), slog.Int("fields", len(fields)))
	return item, nil
}

// DeleteItem removes an item owned by userID.
func (s *CatalogService) DeleteItem(ctx context.Context, userID uint, categoryTitle, itemTitle string) (*model.CategoryItem, error) {
	item, err := s.OwnedItem(ctx, userID, categoryTitle, itemTitle)
	if err != nil {
		return nil, err
	}
	if err := s.items.Delete(ctx, item); err != nil {
		return nil, err
	}

	s.log.Info("item deleted", slog.Uint64("item_id", uint64(item.ID)), slog.Uint64("user_id", uint64(userID)))
	s.notify(ctx, fmt.Sprintf("🗑 <b>%s</b> removed from <i>%s</i>",
		html.EscapeString(item.Title), html.EscapeString(item.Category.Title)))
	return item, nil
}

// ensureTitleFree fails with Conflict when another item of the category
// already uses title, compared case-insensitively.
func (s *CatalogService) ensureTitleFree(ctx context.Context, category *model.Category, title string, excludeID uint) error {
	_, err := s.items.FindByTitleFold(ctx, category.ID, title, excludeID)
	switch {
	case err == nil:
		return duplicateItem(title, category)
	case domainerrors.Is(err, domainerrors.ErrNotFound):
		return nil
	default:
		return err
	}
}

func (s *CatalogService) notify(ctx context.Context, text string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, text); err != nil {
		s.log.Warn("notify", slog.Any("error", err))
	}
}

func duplicateItem(title string, category *model.Category) error {
	return domainerrors.Conflictf("Item %q already exists in %s, try adding another item", title, category.Title)
}
