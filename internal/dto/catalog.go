// Package dto maps catalog records onto the JSON response shapes.
package dto

import "item-catalog/internal/model"

// Item is the JSON form of a catalog item. CatID is the owning category id.
type Item struct {
	CatID       uint   `json:"cat_id"`
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Category struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

// CategoryWithItems is a category and its items in the full catalog.
type CategoryWithItems struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
	Items []Item `json:"Items"`
}

// CatalogResponse is served by /catalog.json.
type CatalogResponse struct {
	Category []CategoryWithItems `json:"Category"`
}

type CategoriesResponse struct {
	Categories []Category `json:"Categories"`
}

type CategoryItemsResponse struct {
	CategoryItems []Item `json:"CategoryItems"`
}

type CategoryItemResponse struct {
	CategoryItem Item `json:"CategoryItem"`
}

// ErrorResponse is the JSON body of a failed JSON request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewItem(item model.CategoryItem) Item {
	return Item{
		CatID:       item.CategoryID,
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
	}
}

func NewItems(items []model.CategoryItem) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		out = append(out, NewItem(item))
	}
	return out
}

// NewCatalog expects categories with their Items loaded.
func NewCatalog(categories []model.Category) CatalogResponse {
	out := make([]CategoryWithItems, 0, len(categories))
	for _, c := range categories {
		out = append(out, CategoryWithItems{ID: c.ID, Title: c.Title, Items: NewItems(c.Items)})
	}
	return CatalogResponse{Category: out}
}

func NewCategories(categories []model.Category) CategoriesResponse {
	out := make([]Category, 0, len(categories))
	for _, c := range categories {
		out = append(out, Category{ID: c.ID, Title: c.Title})
	}
	return CategoriesResponse{Categories: out}
}

func NewCategoryItems(items []model.CategoryItem) CategoryItemsResponse {
	return CategoryItemsResponse{CategoryItems: NewItems(items)}
}

func NewCategoryItem(item model.CategoryItem) CategoryItemResponse {
	return CategoryItemResponse{CategoryItem: NewItem(item)}
}
