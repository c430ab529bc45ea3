package handler

import (
	"net/http"

	"item-catalog/internal/dto"
	domainerrors "item-catalog/internal/errors"
)

func (h *Handler) CatalogJSON(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Catalog(r.Context())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, dto.NewCatalog(categories))
}

func (h *Handler) CategoriesJSON(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, dto.NewCategories(categories))
}

func (h *Handler) CategoryItemsJSON(w http.ResponseWriter, r *http.Request) {
	_, items, err := h.catalog.CategoryItems(r.Context(), pathParam(r, "category"))
	if err != nil {
		if domainerrors.Is(err, domainerrors.ErrNotFound) {
			writeJSONError(w, err)
			return
		}
		h.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, dto.NewCategoryItems(items))
}

// ItemJSON answers a missing category or item with the plain text
// "Not Exists", which existing clients match on.
func (h *Handler) ItemJSON(w http.ResponseWriter, r *http.Request) {
	item, err := h.catalog.Item(r.Context(), pathParam(r, "category"), pathParam(r, "item"))
	if err != nil {
		if domainerrors.Is(err, domainerrors.ErrNotFound) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("Not Exists"))
			return
		}
		h.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, dto.NewCategoryItem(*item))
}
