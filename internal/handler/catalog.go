package handler

import (
	"net/http"

	domainerrors "item-catalog/internal/errors"
	"item-catalog/internal/middleware"
	"item-catalog/internal/service"
	"item-catalog/internal/session"
	"item-catalog/internal/view"
)

const (
	forbiddenEdit   = "You are not authorized to edit this Item"
	forbiddenDelete = "You are not authorized to delete, create your own"
)

// Index shows the categories and the latest items.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	p, err := h.page(w, r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	items, err := h.catalog.RecentItems(r.Context())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	p.Items = items
	h.render(w, r, http.StatusOK, view.PageIndex, p)
}

func (h *Handler) CategoryItems(w http.ResponseWriter, r *http.Request) {
	category, items, err := h.catalog.CategoryItems(r.Context(), pathParam(r, "category"))
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	p, err := h.page(w, r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	p.Title = category.Title
	p.Category = category
	p.Items = items
	h.render(w, r, http.StatusOK, view.PageCategoryItems, p)
}

func (h *Handler) Item(w http.ResponseWriter, r *http.Request) {
	item, err := h.catalog.Item(r.Context(), pathParam(r, "category"), pathParam(r, "item"))
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	p, err := h.page(w, r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	p.Title = item.Title
	p.Item = item
	p.Category = item.Category
	p.CanEdit = p.User.Authenticated && item.OwnedBy(p.User.ID)
	h.render(w, r, http.StatusOK, view.PageItem, p)
}

func (h *Handler) NewItemForm(w http.ResponseWriter, r *http.Request) {
	p, err := h.page(w, r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	p.Title = "New Item"
	p.Form.Category = r.URL.Query().Get("category")
	h.render(w, r, http.StatusOK, view.PageNewItem, p)
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	sess := session.FromContext(r.Context())
	input := service.ItemInput{
		Title:       r.PostForm.Get("title"),
		Description: r.PostForm.Get("description"),
		Category:    r.PostForm.Get("category"),
	}

	item, err := h.catalog.CreateItem(r.Context(), sess.UserID(), input)
	switch {
	case err == nil:
	case domainerrors.Is(err, domainerrors.ErrUnauthenticated):
		// The session outlived its user row.
		sess.SignOut()
		h.saveSession(w, r, sess)
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	case isFormError(err):
		h.redisplay(w, r, view.PageNewItem, err, func(p *view.Page) {
			p.Title = "New Item"
			p.Form = view.ItemForm{Title: input.Title, Description: input.Description, Category: input.Category}
		})
		return
	default:
		h.fail(w, r, err, "")
		return
	}

	middleware.RecordItemEvent(middleware.ItemCreated)
	sess.AddFlash("New Item Created")
	h.saveSession(w, r, sess)
	http.Redirect(w, r, categoryURL(item.Category.Title), http.StatusFound)
}

func (h *Handler) EditItemForm(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	item, err := h.catalog.OwnedItem(r.Context(), sess.UserID(), pathParam(r, "category"), pathParam(r, "item"))
	if err != nil {
		h.fail(w, r, err, forbiddenEdit)
		return
	}
	p, err := h.page(w, r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	p.Title = "Edit " + item.Title
	p.Item = item
	h.render(w, r, http.StatusOK, view.PageEditItem, p)
}

// UpdateItem applies the non-empty submitted fields.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	sess := session.FromContext(r.Context())
	categoryTitle, itemTitle := pathParam(r, "category"), pathParam(r, "item")

	// Resolve first so a missing or foreign item is not mistaken for a form error.
	current, err := h.catalog.OwnedItem(r.Context(), sess.UserID(), categoryTitle, itemTitle)
	if err != nil {
		h.fail(w, r, err, forbiddenEdit)
		return
	}

	update := service.ItemUpdate{
		Title:       r.PostForm.Get("title"),
		Description: r.PostForm.Get("description"),
		Category:    r.PostForm.Get("category"),
	}
	item, err := h.catalog.UpdateItem(r.Context(), sess.UserID(), categoryTitle, itemTitle, update)
	switch {
	case err == nil:
	case domainerrors.Is(err, domainerrors.ErrForbidden):
		h.fail(w, r, err, forbiddenEdit)
		return
	case isFormError(err):
		h.redisplay(w, r, view.PageEditItem, err, func(p *view.Page) {
			p.Title = "Edit " + current.Title
			p.Item = current
			p.Form = view.ItemForm{Title: update.Title, Description: update.Description, Category: update.Category}
		})
		return
	default:
		h.fail(w, r, err, "")
		return
	}

	middleware.RecordItemEvent(middleware.ItemUpdated)
	sess.AddFlash("Item Edited successfully")
	h.saveSession(w, r, sess)
	http.Redirect(w, r, itemURL(item.Category.Title, item.Title), http.StatusFound)
}

func (h *Handler) DeleteItemForm(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	item, err := h.catalog.OwnedItem(r.Context(), sess.UserID(), pathParam(r, "category"), pathParam(r, "item"))
	if err != nil {
		h.fail(w, r, err, forbiddenDelete)
		return
	}
	p, err := h.page(w, r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	p.Title = "Delete " + item.Title
	p.Item = item
	h.render(w, r, http.StatusOK, view.PageDeleteItem, p)
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	item, err := h.catalog.DeleteItem(r.Context(), sess.UserID(), pathParam(r, "category"), pathParam(r, "item"))
	if err != nil {
		h.fail(w, r, err, forbiddenDelete)
		return
	}

	middleware.RecordItemEvent(middleware.ItemDeleted)
	sess.AddFlash("Item deleted successfully")
	h.saveSession(w, r, sess)
	http.Redirect(w, r, categoryURL(item.Category.Title), http.StatusFound)
}

// redisplay renders a form page again with err as a flash and err's status.
func (h *Handler) redisplay(w http.ResponseWriter, r *http.Request, name string, err error, fill func(*view.Page)) {
	p, perr := h.page(w, r)
	if perr != nil {
		h.fail(w, r, perr, "")
		return
	}
	fill(&p)
	p.Flashes = append(p.Flashes, domainerrors.Message(err))
	h.render(w, r, domainerrors.CodeOf(err).HTTPStatus(), name, p)
}
