package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"item-catalog/internal/dto"
	domainerrors "item-catalog/internal/errors"
	"item-catalog/internal/session"
	"item-catalog/internal/view"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, err error) {
	code := domainerrors.CodeOf(err)
	writeJSON(w, code.HTTPStatus(), dto.ErrorResponse{Error: string(code), Message: domainerrors.Message(err)})
}

// page prepares the data shared by every HTML page: the visitor, pending
// flashes and the category list. Consumed flashes are saved right away, so
// page must run before anything is written.
func (h *Handler) page(w http.ResponseWriter, r *http.Request) (view.Page, error) {
	var p view.Page
	if sess := session.FromContext(r.Context()); sess != nil {
		id := sess.Identity()
		p.User = view.User{
			Authenticated: sess.Authenticated(),
			ID:            id.UserID,
			Name:          id.Name,
			Picture:       id.Picture,
		}
		if flashes := sess.Flashes(); len(flashes) > 0 {
			p.Flashes = flashes
			h.saveSession(w, r, sess)
		}
	}
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		return p, err
	}
	p.Categories = categories
	return p, nil
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, p view.Page) {
	if err := h.views.Render(w, status, name, p); err != nil {
		h.log.Error("render failed", slog.String("page", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// fail answers an HTML request with the response that matches err's code.
// forbidden overrides the message of Forbidden errors.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, forbidden string) {
	switch domainerrors.CodeOf(err) {
	case domainerrors.CodeUnauthenticated:
		http.Redirect(w, r, "/login", http.StatusFound)
	case domainerrors.CodeForbidden:
		if forbidden == "" {
			forbidden = domainerrors.Message(err)
		}
		http.Error(w, forbidden, http.StatusForbidden)
	case domainerrors.CodeNotFound:
		p, perr := h.page(w, r)
		if perr != nil {
			http.Error(w, domainerrors.Message(err), http.StatusNotFound)
			return
		}
		p.Title = "Not Found"
		p.Message = domainerrors.Message(err)
		h.render(w, r, http.StatusNotFound, view.PageError, p)
	default:
		h.log.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) saveSession(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := sess.Save(r, w); err != nil {
		h.log.Error("save session", slog.Any("error", err))
	}
}

// isFormError reports whether err should redisplay the submitted form.
func isFormError(err error) bool {
	switch domainerrors.CodeOf(err) {
	case domainerrors.CodeValidation, domainerrors.CodeConflict, domainerrors.CodeNotFound:
		return true
	}
	return false
}
