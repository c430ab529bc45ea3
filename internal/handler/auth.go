package handler

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"item-catalog/internal/middleware"
	"item-catalog/internal/service"
	"item-catalog/internal/session"
	"item-catalog/internal/view"
)

const loginFirstMessage = `You need to <a href="/authorize">Login first</a> before to revoke credentials and logout`

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	p, err := h.page(w, r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	p.Title = "Login"
	h.render(w, r, http.StatusOK, view.PageLogin, p)
}

// Authorize starts the authorization code flow.
func (h *Handler) Authorize(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess.Authenticated() {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	state, err := service.NewState()
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	sess.SetState(state)
	if err := sess.Save(r, w); err != nil {
		h.fail(w, r, err, "")
		return
	}
	http.Redirect(w, r, h.auth.AuthURL(state), http.StatusFound)
}

// OAuthCallback completes the login. The stored state is consumed whatever
// the outcome, and nothing is exchanged unless it matches.
func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	expected := sess.PopState()
	q := r.URL.Query()

	if providerErr := q.Get("error"); providerErr != "" {
		h.log.Warn("provider rejected authorization", slog.String("error", providerErr))
		h.loginFailed(w, r, sess, "Login was cancelled or denied.")
		return
	}
	state := q.Get("state")
	if expected == "" || subtle.ConstantTimeCompare([]byte(state), []byte(expected)) != 1 {
		h.log.Warn("oauth state mismatch", slog.Bool("had_state", expected != ""))
		h.loginFailed(w, r, sess, "Invalid login state, please try again.")
		return
	}

	login, err := h.auth.Complete(r.Context(), q.Get("code"))
	if err != nil {
		h.log.Error("complete login", slog.Any("error", err))
		h.loginFailed(w, r, sess, "Login failed, please try again.")
		return
	}

	sess.SignIn(session.Identity{
		UserID:  login.User.ID,
		Name:    login.User.Name,
		Email:   login.User.Email,
		Picture: login.User.Picture,
	}, login.Token, login.RefreshToken)
	sess.AddFlash("Login Successful")
	h.saveSession(w, r, sess)
	middleware.RecordLogin("success")

	h.log.Info("user logged in", slog.Uint64("user_id", uint64(login.User.ID)), slog.Bool("new_user", login.NewUser))
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) loginFailed(w http.ResponseWriter, r *http.Request, sess *session.Session, msg string) {
	middleware.RecordLogin("failure")
	sess.AddFlash(msg)
	h.saveSession(w, r, sess)
	http.Redirect(w, r, "/login", http.StatusFound)
}

// Revoke invalidates the access token at the provider and signs out. The
// session is kept when the provider refuses, so the user can retry.
func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if !sess.Authenticated() {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(loginFirstMessage))
		return
	}

	if err := h.auth.Revoke(r.Context(), sess.Token()); err != nil {
		h.log.Error("revoke token", slog.Uint64("user_id", uint64(sess.UserID())), slog.Any("error", err))
		http.Error(w, "An error occurred.", http.StatusBadGateway)
		return
	}
	h.Clear(w, r)
}

// Clear forgets the signed-in identity.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	sess.SignOut()
	sess.AddFlash("Logout Successful")
	h.saveSession(w, r, sess)
	http.Redirect(w, r, "/", http.StatusFound)
}
