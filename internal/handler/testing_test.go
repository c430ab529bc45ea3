package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"item-catalog/internal/model"
	"item-catalog/internal/notify"
	"item-catalog/internal/repository"
	"item-catalog/internal/service"
	"item-catalog/internal/session"
	"item-catalog/internal/view"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// provider fakes the identity provider. The authorization code names the
// person logging in.
type provider struct {
	server     *httptest.Server
	revokeCode atomic.Int32
	people     map[string]service.Identity
}

func newProvider(t *testing.T) *provider {
	t.Helper()
	p := &provider{people: map[string]service.Identity{
		"ada": {ID: "1", Name: "Ada", Email: "ada@example.com"},
		"bob": {ID: "2", Name: "Bob", Email: "bob@example.com"},
	}}
	p.revokeCode.Store(http.StatusOK)

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		code := r.Form.Get("code")
		w.Header().Set("Content-Type", "application/json")
		if _, ok := p.people[code]; !ok {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_, _ = fmt.Fprintf(w, `{"access_token":"at-%s","refresh_token":"rt-%s","token_type":"Bearer","expires_in":3600}`, code, code)
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer at-")
		person, ok := p.people[code]
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(person)
	})
	mux.HandleFunc("/revoke", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(int(p.revokeCode.Load()))
	})
	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

type testApp struct {
	db       *gorm.DB
	server   *httptest.Server
	provider *provider
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ctx := context.Background()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repository.NewDB(fmt.Sprintf("file:http_%s?mode=memory&cache=shared", name), discardLogger)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	_, err = repository.SeedCategories(ctx, db, []string{"Tools", "Garden", "Rock Climbing"})
	require.NoError(t, err)

	p := newProvider(t)
	users := repository.NewUserRepository(db)
	items := repository.NewItemRepository(db)
	catalog := service.NewCatalogService(repository.NewCategoryRepository(db), items, users, notify.Nop{}, 10, discardLogger)
	auth := service.NewAuthService(&oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/oauth2callback",
		Scopes:       service.GoogleScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  p.server.URL + "/auth",
			TokenURL: p.server.URL + "/token",
		},
	}, service.AuthEndpoints{
		UserInfoURL: p.server.URL + "/userinfo",
		RevokeURL:   p.server.URL + "/revoke",
	}, users, discardLogger)

	views, err := view.New()
	require.NoError(t, err)
	sessions := session.NewManager(session.NewCookieStore(session.Options{Secret: "test", MaxAge: 3600}), "catalog_session", discardLogger)

	h := New(catalog, auth, sessions, views, func(ctx context.Context) error { return sqlDB.PingContext(ctx) }, discardLogger)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)

	return &testApp{db: db, server: srv, provider: p}
}

// browser is a cookie-keeping client that does not follow redirects.
type browser struct {
	t      *testing.T
	app    *testApp
	client *http.Client
}

func (a *testApp) browser(t *testing.T) *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{t: t, app: a, client: &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}}
}

type response struct {
	status   int
	body     string
	location string
	header   http.Header
}

func (b *browser) do(req *http.Request) response {
	b.t.Helper()
	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return response{status: resp.StatusCode, body: string(body), location: resp.Header.Get("Location"), header: resp.Header}
}

func (b *browser) get(path string) response {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.app.server.URL+path, nil)
	require.NoError(b.t, err)
	return b.do(req)
}

func (b *browser) post(path string, form url.Values) response {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodPost, b.app.server.URL+path, strings.NewReader(form.Encode()))
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

// login runs the authorization flow as the named provider account.
func (b *browser) login(code string) {
	b.t.Helper()
	resp := b.get("/authorize")
	require.Equal(b.t, http.StatusFound, resp.status)
	u, err := url.Parse(resp.location)
	require.NoError(b.t, err)
	state := u.Query().Get("state")
	require.NotEmpty(b.t, state)

	resp = b.get("/oauth2callback?" + url.Values{"state": {state}, "code": {code}}.Encode())
	require.Equal(b.t, http.StatusFound, resp.status)
	require.Equal(b.t, "/", resp.location)
}

func (b *browser) createItem(title, description, category string) response {
	b.t.Helper()
	return b.post("/catalog/item/new", url.Values{
		"title":       {title},
		"description": {description},
		"category":    {category},
	})
}

func (a *testApp) countItems(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, a.db.Model(&model.CategoryItem{}).Count(&n).Error)
	return n
}

func (a *testApp) countUsers(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, a.db.Model(&model.User{}).Count(&n).Error)
	return n
}
