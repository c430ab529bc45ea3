// Package view renders the catalog's HTML pages.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"item-catalog/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names.
const (
	PageIndex         = "index"
	PageLogin         = "login"
	PageCategoryItems = "category_items"
	PageItem          = "item"
	PageNewItem       = "new_item"
	PageEditItem      = "edit_item"
	PageDeleteItem    = "delete_item"
	PageError         = "error"
)

// User is the signed-in visitor shown in the header.
type User struct {
	Authenticated bool
	ID            uint
	Name          string
	Picture       string
}

// ItemForm echoes submitted form values back into a redisplayed form.
type ItemForm struct {
	Title       string
	Description string
	Category    string
}

// Page is the data every template receives.
type Page struct {
	Title      string
	Message    string
	User       User
	Flashes    []string
	Categories []model.Category
	Category   *model.Category
	Items      []model.CategoryItem
	Item       *model.CategoryItem
	CanEdit    bool
	Form       ItemForm
}

// Renderer executes the embedded page templates.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"firstUpper": firstUpper,
	"pathEscape": url.PathEscape,
}

// New parses every page against the shared layout.
func New() (*Renderer, error) {
	layout, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		name := strings.TrimSuffix(strings.TrimPrefix(file, "templates/"), ".html")
		if name == "layout" {
			continue
		}
		clone, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout: %w", err)
		}
		if _, err := clone.ParseFS(templateFS, file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		pages[name] = clone
	}
	return &Renderer{pages: pages}, nil
}

// Render writes page with the given status. The template is executed into a
// buffer first so a failing template never produces a half-written page.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data Page) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

func firstUpper(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
