package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"item-catalog/internal/model"
	"item-catalog/internal/repository"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repository.NewDB(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name), discardLogger)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (f *fakeNotifier) Notify(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, text)
	return nil
}

func (f *fakeNotifier) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

type catalogFixture struct {
	db       *gorm.DB
	svc      *CatalogService
	items    *repository.ItemRepository
	notifier *fakeNotifier
	ada      *model.User
	bob      *model.User
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	ctx := context.Background()
	db := newTestDB(t)
	_, err := repository.SeedCategories(ctx, db, []string{"Tools", "Garden"})
	require.NoError(t, err)

	users := repository.NewUserRepository(db)
	ada := &model.User{Name: "Ada", Email: "ada@example.com"}
	bob := &model.User{Name: "Bob", Email: "bob@example.com"}
	require.NoError(t, users.Create(ctx, ada))
	require.NoError(t, users.Create(ctx, bob))

	items := repository.NewItemRepository(db)
	notifier := &fakeNotifier{}
	svc := NewCatalogService(repository.NewCategoryRepository(db), items, users, notifier, 10, discardLogger)
	return &catalogFixture{db: db, svc: svc, items: items, notifier: notifier, ada: ada, bob: bob}
}
