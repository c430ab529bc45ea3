package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"item-catalog/internal/model"
)

func TestSeedCategoriesIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created, err := SeedCategories(ctx, db, []string{"Soccer", "Hockey", " ", "Soccer"})
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	created, err = SeedCategories(ctx, db, []string{"Hockey", "Skating"})
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	categories, err := NewCategoryRepository(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 3)
	assert.Equal(t, "Hockey", categories[0].Title)
	assert.Equal(t, "Skating", categories[1].Title)
	assert.Equal(t, "Soccer", categories[2].Title)
}

func TestEnsureDirForSQLiteSkipsMemory(t *testing.T) {
	assert.NoError(t, ensureDirForSQLite(":memory:"))
	assert.NoError(t, ensureDirForSQLite("file:x?mode=memory&cache=shared"))
	assert.NoError(t, ensureDirForSQLite("catalog.db"))
}

func TestEnsureDirForSQLiteCreatesParent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data", "nested")

	require.NoError(t, ensureDirForSQLite("file:"+filepath.Join(dir, "catalog.db")+"?_fk=1"))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestBackfillTitleFold(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, err := SeedCategories(ctx, db, []string{"Tools", "Garden"})
	require.NoError(t, err)

	require.NoError(t, db.Exec(
		"INSERT INTO category_items (title, title_fold, category_id, user_id) VALUES (?, '', 1, 1), (?, NULL, 2, 1)",
		"Ångström", "Rake",
	).Error)

	require.NoError(t, backfillTitleFold(db))

	var items []model.CategoryItem
	require.NoError(t, db.Order("id ASC").Find(&items).Error)
	require.Len(t, items, 2)
	assert.Equal(t, "ångström", items[0].TitleFold)
	assert.Equal(t, "rake", items[1].TitleFold)
}
