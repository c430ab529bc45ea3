package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	domainerrors "item-catalog/internal/errors"
	"item-catalog/internal/model"
)

// itemTitleIndex keeps item titles unique per category regardless of case.
// SQLite's NOCASE only folds ASCII, so the folded title is stored alongside.
const itemTitleIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_category_items_category_title_fold
	ON category_items (category_id, title_fold)`

const legacyItemTitleIndex = `DROP INDEX IF EXISTS idx_category_items_category_title_nocase`

// NewDB opens a SQLite database and runs migrations.
func NewDB(dsn string, log *slog.Logger) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "catalog.db"
	}
	if log == nil {
		log = slog.Default()
	}

	if err := ensureDirForSQLite(dsn); err != nil {
		return nil, err
	}

	dbLogger := logger.New(
		slog.NewLogLogger(log.Handler(), slog.LevelWarn),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         dbLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.AutoMigrate(&model.User{}, &model.Category{}, &model.CategoryItem{}); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	if err := db.Exec(legacyItemTitleIndex).Error; err != nil {
		return nil, fmt.Errorf("drop legacy title index: %w", err)
	}
	if err := backfillTitleFold(db); err != nil {
		return nil, err
	}
	if err := db.Exec(itemTitleIndex).Error; err != nil {
		return nil, fmt.Errorf("create item title index: %w", err)
	}

	return db, nil
}

// SeedCategories inserts every title that is not in the catalog yet.
func SeedCategories(ctx context.Context, db *gorm.DB, titles []string) (int, error) {
	created := 0
	for _, title := range titles {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		tx := db.WithContext(ctx)
		var count int64
		if err := tx.Model(&model.Category{}).Where("title = ?", title).Count(&count).Error; err != nil {
			return created, fmt.Errorf("find category %q: %w", title, err)
		}
		if count > 0 {
			continue
		}
		if err := tx.Create(&model.Category{Title: title}).Error; err != nil {
			return created, fmt.Errorf("seed category %q: %w", title, err)
		}
		created++
	}
	return created, nil
}

// backfillTitleFold fills the folded title of rows written before the column
// existed.
func backfillTitleFold(db *gorm.DB) error {
	var items []model.CategoryItem
	if err := db.Select("id", "title").Where("title_fold IS NULL OR title_fold = ''").Find(&items).Error; err != nil {
		return fmt.Errorf("load items to fold: %w", err)
	}
	for _, item := range items {
		err := db.Model(&model.CategoryItem{}).Where("id = ?", item.ID).
			UpdateColumn("title_fold", model.FoldTitle(item.Title)).Error
		if err != nil {
			return fmt.Errorf("fold title of item %d: %w", item.ID, err)
		}
	}
	return nil
}

// ensureDirForSQLite creates the directory holding a file-backed database.
func ensureDirForSQLite(dsn string) error {
	path, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	if path == "" || path == ":memory:" || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create db dir %q: %w", dir, err)
		}
	}
	return nil
}

// translate maps gorm errors onto domain errors.
func translate(err error, notFound *domainerrors.Error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound.WithCause(err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domainerrors.ErrConflict.WithCause(err)
	default:
		return err
	}
}
