package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	domainerrors "item-catalog/internal/errors"
	"item-catalog/internal/model"
)

// UserRepository handles lookups and creation of users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", translate(err, domainerrors.ErrNotFound))
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).Order("id ASC").First(&user).Error; err != nil {
		return nil, translate(err, domainerrors.NotFoundf("user %q not found", email))
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err, domainerrors.NotFoundf("user %d not found", id))
	}
	return &user, nil
}

// FindOrCreateByEmail returns the user registered under email, creating it
// from the given profile when absent. A concurrent first login that wins the
// insert is read back instead of failing.
func (r *UserRepository) FindOrCreateByEmail(ctx context.Context, profile model.User) (*model.User, bool, error) {
	user, err := r.FindByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		return user, false, nil
	case domainerrors.Is(err, domainerrors.ErrNotFound):
		created := profile
		created.ID = 0
		err := r.Create(ctx, &created)
		switch {
		case err == nil:
			return &created, true, nil
		case domainerrors.Is(err, domainerrors.ErrConflict):
			existing, findErr := r.FindByEmail(ctx, profile.Email)
			if findErr != nil {
				return nil, false, fmt.Errorf("find user after conflict: %w", findErr)
			}
			return existing, false, nil
		default:
			return nil, false, err
		}
	default:
		return nil, false, fmt.Errorf("find user: %w", err)
	}
}
