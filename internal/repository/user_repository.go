package repository

import (
	"context"
	stderrors "errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stockroom/internal/errors"
	"stockroom/internal/model"
)

// roleRankOrder sorts admins first, then staff, then plain users.
const roleRankOrder = "CASE role WHEN 'admin' THEN 0 WHEN 'staff' THEN 1 ELSE 2 END"

// UserRepository defines persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) (bool, error)
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpdateRole(ctx context.Context, id uint, role model.Role) (bool, error)
	UpdatePasswordHash(ctx context.Context, id uint, hash string) error
	Delete(ctx context.Context, id uint) (bool, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts user and reports false when the username is already taken.
func (r *userRepository) Create(ctx context.Context, user *model.User) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(user)
	if res.Error != nil {
		return false, storageError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", id, errors.ErrNotFound)
		}
		return nil, storageError(err)
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %q: %w", username, errors.ErrNotFound)
		}
		return nil, storageError(err)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order(roleRankOrder).Order("username ASC").Find(&users).Error; err != nil {
		return nil, storageError(err)
	}
	return users, nil
}

func (r *userRepository) UpdateRole(ctx context.Context, id uint, role model.Role) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return false, storageError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *userRepository) UpdatePasswordHash(ctx context.Context, id uint, hash string) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return storageError(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %d: %w", id, errors.ErrNotFound)
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.User{}, id)
	if res.Error != nil {
		return false, storageError(res.Error)
	}
	return res.RowsAffected > 0, nil
}
