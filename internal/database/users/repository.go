// Package users stores staff accounts. Password and token hashing happen
// in the auth service.
package users

import (
	"gorm.io/gorm"

	"github.com/mrlokans/locallibrary/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// matched turns a write that touched no row into gorm.ErrRecordNotFound.
func matched(res *gorm.DB) error {
	if res.Error == nil && res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return res.Error
}

func (r *Repository) first(query any, args ...any) (*entities.User, error) {
	var user entities.User
	if err := r.db.Where(query, args...).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) CreateUser(user *entities.User) error {
	return r.db.Create(user).Error
}

// ListUsers orders accounts by username.
func (r *Repository) ListUsers() ([]entities.User, error) {
	var all []entities.User
	err := r.db.Order("username").Find(&all).Error
	return all, err
}

func (r *Repository) GetUserByID(id uint) (*entities.User, error) {
	return r.first("id = ?", id)
}

// GetUserByLogin accepts either the username or the email address.
func (r *Repository) GetUserByLogin(login string) (*entities.User, error) {
	return r.first("username = ? OR email = ?", login, login)
}

// GetUserByTokenHash never matches an empty hash, which is what accounts
// without a token store.
func (r *Repository) GetUserByTokenHash(hash string) (*entities.User, error) {
	if hash == "" {
		return nil, gorm.ErrRecordNotFound
	}
	return r.first("token_hash = ?", hash)
}

// Exists reports whether either the username or the email is taken.
func (r *Repository) Exists(username, email string) (bool, error) {
	var n int64
	err := r.db.Model(&entities.User{}).Where("username = ? OR email = ?", username, email).Count(&n).Error
	return n > 0, err
}

// UpdateFields applies a partial update.
func (r *Repository) UpdateFields(id uint, fields map[string]any) error {
	return matched(r.db.Model(&entities.User{}).Where("id = ?", id).Updates(fields))
}

func (r *Repository) SetRole(id uint, role entities.UserRole) error {
	return r.UpdateFields(id, map[string]any{"role": role})
}

// DeleteUser soft-deletes the account.
func (r *Repository) DeleteUser(id uint) error {
	return matched(r.db.Delete(&entities.User{}, id))
}

// Count excludes deleted accounts.
func (r *Repository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&entities.User{}).Count(&n).Error
	return n, err
}
