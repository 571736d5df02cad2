package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (queries *Queries) CreateUser(ctx context.Context, user *User) error {
	return queries.DB.WithContext(ctx).Create(user).Error
}

func (queries *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var user User
	err := queries.DB.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (queries *Queries) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := queries.DB.WithContext(ctx).First(&user, "email = ?", email).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// UpdateUserPassword stores a new password hash and bumps the token version,
// which invalidates every JWT issued before the change.
func (queries *Queries) UpdateUserPassword(ctx context.Context, id uuid.UUID, hashed string) error {
	return queries.DB.WithContext(ctx).Model(&User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"password":      hashed,
			"token_version": gorm.Expr("token_version + 1"),
			"date_updated":  time.Now(),
		}).Error
}

func (queries *Queries) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return queries.DB.WithContext(ctx).Model(&User{}).
		Where("id = ?", id).
		Updates(map[string]any{"last_login_at": &now, "date_updated": now}).Error
}
