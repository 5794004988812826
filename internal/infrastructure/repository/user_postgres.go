package repository

import (
	"context"
	"errors"
	"time"

	"github.com/waste3d/courseplatform-api/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrUserAlreadyExists
	}
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, translate(err, domain.ErrUserNotFound)
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, translate(err, domain.ErrUserNotFound)
	}
	return &user, nil
}

func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("google_id = ?", googleID).First(&user).Error
	if err != nil {
		return nil, translate(err, domain.ErrUserNotFound)
	}
	return &user, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, hash string) error {
	return r.update(ctx, userID, map[string]interface{}{"password_hash": hash})
}

func (r *UserRepository) MarkEmailVerified(ctx context.Context, userID uuid.UUID) error {
	return r.update(ctx, userID, map[string]interface{}{"email_verified": true})
}

// LinkGoogle attaches a Google identity to an existing account. Google has verified the address.
func (r *UserRepository) LinkGoogle(ctx context.Context, userID uuid.UUID, googleID, image string) error {
	updates := map[string]interface{}{
		"google_id":      googleID,
		"email_verified": true,
	}
	if image != "" {
		updates["image"] = image
	}
	return r.update(ctx, userID, updates)
}

func (r *UserRepository) SetRole(ctx context.Context, userID uuid.UUID, role string) error {
	return r.update(ctx, userID, map[string]interface{}{"role": role})
}

func (r *UserRepository) SetSubscribed(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return r.update(ctx, userID, map[string]interface{}{"is_subscribed": true, "subscribed_at": at})
}

func (r *UserRepository) update(ctx context.Context, userID uuid.UUID, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", userID).Updates(updates)
	if res.Error != nil {
		return translate(res.Error, domain.ErrUserNotFound)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
