package repository

import (
	"context"
	"database/sql"

	"github.com/waste3d/courseplatform-api/internal/domain"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/cache"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VideoRepository struct {
	db    *gorm.DB
	cache *cache.CourseCache
}

func NewVideoRepository(db *gorm.DB, cache *cache.CourseCache) *VideoRepository {
	return &VideoRepository{db: db, cache: cache}
}

// List returns videos in play order, optionally restricted to one course.
func (r *VideoRepository) List(ctx context.Context, courseID *uuid.UUID, all bool) ([]domain.Video, error) {
	var videos []domain.Video
	query := r.db.WithContext(ctx)
	if courseID != nil {
		query = query.Where("course_id = ?", *courseID)
	}
	if !all {
		query = query.Where("is_published = ?", true)
	}
	err := query.Order("course_id, order_index asc, created_at asc").Find(&videos).Error
	return videos, err
}

func (r *VideoRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Video, error) {
	var v domain.Video
	if err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		return nil, translate(err, domain.ErrNotFound)
	}
	return &v, nil
}

// GetByStorageKey looks a video up by bucket key. A miss is ErrNotFound and is not
// logged by gorm.
func (r *VideoRepository) GetByStorageKey(ctx context.Context, key string) (*domain.Video, error) {
	var v domain.Video
	res := r.db.WithContext(ctx).Where("storage_key = ?", key).Limit(1).Find(&v)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}
	return &v, nil
}

// NextOrderIndex is one past the highest order index used in the course.
func (r *VideoRepository) NextOrderIndex(ctx context.Context, courseID uuid.UUID) (int, error) {
	var top sql.NullInt64
	err := r.db.WithContext(ctx).Model(&domain.Video{}).
		Where("course_id = ?", courseID).
		Select("MAX(order_index)").
		Row().Scan(&top)
	if err != nil || !top.Valid {
		return 0, err
	}
	return int(top.Int64) + 1, nil
}

func (r *VideoRepository) Create(ctx context.Context, v *domain.Video) error {
	if err := r.db.WithContext(ctx).Create(v).Error; err != nil {
		return translate(err, domain.ErrNotFound)
	}
	r.cache.Invalidate(ctx)
	return nil
}

func (r *VideoRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*domain.Video, error) {
	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&domain.Video{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, translate(res.Error, domain.ErrNotFound)
		}
		r.cache.Invalidate(ctx)
	}
	return r.GetByID(ctx, id)
}

// Delete removes the video row with its likes and progress and returns the removed row.
func (r *VideoRepository) Delete(ctx context.Context, id uuid.UUID) (*domain.Video, error) {
	var v domain.Video
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&v, "id = ?", id).Error; err != nil {
			return translate(err, domain.ErrNotFound)
		}
		if err := tx.Where("video_id = ?", id).Delete(&domain.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("video_id = ?", id).Delete(&domain.WatchProgress{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Video{}, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	r.cache.Invalidate(ctx)
	return &v, nil
}
