package repository

import (
	"context"
	"strings"

	"github.com/waste3d/courseplatform-api/internal/domain"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/cache"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CourseFilter struct {
	Search             string
	Difficulty         string
	Limit              int
	Offset             int
	IncludeUnpublished bool
}

type CoursePage struct {
	Courses     []domain.Course
	Total       int64
	VideoCounts map[uuid.UUID]int64
}

type CourseRepository struct {
	db    *gorm.DB
	cache *cache.CourseCache
}

func NewCourseRepository(db *gorm.DB, cache *cache.CourseCache) *CourseRepository {
	return &CourseRepository{db: db, cache: cache}
}

func (r *CourseRepository) List(ctx context.Context, f CourseFilter) (*CoursePage, error) {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	key := r.cache.ListKey(ctx, search, f.Difficulty, f.Limit, f.Offset, f.IncludeUnpublished)

	var page CoursePage
	if err := r.cache.Load(ctx, key, &page); err == nil {
		return &page, nil
	}

	query := r.db.WithContext(ctx).Model(&domain.Course{})
	if !f.IncludeUnpublished {
		query = query.Where("is_published = ?", true)
	}
	if search != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+search+"%")
	}
	if f.Difficulty != "" {
		query = query.Where("difficulty = ?", f.Difficulty)
	}

	if err := query.Count(&page.Total).Error; err != nil {
		return nil, err
	}
	err := query.Limit(f.Limit).Offset(f.Offset).Order("created_at desc").Find(&page.Courses).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(page.Courses))
	for i, c := range page.Courses {
		ids[i] = c.ID
	}
	page.VideoCounts, err = r.countVideos(ctx, ids, f.IncludeUnpublished)
	if err != nil {
		return nil, err
	}

	r.cache.StoreList(ctx, key, page)
	return &page, nil
}

func (r *CourseRepository) countVideos(ctx context.Context, courseIDs []uuid.UUID, all bool) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(courseIDs))
	if len(courseIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		CourseID uuid.UUID
		N        int64
	}
	query := r.db.WithContext(ctx).Model(&domain.Video{}).
		Select("course_id, COUNT(*) AS n").
		Where("course_id IN ?", courseIDs)
	if !all {
		query = query.Where("is_published = ?", true)
	}
	if err := query.Group("course_id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.CourseID] = row.N
	}
	return counts, nil
}

// GetWithVideos loads a course by UUID or slug together with its videos in play order.
func (r *CourseRepository) GetWithVideos(ctx context.Context, idOrSlug string, all bool) (*domain.Course, error) {
	key := r.cache.DetailKey(ctx, idOrSlug, all)

	var course domain.Course
	if err := r.cache.Load(ctx, key, &course); err == nil {
		return &course, nil
	}

	query := r.db.WithContext(ctx).Preload("Videos", func(db *gorm.DB) *gorm.DB {
		if !all {
			db = db.Where("is_published = ?", true)
		}
		return db.Order("order_index asc, created_at asc")
	})
	if !all {
		query = query.Where("is_published = ?", true)
	}
	if id, err := uuid.Parse(idOrSlug); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("slug = ?", idOrSlug)
	}
	if err := query.First(&course).Error; err != nil {
		return nil, translate(err, domain.ErrNotFound)
	}

	r.cache.StoreDetail(ctx, key, course)
	return &course, nil
}

func (r *CourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	var course domain.Course
	err := r.db.WithContext(ctx).First(&course, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, domain.ErrNotFound)
	}
	return &course, nil
}

func (r *CourseRepository) Create(ctx context.Context, c *domain.Course) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return translate(err, domain.ErrNotFound)
	}
	r.cache.Invalidate(ctx)
	return nil
}

func (r *CourseRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*domain.Course, error) {
	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&domain.Course{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, translate(res.Error, domain.ErrNotFound)
		}
		r.cache.Invalidate(ctx)
	}
	return r.GetByID(ctx, id)
}

// Delete removes the course with its videos and their likes and progress.
// It returns the storage keys of the removed videos.
func (r *CourseRepository) Delete(ctx context.Context, id uuid.UUID) ([]string, error) {
	var keys []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var videoIDs []uuid.UUID
		if err := tx.Model(&domain.Video{}).Where("course_id = ?", id).Pluck("id", &videoIDs).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.Video{}).Where("course_id = ?", id).Pluck("storage_key", &keys).Error; err != nil {
			return err
		}
		if len(videoIDs) > 0 {
			if err := tx.Where("video_id IN ?", videoIDs).Delete(&domain.Like{}).Error; err != nil {
				return err
			}
			if err := tx.Where("video_id IN ?", videoIDs).Delete(&domain.WatchProgress{}).Error; err != nil {
				return err
			}
			if err := tx.Where("course_id = ?", id).Delete(&domain.Video{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("course_id = ?", id).Delete(&domain.Enrollment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Course{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.cache.Invalidate(ctx)
	return keys, nil
}
