package repository

import (
	"context"
	"errors"
	"time"

	"github.com/waste3d/courseplatform-api/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EngagementRepository struct {
	db *gorm.DB
}

func NewEngagementRepository(db *gorm.DB) *EngagementRepository {
	return &EngagementRepository{db: db}
}

// Enroll is idempotent: enrolling twice keeps the first row.
func (r *EngagementRepository) Enroll(ctx context.Context, userID, courseID uuid.UUID) (*domain.Enrollment, error) {
	e := domain.Enrollment{UserID: userID, CourseID: courseID}
	err := r.db.WithContext(ctx).
		Where(domain.Enrollment{UserID: userID, CourseID: courseID}).
		Attrs(domain.Enrollment{CreatedAt: time.Now()}).
		FirstOrCreate(&e).Error
	return &e, err
}

// EnrolledIn returns the subset of courseIDs the user is enrolled in.
func (r *EngagementRepository) EnrolledIn(ctx context.Context, userID uuid.UUID, courseIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool)
	if len(courseIDs) == 0 {
		return out, nil
	}
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&domain.Enrollment{}).
		Where("user_id = ? AND course_id IN ?", userID, courseIDs).
		Pluck("course_id", &ids).Error
	for _, id := range ids {
		out[id] = true
	}
	return out, err
}

// ToggleLike flips the like and reports the new state with the video's like count.
func (r *EngagementRepository) ToggleLike(ctx context.Context, userID, videoID uuid.UUID) (bool, int64, error) {
	var liked bool
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND video_id = ?", userID, videoID).Delete(&domain.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			like := domain.Like{UserID: userID, VideoID: videoID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
				return err
			}
			liked = true
		}
		return tx.Model(&domain.Like{}).Where("video_id = ?", videoID).Count(&count).Error
	})
	return liked, count, err
}

func (r *EngagementRepository) LikeCounts(ctx context.Context, videoIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64)
	if len(videoIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		VideoID uuid.UUID
		N       int64
	}
	err := r.db.WithContext(ctx).Model(&domain.Like{}).
		Select("video_id, COUNT(*) AS n").
		Where("video_id IN ?", videoIDs).
		Group("video_id").
		Scan(&rows).Error
	for _, row := range rows {
		out[row.VideoID] = row.N
	}
	return out, err
}

func (r *EngagementRepository) LikedBy(ctx context.Context, userID uuid.UUID, videoIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool)
	if len(videoIDs) == 0 {
		return out, nil
	}
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&domain.Like{}).
		Where("user_id = ? AND video_id IN ?", userID, videoIDs).
		Pluck("video_id", &ids).Error
	for _, id := range ids {
		out[id] = true
	}
	return out, err
}

// SaveProgress upserts the position. Once a video is completed it stays completed.
func (r *EngagementRepository) SaveProgress(ctx context.Context, p *domain.WatchProgress) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.WatchProgress
		err := tx.Where("user_id = ? AND video_id = ?", p.UserID, p.VideoID).First(&existing).Error
		if err == nil && existing.Completed {
			p.Completed = true
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		p.UpdatedAt = time.Now()
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "video_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"seconds_watched", "percent", "completed", "updated_at"}),
		}).Create(p).Error
	})
}

// GetProgress returns the stored progress, or a zero row when the user never watched.
func (r *EngagementRepository) GetProgress(ctx context.Context, userID, videoID uuid.UUID) (*domain.WatchProgress, error) {
	p := domain.WatchProgress{UserID: userID, VideoID: videoID}
	err := r.db.WithContext(ctx).Where("user_id = ? AND video_id = ?", userID, videoID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &p, nil
	}
	return &p, err
}

func (r *EngagementRepository) ProgressFor(ctx context.Context, userID uuid.UUID, videoIDs []uuid.UUID) (map[uuid.UUID]domain.WatchProgress, error) {
	out := make(map[uuid.UUID]domain.WatchProgress)
	if len(videoIDs) == 0 {
		return out, nil
	}
	var rows []domain.WatchProgress
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND video_id IN ?", userID, videoIDs).
		Find(&rows).Error
	for _, row := range rows {
		out[row.VideoID] = row
	}
	return out, err
}

// RecentProgress lists the user's progress rows, latest first.
func (r *EngagementRepository) RecentProgress(ctx context.Context, userID uuid.UUID, limit int) ([]domain.WatchProgress, error) {
	var rows []domain.WatchProgress
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at desc").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
