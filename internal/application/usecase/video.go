package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/waste3d/courseplatform-api/internal/domain"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/repository"

	"github.com/google/uuid"
)

const recentProgressLimit = 20

type VideoView struct {
	domain.Video
	Liked     bool                  `json:"liked"`
	LikeCount int64                 `json:"like_count"`
	Progress  *domain.WatchProgress `json:"progress,omitempty"`
}

type VideoInput struct {
	CourseID     uuid.UUID
	Title        string
	Description  string
	Duration     int
	StorageKey   string
	ThumbnailKey string
	OrderIndex   *int
	IsPublished  bool
	IsFree       bool
}

type VideoPatch struct {
	Title        *string
	Description  *string
	Duration     *int
	StorageKey   *string
	ThumbnailKey *string
	OrderIndex   *int
	IsPublished  *bool
	IsFree       *bool
}

type LikeResult struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}

type VideoUseCase struct {
	videoRepo      *repository.VideoRepository
	courseRepo     *repository.CourseRepository
	engagementRepo *repository.EngagementRepository
	store          ObjectRemover
}

func NewVideoUseCase(vr *repository.VideoRepository, cr *repository.CourseRepository, er *repository.EngagementRepository, store ObjectRemover) *VideoUseCase {
	return &VideoUseCase{videoRepo: vr, courseRepo: cr, engagementRepo: er, store: store}
}

// enrichVideos attaches like and progress data for the viewer and hides the
// storage key of videos the viewer may not play.
func enrichVideos(ctx context.Context, er *repository.EngagementRepository, viewer *domain.User, videos []domain.Video) ([]VideoView, error) {
	out := make([]VideoView, 0, len(videos))
	if len(videos) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, len(videos))
	for i, v := range videos {
		ids[i] = v.ID
	}

	counts, err := er.LikeCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	liked := map[uuid.UUID]bool{}
	progress := map[uuid.UUID]domain.WatchProgress{}
	if viewer != nil {
		if liked, err = er.LikedBy(ctx, viewer.ID, ids); err != nil {
			return nil, err
		}
		if progress, err = er.ProgressFor(ctx, viewer.ID, ids); err != nil {
			return nil, err
		}
	}

	for _, v := range videos {
		view := VideoView{Video: v, Liked: liked[v.ID], LikeCount: counts[v.ID]}
		if p, ok := progress[v.ID]; ok {
			p := p
			view.Progress = &p
		}
		if !canPlay(viewer, &v) {
			view.StorageKey = ""
		}
		out = append(out, view)
	}
	return out, nil
}

func canPlay(viewer *domain.User, v *domain.Video) bool {
	if viewer == nil {
		return false
	}
	return v.IsFree || viewer.CanStream()
}

func (uc *VideoUseCase) List(ctx context.Context, viewer *domain.User, courseID *uuid.UUID) ([]VideoView, error) {
	all := viewer != nil && viewer.IsAdmin()
	videos, err := uc.videoRepo.List(ctx, courseID, all)
	if err != nil {
		return nil, err
	}
	return enrichVideos(ctx, uc.engagementRepo, viewer, videos)
}

func (uc *VideoUseCase) Get(ctx context.Context, viewer *domain.User, id uuid.UUID) (*VideoView, error) {
	v, err := uc.visibleVideo(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	views, err := enrichVideos(ctx, uc.engagementRepo, viewer, []domain.Video{*v})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (uc *VideoUseCase) visibleVideo(ctx context.Context, viewer *domain.User, id uuid.UUID) (*domain.Video, error) {
	v, err := uc.videoRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !v.IsPublished && (viewer == nil || !viewer.IsAdmin()) {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (uc *VideoUseCase) Create(ctx context.Context, in VideoInput) (*domain.Video, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title", domain.ErrInvalidInput)
	}
	if in.Duration < 0 {
		return nil, fmt.Errorf("%w: duration", domain.ErrInvalidInput)
	}
	if _, err := uc.courseRepo.GetByID(ctx, in.CourseID); err != nil {
		return nil, err
	}

	key := in.StorageKey
	if key == "" {
		key = domain.VideoStorageKey(title)
	}
	key, err := domain.CleanObjectKey(key)
	if err != nil {
		return nil, fmt.Errorf("%w: storage_key", domain.ErrInvalidInput)
	}

	order := 0
	if in.OrderIndex != nil {
		order = *in.OrderIndex
	} else if order, err = uc.videoRepo.NextOrderIndex(ctx, in.CourseID); err != nil {
		return nil, err
	}

	v := &domain.Video{
		CourseID:     in.CourseID,
		Title:        title,
		Description:  in.Description,
		Duration:     in.Duration,
		StorageKey:   key,
		ThumbnailKey: in.ThumbnailKey,
		OrderIndex:   order,
		IsPublished:  in.IsPublished,
		IsFree:       in.IsFree,
	}
	if err := uc.videoRepo.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Update applies the patch. When the storage key changes the old object is removed,
// best effort.
func (uc *VideoUseCase) Update(ctx context.Context, id uuid.UUID, p VideoPatch) (*domain.Video, error) {
	updates := map[string]interface{}{}
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title", domain.ErrInvalidInput)
		}
		updates["title"] = title
	}
	if p.Description != nil {
		updates["description"] = *p.Description
	}
	if p.Duration != nil {
		if *p.Duration < 0 {
			return nil, fmt.Errorf("%w: duration", domain.ErrInvalidInput)
		}
		updates["duration"] = *p.Duration
	}
	if p.StorageKey != nil {
		key, err := domain.CleanObjectKey(*p.StorageKey)
		if err != nil {
			return nil, fmt.Errorf("%w: storage_key", domain.ErrInvalidInput)
		}
		updates["storage_key"] = key
	}
	if p.ThumbnailKey != nil {
		updates["thumbnail_key"] = *p.ThumbnailKey
	}
	if p.OrderIndex != nil {
		updates["order_index"] = *p.OrderIndex
	}
	if p.IsPublished != nil {
		updates["is_published"] = *p.IsPublished
	}
	if p.IsFree != nil {
		updates["is_free"] = *p.IsFree
	}

	var oldKey string
	if _, ok := updates["storage_key"]; ok {
		old, err := uc.videoRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		oldKey = old.StorageKey
	}
	v, err := uc.videoRepo.Update(ctx, id, updates)
	if err != nil {
		return nil, err
	}
	if oldKey != "" && oldKey != v.StorageKey {
		if err := uc.store.Remove(ctx, oldKey); err != nil {
			log.Printf("remove object %s: %v", oldKey, err)
		}
	}
	return v, nil
}

// Delete removes the video row. Removing its object from the bucket is best effort.
func (uc *VideoUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	v, err := uc.videoRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.store.Remove(ctx, v.StorageKey); err != nil {
		log.Printf("remove object %s: %v", v.StorageKey, err)
	}
	return nil
}

func (uc *VideoUseCase) ToggleLike(ctx context.Context, user *domain.User, videoID uuid.UUID) (*LikeResult, error) {
	if _, err := uc.visibleVideo(ctx, user, videoID); err != nil {
		return nil, err
	}
	liked, count, err := uc.engagementRepo.ToggleLike(ctx, user.ID, videoID)
	if err != nil {
		return nil, err
	}
	return &LikeResult{Liked: liked, LikeCount: count}, nil
}

// SaveProgress records the playback position and enrolls the user in the video's course.
func (uc *VideoUseCase) SaveProgress(ctx context.Context, user *domain.User, videoID uuid.UUID, seconds int) (*domain.WatchProgress, error) {
	if seconds < 0 {
		return nil, fmt.Errorf("%w: seconds_watched", domain.ErrInvalidInput)
	}
	v, err := uc.visibleVideo(ctx, user, videoID)
	if err != nil {
		return nil, err
	}
	if v.Duration > 0 && seconds > v.Duration {
		seconds = v.Duration
	}

	percent := domain.WatchPercent(seconds, v.Duration)
	p := &domain.WatchProgress{
		UserID:         user.ID,
		VideoID:        v.ID,
		SecondsWatched: seconds,
		Percent:        percent,
		Completed:      percent >= domain.CompletionThreshold,
	}
	if err := uc.engagementRepo.SaveProgress(ctx, p); err != nil {
		return nil, err
	}
	if _, err := uc.engagementRepo.Enroll(ctx, user.ID, v.CourseID); err != nil {
		return nil, err
	}
	return p, nil
}

func (uc *VideoUseCase) GetProgress(ctx context.Context, user *domain.User, videoID uuid.UUID) (*domain.WatchProgress, error) {
	if _, err := uc.visibleVideo(ctx, user, videoID); err != nil {
		return nil, err
	}
	return uc.engagementRepo.GetProgress(ctx, user.ID, videoID)
}

func (uc *VideoUseCase) RecentProgress(ctx context.Context, user *domain.User) ([]domain.WatchProgress, error) {
	return uc.engagementRepo.RecentProgress(ctx, user.ID, recentProgressLimit)
}

// AuthorizeStream validates key and decides whether user may stream it. Keys of
// video rows need a subscription unless the video is free. Keys under videos/ with
// no row are admin only; other keys only need a session.
func (uc *VideoUseCase) AuthorizeStream(ctx context.Context, user *domain.User, rawKey string) (string, error) {
	if user == nil {
		return "", domain.ErrUnauthorized
	}
	key, err := domain.CleanObjectKey(rawKey)
	if err != nil {
		return "", err
	}

	v, err := uc.videoRepo.GetByStorageKey(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		if domain.IsVideoKey(key) && !user.IsAdmin() {
			return "", domain.ErrNotFound
		}
		return key, nil
	}
	if err != nil {
		return "", err
	}
	if !v.IsPublished && !user.IsAdmin() {
		return "", domain.ErrNotFound
	}
	if !canPlay(user, v) {
		return "", domain.ErrSubscriptionRequired
	}
	return key, nil
}
