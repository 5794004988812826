package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/waste3d/courseplatform-api/internal/domain"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/repository"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ObjectRemover deletes stored media.
type ObjectRemover interface {
	Remove(ctx context.Context, key string) error
}

type CourseQuery struct {
	Search     string
	Difficulty string
	Limit      int
	Offset     int
}

type CourseSummary struct {
	domain.Course
	VideoCount int64 `json:"video_count"`
	Enrolled   bool  `json:"enrolled"`
}

type CourseList struct {
	Items  []CourseSummary `json:"items"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type CourseDetail struct {
	domain.Course
	Videos   []VideoView `json:"videos"`
	Enrolled bool        `json:"enrolled"`
}

type CourseInput struct {
	Title        string
	Slug         string
	Description  string
	Difficulty   string
	ThumbnailKey string
	IsPublished  bool
}

type CoursePatch struct {
	Title        *string
	Slug         *string
	Description  *string
	Difficulty   *string
	ThumbnailKey *string
	IsPublished  *bool
}

type CourseUseCase struct {
	courseRepo     *repository.CourseRepository
	engagementRepo *repository.EngagementRepository
	store          ObjectRemover
}

func NewCourseUseCase(cr *repository.CourseRepository, er *repository.EngagementRepository, store ObjectRemover) *CourseUseCase {
	return &CourseUseCase{courseRepo: cr, engagementRepo: er, store: store}
}

func (uc *CourseUseCase) List(ctx context.Context, viewer *domain.User, q CourseQuery) (*CourseList, error) {
	if q.Limit <= 0 {
		q.Limit = defaultPageSize
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Difficulty != "" && !domain.ValidDifficulty(q.Difficulty) {
		return nil, fmt.Errorf("%w: difficulty", domain.ErrInvalidInput)
	}

	page, err := uc.courseRepo.List(ctx, repository.CourseFilter{
		Search:             q.Search,
		Difficulty:         q.Difficulty,
		Limit:              q.Limit,
		Offset:             q.Offset,
		IncludeUnpublished: viewer != nil && viewer.IsAdmin(),
	})
	if err != nil {
		return nil, err
	}

	enrolled := map[uuid.UUID]bool{}
	if viewer != nil && len(page.Courses) > 0 {
		ids := make([]uuid.UUID, len(page.Courses))
		for i, c := range page.Courses {
			ids[i] = c.ID
		}
		enrolled, err = uc.engagementRepo.EnrolledIn(ctx, viewer.ID, ids)
		if err != nil {
			return nil, err
		}
	}

	out := &CourseList{Items: make([]CourseSummary, 0, len(page.Courses)), Total: page.Total, Limit: q.Limit, Offset: q.Offset}
	for _, c := range page.Courses {
		out.Items = append(out.Items, CourseSummary{
			Course:     c,
			VideoCount: page.VideoCounts[c.ID],
			Enrolled:   enrolled[c.ID],
		})
	}
	return out, nil
}

// Get returns a course by UUID or slug with its videos enriched for the viewer.
func (uc *CourseUseCase) Get(ctx context.Context, viewer *domain.User, idOrSlug string) (*CourseDetail, error) {
	course, err := uc.courseRepo.GetWithVideos(ctx, idOrSlug, viewer != nil && viewer.IsAdmin())
	if err != nil {
		return nil, err
	}

	videos, err := enrichVideos(ctx, uc.engagementRepo, viewer, course.Videos)
	if err != nil {
		return nil, err
	}
	detail := &CourseDetail{Course: *course, Videos: videos}
	detail.Course.Videos = nil

	if viewer != nil {
		enrolled, err := uc.engagementRepo.EnrolledIn(ctx, viewer.ID, []uuid.UUID{course.ID})
		if err != nil {
			return nil, err
		}
		detail.Enrolled = enrolled[course.ID]
	}
	return detail, nil
}

func (uc *CourseUseCase) Create(ctx context.Context, in CourseInput) (*domain.Course, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title", domain.ErrInvalidInput)
	}
	difficulty := in.Difficulty
	if difficulty == "" {
		difficulty = domain.DifficultyBeginner
	}
	if !domain.ValidDifficulty(difficulty) {
		return nil, fmt.Errorf("%w: difficulty", domain.ErrInvalidInput)
	}
	slug := domain.Slugify(in.Slug)
	if slug == "" {
		slug = domain.Slugify(title)
	}
	if slug == "" {
		return nil, fmt.Errorf("%w: slug", domain.ErrInvalidInput)
	}

	course := &domain.Course{
		Title:        title,
		Slug:         slug,
		Description:  in.Description,
		Difficulty:   difficulty,
		ThumbnailKey: in.ThumbnailKey,
		IsPublished:  in.IsPublished,
	}
	if err := uc.courseRepo.Create(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (uc *CourseUseCase) Update(ctx context.Context, id uuid.UUID, p CoursePatch) (*domain.Course, error) {
	updates := map[string]interface{}{}
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title", domain.ErrInvalidInput)
		}
		updates["title"] = title
	}
	if p.Slug != nil {
		slug := domain.Slugify(*p.Slug)
		if slug == "" {
			return nil, fmt.Errorf("%w: slug", domain.ErrInvalidInput)
		}
		updates["slug"] = slug
	}
	if p.Description != nil {
		updates["description"] = *p.Description
	}
	if p.Difficulty != nil {
		if !domain.ValidDifficulty(*p.Difficulty) {
			return nil, fmt.Errorf("%w: difficulty", domain.ErrInvalidInput)
		}
		updates["difficulty"] = *p.Difficulty
	}
	if p.ThumbnailKey != nil {
		updates["thumbnail_key"] = *p.ThumbnailKey
	}
	if p.IsPublished != nil {
		updates["is_published"] = *p.IsPublished
	}
	return uc.courseRepo.Update(ctx, id, updates)
}

// Delete removes the course and its videos. Media removal is best effort.
func (uc *CourseUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	keys, err := uc.courseRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := uc.store.Remove(ctx, key); err != nil {
			log.Printf("remove object %s: %v", key, err)
		}
	}
	return nil
}

// Enroll is idempotent. Unpublished courses only accept admins.
func (uc *CourseUseCase) Enroll(ctx context.Context, user *domain.User, idOrSlug string) (*domain.Enrollment, error) {
	course, err := uc.courseRepo.GetWithVideos(ctx, idOrSlug, user.IsAdmin())
	if err != nil {
		return nil, err
	}
	return uc.engagementRepo.Enroll(ctx, user.ID, course.ID)
}
