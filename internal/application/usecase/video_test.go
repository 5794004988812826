package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/waste3d/courseplatform-api/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subscribed(u *domain.User) { u.IsSubscribed = true }
func admin(u *domain.User)      { u.Role = domain.RoleAdmin }

func TestCourseListAndDetailHideKeys(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	course, paid := f.courseWithVideo(t, true, domain.Video{Title: "Intro", StorageKey: "videos/intro", Duration: 100, IsPublished: true})
	free := &domain.Video{CourseID: course.ID, Title: "Free", StorageKey: "videos/free", Duration: 50, IsPublished: true, IsFree: true, OrderIndex: 1}
	require.NoError(t, f.videos.Create(ctx, free))
	hidden := &domain.Video{CourseID: course.ID, Title: "Draft", StorageKey: "videos/draft", OrderIndex: 2}
	require.NoError(t, f.videos.Create(ctx, hidden))
	f.courseWithVideo(t, false, domain.Video{Title: "Secret", StorageKey: "videos/secret"})

	viewer := f.user(t, "viewer@example.com", nil)
	member := f.user(t, "member@example.com", subscribed)
	boss := f.user(t, "boss@example.com", admin)

	list, err := f.course.List(ctx, nil, CourseQuery{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, int64(1), list.Total)
	assert.Equal(t, int64(2), list.Items[0].VideoCount)
	assert.Equal(t, defaultPageSize, list.Limit)

	list, err = f.course.List(ctx, boss, CourseQuery{Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)
	assert.Equal(t, maxPageSize, list.Limit)

	_, err = f.course.List(ctx, nil, CourseQuery{Difficulty: "expert"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	detail, err := f.course.Get(ctx, viewer, course.Slug)
	require.NoError(t, err)
	require.Len(t, detail.Videos, 2)
	assert.Equal(t, paid.ID, detail.Videos[0].ID)
	assert.Empty(t, detail.Videos[0].StorageKey)
	assert.Equal(t, "videos/free", detail.Videos[1].StorageKey)
	assert.False(t, detail.Enrolled)

	detail, err = f.course.Get(ctx, member, course.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "videos/intro", detail.Videos[0].StorageKey)

	detail, err = f.course.Get(ctx, boss, course.Slug)
	require.NoError(t, err)
	assert.Len(t, detail.Videos, 3)

	_, err = f.course.Enroll(ctx, viewer, course.Slug)
	require.NoError(t, err)
	detail, err = f.course.Get(ctx, viewer, course.Slug)
	require.NoError(t, err)
	assert.True(t, detail.Enrolled)

	_, err = f.course.Get(ctx, viewer, "no-such-course")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCourseCreateUpdateDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.course.Create(ctx, CourseInput{Title: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.course.Create(ctx, CourseInput{Title: "Go", Difficulty: "expert"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	c, err := f.course.Create(ctx, CourseInput{Title: "Go Basics!"})
	require.NoError(t, err)
	assert.Equal(t, "go-basics", c.Slug)
	assert.Equal(t, domain.DifficultyBeginner, c.Difficulty)

	_, err = f.course.Create(ctx, CourseInput{Title: "Go basics"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	advanced := domain.DifficultyAdvanced
	published := true
	updated, err := f.course.Update(ctx, c.ID, CoursePatch{Difficulty: &advanced, IsPublished: &published})
	require.NoError(t, err)
	assert.Equal(t, advanced, updated.Difficulty)
	assert.True(t, updated.IsPublished)

	v, err := f.video.Create(ctx, VideoInput{CourseID: c.ID, Title: "Lesson One", Duration: 60})
	require.NoError(t, err)
	assert.Equal(t, "videos/lesson-one", v.StorageKey)
	_, err = f.store.Put(ctx, v.StorageKey, strings.NewReader("data"), 4, "video/mp4")
	require.NoError(t, err)

	require.NoError(t, f.course.Delete(ctx, c.ID))
	_, err = f.store.Stat(ctx, v.StorageKey)
	assert.ErrorIs(t, err, domain.ErrObjectNotFound)
	_, err = f.videos.GetByID(ctx, v.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.course.Delete(ctx, c.ID), domain.ErrNotFound)
}

func TestVideoCreateOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.course.Create(ctx, CourseInput{Title: "Ordering", IsPublished: true})
	require.NoError(t, err)

	first, err := f.video.Create(ctx, VideoInput{CourseID: c.ID, Title: "One"})
	require.NoError(t, err)
	second, err := f.video.Create(ctx, VideoInput{CourseID: c.ID, Title: "Two"})
	require.NoError(t, err)
	assert.Equal(t, first.OrderIndex+1, second.OrderIndex)

	_, err = f.video.Create(ctx, VideoInput{CourseID: c.ID, Title: "Bad", StorageKey: "../etc/passwd"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.video.Create(ctx, VideoInput{CourseID: c.ID, Title: "Neg", Duration: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestToggleLike(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, v := f.courseWithVideo(t, true, domain.Video{Title: "Liked", StorageKey: "videos/liked", IsPublished: true})
	a := f.user(t, "a@example.com", nil)
	b := f.user(t, "b@example.com", nil)

	res, err := f.video.ToggleLike(ctx, a, v.ID)
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: true, LikeCount: 1}, *res)

	res, err = f.video.ToggleLike(ctx, b, v.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.LikeCount)

	res, err = f.video.ToggleLike(ctx, a, v.ID)
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: false, LikeCount: 1}, *res)

	view, err := f.video.Get(ctx, b, v.ID)
	require.NoError(t, err)
	assert.True(t, view.Liked)
	assert.Equal(t, int64(1), view.LikeCount)
}

func TestSaveProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, v := f.courseWithVideo(t, true, domain.Video{Title: "Watch", StorageKey: "videos/watch", Duration: 200, IsPublished: true})
	u := f.user(t, "watcher@example.com", nil)

	_, err := f.video.SaveProgress(ctx, u, v.ID, -5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	p, err := f.video.SaveProgress(ctx, u, v.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, 25, p.Percent)
	assert.False(t, p.Completed)

	enrolled, err := f.engagement.EnrolledIn(ctx, u.ID, []uuid.UUID{c.ID})
	require.NoError(t, err)
	assert.True(t, enrolled[c.ID])

	p, err = f.video.SaveProgress(ctx, u, v.ID, 500)
	require.NoError(t, err)
	assert.Equal(t, 200, p.SecondsWatched)
	assert.Equal(t, 100, p.Percent)
	assert.True(t, p.Completed)

	_, err = f.video.SaveProgress(ctx, u, v.ID, 10)
	require.NoError(t, err)
	got, err := f.video.GetProgress(ctx, u, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.SecondsWatched)
	assert.True(t, got.Completed)

	recent, err := f.video.RecentProgress(ctx, u)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestUnpublishedVideoIsHidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, v := f.courseWithVideo(t, true, domain.Video{Title: "Draft", StorageKey: "videos/draft"})
	u := f.user(t, "u@example.com", subscribed)
	boss := f.user(t, "boss@example.com", admin)

	_, err := f.video.Get(ctx, u, v.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.video.ToggleLike(ctx, u, v.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	view, err := f.video.Get(ctx, boss, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "videos/draft", view.StorageKey)
}

func TestAuthorizeStream(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.courseWithVideo(t, true, domain.Video{Title: "Paid", StorageKey: "videos/paid", IsPublished: true})
	f.courseWithVideo(t, true, domain.Video{Title: "Free", StorageKey: "videos/free", IsPublished: true, IsFree: true})
	f.courseWithVideo(t, true, domain.Video{Title: "Draft", StorageKey: "videos/draft"})

	plain := f.user(t, "plain@example.com", nil)
	member := f.user(t, "member@example.com", subscribed)
	boss := f.user(t, "boss@example.com", admin)

	cases := []struct {
		name string
		user *domain.User
		key  string
		err  error
	}{
		{"anonymous", nil, "videos/free", domain.ErrUnauthorized},
		{"traversal", member, "videos/../secret", domain.ErrInvalidInput},
		{"free video", plain, "videos/free", nil},
		{"paid without subscription", plain, "videos/paid", domain.ErrSubscriptionRequired},
		{"paid with subscription", member, "/videos/paid", nil},
		{"draft for member", member, "videos/draft", domain.ErrNotFound},
		{"draft for admin", boss, "videos/draft", nil},
		{"loose object", plain, "images/course/abc", nil},
		{"orphan video key", member, "videos/premium-lesson", domain.ErrNotFound},
		{"orphan video key for admin", boss, "videos/premium-lesson", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key, err := f.video.AuthorizeStream(ctx, tc.user, tc.key)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, key)
			assert.NotEqual(t, '/', rune(key[0]))
		})
	}
}

func TestUpdateStorageKeyRetiresOldObject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, v := f.courseWithVideo(t, true, domain.Video{Title: "Paid", StorageKey: "videos/paid", IsPublished: true})
	plain := f.user(t, "plain@example.com", nil)

	_, err := f.store.Put(ctx, "videos/paid", strings.NewReader("old cut"), 7, "video/mp4")
	require.NoError(t, err)

	title := "Paid again"
	_, err = f.video.Update(ctx, v.ID, VideoPatch{Title: &title})
	require.NoError(t, err)
	_, err = f.store.Stat(ctx, "videos/paid")
	require.NoError(t, err)

	next := "videos/paid-v2"
	updated, err := f.video.Update(ctx, v.ID, VideoPatch{StorageKey: &next})
	require.NoError(t, err)
	assert.Equal(t, "videos/paid-v2", updated.StorageKey)

	_, err = f.store.Stat(ctx, "videos/paid")
	assert.ErrorIs(t, err, domain.ErrObjectNotFound)

	_, err = f.video.AuthorizeStream(ctx, plain, "videos/paid")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.video.AuthorizeStream(ctx, plain, "videos/paid-v2")
	assert.ErrorIs(t, err, domain.ErrSubscriptionRequired)
}
