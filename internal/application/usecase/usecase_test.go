package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/waste3d/courseplatform-api/internal/domain"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/cache"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/database"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/repository"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/security"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sentMail struct {
	kind, to, token string
}

type fakeMailer struct {
	sent chan sentMail
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{sent: make(chan sentMail, 16)}
}

func (m *fakeMailer) SendVerificationEmail(ctx context.Context, to, token string) error {
	m.sent <- sentMail{"verify", to, token}
	return nil
}

func (m *fakeMailer) SendResetEmail(ctx context.Context, to, token string) error {
	m.sent <- sentMail{"reset", to, token}
	return nil
}

func (m *fakeMailer) next(t *testing.T) sentMail {
	t.Helper()
	select {
	case s := <-m.sent:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no email sent")
	}
	return sentMail{}
}

type fixture struct {
	db         *gorm.DB
	mr         *miniredis.Miniredis
	tokenCache *cache.TokenCache
	store      *storage.MemoryStore
	mailer     *fakeMailer

	users      *repository.UserRepository
	sessions   *repository.SessionRepository
	courses    *repository.CourseRepository
	videos     *repository.VideoRepository
	engagement *repository.EngagementRepository
	payments   *repository.PaymentRepository

	auth     *AuthUseCase
	course   *CourseUseCase
	video    *VideoUseCase
	upload   *UploadUseCase
	tokenMgr *security.TokenManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenMemory(strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	require.NoError(t, database.Seed(context.Background(), db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	f := &fixture{
		db:         db,
		mr:         mr,
		tokenCache: cache.NewTokenCache(rdb),
		store:      storage.NewMemoryStore(),
		mailer:     newFakeMailer(),
		users:      repository.NewUserRepository(db),
		sessions:   repository.NewSessionRepository(db),
		engagement: repository.NewEngagementRepository(db),
		payments:   repository.NewPaymentRepository(db),
		tokenMgr:   security.NewTokenManager("test-token-secret", time.Hour),
	}
	courseCache := cache.NewCourseCache(rdb)
	f.courses = repository.NewCourseRepository(db, courseCache)
	f.videos = repository.NewVideoRepository(db, courseCache)

	f.auth = NewAuthUseCase(f.users, f.sessions, f.tokenCache, security.NewFastHasher(), f.tokenMgr, f.mailer, nil, time.Hour)
	f.course = NewCourseUseCase(f.courses, f.engagement, f.store)
	f.video = NewVideoUseCase(f.videos, f.courses, f.engagement, f.store)
	f.upload = NewUploadUseCase(f.store, 1<<20)
	return f
}

func (f *fixture) user(t *testing.T, email string, mutate func(u *domain.User)) *domain.User {
	t.Helper()
	u := &domain.User{Name: "User", Email: email}
	if mutate != nil {
		mutate(u)
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) courseWithVideo(t *testing.T, published bool, video domain.Video) (*domain.Course, *domain.Video) {
	t.Helper()
	ctx := context.Background()
	c, err := f.course.Create(ctx, CourseInput{Title: "Course " + video.Title, IsPublished: published})
	require.NoError(t, err)
	video.CourseID = c.ID
	require.NoError(t, f.videos.Create(ctx, &video))
	return c, &video
}
