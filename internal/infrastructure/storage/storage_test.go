package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/waste3d/courseplatform-api/config"
	"github.com/waste3d/courseplatform-api/internal/domain"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRanges(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	info, err := s.Put(ctx, "videos/intro", strings.NewReader("0123456789"), 10, "video/mp4")
	require.NoError(t, err)
	assert.EqualValues(t, 10, info.Size)

	stat, err := s.Stat(ctx, "videos/intro")
	require.NoError(t, err)
	assert.Equal(t, "video/mp4", stat.ContentType)

	rc, err := s.Open(ctx, "videos/intro", 2, 5)
	require.NoError(t, err)
	b, _ := io.ReadAll(rc)
	assert.Equal(t, "2345", string(b))

	rc, err = s.Open(ctx, "videos/intro", 7, -1)
	require.NoError(t, err)
	b, _ = io.ReadAll(rc)
	assert.Equal(t, "789", string(b))

	require.NoError(t, s.Remove(ctx, "videos/intro"))
	_, err = s.Stat(ctx, "videos/intro")
	assert.ErrorIs(t, err, domain.ErrObjectNotFound)
}

func TestTranslateNoSuchKey(t *testing.T) {
	err := translate(minio.ErrorResponse{Code: "NoSuchKey", Message: "gone"})
	assert.True(t, errors.Is(err, domain.ErrObjectNotFound))

	other := minio.ErrorResponse{Code: "AccessDenied"}
	assert.False(t, errors.Is(translate(other), domain.ErrObjectNotFound))
	assert.NoError(t, translate(nil))
}

func TestNewMinioStoreBuildsClient(t *testing.T) {
	s, err := NewMinioStore(config.Config{S3Endpoint: "localhost:9000", S3Bucket: "media", S3Region: "us-east-1"})
	require.NoError(t, err)
	assert.Equal(t, "media", s.bucket)
}
