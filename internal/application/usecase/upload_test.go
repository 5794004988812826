package usecase

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/waste3d/courseplatform-api/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	mp4Header = []byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom")
)

func TestUploadSniffsContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	video := append(append([]byte{}, mp4Header...), bytes.Repeat([]byte{0}, 4096)...)
	res, err := f.upload.Upload(ctx, UploadInput{Kind: UploadVideo, Slug: "Intro to Go", Size: int64(len(video)), Body: bytes.NewReader(video)})
	require.NoError(t, err)
	assert.Equal(t, "videos/intro-to-go", res.Key)
	assert.Equal(t, "video/mp4", res.ContentType)
	assert.Equal(t, int64(len(video)), res.Size)

	rc, err := f.store.Open(ctx, res.Key, 0, -1)
	require.NoError(t, err)
	stored, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, video, stored)

	res, err = f.upload.Upload(ctx, UploadInput{Kind: UploadImage, Type: "Course", ID: "abc", Size: int64(len(pngHeader)), Body: bytes.NewReader(pngHeader)})
	require.NoError(t, err)
	assert.Equal(t, "images/course/abc", res.Key)
	assert.Equal(t, "image/png", res.ContentType)
}

func TestUploadRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	text := []byte("just some plain text, definitely not a video")

	cases := []struct {
		name string
		in   UploadInput
	}{
		{"text as video", UploadInput{Kind: UploadVideo, Slug: "x", Size: int64(len(text)), Body: bytes.NewReader(text)}},
		{"png as video", UploadInput{Kind: UploadVideo, Slug: "x", Size: int64(len(pngHeader)), Body: bytes.NewReader(pngHeader)}},
		{"unknown kind", UploadInput{Kind: "audio", Slug: "x", Size: 1, Body: bytes.NewReader([]byte{1})}},
		{"missing slug", UploadInput{Kind: UploadVideo, Slug: "!!", Size: 1, Body: bytes.NewReader([]byte{1})}},
		{"image without id", UploadInput{Kind: UploadImage, Type: "course", Size: 1, Body: bytes.NewReader([]byte{1})}},
		{"image id traversal", UploadInput{Kind: UploadImage, Type: "course", ID: "..", Size: 1, Body: bytes.NewReader([]byte{1})}},
		{"empty", UploadInput{Kind: UploadVideo, Slug: "x", Size: 0, Body: bytes.NewReader(nil)}},
		{"too large", UploadInput{Kind: UploadVideo, Slug: "x", Size: 2 << 20, Body: bytes.NewReader(mp4Header)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.upload.Upload(ctx, tc.in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	_, err := f.store.Stat(ctx, "videos/x")
	assert.ErrorIs(t, err, domain.ErrObjectNotFound)
}
