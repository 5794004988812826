package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/waste3d/courseplatform-api/internal/domain"

	"github.com/gabriel-vasile/mimetype"
)

const (
	UploadVideo = "video"
	UploadImage = "image"

	sniffLen = 3072
)

type ObjectWriter interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (domain.ObjectInfo, error)
}

type UploadInput struct {
	Kind string
	Slug string
	Type string
	ID   string
	Size int64
	Body io.Reader
}

type UploadResult struct {
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

type UploadUseCase struct {
	store    ObjectWriter
	maxBytes int64
}

func NewUploadUseCase(store ObjectWriter, maxBytes int64) *UploadUseCase {
	return &UploadUseCase{store: store, maxBytes: maxBytes}
}

// Upload stores a media file under its canonical key after sniffing its type.
func (uc *UploadUseCase) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	key, err := uploadKey(in)
	if err != nil {
		return nil, err
	}
	if in.Size <= 0 {
		return nil, fmt.Errorf("%w: empty file", domain.ErrInvalidInput)
	}
	if uc.maxBytes > 0 && in.Size > uc.maxBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", domain.ErrInvalidInput, uc.maxBytes)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(in.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	head = head[:n]

	mtype := mimetype.Detect(head)
	if !strings.HasPrefix(mtype.String(), in.Kind+"/") {
		return nil, fmt.Errorf("%w: %s is not a %s", domain.ErrInvalidInput, mtype.String(), in.Kind)
	}

	body := io.MultiReader(bytes.NewReader(head), in.Body)
	info, err := uc.store.Put(ctx, key, body, in.Size, mtype.String())
	if err != nil {
		return nil, err
	}
	return &UploadResult{Key: key, Size: info.Size, ContentType: mtype.String()}, nil
}

func uploadKey(in UploadInput) (string, error) {
	var key string
	switch in.Kind {
	case UploadVideo:
		if domain.Slugify(in.Slug) == "" {
			return "", fmt.Errorf("%w: slug", domain.ErrInvalidInput)
		}
		key = domain.VideoStorageKey(in.Slug)
	case UploadImage:
		if domain.Slugify(in.Type) == "" || strings.TrimSpace(in.ID) == "" {
			return "", fmt.Errorf("%w: type and id", domain.ErrInvalidInput)
		}
		key = domain.ImageStorageKey(in.Type, strings.TrimSpace(in.ID))
	default:
		return "", fmt.Errorf("%w: kind", domain.ErrInvalidInput)
	}
	return domain.CleanObjectKey(key)
}
