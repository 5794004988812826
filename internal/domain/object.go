package domain

import (
	"strings"
	"time"
)

// ObjectInfo is the metadata the store reports for a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	ETag         string
	LastModified time.Time
}

// CleanObjectKey normalises a bucket key taken from a URL. It trims leading
// slashes and rejects empty keys and any ".." segment.
func CleanObjectKey(key string) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" || strings.Contains(key, "\\") {
		return "", ErrInvalidInput
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." || seg == "." || seg == "" {
			return "", ErrInvalidInput
		}
	}
	return key, nil
}
