package streaming

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/waste3d/courseplatform-api/internal/domain"
)

const defaultContentType = "application/octet-stream"

// ObjectStore is the read side of the bucket the relay serves from.
type ObjectStore interface {
	Stat(ctx context.Context, key string) (domain.ObjectInfo, error)
	// Open reads bytes start..end inclusive; a negative end reads to the end.
	Open(ctx context.Context, key string, start, end int64) (io.ReadCloser, error)
}

// Relay serves stored objects with HTTP partial-content semantics.
type Relay struct {
	store ObjectStore
}

func NewRelay(store ObjectStore) *Relay {
	return &Relay{store: store}
}

// Serve writes the object at key to w, honouring a single Range header.
//
// Errors returned before anything was written (unknown object, store failure)
// leave w untouched so the caller can answer with an error status. A copy
// error after the status line went out is returned as-is; the response is
// already committed at that point.
func (r *Relay) Serve(w http.ResponseWriter, req *http.Request, key string) error {
	ctx := req.Context()

	info, err := r.store.Stat(ctx, key)
	if err != nil {
		return err
	}

	rng, err := ParseRange(req.Header.Get("Range"), info.Size)
	if errors.Is(err, ErrUnsatisfiable) {
		h := w.Header()
		setHeaders(h, info)
		h.Set("Content-Range", "bytes */"+strconv.FormatInt(info.Size, 10))
		h.Set("Content-Length", "0")
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		return nil
	}

	status := http.StatusOK
	start, end, length := int64(0), int64(-1), info.Size
	if rng != nil {
		status = http.StatusPartialContent
		start, end, length = rng.Start, rng.End, rng.Length()
	}

	var body io.ReadCloser
	if req.Method != http.MethodHead && length > 0 {
		body, err = r.store.Open(ctx, key, start, end)
		if err != nil {
			return err
		}
		defer body.Close()
	}

	h := w.Header()
	setHeaders(h, info)
	if rng != nil {
		h.Set("Content-Range", rng.ContentRange(info.Size))
	}
	h.Set("Content-Length", strconv.FormatInt(length, 10))
	w.WriteHeader(status)

	if body == nil {
		return nil
	}
	_, err = io.CopyN(w, body, length)
	return err
}

func setHeaders(h http.Header, info domain.ObjectInfo) {
	contentType := info.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}
	h.Set("Content-Type", contentType)
	h.Set("Accept-Ranges", "bytes")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("Cross-Origin-Resource-Policy", "same-site")
	h.Set("Cache-Control", "private, max-age=3600")
	if info.ETag != "" {
		h.Set("ETag", `"`+info.ETag+`"`)
	}
	if !info.LastModified.IsZero() {
		h.Set("Last-Modified", info.LastModified.UTC().Format(http.TimeFormat))
	}
}
