package streaming

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnsatisfiable means the requested range lies outside the object.
var ErrUnsatisfiable = errors.New("range not satisfiable")

// ByteRange is an inclusive span of bytes.
type ByteRange struct {
	Start int64
	End   int64
}

func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange renders the Content-Range header value for an object of size bytes.
func (r ByteRange) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// ParseRange interprets a single-range Range header against an object of size bytes.
//
// A nil range with a nil error means the whole object should be served: the
// header is absent, malformed, not in bytes, or asks for several ranges.
// ErrUnsatisfiable is returned when start or end fall at or past size, when
// start > end, and for an empty suffix.
func ParseRange(header string, size int64) (*ByteRange, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, nil
	}
	set, ok := strings.CutPrefix(header, "bytes=")
	if !ok || strings.Contains(set, ",") {
		return nil, nil
	}
	startStr, endStr, ok := strings.Cut(strings.TrimSpace(set), "-")
	if !ok {
		return nil, nil
	}
	startStr, endStr = strings.TrimSpace(startStr), strings.TrimSpace(endStr)

	if startStr == "" {
		n, err := parseOffset(endStr)
		if err != nil {
			return nil, nil
		}
		if n == 0 || size == 0 {
			return nil, ErrUnsatisfiable
		}
		if n > size {
			n = size
		}
		return &ByteRange{Start: size - n, End: size - 1}, nil
	}

	start, err := parseOffset(startStr)
	if err != nil {
		return nil, nil
	}
	end := size - 1
	if endStr != "" {
		end, err = parseOffset(endStr)
		if err != nil {
			return nil, nil
		}
	}

	if start >= size || end >= size || start > end {
		return nil, ErrUnsatisfiable
	}
	return &ByteRange{Start: start, End: end}, nil
}

func parseOffset(s string) (int64, error) {
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(s, 10, 64)
}
