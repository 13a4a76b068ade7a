package httpclient

import (
	"errors"
	"fmt"
	"io"
)

// BodyTooLargeError reports a response body that exceeded the read cap.
type BodyTooLargeError struct {
	Limit int64
}

func (e *BodyTooLargeError) Error() string {
	return fmt.Sprintf("response body larger than %d bytes", e.Limit)
}

// IsBodyTooLarge reports whether err is a read-cap violation.
func IsBodyTooLarge(err error) bool {
	var tooLarge *BodyTooLargeError
	return errors.As(err, &tooLarge)
}

// ReadAllWithLimit drains r up to limit bytes. Planner and Google API
// responses are read through this so a misbehaving backend cannot balloon
// memory. A limit of zero or less reads without a cap.
func ReadAllWithLimit(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	// Read one byte past the cap to tell "exactly limit" from "over it".
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, &BodyTooLargeError{Limit: limit}
	}
	return data, nil
}
