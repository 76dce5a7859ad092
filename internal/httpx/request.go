package httpx

import (
	stdjson "encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	ErrEmptyBody    = errors.New("request body is empty")
	ErrBodyTooLarge = errors.New("request body too large")
)

// DecodeJSON decodes the request body into v. Unknown fields are ignored.
// A body cut off by RequestSizeLimitMiddleware yields ErrBodyTooLarge.
// jsoniter reports a truncated document as a clean EOF, so requests go through encoding/json.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return ErrEmptyBody
	}
	err := stdjson.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return ErrEmptyBody
	}
	if maxErr := new(http.MaxBytesError); errors.As(err, &maxErr) {
		return fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, maxErr.Limit)
	}
	return err
}
