package sanitizer

import (
	"errors"
	"fmt"
)

// FailureType classifies why an image could not be inlined.
type FailureType string

const (
	// FailureURL indicates a source URL that cannot be fetched.
	FailureURL FailureType = "url"
	// FailureFetch indicates a network error.
	FailureFetch FailureType = "fetch"
	// FailureStatus indicates a non-200 response.
	FailureStatus FailureType = "status"
	// FailureSize indicates a body larger than the configured limit.
	FailureSize FailureType = "size"
	// FailureDecode indicates bytes that are not a supported image.
	FailureDecode FailureType = "decode"
	// FailureEncode indicates the PNG re-encode failed.
	FailureEncode FailureType = "encode"
	// FailureTimeout indicates the per-image deadline expired.
	FailureTimeout FailureType = "timeout"
)

// ImageError describes a single image that fell back to the placeholder.
type ImageError struct {
	Err  error
	URL  string
	Type FailureType
}

// Error implements the error interface.
func (e *ImageError) Error() string {
	return fmt.Sprintf("image %s error for %s: %v", e.Type, e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *ImageError) Unwrap() error {
	return e.Err
}

func newImageError(url string, t FailureType, err error) *ImageError {
	return &ImageError{URL: url, Type: t, Err: err}
}

// FailureOf returns the failure type of err, or "" when err is not an ImageError.
func FailureOf(err error) FailureType {
	var ie *ImageError
	if errors.As(err, &ie) {
		return ie.Type
	}
	return ""
}
