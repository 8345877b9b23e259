package objectstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
)

const (
	CodeEndpointUnreachable = "endpoint_unreachable"
	CodeAuthInvalid         = "auth_invalid"
	CodeBucketNotFound      = "bucket_not_found"
	CodeObjectNotFound      = "object_not_found"
	CodePermissionDenied    = "permission_denied"
	CodeThrottled           = "throttled"
	CodeTimeout             = "timeout"
	CodeRequestFailed       = "request_failed"
)

// Error is an object store failure with a hint on whether repeating the call can help
type Error struct {
	Code      string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	return e.Err
}

func IsRetryable(err error) bool {
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr.Retryable
	}

	return false
}

func classifyError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Code: CodeTimeout, Retryable: false, Err: err}
	}

	response := minio.ToErrorResponse(err)
	switch response.Code {
	case "NoSuchBucket":
		return &Error{Code: CodeBucketNotFound, Err: err}
	case "NoSuchKey":
		return &Error{Code: CodeObjectNotFound, Err: err}
	case "AccessDenied":
		return &Error{Code: CodePermissionDenied, Err: err}
	case "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return &Error{Code: CodeAuthInvalid, Err: err}
	case "SlowDown", "SlowDownRead", "SlowDownWrite", "RequestTimeTooSkewed", "ServiceUnavailable", "InternalError":
		return &Error{Code: CodeThrottled, Retryable: true, Err: err}
	}

	if response.StatusCode == 429 || response.StatusCode >= 500 {
		return &Error{Code: CodeThrottled, Retryable: true, Err: err}
	}

	message := strings.ToLower(err.Error())
	switch {
	case strings.Contains(message, "timeout"):
		return &Error{Code: CodeTimeout, Retryable: true, Err: err}
	case strings.Contains(message, "connection refused"), strings.Contains(message, "connection reset"),
		strings.Contains(message, "no such host"), strings.Contains(message, "unreachable"):
		return &Error{Code: CodeEndpointUnreachable, Retryable: true, Err: err}
	}

	return &Error{Code: CodeRequestFailed, Err: err}
}
