package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

type ErrorCode string

const (
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
	CodeBadRequest     ErrorCode = "BAD_REQUEST"
	CodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	CodeForbidden      ErrorCode = "FORBIDDEN"
	CodeRateLimit      ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeServiceUnavail ErrorCode = "SERVICE_UNAVAILABLE"
)

var statusByCode = map[ErrorCode]int{
	CodeInternal:       http.StatusInternalServerError,
	CodeBadRequest:     http.StatusBadRequest,
	CodeUnauthorized:   http.StatusUnauthorized,
	CodeForbidden:      http.StatusForbidden,
	CodeRateLimit:      http.StatusTooManyRequests,
	CodeServiceUnavail: http.StatusServiceUnavailable,
}

// Clients are told to come back after this long when the snapshot is not
// ready or they are being throttled.
const defaultRetryAfter = time.Second

type AppError struct {
	Code       ErrorCode     `json:"code"`
	Message    string        `json:"message"`
	Details    string        `json:"details,omitempty"`
	StatusCode int           `json:"-"`
	RetryAfter time.Duration `json:"-"`
	Cause      error         `json:"-"`
	Timestamp  time.Time     `json:"timestamp"`
	RequestID  string        `json:"request_id,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Wrap builds an AppError for code. cause may be nil.
func Wrap(cause error, code ErrorCode, message string) *AppError {
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	e := &AppError{
		Code:       code,
		Message:    message,
		StatusCode: status,
		Cause:      cause,
		Timestamp:  time.Now().UTC(),
	}
	if code == CodeServiceUnavail || code == CodeRateLimit {
		e.RetryAfter = defaultRetryAfter
	}
	return e
}

func New(code ErrorCode, message string) *AppError {
	return Wrap(nil, code, message)
}

func Internal(message string) *AppError { return New(CodeInternal, message) }

func InternalWrap(err error, message string) *AppError { return Wrap(err, CodeInternal, message) }

func BadRequest(message string) *AppError { return New(CodeBadRequest, message) }

func BadRequestWrap(err error, message string) *AppError { return Wrap(err, CodeBadRequest, message) }

func UnauthorizedWrap(err error, message string) *AppError {
	return Wrap(err, CodeUnauthorized, message)
}

func Forbidden(message string) *AppError { return New(CodeForbidden, message) }

func RateLimit(message string) *AppError { return New(CodeRateLimit, message) }

func ServiceUnavailableWrap(err error, message string) *AppError {
	return Wrap(err, CodeServiceUnavail, message)
}

// WithDetails returns a copy of e carrying details.
func (e *AppError) WithDetails(details string) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// WithRetryAfter returns a copy of e that advertises d in Retry-After.
func (e *AppError) WithRetryAfter(d time.Duration) *AppError {
	cp := *e
	cp.RetryAfter = d
	return &cp
}

type ErrorResponse struct {
	Error   *AppError `json:"error"`
	Success bool      `json:"success"`
}

type SuccessResponse struct {
	Data    any  `json:"data"`
	Success bool `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// WriteError renders err as the JSON error envelope. Errors that are not
// AppErrors become INTERNAL_ERROR without leaking their text.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error, requestID string) {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		appErr = InternalWrap(err, "An unexpected error occurred")
	}
	resp := *appErr
	resp.RequestID = requestID

	if resp.RetryAfter > 0 {
		secs := max(int(resp.RetryAfter.Round(time.Second)/time.Second), 1)
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}

	if encodeErr := writeJSON(w, resp.StatusCode, ErrorResponse{Error: &resp}); encodeErr != nil {
		logger.Error("failed to encode error response",
			"encode_error", encodeErr,
			"original_error", err,
			"request_id", requestID,
		)
		return
	}

	level := slog.LevelError
	if resp.StatusCode < 500 {
		level = slog.LevelWarn
	}
	logger.LogAttrs(context.Background(), level, "request failed",
		slog.String("error_code", string(resp.Code)),
		slog.String("error_message", resp.Message),
		slog.Int("status_code", resp.StatusCode),
		slog.String("request_id", requestID),
		slog.Any("cause", resp.Cause),
	)
}

func WriteSuccess(w http.ResponseWriter, data any) {
	_ = writeJSON(w, http.StatusOK, SuccessResponse{Data: data, Success: true})
}

func WriteSuccessWithHeaders(w http.ResponseWriter, data any, headers map[string]string) {
	for key, value := range headers {
		w.Header().Set(key, value)
	}
	WriteSuccess(w, data)
}
