// Package httperror renders API errors as {"error", "error_code", "extras"} JSON bodies.
package httperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stellar/go-stellar-sdk/support/log"
	"github.com/stellar/go-stellar-sdk/support/render/httpjson"
)

type HTTPError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
	// ErrorCode lets clients tell apart errors sharing a status code. See code.go.
	ErrorCode string `json:"error_code,omitempty"`
	// Extras carries field level details, such as validation messages keyed by field or step.
	Extras map[string]any `json:"extras,omitempty"`
	// Err is the cause. It is never rendered.
	Err error `json:"-"`
}

var defaultMessages = map[int]string{
	http.StatusBadRequest:          "The request was invalid in some way.",
	http.StatusNotFound:            "Resource not found.",
	http.StatusConflict:            "The resource already exists.",
	http.StatusUnprocessableEntity: "Unprocessable entity.",
	http.StatusTooManyRequests:     "Too many requests, please try again later.",
	http.StatusInternalServerError: "An internal error occurred while processing this request.",
	http.StatusBadGateway:          "The customer records backend could not complete the request.",
}

var defaultCodes = map[int]string{
	http.StatusTooManyRequests:     Code429_0,
	http.StatusInternalServerError: Code500_0,
	http.StatusBadGateway:          Code502_0,
}

// ReportErrorFunc receives the unexpected errors behind every InternalError.
type ReportErrorFunc func(ctx context.Context, err error, msg string)

var reportErrorFunc ReportErrorFunc = func(ctx context.Context, err error, msg string) {
	if msg != "" {
		err = fmt.Errorf("%s: %w", msg, err)
	}
	log.Ctx(ctx).WithStack(err).Errorf("%+v", err)
}

// SetDefaultReportErrorFunc replaces the reporter used by InternalError. The server wires it to the crash tracker.
func SetDefaultReportErrorFunc(fn ReportErrorFunc) {
	reportErrorFunc = fn
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) WithErrorCode(code string) *HTTPError {
	e.ErrorCode = code
	return e
}

func (e *HTTPError) Render(w http.ResponseWriter) {
	httpjson.RenderStatus(w, e.StatusCode, e, httpjson.JSON)
}

// NewHTTPError builds an error for statusCode. An empty msg takes the status default. When nothing is added on top of
// an HTTPError with the same status, that error is returned as is.
func NewHTTPError(statusCode int, msg string, originalErr error, extras map[string]any) *HTTPError {
	if msg == "" && len(extras) == 0 {
		var hErr *HTTPError
		if errors.As(originalErr, &hErr) && hErr.StatusCode == statusCode {
			return hErr
		}
	}
	if msg == "" {
		msg = defaultMessages[statusCode]
	}

	return &HTTPError{
		StatusCode: statusCode,
		Message:    msg,
		ErrorCode:  defaultCodes[statusCode],
		Extras:     extras,
		Err:        originalErr,
	}
}

func BadRequest(msg string, originalErr error, extras map[string]any) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, msg, originalErr, extras)
}

func NotFound(msg string, originalErr error, extras map[string]any) *HTTPError {
	return NewHTTPError(http.StatusNotFound, msg, originalErr, extras)
}

func Conflict(msg string, originalErr error, extras map[string]any) *HTTPError {
	return NewHTTPError(http.StatusConflict, msg, originalErr, extras)
}

// UnprocessableEntity is returned when a well formed request cannot be applied, such as advancing past an
// incomplete intake step.
func UnprocessableEntity(msg string, originalErr error, extras map[string]any) *HTTPError {
	return NewHTTPError(http.StatusUnprocessableEntity, msg, originalErr, extras)
}

func TooManyRequests(msg string) *HTTPError {
	return NewHTTPError(http.StatusTooManyRequests, msg, nil, nil)
}

// InternalError reports originalErr before building the error.
func InternalError(ctx context.Context, msg string, originalErr error, extras map[string]any) *HTTPError {
	httpErr := NewHTTPError(http.StatusInternalServerError, msg, originalErr, extras)
	reportErrorFunc(ctx, originalErr, httpErr.Message)
	return httpErr
}

// BadGateway is returned when the customer records backend fails. The request can be retried.
func BadGateway(msg string, originalErr error, extras map[string]any) *HTTPError {
	return NewHTTPError(http.StatusBadGateway, msg, originalErr, extras)
}
