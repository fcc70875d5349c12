// Package apperr defines the typed errors returned by the service layer.
// Every error carries a Kind, which decides the HTTP status, and a stable
// Code that clients can switch on.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidState
	KindValidation
	KindConflict
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// Error codes
const (
	CodeUserNotFound           = "USER_NOT_FOUND"
	CodeProblemNotFound        = "PROBLEM_NOT_FOUND"
	CodeInvalidTeam            = "INVALID_TEAM"
	CodeNoActiveHackathon      = "NO_ACTIVE_HACKATHON"
	CodeHackathonNotStarted    = "HACKATHON_NOT_STARTED"
	CodeHackathonEnded         = "HACKATHON_ENDED"
	CodeProblemAlreadySelected = "PROBLEM_ALREADY_SELECTED"
	CodeProblemNotAvailable    = "PROBLEM_NOT_AVAILABLE"
	CodeValidation             = "VALIDATION_ERROR"
	CodeProblemTitleExists     = "PROBLEM_TITLE_EXISTS"
	CodeUsernameExists         = "USERNAME_EXISTS"
	CodeEmailExists            = "EMAIL_EXISTS"
	CodeTeamNameExists         = "TEAM_NAME_EXISTS"
	CodeInvalidCredentials     = "INVALID_CREDENTIALS"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeForbidden              = "FORBIDDEN"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeInternal               = "INTERNAL_SERVER_ERROR"
)

const internalMessage = "An unexpected error occurred"

type Error struct {
	Kind    Kind
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// HTTPStatus maps the error kind to a response status.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidState, KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// WithCause returns a copy of e that wraps cause.
func (e *Error) WithCause(cause error) *Error {
	cp := *e
	cp.cause = cause
	return &cp
}

func New(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func NotFound(code, msg string) *Error {
	return New(KindNotFound, code, msg)
}

func InvalidState(code, msg string) *Error {
	return New(KindInvalidState, code, msg)
}

func Validation(msg string) *Error {
	return New(KindValidation, CodeValidation, msg)
}

func Conflict(code, msg string) *Error {
	return New(KindConflict, code, msg)
}

func Unauthorized(code, msg string) *Error {
	return New(KindUnauthorized, code, msg)
}

func Forbidden(msg string) *Error {
	return New(KindForbidden, CodeForbidden, msg)
}

// Internal wraps an unexpected error. The cause is kept for logging and is
// never rendered to clients.
func Internal(cause error) *Error {
	return New(KindInternal, CodeInternal, internalMessage).WithCause(cause)
}

// From converts any error into an *Error, wrapping unknown errors as internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// CodeOf returns the code of err, or "" when err is nil.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	return From(err).Code
}

// KindOf returns the kind of err. A nil error reports KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	return From(err).Kind
}

// --- Domain errors ---

func UserNotFound() *Error {
	return NotFound(CodeUserNotFound, "User not found")
}

func ProblemNotFound() *Error {
	return NotFound(CodeProblemNotFound, "Problem not found")
}

func InvalidTeam() *Error {
	return NotFound(CodeInvalidTeam, "No users found for the selected teams")
}

func NoActiveHackathon() *Error {
	return InvalidState(CodeNoActiveHackathon, "No active hackathon found")
}

func HackathonNotStarted() *Error {
	return InvalidState(CodeHackathonNotStarted, "Hackathon has not started yet")
}

func HackathonEnded() *Error {
	return InvalidState(CodeHackathonEnded, "Hackathon has ended")
}

func ProblemAlreadySelected(msg string) *Error {
	return InvalidState(CodeProblemAlreadySelected, msg)
}

func ProblemNotAvailable() *Error {
	return InvalidState(CodeProblemNotAvailable, "This problem is no longer available for selection")
}
