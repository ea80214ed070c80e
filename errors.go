package taskflow

import (
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

const (
	TextCodeInvalidCredentials = "invalid_credentials"
	TextCodeTokenExpired       = "token_expired"
	TextCodeTokenMalformed     = "token_malformed"
	TextCodeTokenSignature     = "token_signature_invalid"
	TextCodeUserConflict       = "user_already_registered"
	TextCodeUserInactive       = "user_inactive"
	TextCodeUserNotFound       = "user_not_found"
	TextCodeTaskNotFound       = "task_not_found"
	TextCodeAssigneeUnknown    = "assignee_not_found"
	TextCodeTooManyAttempts    = "too_many_login_attempts"
)

// ErrMismatchedHashAndPassword is returned for both unknown identifiers and
// bad passwords so callers cannot tell which one failed.
var ErrMismatchedHashAndPassword = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned when a token's expiry instant has passed.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned when a token cannot be parsed.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrTokenSignature is returned when a token's signature does not verify
// under the server's secret.
var ErrTokenSignature = errors.New("token signature is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeTokenSignature).
	WithCode(errors.CodeUnauthorized)

// ErrInactiveUser rejects tokens whose subject has been deactivated.
var ErrInactiveUser = errors.New("user is inactive", errors.CategoryAuth).
	WithTextCode(TextCodeUserInactive).
	WithCode(errors.CodeUnauthorized)

// ErrTooManyLoginAttempts enforces the login cool down window.
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryAuth).
	WithTextCode(TextCodeTooManyAttempts).
	WithCode(errors.CodeUnauthorized)

// ErrDuplicateUser is surfaced when the store's uniqueness constraint on
// email or username rejects a registration.
var ErrDuplicateUser = errors.New("email or username already registered", errors.CategoryConflict).
	WithTextCode(TextCodeUserConflict).
	WithCode(errors.CodeConflict)

// ErrUserNotFound is returned when a user lookup misses.
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrTaskNotFound is returned when a task lookup misses.
var ErrTaskNotFound = errors.New("task not found", errors.CategoryNotFound).
	WithTextCode(TextCodeTaskNotFound).
	WithCode(errors.CodeNotFound)

// ErrAssigneeNotFound rejects task writes that reference a missing assignee.
var ErrAssigneeNotFound = errors.New("assignee does not reference an existing user", errors.CategoryValidation).
	WithTextCode(TextCodeAssigneeUnknown).
	WithCode(errors.CodeBadRequest)

// ErrNoEmptyString rejects empty passwords before hashing
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest)

// ErrUnableToFindSession is the error when our request carries no token
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToDecodeSession unable to decode claims from the request token
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// IsTokenExpiredError will check for expired tokens. The token service tags
// expiry failures with a text code, so wrapped errors match too.
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	var richErr *errors.Error
	return errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired
}

// IsMalformedError will check for unparseable tokens. The jwtware extractor
// reports a missing token by message only, so that one literal stays.
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenMalformed {
		return true
	}
	return strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsUniqueViolation reports whether err came from a store-level uniqueness
// constraint. Both the sqlite and postgres drivers are matched on message
// because neither exposes a stable error type through bun.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "constraint failed: UNIQUE")
}

// ErrorResponse is the JSON envelope for request errors.
type ErrorResponse struct {
	Error      string            `json:"error"`
	TextCode   string            `json:"text_code,omitempty"`
	Validation map[string]string `json:"validation,omitempty"`
}

// WriteError maps a rich error to its HTTP response. Anything that is not a
// *errors.Error becomes a 500 without leaking internals.
func WriteError(ctx router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "an unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	code := richErr.Code
	if code == 0 {
		switch richErr.Category {
		case errors.CategoryValidation, errors.CategoryBadInput:
			code = errors.CodeBadRequest
		case errors.CategoryAuth:
			code = errors.CodeUnauthorized
		case errors.CategoryNotFound:
			code = errors.CodeNotFound
		case errors.CategoryConflict:
			code = errors.CodeConflict
		default:
			code = errors.CodeInternal
		}
	}

	body := ErrorResponse{
		Error:    richErr.Message,
		TextCode: richErr.TextCode,
	}

	if richErr.Category == errors.CategoryValidation {
		body.Validation = richErr.ValidationMap()
	}

	return ctx.JSON(code, body)
}
