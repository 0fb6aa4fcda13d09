package domain

import "errors"

// Code is the stable, client-visible identifier of an expected failure.
type Code string

const (
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeConflict           Code = "CONFLICT"
	CodeNotFound           Code = "NOT_FOUND"
	CodeForbidden          Code = "FORBIDDEN"
	CodeInvalidOperation   Code = "INVALID_OPERATION"
	CodeAlreadyVoted       Code = "ALREADY_VOTED"
	CodeCandidateNotFound  Code = "CANDIDATE_NOT_FOUND"
	CodeMissingEmail       Code = "MISSING_EMAIL"
	CodeExpired            Code = "EXPIRED"
	CodeUnauthenticated    Code = "UNAUTHENTICATED"
	CodeAlreadyAdmin       Code = "ALREADY_ADMIN"
	CodeInvalidInput       Code = "INVALID_INPUT"
)

// Error is an expected, user-facing failure. Sentinel values below are
// compared with errors.Is; callers that only care about the category use
// CodeOf.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

var (
	ErrInvalidCredentials = newError(CodeInvalidCredentials, "invalid email or password")
	ErrOAuthOnlyAccount   = newError(CodeInvalidCredentials, "this account uses OAuth login")
	ErrWeakPassword       = newError(CodeInvalidInput, "password must be at least 6 characters")
	ErrPasswordTooLong    = newError(CodeInvalidInput, "password must be at most 72 bytes")
	ErrMissingEmail       = newError(CodeMissingEmail, "identity provider did not supply an email")
	ErrUnauthenticated    = newError(CodeUnauthenticated, "not authenticated")

	ErrEmailTaken     = newError(CodeConflict, "user already exists")
	ErrProviderLinked = newError(CodeConflict, "provider account is linked to another user")
	ErrProviderInUse  = newError(CodeConflict, "account is linked to a different provider identity")
	ErrUserNotFound   = newError(CodeNotFound, "user not found")
	ErrAlreadyAdmin   = newError(CodeAlreadyAdmin, "user is already an admin")
	ErrForbidden      = newError(CodeForbidden, "admin access required")

	ErrCannotModifySelf = newError(CodeInvalidOperation, "cannot modify your own admin status")
	ErrCannotDeleteSelf = newError(CodeInvalidOperation, "cannot delete your own account")

	ErrResetTokenInvalid = newError(CodeNotFound, "invalid or expired token")
	ErrResetTokenExpired = newError(CodeExpired, "invalid or expired token")

	ErrCandidateNotFound  = newError(CodeCandidateNotFound, "candidate not found")
	ErrCandidateNameEmpty = newError(CodeInvalidInput, "candidate name is required")
	ErrCandidateHasVotes  = newError(CodeConflict, "cannot delete candidate with existing votes")
	ErrAlreadyVoted       = newError(CodeAlreadyVoted, "you have already voted")
)

// CodeOf returns the code carried by err, or "" for unexpected errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
