// Package common defines shared constants and sentinel errors used across
// the hoaboard server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal  = errors.New("internal error")
	ErrorForbidden = errors.New("forbidden")

	// Application errors. These form the closed set the HTTP boundary
	// renders as {"appError": kind}; everything else is reported as a
	// generic internal error.
	ErrLogin                  = errors.New("LoginError")
	ErrAccessTokenInvalid     = errors.New("AccessTokenInvalid")
	ErrEmailAlreadyUsed       = errors.New("EmailAlreadyUsed")
	ErrNameAlreadyUsed        = errors.New("NameAlreadyUsed")
	ErrEmailNotRegistered     = errors.New("EmailNotRegistered")
	ErrInvitationTokenInvalid = errors.New("InvitationTokenInvalid")
	ErrNoAuthCookie           = errors.New("NoAuthenticationCookie")

	// ErrAuthenticationFailed reports an AEAD tag mismatch on decryption:
	// the stored token was tampered with or produced under a different
	// secret. Deliberately not part of the application error set.
	ErrAuthenticationFailed = errors.New("authentication failed")
)

// appErrors lists the expected application errors the boundary may expose
// by name.
var appErrors = []error{
	ErrLogin,
	ErrAccessTokenInvalid,
	ErrEmailAlreadyUsed,
	ErrNameAlreadyUsed,
	ErrEmailNotRegistered,
	ErrInvitationTokenInvalid,
	ErrNoAuthCookie,
}

// IsAppError reports whether err belongs to the closed application error
// set.
func IsAppError(err error) bool {
	for _, e := range appErrors {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
