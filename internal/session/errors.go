package session

import "errors"

// The closed set of failures the session service reports. Handlers match
// these with errors.Is and translate them to HTTP statuses; anything else
// is an internal fault.
var (
	// ErrInvalidCredentials is returned for an unknown email and for a
	// wrong password alike, so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrEmailTaken = errors.New("email already exists")

	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)
