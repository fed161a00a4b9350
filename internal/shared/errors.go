package shared

import "errors"

// ErrInvalidCredentials indicates a session could not be issued.
var ErrInvalidCredentials = errors.New("invalid credentials")
