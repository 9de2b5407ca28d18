// Package common defines shared sentinel errors used across the service
// layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Token lifecycle errors.
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenInvalid      = errors.New("invalid token")
	ErrTokenWrongPurpose = errors.New("token purpose mismatch")

	// Directory errors.
	ErrDuplicateEmail         = errors.New("email already registered")
	ErrUserNotFound           = errors.New("user not found")
	ErrConcurrentModification = errors.New("concurrent directory modification")
	ErrStorageUnavailable     = errors.New("storage unavailable")

	// Authentication errors. Lookup failure and password mismatch are
	// deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
