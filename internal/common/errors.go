// Package common defines shared constants and sentinel errors used across
// the gatorauth server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Key material errors.
	ErrMissingKey = errors.New("missing signing key")
	ErrSharedKey  = errors.New("access and refresh tokens must use different keypairs")
)
