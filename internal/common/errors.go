// Package common defines shared sentinel errors used across the
// cool-tracker core. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Credential validation outcomes. ErrUnauthorized means the remote
	// service rejected the credential; ErrUnavailable means the outcome is
	// indeterminate (network or server failure) and the credential is
	// neither confirmed valid nor confirmed invalid.
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("service unavailable")

	// Session errors.
	ErrNoCredential = errors.New("no stored credential")

	// Keystore errors.
	ErrNoKey = errors.New("encryption key not provisioned")
)
