// Package models defines the domain entities of the cool-tracker core:
// the user profile, courses and their assignments, and the login state the
// rest of the application observes. Entities are plain values; wire-format
// concerns live in the remote package and storage concerns in the
// repositories.
package models

// Profile is the signed-in user's identity. It is replaced wholesale on each
// successful sync; there is exactly one per signed-in user, keyed by ID.
type Profile struct {
	ID           int
	Name         string
	Bio          string // empty when the user has not written one
	PrimaryEmail string
	AvatarURL    string
}
