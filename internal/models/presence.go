package models

import "time"

// ClientSession identifies one connected client instance (one tab). The
// session token is generated per attach and is distinct from the identity
// id; every presence mutation takes the full session value rather than
// relying on any ambient state.
type ClientSession struct {
	IdentityID   string `json:"identity_id"`
	SessionToken string `json:"session_token"`
}

// PresenceRecord is the live per-identity presence view. IsOnline is
// derived from the session list on every read and is never stored: a
// stored boolean cannot be cleared safely when one of several tabs drops.
type PresenceRecord struct {
	IdentityID  string    `json:"identity_id" msgpack:"identity_id"`
	Sessions    []string  `json:"sessions" msgpack:"sessions"`
	IsOnline    bool      `json:"is_online" msgpack:"is_online"`
	IsAvailable bool      `json:"is_available" msgpack:"is_available"`
	LastActive  time.Time `json:"last_active" msgpack:"last_active"`
}

// SetAvailabilityRequest defines the request body for toggling the
// available-for-games flag.
type SetAvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}
