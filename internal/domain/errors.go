package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors carry no infrastructure dependency.

var (
	// Event errors
	ErrInvalidEvent     = errors.New("invalid intake event")
	ErrEventNotFound    = errors.New("event not found")
	ErrAlreadyCompleted = errors.New("corrective action already completed")

	// Gamification errors
	ErrInvalidXP       = errors.New("xp amount must be positive")
	ErrStateNotFound   = errors.New("gamification state not found")
	ErrVersionConflict = errors.New("gamification state was modified concurrently")

	// Context cache errors
	ErrCacheMiss = errors.New("context labels not cached")

	// User errors
	ErrInvalidUser     = errors.New("user id is required")
	ErrInvalidTimezone = errors.New("unknown timezone")
)
