package service

import "errors"

// Common service errors
var (
	// ErrPermissionDenied is returned when a user doesn't have permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAlreadyVoted is returned when a user votes twice on the same post
	ErrAlreadyVoted = errors.New("post already voted by user")

	// ErrNotVoted is returned when removing a vote that doesn't exist
	ErrNotVoted = errors.New("post not voted by user")

	// ErrAlreadySaved is returned when a post is already in the user's private list
	ErrAlreadySaved = errors.New("post already in private list")

	// ErrTeamNotConfigured is returned when a team has no tag or digest configuration
	ErrTeamNotConfigured = errors.New("team not configured")
)
