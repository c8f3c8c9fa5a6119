package services

import "errors"

// Shared error values surfaced by the service layer and mapped to HTTP
// statuses in the handlers. Four families: invalid input (rejected
// before any storage access), failed preconditions, concurrency
// conflicts (retried internally first), and auth failures.
var (
	// Invalid match input
	ErrValidationFailed     = errors.New("validation failed")
	ErrTooFewEntrants       = errors.New("a match requires at least two entrants")
	ErrTooFewTeams          = errors.New("a team match requires at least two teams")
	ErrEmptyTeam            = errors.New("every team requires at least one member")
	ErrDuplicateParticipant = errors.New("duplicate participant in match")
	ErrUnknownParticipant   = errors.New("participant is not a member of the group")
	ErrMixedEntrantModes    = errors.New("a match is either individual or team, not both")

	// Preconditions
	ErrGroupNotFound        = errors.New("group not found")
	ErrSeasonNotFound       = errors.New("season not found")
	ErrSeasonNotActive      = errors.New("season is not the group's active season")
	ErrSeasonClosed         = errors.New("season is closed")
	ErrMatchNotFound        = errors.New("match not found")
	ErrMatchAlreadyReversed = errors.New("match has already been reversed")
	ErrNoActiveSeason       = errors.New("group has no active season")

	// Concurrency: surfaced only after internal retries are exhausted;
	// the caller may safely resubmit.
	ErrRatingConflict = errors.New("concurrent rating update, please retry")

	// Auth / membership
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email address is already in use")
	ErrPasswordTooShort       = errors.New("password is too short")
	ErrNotGroupMember         = errors.New("caller is not a member of the group")

	// Group / member management
	ErrGroupNameRequired  = errors.New("group name is required")
	ErrSeasonNameRequired = errors.New("season name is required")
	ErrMemberConflict     = errors.New("participant is already a member of the group")
	ErrUserNotFound       = errors.New("user not found")
	ErrUploaderDisabled   = errors.New("file uploads are not configured")
)
