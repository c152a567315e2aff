package domain

import "errors"

// Domain errors
var (
	ErrMissingAPIToken    = errors.New("start.gg API token is not configured")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrEventNotFound      = errors.New("event not found")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInternalError      = errors.New("internal server error")
)

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrTournamentNotFound) ||
		errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrPlayerNotFound)
}
