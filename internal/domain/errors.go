package domain

import "errors"

var (
	ErrInvalidPlacementSet    = errors.New("invalid placement set")
	ErrInsufficientPopulation = errors.New("insufficient population for normalization")
	ErrMatchNotFound          = errors.New("match not found")
	ErrAlreadyUndone          = errors.New("match already undone")
	ErrNotCompleted           = errors.New("match is not completed")
	ErrConcurrentModification = errors.New("concurrent modification, retry the operation")
	ErrUnknownScoringFormat   = errors.New("unknown scoring format")

	ErrMatchNotActive     = errors.New("match is not active")
	ErrEventNotFound      = errors.New("event not found")
	ErrClusterNotFound    = errors.New("cluster not found")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrPlayerInactive     = errors.New("player is inactive")
	ErrFormatNotSupported = errors.New("format not supported by event")
	ErrWeekAlreadyClosed  = errors.New("leaderboard week already closed")
	ErrInvalidScore       = errors.New("invalid leaderboard score")
	ErrSubmissionOnly     = errors.New("leaderboard events are scored by submission, not by match")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrAlreadyExists      = errors.New("already exists")
)
