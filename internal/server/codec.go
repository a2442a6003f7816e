package server

import (
	"encoding/json"
	"errors"

	"connectrpc.com/connect"

	"tournament-arc/internal/domain"
)

// JSONCodec lets connect carry plain Go structs. It registers under "json",
// replacing connect's protojson codec for application/json requests.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// connectError maps a domain error onto the closest connect status code.
func connectError(err error) *connect.Error {
	var ce *connect.Error
	if errors.As(err, &ce) {
		return ce
	}
	return connect.NewError(errorCode(err), err)
}

func errorCode(err error) connect.Code {
	switch {
	case errors.Is(err, domain.ErrInvalidPlacementSet),
		errors.Is(err, domain.ErrInvalidScore),
		errors.Is(err, domain.ErrUnknownScoringFormat),
		errors.Is(err, domain.ErrFormatNotSupported),
		errors.Is(err, domain.ErrSubmissionOnly),
		errors.Is(err, domain.ErrInvalidArgument):
		return connect.CodeInvalidArgument
	case errors.Is(err, domain.ErrMatchNotFound),
		errors.Is(err, domain.ErrEventNotFound),
		errors.Is(err, domain.ErrClusterNotFound),
		errors.Is(err, domain.ErrPlayerNotFound):
		return connect.CodeNotFound
	case errors.Is(err, domain.ErrAlreadyExists):
		return connect.CodeAlreadyExists
	case errors.Is(err, domain.ErrAlreadyUndone),
		errors.Is(err, domain.ErrNotCompleted),
		errors.Is(err, domain.ErrMatchNotActive),
		errors.Is(err, domain.ErrWeekAlreadyClosed),
		errors.Is(err, domain.ErrInsufficientPopulation),
		errors.Is(err, domain.ErrPlayerInactive):
		return connect.CodeFailedPrecondition
	case errors.Is(err, domain.ErrConcurrentModification):
		return connect.CodeAborted
	default:
		return connect.CodeInternal
	}
}
