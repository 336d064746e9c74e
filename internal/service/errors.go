package service

import "errors"

// Sentinel errors shared across services and the HTTP error mapping.
var (
	// Not-found
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")

	// Validation and business rules
	ErrInsufficientPlayers = errors.New("insufficient players to draft the first round")
	ErrInvalidPlayerCount  = errors.New("player count must be a multiple of the team size")
	ErrUnsupportedFormat   = errors.New("unsupported match format")
	ErrDraftNotAllowed     = errors.New("drafting is only allowed while registration is open or drafting")
	ErrNoPlayersProvided   = errors.New("no player data provided")
	ErrNameRequired        = errors.New("tournament name is required")

	// State conflicts
	ErrMatchAlreadyCompleted = errors.New("match is already completed")
	ErrWinnerNotParticipant  = errors.New("the winner is not a participant in this match")

	// Corrupt bracket state: an odd advancing-side count can only happen
	// if a match was voided externally. Refuse instead of dropping a side.
	ErrOddAdvancingSides = errors.New("odd number of advancing sides, bracket state is inconsistent")
)
