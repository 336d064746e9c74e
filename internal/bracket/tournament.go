package bracket

import (
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentRegistrationOpen TournamentStatus = "registration_open"
	TournamentDrafting         TournamentStatus = "drafting"
	TournamentActive           TournamentStatus = "active"
	TournamentCompleted        TournamentStatus = "completed"
	TournamentCancelled        TournamentStatus = "cancelled"
)

type Tournament struct {
	ID          uuid.UUID        `db:"id" json:"id"`
	Name        string           `db:"name" json:"name"`
	GameType    string           `db:"game_type" json:"gameType"`
	MatchFormat MatchFormat      `db:"match_format" json:"matchFormat"`
	Status      TournamentStatus `db:"status" json:"status"`

	// CurrentRound is 0 until the first round has been drafted and only
	// ever increases after that.
	CurrentRound int `db:"current_round" json:"currentRound"`

	ScheduledTime time.Time  `db:"scheduled_time" json:"scheduledTime"`
	WinnerID      *uuid.UUID `db:"winner_id" json:"winnerId,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
}

// Draftable reports whether the tournament is in a state where the first
// round may be seeded.
func (t *Tournament) Draftable() bool {
	return t.Status == TournamentRegistrationOpen || t.Status == TournamentDrafting
}
