package bracket

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchScheduled  MatchStatus = "scheduled"
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
	MatchCancelled  MatchStatus = "cancelled"
)

type Match struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournamentId"`

	// Position in the bracket. MatchNumber orders matches within a round
	// and drives next-round pairing, so it must be stable.
	RoundNumber int `db:"round_number" json:"roundNumber"`
	MatchNumber int `db:"match_number" json:"matchNumber"`

	IsBye  bool        `db:"is_bye" json:"isBye"`
	Status MatchStatus `db:"status" json:"status"`

	// WinnerID holds one representative member of the winning side; for
	// team formats the full side is reconstructed from Participants.
	WinnerID *uuid.UUID `db:"winner_id" json:"winnerId,omitempty"`

	ScheduledTime time.Time `db:"scheduled_time" json:"scheduledTime"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`

	// Participants is side A followed by side B (a bye match only has
	// side A). Loaded from match_participants, ordered by position.
	Participants []uuid.UUID `db:"-" json:"participants"`
}

// Sides splits the participant list into the two competing sides. A bye
// match returns a nil side B.
func (m *Match) Sides(teamSize int) (Side, Side) {
	if m.IsBye || len(m.Participants) <= teamSize {
		return Side(m.Participants), nil
	}
	return Side(m.Participants[:teamSize]), Side(m.Participants[teamSize : 2*teamSize])
}

// WinningSide returns the side containing the recorded winner. The second
// return value is false when no winner has been recorded or the recorded
// id is not a participant.
func (m *Match) WinningSide(teamSize int) (Side, bool) {
	if m.WinnerID == nil {
		return nil, false
	}
	sideA, sideB := m.Sides(teamSize)
	if sideA.Contains(*m.WinnerID) {
		return sideA, true
	}
	if sideB.Contains(*m.WinnerID) {
		return sideB, true
	}
	return nil, false
}

// HasParticipant reports whether the id appears anywhere in the match.
func (m *Match) HasParticipant(id uuid.UUID) bool {
	return Side(m.Participants).Contains(id)
}
