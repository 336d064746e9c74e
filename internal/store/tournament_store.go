package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mbukhari/knockout/internal/bracket"
)

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

func (s *TournamentStore) CreateTournament(ctx context.Context, tx *sqlx.Tx, tournament *bracket.Tournament) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO tournaments (id, name, game_type, match_format, status, current_round, scheduled_time, winner_id)
        VALUES (:id, :name, :game_type, :match_format, :status, :current_round, :scheduled_time, :winner_id)`, tournament)
	return err
}

func (s *TournamentStore) GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	err := s.db.GetContext(ctx, &tournament, "SELECT * FROM tournaments WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &tournament, nil
}

func (s *TournamentStore) ListTournaments(ctx context.Context) ([]bracket.Tournament, error) {
	var tournaments []bracket.Tournament
	err := s.db.SelectContext(ctx, &tournaments, "SELECT * FROM tournaments ORDER BY scheduled_time DESC")
	return tournaments, err
}

// DeleteTournament removes the tournament; matches, participants and
// registrations go with it via FK cascade. Returns the number of matches
// that were deleted.
func (s *TournamentStore) DeleteTournament(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (int64, error) {
	var matchCount int64
	if err := tx.GetContext(ctx, &matchCount, "SELECT COUNT(*) FROM matches WHERE tournament_id = ?", id); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM tournaments WHERE id = ?", id)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return 0, ErrNoRowsAffected
	}
	return matchCount, nil
}

// RegisterPlayers appends players to the tournament's pool in the given
// order, skipping ids that are already registered. Returns how many were
// newly added.
func (s *TournamentStore) RegisterPlayers(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, playerIDs []uuid.UUID) (int, error) {
	existing, err := s.registeredIDs(ctx, tx, tournamentID)
	if err != nil {
		return 0, err
	}
	registered := make(map[uuid.UUID]bool, len(existing))
	for _, id := range existing {
		registered[id] = true
	}

	position := len(existing)
	added := 0
	for _, playerID := range playerIDs {
		if registered[playerID] {
			continue
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO tournament_players (tournament_id, player_id, position)
            VALUES (?, ?, ?)`, tournamentID, playerID, position)
		if err != nil {
			return added, err
		}
		registered[playerID] = true
		position++
		added++
	}
	return added, nil
}

func (s *TournamentStore) GetRegisteredPlayerIDs(ctx context.Context, tournamentID uuid.UUID) ([]uuid.UUID, error) {
	return s.registeredIDs(ctx, s.db, tournamentID)
}

func (s *TournamentStore) registeredIDs(ctx context.Context, q sqlx.QueryerContext, tournamentID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := sqlx.SelectContext(ctx, q, &ids,
		"SELECT player_id FROM tournament_players WHERE tournament_id = ? ORDER BY position ASC", tournamentID)
	return ids, err
}

// MarkDrafted flips the tournament into its opening round.
func (s *TournamentStore) MarkDrafted(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `UPDATE tournaments SET status = ?, current_round = 1 WHERE id = ?`,
		bracket.TournamentActive, id)
	return err
}

// AdvanceCurrentRound bumps current_round only if it still equals
// fromRound. The false return means another advance won the race and the
// caller must roll back.
func (s *TournamentStore) AdvanceCurrentRound(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, fromRound int) (bool, error) {
	res, err := tx.ExecContext(ctx, `UPDATE tournaments SET current_round = ? WHERE id = ? AND current_round = ?`,
		fromRound+1, id, fromRound)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *TournamentStore) CompleteTournament(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, winnerID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `UPDATE tournaments SET status = ?, winner_id = ? WHERE id = ?`,
		bracket.TournamentCompleted, winnerID, id)
	return err
}

func (s *TournamentStore) CreateMatches(ctx context.Context, tx *sqlx.Tx, matches []bracket.Match) error {
	if len(matches) == 0 {
		return nil
	}
	for i := range matches {
		m := &matches[i]
		_, err := tx.NamedExecContext(ctx, `INSERT INTO matches (id, tournament_id, round_number, match_number, is_bye, status, winner_id, scheduled_time)
            VALUES (:id, :tournament_id, :round_number, :match_number, :is_bye, :status, :winner_id, :scheduled_time)`, m)
		if err != nil {
			return err
		}
		for pos, playerID := range m.Participants {
			_, err := tx.ExecContext(ctx, `INSERT INTO match_participants (match_id, position, player_id)
                VALUES (?, ?, ?)`, m.ID, pos, playerID)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *TournamentStore) GetMatch(ctx context.Context, id uuid.UUID) (*bracket.Match, error) {
	var match bracket.Match
	if err := s.db.GetContext(ctx, &match, "SELECT * FROM matches WHERE id = ?", id); err != nil {
		return nil, err
	}
	matches := []bracket.Match{match}
	if err := s.attachParticipants(ctx, matches); err != nil {
		return nil, err
	}
	return &matches[0], nil
}

// GetMatchesByRound returns a round's matches ordered by match number.
// This ordering is the pairing contract for the next round.
func (s *TournamentStore) GetMatchesByRound(ctx context.Context, tournamentID uuid.UUID, round int) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := s.db.SelectContext(ctx, &matches,
		"SELECT * FROM matches WHERE tournament_id = ? AND round_number = ? ORDER BY match_number ASC",
		tournamentID, round)
	if err != nil {
		return nil, err
	}
	if err := s.attachParticipants(ctx, matches); err != nil {
		return nil, err
	}
	return matches, nil
}

func (s *TournamentStore) GetMatches(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := s.db.SelectContext(ctx, &matches,
		"SELECT * FROM matches WHERE tournament_id = ? ORDER BY round_number ASC, match_number ASC", tournamentID)
	if err != nil {
		return nil, err
	}
	if err := s.attachParticipants(ctx, matches); err != nil {
		return nil, err
	}
	return matches, nil
}

type participantRow struct {
	MatchID  uuid.UUID `db:"match_id"`
	Position int       `db:"position"`
	PlayerID uuid.UUID `db:"player_id"`
}

func (s *TournamentStore) attachParticipants(ctx context.Context, matches []bracket.Match) error {
	if len(matches) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(matches))
	for i := range matches {
		ids[i] = matches[i].ID
	}

	query, args, err := sqlx.In(
		"SELECT match_id, position, player_id FROM match_participants WHERE match_id IN (?) ORDER BY match_id, position ASC", ids)
	if err != nil {
		return err
	}
	var rows []participantRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return err
	}

	byMatch := make(map[uuid.UUID][]uuid.UUID, len(matches))
	for _, row := range rows {
		byMatch[row.MatchID] = append(byMatch[row.MatchID], row.PlayerID)
	}
	for i := range matches {
		matches[i].Participants = byMatch[matches[i].ID]
	}
	return nil
}

// PendingMatchRow is a match awaiting play joined with its tournament.
type PendingMatchRow struct {
	bracket.Match
	TournamentName string              `db:"tournament_name"`
	MatchFormat    bracket.MatchFormat `db:"match_format"`
}

// ListPendingMatches returns every scheduled or in-progress match across
// all tournaments, soonest first.
func (s *TournamentStore) ListPendingMatches(ctx context.Context) ([]PendingMatchRow, error) {
	var rows []PendingMatchRow
	err := s.db.SelectContext(ctx, &rows, `SELECT m.*, t.name AS tournament_name, t.match_format
        FROM matches m
        JOIN tournaments t ON t.id = m.tournament_id
        WHERE m.status IN (?, ?)
        ORDER BY m.scheduled_time ASC, m.round_number ASC, m.match_number ASC`,
		bracket.MatchScheduled, bracket.MatchInProgress)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return rows, nil
	}

	matches := make([]bracket.Match, len(rows))
	for i := range rows {
		matches[i] = rows[i].Match
	}
	if err := s.attachParticipants(ctx, matches); err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Participants = matches[i].Participants
	}
	return rows, nil
}

// CompleteMatch records the winner. The guard on status keeps a recorded
// winner immutable even if two requests race.
func (s *TournamentStore) CompleteMatch(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID, winnerID uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `UPDATE matches SET winner_id = ?, status = ? WHERE id = ? AND status != ?`,
		winnerID, bracket.MatchCompleted, matchID, bracket.MatchCompleted)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

type ChampionRow struct {
	TournamentID   uuid.UUID `db:"tournament_id"`
	TournamentName string    `db:"tournament_name"`
	ScheduledTime  time.Time `db:"scheduled_time"`
	WinnerID       uuid.UUID `db:"winner_id"`
	WinnerName     string    `db:"winner_name"`
	WinnerEmail    *string   `db:"winner_email"`
}

func (s *TournamentStore) ListChampions(ctx context.Context) ([]ChampionRow, error) {
	var rows []ChampionRow
	err := s.db.SelectContext(ctx, &rows, `SELECT t.id AS tournament_id, t.name AS tournament_name, t.scheduled_time,
            p.id AS winner_id, p.name AS winner_name, p.email AS winner_email
        FROM tournaments t
        JOIN players p ON p.id = t.winner_id
        WHERE t.status = ?
        ORDER BY t.scheduled_time DESC`, bracket.TournamentCompleted)
	return rows, err
}
