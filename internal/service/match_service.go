package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mbukhari/knockout/internal/bracket"
	"github.com/mbukhari/knockout/internal/live"
	"github.com/mbukhari/knockout/internal/store"
)

type MatchService struct {
	db       *sqlx.DB
	store    *store.TournamentStore
	players  *store.PlayerStore
	brackets *BracketService
	hub      *live.Hub
}

func NewMatchService(db *sqlx.DB, tournamentStore *store.TournamentStore, playerStore *store.PlayerStore, brackets *BracketService, hub *live.Hub) *MatchService {
	return &MatchService{db: db, store: tournamentStore, players: playerStore, brackets: brackets, hub: hub}
}

// PendingMatch is the admin view of a match awaiting play: the match plus
// its tournament's name and format and the resolved player records.
type PendingMatch struct {
	bracket.Match
	TournamentName string              `json:"tournamentName"`
	MatchFormat    bracket.MatchFormat `json:"matchFormat"`
	Players        []bracket.Player    `json:"players"`
}

// ListPendingMatches returns scheduled and in-progress matches across all
// tournaments, soonest first.
func (s *MatchService) ListPendingMatches(ctx context.Context) ([]PendingMatch, error) {
	rows, err := s.store.ListPendingMatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending matches: %w", err)
	}

	seen := make(map[uuid.UUID]bool)
	ids := make([]uuid.UUID, 0, len(rows)*2)
	for i := range rows {
		for _, id := range rows[i].Participants {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	players, err := s.players.GetPlayersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load match players: %w", err)
	}
	byID := make(map[uuid.UUID]bracket.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}

	pending := make([]PendingMatch, 0, len(rows))
	for i := range rows {
		pm := PendingMatch{
			Match:          rows[i].Match,
			TournamentName: rows[i].TournamentName,
			MatchFormat:    rows[i].MatchFormat,
			Players:        make([]bracket.Player, 0, len(rows[i].Participants)),
		}
		for _, id := range rows[i].Participants {
			if p, ok := byID[id]; ok {
				pm.Players = append(pm.Players, p)
			}
		}
		pending = append(pending, pm)
	}
	return pending, nil
}

func (s *MatchService) GetMatch(ctx context.Context, matchID uuid.UUID) (*bracket.Match, error) {
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

// RecordWinner marks the match completed with the given winner and then
// attempts to roll the whole round forward. A recorded winner is
// immutable; there is no correction path.
func (s *MatchService) RecordWinner(ctx context.Context, matchID uuid.UUID, winnerID uuid.UUID) (*bracket.Match, *Advancement, error) {
	match, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}

	if match.Status == bracket.MatchCompleted {
		return nil, nil, ErrMatchAlreadyCompleted
	}
	if !match.HasParticipant(winnerID) {
		return nil, nil, ErrWinnerNotParticipant
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	if err := s.store.CompleteMatch(ctx, tx, matchID, winnerID); err != nil {
		if errors.Is(err, store.ErrNoRowsAffected) {
			return nil, nil, ErrMatchAlreadyCompleted
		}
		return nil, nil, fmt.Errorf("failed to complete match: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	s.hub.Publish(live.Event{
		Type:         live.EventMatchCompleted,
		TournamentID: match.TournamentID.String(),
		Payload: map[string]any{
			"matchId":     matchID.String(),
			"roundNumber": match.RoundNumber,
			"matchNumber": match.MatchNumber,
			"winnerId":    winnerID.String(),
		},
	})

	advancement, err := s.brackets.AdvanceRound(ctx, match.TournamentID)
	if err != nil {
		return nil, nil, fmt.Errorf("winner recorded but advancement failed: %w", err)
	}

	updated, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}
	return updated, advancement, nil
}
