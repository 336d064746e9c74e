package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/mbukhari/knockout/internal/bracket"
	"github.com/mbukhari/knockout/internal/store"
	"github.com/mbukhari/knockout/internal/utils"
)

type TournamentService struct {
	db      *sqlx.DB
	store   *store.TournamentStore
	players *store.PlayerStore
}

func NewTournamentService(db *sqlx.DB, tournamentStore *store.TournamentStore, playerStore *store.PlayerStore) *TournamentService {
	return &TournamentService{db: db, store: tournamentStore, players: playerStore}
}

type CreateTournamentInput struct {
	Name          string              `json:"name"`
	GameType      string              `json:"gameType"`
	MatchFormat   bracket.MatchFormat `json:"matchFormat"`
	ScheduledTime time.Time           `json:"scheduledTime"`
}

func (s *TournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*bracket.Tournament, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrNameRequired
	}
	if _, err := input.MatchFormat.TeamSize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	tournament := &bracket.Tournament{
		ID:            uuid.New(),
		Name:          strings.TrimSpace(input.Name),
		GameType:      input.GameType,
		MatchFormat:   input.MatchFormat,
		Status:        bracket.TournamentRegistrationOpen,
		ScheduledTime: input.ScheduledTime,
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.store.CreateTournament(ctx, tx, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("tournament created", "tournament", tournament.ID, "format", tournament.MatchFormat)
	return tournament, nil
}

func (s *TournamentService) ListTournaments(ctx context.Context) ([]bracket.Tournament, error) {
	return s.store.ListTournaments(ctx)
}

// TournamentData is the public bracket payload: the tournament, its
// registered players and every match with participants.
type TournamentData struct {
	Tournament *bracket.Tournament `json:"tournament"`
	Players    []bracket.Player    `json:"players"`
	Matches    []bracket.Match     `json:"matches"`
}

func (s *TournamentService) GetTournamentData(ctx context.Context, id uuid.UUID) (*TournamentData, error) {
	tournament, err := s.store.GetTournament(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	data := &TournamentData{Tournament: tournament}

	// Players and matches are independent reads; fetch them in parallel.
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ids, err := s.store.GetRegisteredPlayerIDs(gCtx, id)
		if err != nil {
			return fmt.Errorf("failed to load registered players: %w", err)
		}
		players, err := s.players.GetPlayersByIDs(gCtx, ids)
		if err != nil {
			return fmt.Errorf("failed to load player details: %w", err)
		}
		data.Players = players
		return nil
	})
	g.Go(func() error {
		matches, err := s.store.GetMatches(gCtx, id)
		if err != nil {
			return fmt.Errorf("failed to load matches: %w", err)
		}
		data.Matches = matches
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

// DeleteTournament tears the tournament down along with all of its
// matches. Returns the number of matches removed.
func (s *TournamentService) DeleteTournament(ctx context.Context, id uuid.UUID) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	deleted, err := s.store.DeleteTournament(ctx, tx, id)
	if err != nil {
		if errors.Is(err, store.ErrNoRowsAffected) {
			return 0, ErrTournamentNotFound
		}
		return 0, fmt.Errorf("failed to delete tournament: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	slog.Info("tournament deleted", "tournament", id, "matchesRemoved", deleted)
	return deleted, nil
}

type PlayerInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RegisterPlayers finds or creates each player by email and appends the
// new ones to the tournament's pool. Returns how many registrations were
// added.
func (s *TournamentService) RegisterPlayers(ctx context.Context, tournamentID uuid.UUID, inputs []PlayerInput) (int, error) {
	if len(inputs) == 0 {
		return 0, ErrNoPlayersProvided
	}
	if _, err := s.store.GetTournament(ctx, tournamentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrTournamentNotFound
		}
		return 0, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	playerIDs := make([]uuid.UUID, 0, len(inputs))
	for _, input := range inputs {
		player, err := s.findOrCreatePlayer(ctx, tx, input)
		if err != nil {
			return 0, err
		}
		playerIDs = append(playerIDs, player.ID)
	}

	added, err := s.store.RegisterPlayers(ctx, tx, tournamentID, playerIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to register players: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	slog.Info("players registered", "tournament", tournamentID, "added", added)
	return added, nil
}

func (s *TournamentService) findOrCreatePlayer(ctx context.Context, tx *sqlx.Tx, input PlayerInput) (*bracket.Player, error) {
	email := strings.TrimSpace(input.Email)
	if email != "" {
		player, err := s.players.GetPlayerByEmail(ctx, tx, email)
		if err == nil {
			return player, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to look up player by email: %w", err)
		}
	}

	player := &bracket.Player{
		ID:    uuid.New(),
		Name:  strings.TrimSpace(input.Name),
		Email: utils.StringOrNil(email),
	}
	if err := s.players.CreatePlayer(ctx, tx, player); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	return player, nil
}

type ChampionEntry struct {
	TournamentID   uuid.UUID `json:"tournamentId"`
	TournamentName string    `json:"tournamentName"`
	ScheduledTime  time.Time `json:"scheduledTime"`
	Winner         struct {
		ID    uuid.UUID `json:"id"`
		Name  string    `json:"name"`
		Email *string   `json:"email,omitempty"`
	} `json:"winner"`
}

// ListWinners reports every completed tournament and its champion.
func (s *TournamentService) ListWinners(ctx context.Context) ([]ChampionEntry, error) {
	rows, err := s.store.ListChampions(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]ChampionEntry, 0, len(rows))
	for _, row := range rows {
		entry := ChampionEntry{
			TournamentID:   row.TournamentID,
			TournamentName: row.TournamentName,
			ScheduledTime:  row.ScheduledTime,
		}
		entry.Winner.ID = row.WinnerID
		entry.Winner.Name = row.WinnerName
		entry.Winner.Email = row.WinnerEmail
		entries = append(entries, entry)
	}
	return entries, nil
}
