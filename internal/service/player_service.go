package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mbukhari/knockout/internal/bracket"
	"github.com/mbukhari/knockout/internal/store"
	"github.com/mbukhari/knockout/internal/utils"
)

type PlayerService struct {
	db    *sqlx.DB
	store *store.PlayerStore
}

func NewPlayerService(db *sqlx.DB, playerStore *store.PlayerStore) *PlayerService {
	return &PlayerService{db: db, store: playerStore}
}

func (s *PlayerService) ListPlayers(ctx context.Context) ([]bracket.Player, error) {
	return s.store.ListPlayers(ctx)
}

// BulkCreatePlayers inserts a batch of registry entries in one
// transaction, skipping rows without a name.
func (s *PlayerService) BulkCreatePlayers(ctx context.Context, inputs []PlayerInput) (int, error) {
	if len(inputs) == 0 {
		return 0, ErrNoPlayersProvided
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	created := 0
	for _, input := range inputs {
		name := strings.TrimSpace(input.Name)
		if name == "" {
			continue
		}
		player := &bracket.Player{
			ID:    uuid.New(),
			Name:  name,
			Email: utils.StringOrNil(input.Email),
		}
		if err := s.store.CreatePlayer(ctx, tx, player); err != nil {
			return 0, fmt.Errorf("failed to create player %q: %w", name, err)
		}
		created++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return created, nil
}
