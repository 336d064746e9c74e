package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mbukhari/knockout/internal/bracket"
)

// ErrNoRowsAffected signals an update that matched nothing, typically a
// state-conflict guard firing.
var ErrNoRowsAffected = errors.New("store: no rows affected")

type PlayerStore struct {
	db *sqlx.DB
}

func NewPlayerStore(db *sqlx.DB) *PlayerStore {
	return &PlayerStore{db: db}
}

func (s *PlayerStore) CreatePlayer(ctx context.Context, tx *sqlx.Tx, player *bracket.Player) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO players (id, name, email)
        VALUES (:id, :name, :email)`, player)
	return err
}

func (s *PlayerStore) GetPlayer(ctx context.Context, id uuid.UUID) (*bracket.Player, error) {
	var player bracket.Player
	if err := s.db.GetContext(ctx, &player, "SELECT * FROM players WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *PlayerStore) GetPlayerByEmail(ctx context.Context, tx *sqlx.Tx, email string) (*bracket.Player, error) {
	var player bracket.Player
	if err := tx.GetContext(ctx, &player, "SELECT * FROM players WHERE email = ?", email); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *PlayerStore) ListPlayers(ctx context.Context) ([]bracket.Player, error) {
	var players []bracket.Player
	err := s.db.SelectContext(ctx, &players, "SELECT * FROM players ORDER BY name ASC")
	return players, err
}

func (s *PlayerStore) GetPlayersByIDs(ctx context.Context, ids []uuid.UUID) ([]bracket.Player, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In("SELECT * FROM players WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	var players []bracket.Player
	err = s.db.SelectContext(ctx, &players, s.db.Rebind(query), args...)
	return players, err
}
