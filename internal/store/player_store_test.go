package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbukhari/knockout/internal/bracket"
	"github.com/mbukhari/knockout/internal/utils"
)

func TestPlayerLookups(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	s := NewPlayerStore(db)
	ctx := context.Background()

	alice := &bracket.Player{ID: uuid.New(), Name: "Alice", Email: utils.Ptr("alice@example.com")}
	bob := &bracket.Player{ID: uuid.New(), Name: "Bob"}
	inTx(t, db, func(tx *sqlx.Tx) error {
		if err := s.CreatePlayer(ctx, tx, alice); err != nil {
			return err
		}
		return s.CreatePlayer(ctx, tx, bob)
	})

	got, err := s.GetPlayer(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)

	_, err = s.GetPlayer(ctx, uuid.New())
	assert.ErrorIs(t, err, sql.ErrNoRows)

	tx, err := db.Beginx()
	require.NoError(t, err)
	byEmail, err := s.GetPlayerByEmail(ctx, tx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byEmail.ID)
	_, err = s.GetPlayerByEmail(ctx, tx, "nobody@example.com")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	tx.Rollback()

	listed, err := s.ListPlayers(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "Alice", listed[0].Name, "players list sorts by name")

	subset, err := s.GetPlayersByIDs(ctx, []uuid.UUID{bob.ID})
	require.NoError(t, err)
	require.Len(t, subset, 1)
	assert.Equal(t, bob.ID, subset[0].ID)

	empty, err := s.GetPlayersByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCreatePlayerDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	s := NewPlayerStore(db)
	ctx := context.Background()

	inTx(t, db, func(tx *sqlx.Tx) error {
		return s.CreatePlayer(ctx, tx, &bracket.Player{
			ID: uuid.New(), Name: "Carol", Email: utils.Ptr("carol@example.com"),
		})
	})

	tx, err := db.Beginx()
	require.NoError(t, err)
	err = s.CreatePlayer(ctx, tx, &bracket.Player{
		ID: uuid.New(), Name: "Carol Clone", Email: utils.Ptr("carol@example.com"),
	})
	assert.Error(t, err, "email is unique")
	tx.Rollback()
}
