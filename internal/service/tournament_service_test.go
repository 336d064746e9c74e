package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbukhari/knockout/internal/bracket"
)

func TestCreateTournamentValidation(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	svc := newTestServices(t, db)
	ctx := context.Background()

	t.Run("name required", func(t *testing.T) {
		_, err := svc.tournaments.CreateTournament(ctx, CreateTournamentInput{
			Name:        "   ",
			MatchFormat: bracket.Format1v1,
		})
		assert.ErrorIs(t, err, ErrNameRequired)
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, err := svc.tournaments.CreateTournament(ctx, CreateTournamentInput{
			Name:        "FFA Night",
			MatchFormat: "FFA",
		})
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("asymmetric format", func(t *testing.T) {
		_, err := svc.tournaments.CreateTournament(ctx, CreateTournamentInput{
			Name:        "Handicap",
			MatchFormat: "2v3",
		})
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("valid", func(t *testing.T) {
		tournament, err := svc.tournaments.CreateTournament(ctx, CreateTournamentInput{
			Name:          "  Friday Cup  ",
			GameType:      "Table Tennis",
			MatchFormat:   bracket.Format2v2,
			ScheduledTime: time.Now().Add(24 * time.Hour).UTC(),
		})
		require.NoError(t, err)
		assert.Equal(t, "Friday Cup", tournament.Name)
		assert.Equal(t, bracket.TournamentRegistrationOpen, tournament.Status)
		assert.Equal(t, 0, tournament.CurrentRound)
		assert.Nil(t, tournament.WinnerID)
	})
}

func TestRegisterPlayersFindsOrCreatesByEmail(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	svc := newTestServices(t, db)
	ctx := context.Background()

	first, err := svc.tournaments.CreateTournament(ctx, CreateTournamentInput{
		Name: "Cup A", MatchFormat: bracket.Format1v1, ScheduledTime: time.Now().UTC(),
	})
	require.NoError(t, err)
	second, err := svc.tournaments.CreateTournament(ctx, CreateTournamentInput{
		Name: "Cup B", MatchFormat: bracket.Format1v1, ScheduledTime: time.Now().UTC(),
	})
	require.NoError(t, err)

	added, err := svc.tournaments.RegisterPlayers(ctx, first.ID, []PlayerInput{
		{Name: "Alice", Email: "alice@example.com"},
		{Name: "Bob", Email: "bob@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	// Re-registering the same emails adds nothing to the same tournament.
	added, err = svc.tournaments.RegisterPlayers(ctx, first.ID, []PlayerInput{
		{Name: "Alice Again", Email: "alice@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	// The same email joins a second tournament as the same player row.
	added, err = svc.tournaments.RegisterPlayers(ctx, second.ID, []PlayerInput{
		{Name: "Alice", Email: "alice@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	players, err := svc.tournaments.players.ListPlayers(ctx)
	require.NoError(t, err)
	assert.Len(t, players, 2, "email lookup must reuse the existing player")
}

func TestRegisterPlayersErrors(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	svc := newTestServices(t, db)
	ctx := context.Background()

	_, err := svc.tournaments.RegisterPlayers(ctx, uuid.New(), []PlayerInput{{Name: "X"}})
	assert.ErrorIs(t, err, ErrTournamentNotFound)

	tournament, err := svc.tournaments.CreateTournament(ctx, CreateTournamentInput{
		Name: "Empty", MatchFormat: bracket.Format1v1, ScheduledTime: time.Now().UTC(),
	})
	require.NoError(t, err)

	_, err = svc.tournaments.RegisterPlayers(ctx, tournament.ID, nil)
	assert.ErrorIs(t, err, ErrNoPlayersProvided)
}

func TestGetTournamentData(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	svc := newTestServices(t, db)
	ctx := context.Background()

	_, err := svc.tournaments.GetTournamentData(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrTournamentNotFound)

	id := createTournamentWithPlayers(t, svc, bracket.Format1v1, 4)
	_, err = svc.brackets.SeedFirstRound(ctx, id)
	require.NoError(t, err)

	data, err := svc.tournaments.GetTournamentData(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, data.Tournament.ID)
	assert.Len(t, data.Players, 4)
	assert.Len(t, data.Matches, 2)
	for _, m := range data.Matches {
		assert.Len(t, m.Participants, 2, "matches must come back with participants attached")
	}
}

func TestDeleteTournamentRemovesMatches(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	svc := newTestServices(t, db)
	ctx := context.Background()

	id := createTournamentWithPlayers(t, svc, bracket.Format1v1, 4)
	_, err := svc.brackets.SeedFirstRound(ctx, id)
	require.NoError(t, err)

	deleted, err := svc.tournaments.DeleteTournament(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	_, err = svc.tournaments.GetTournamentData(ctx, id)
	assert.ErrorIs(t, err, ErrTournamentNotFound)

	_, err = svc.tournaments.DeleteTournament(ctx, id)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestBulkCreatePlayersSkipsBlankNames(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	svc := newTestServices(t, db)
	players := NewPlayerService(db, svc.tournaments.players)
	ctx := context.Background()

	_, err := players.BulkCreatePlayers(ctx, nil)
	assert.ErrorIs(t, err, ErrNoPlayersProvided)

	created, err := players.BulkCreatePlayers(ctx, []PlayerInput{
		{Name: "Carol", Email: "carol@example.com"},
		{Name: "   "},
		{Name: "Dave"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	listed, err := players.ListPlayers(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}
