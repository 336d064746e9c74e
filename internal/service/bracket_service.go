package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mbukhari/knockout/internal/bracket"
	"github.com/mbukhari/knockout/internal/live"
	"github.com/mbukhari/knockout/internal/store"
	"github.com/mbukhari/knockout/internal/utils"
)

// BracketService owns the bracket lifecycle: seeding round 1 from the
// registered pool and rolling completed rounds forward until a champion
// remains.
type BracketService struct {
	db    *sqlx.DB
	store *store.TournamentStore
	rng   bracket.Rand
	hub   *live.Hub

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewBracketService(db *sqlx.DB, tournamentStore *store.TournamentStore, rng bracket.Rand, hub *live.Hub) *BracketService {
	return &BracketService{
		db:    db,
		store: tournamentStore,
		rng:   rng,
		hub:   hub,
		locks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// lockFor returns the advancement mutex for a tournament, creating it on
// first use. Serializing AdvanceRound per tournament is what makes round
// advancement at-most-once when several winner recordings race.
func (s *BracketService) lockFor(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

// SeedFirstRound shuffles the registered players, groups them into sides
// of the format's team size, resolves byes so the field folds to a power
// of two, and persists round 1 in one transaction. Returns the number of
// matches created.
func (s *BracketService) SeedFirstRound(ctx context.Context, tournamentID uuid.UUID) (int, error) {
	tournament, err := s.store.GetTournament(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrTournamentNotFound
		}
		return 0, fmt.Errorf("failed to get tournament: %w", err)
	}

	if !tournament.Draftable() {
		return 0, fmt.Errorf("%w (current status: %s)", ErrDraftNotAllowed, tournament.Status)
	}

	teamSize, err := tournament.MatchFormat.TeamSize()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	playerIDs, err := s.store.GetRegisteredPlayerIDs(ctx, tournamentID)
	if err != nil {
		return 0, fmt.Errorf("failed to load registered players: %w", err)
	}

	if len(playerIDs) < teamSize*2 {
		return 0, fmt.Errorf("%w: need at least %d players for %s, have %d",
			ErrInsufficientPlayers, teamSize*2, tournament.MatchFormat, len(playerIDs))
	}
	if len(playerIDs)%teamSize != 0 {
		return 0, fmt.Errorf("%w: %d players is not a multiple of %d",
			ErrInvalidPlayerCount, len(playerIDs), teamSize)
	}

	shuffled := make([]uuid.UUID, len(playerIDs))
	copy(shuffled, playerIDs)
	bracket.Shuffle(s.rng, shuffled)

	sides := bracket.GroupSides(shuffled, teamSize)
	byeCount := bracket.ByeCount(len(sides))

	matches := make([]bracket.Match, 0, byeCount+(len(sides)-byeCount)/2)
	matchNumber := 1

	// Bye sides advance automatically: a completed one-sided match keeps
	// the bracket's paper trail intact.
	for _, side := range sides[:byeCount] {
		matches = append(matches, bracket.Match{
			ID:            uuid.New(),
			TournamentID:  tournamentID,
			RoundNumber:   1,
			MatchNumber:   matchNumber,
			IsBye:         true,
			Status:        bracket.MatchCompleted,
			WinnerID:      utils.Ptr(side.Representative()),
			ScheduledTime: tournament.ScheduledTime,
			Participants:  side,
		})
		matchNumber++
	}

	paired := sides[byeCount:]
	for i := 0; i+1 < len(paired); i += 2 {
		participants := make([]uuid.UUID, 0, teamSize*2)
		participants = append(participants, paired[i]...)
		participants = append(participants, paired[i+1]...)
		matches = append(matches, bracket.Match{
			ID:            uuid.New(),
			TournamentID:  tournamentID,
			RoundNumber:   1,
			MatchNumber:   matchNumber,
			Status:        bracket.MatchScheduled,
			ScheduledTime: tournament.ScheduledTime,
			Participants:  participants,
		})
		matchNumber++
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if err := s.store.CreateMatches(ctx, tx, matches); err != nil {
		return 0, fmt.Errorf("failed to create round 1 matches: %w", err)
	}
	if err := s.store.MarkDrafted(ctx, tx, tournamentID); err != nil {
		return 0, fmt.Errorf("failed to activate tournament: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	slog.Info("first round drafted",
		"tournament", tournamentID, "players", len(playerIDs), "sides", len(sides),
		"byes", byeCount, "matches", len(matches))

	s.hub.Publish(live.Event{
		Type:         live.EventBracketDrafted,
		TournamentID: tournamentID.String(),
		Payload:      map[string]int{"round": 1, "matchCount": len(matches)},
	})

	return len(matches), nil
}

type AdvanceOutcome string

const (
	OutcomeNoMatches           AdvanceOutcome = "round_has_no_matches"
	OutcomeRoundIncomplete     AdvanceOutcome = "round_incomplete"
	OutcomeRoundAdvanced       AdvanceOutcome = "round_advanced"
	OutcomeTournamentCompleted AdvanceOutcome = "tournament_completed"
)

// Advancement is the structured result of AdvanceRound. Incomplete and
// empty rounds are valid outcomes, not errors; the HTTP layer returns
// them as 200s.
type Advancement struct {
	Outcome        AdvanceOutcome `json:"outcome"`
	Round          int            `json:"round"`
	PendingMatches int            `json:"pendingMatches,omitempty"`
	NewMatchCount  int            `json:"newMatchCount,omitempty"`
	ChampionID     *uuid.UUID     `json:"championId,omitempty"`
	Message        string         `json:"message"`
}

// AdvanceRound checks whether the tournament's current round is finished
// and, if so, pairs the winning sides into the next round or crowns the
// champion. Calling it again with no new completions is a no-op.
func (s *BracketService) AdvanceRound(ctx context.Context, tournamentID uuid.UUID) (*Advancement, error) {
	lock := s.lockFor(tournamentID)
	lock.Lock()
	defer lock.Unlock()

	for {
		advancement, retry, err := s.advanceOnce(ctx, tournamentID)
		if err != nil {
			return nil, err
		}
		if !retry {
			return advancement, nil
		}
		// Another process bumped current_round under us; re-read and
		// report the fresh round's state.
	}
}

func (s *BracketService) advanceOnce(ctx context.Context, tournamentID uuid.UUID) (*Advancement, bool, error) {
	tournament, err := s.store.GetTournament(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, ErrTournamentNotFound
		}
		return nil, false, fmt.Errorf("failed to get tournament: %w", err)
	}
	round := tournament.CurrentRound

	matches, err := s.store.GetMatchesByRound(ctx, tournamentID, round)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load round %d matches: %w", round, err)
	}

	if len(matches) == 0 {
		return &Advancement{
			Outcome: OutcomeNoMatches,
			Round:   round,
			Message: "Tournament has ended (no matches found for current round).",
		}, false, nil
	}

	pending := 0
	for i := range matches {
		if matches[i].Status != bracket.MatchCompleted {
			pending++
		}
	}
	if pending > 0 {
		return &Advancement{
			Outcome:        OutcomeRoundIncomplete,
			Round:          round,
			PendingMatches: pending,
			Message:        fmt.Sprintf("Waiting for %d match(es) in Round %d to finish.", pending, round),
		}, false, nil
	}

	teamSize, err := tournament.MatchFormat.TeamSize()
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	// Winning sides in match-number order; this order is the pairing
	// contract for the next round.
	advancing := make([]bracket.Side, 0, len(matches))
	for i := range matches {
		side, ok := matches[i].WinningSide(teamSize)
		if !ok {
			return nil, false, fmt.Errorf("match %s is completed but its winner is not among its participants", matches[i].ID)
		}
		advancing = append(advancing, side)
	}

	if len(advancing) == 1 {
		return s.crownChampion(ctx, tournament, advancing[0])
	}

	if len(advancing)%2 != 0 {
		return nil, false, fmt.Errorf("%w: round %d produced %d sides", ErrOddAdvancingSides, round, len(advancing))
	}

	nextRound := round + 1
	newMatches := make([]bracket.Match, 0, len(advancing)/2)
	for i := 0; i+1 < len(advancing); i += 2 {
		participants := make([]uuid.UUID, 0, teamSize*2)
		participants = append(participants, advancing[i]...)
		participants = append(participants, advancing[i+1]...)
		newMatches = append(newMatches, bracket.Match{
			ID:            uuid.New(),
			TournamentID:  tournament.ID,
			RoundNumber:   nextRound,
			MatchNumber:   i/2 + 1,
			Status:        bracket.MatchScheduled,
			ScheduledTime: tournament.ScheduledTime,
			Participants:  participants,
		})
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	if err := s.store.CreateMatches(ctx, tx, newMatches); err != nil {
		return nil, false, fmt.Errorf("failed to create round %d matches: %w", nextRound, err)
	}
	bumped, err := s.store.AdvanceCurrentRound(ctx, tx, tournament.ID, round)
	if err != nil {
		return nil, false, fmt.Errorf("failed to advance current round: %w", err)
	}
	if !bumped {
		// Lost the cross-process race; the deferred rollback discards the
		// duplicate matches.
		slog.Warn("concurrent round advancement detected", "tournament", tournament.ID, "round", round)
		return nil, true, nil
	}
	if err := tx.Commit(); err != nil {
		return nil, false, err
	}

	slog.Info("round advanced", "tournament", tournament.ID, "round", round, "newMatches", len(newMatches))

	s.hub.Publish(live.Event{
		Type:         live.EventRoundAdvanced,
		TournamentID: tournament.ID.String(),
		Payload:      map[string]int{"round": nextRound, "matchCount": len(newMatches)},
	})

	return &Advancement{
		Outcome:       OutcomeRoundAdvanced,
		Round:         nextRound,
		NewMatchCount: len(newMatches),
		Message: fmt.Sprintf("Round %d completed! %d match(es) successfully drafted for Round %d.",
			round, len(newMatches), nextRound),
	}, false, nil
}

func (s *BracketService) crownChampion(ctx context.Context, tournament *bracket.Tournament, side bracket.Side) (*Advancement, bool, error) {
	champion := side.Representative()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	if err := s.store.CompleteTournament(ctx, tx, tournament.ID, champion); err != nil {
		return nil, false, fmt.Errorf("failed to complete tournament: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, false, err
	}

	slog.Info("tournament completed", "tournament", tournament.ID, "champion", champion)

	s.hub.Publish(live.Event{
		Type:         live.EventTournamentCompleted,
		TournamentID: tournament.ID.String(),
		Payload:      map[string]string{"championId": champion.String()},
	})

	return &Advancement{
		Outcome:    OutcomeTournamentCompleted,
		Round:      tournament.CurrentRound,
		ChampionID: &champion,
		Message:    "Tournament completed! The winner has been crowned.",
	}, false, nil
}
