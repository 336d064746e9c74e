package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mbukhari/knockout/internal/bracket"
	"github.com/mbukhari/knockout/internal/httputil"
	"github.com/mbukhari/knockout/internal/live"
	"github.com/mbukhari/knockout/internal/service"
	"github.com/mbukhari/knockout/internal/store"
)

func newRouter(database *sqlx.DB, hub *live.Hub) http.Handler {
	tournamentStore := store.NewTournamentStore(database)
	playerStore := store.NewPlayerStore(database)

	// Services are built once: BracketService carries the per-tournament
	// advancement locks, so it must be shared across requests.
	bracketService := service.NewBracketService(database, tournamentStore, bracket.NewRand(), hub)
	matchService := service.NewMatchService(database, tournamentStore, playerStore, bracketService, hub)
	tournamentService := service.NewTournamentService(database, tournamentStore, playerStore)
	playerService := service.NewPlayerService(database, playerStore)

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/tournaments", func(w http.ResponseWriter, r *http.Request) {
			var input service.CreateTournamentInput
			if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
				httputil.BadRequest(w, "Invalid JSON body", err)
				return
			}
			tournament, err := tournamentService.CreateTournament(r.Context(), input)
			if err != nil {
				writeServiceError(w, err, "Failed to create tournament")
				return
			}
			httputil.JSON(w, http.StatusCreated, tournament)
		})

		r.Get("/tournaments", func(w http.ResponseWriter, r *http.Request) {
			tournaments, err := tournamentService.ListTournaments(r.Context())
			if err != nil {
				httputil.InternalServerError(w, "Failed to list tournaments", err)
				return
			}
			httputil.JSON(w, http.StatusOK, tournaments)
		})

		r.Get("/tournaments/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, ok := parseID(w, r)
			if !ok {
				return
			}
			data, err := tournamentService.GetTournamentData(r.Context(), id)
			if err != nil {
				writeServiceError(w, err, "Failed to get tournament data")
				return
			}
			httputil.JSON(w, http.StatusOK, data)
		})

		r.Delete("/tournaments/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, ok := parseID(w, r)
			if !ok {
				return
			}
			deleted, err := tournamentService.DeleteTournament(r.Context(), id)
			if err != nil {
				writeServiceError(w, err, "Failed to delete tournament")
				return
			}
			httputil.JSONMessage(w, http.StatusOK,
				map[string]int64{"deletedMatchesCount": deleted},
				"Tournament successfully deleted.")
		})

		r.Post("/tournaments/{id}/players", func(w http.ResponseWriter, r *http.Request) {
			id, ok := parseID(w, r)
			if !ok {
				return
			}
			var body struct {
				Players []service.PlayerInput `json:"players"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				httputil.BadRequest(w, "Invalid JSON body", err)
				return
			}
			added, err := tournamentService.RegisterPlayers(r.Context(), id, body.Players)
			if err != nil {
				writeServiceError(w, err, "Failed to register players")
				return
			}
			httputil.JSONMessage(w, http.StatusOK,
				map[string]int{"registered": added},
				fmt.Sprintf("%d new players registered.", added))
		})

		r.Post("/tournaments/{id}/draft", func(w http.ResponseWriter, r *http.Request) {
			id, ok := parseID(w, r)
			if !ok {
				return
			}
			created, err := bracketService.SeedFirstRound(r.Context(), id)
			if err != nil {
				writeServiceError(w, err, "Failed to draft first round")
				return
			}
			httputil.JSONMessage(w, http.StatusOK,
				map[string]int{"matchesCreated": created},
				fmt.Sprintf("Draft successful! %d matches created for Round 1.", created))
		})

		r.Post("/tournaments/{id}/advance", func(w http.ResponseWriter, r *http.Request) {
			id, ok := parseID(w, r)
			if !ok {
				return
			}
			advancement, err := bracketService.AdvanceRound(r.Context(), id)
			if err != nil {
				writeServiceError(w, err, "Failed to advance round")
				return
			}
			httputil.JSONMessage(w, http.StatusOK, advancement, advancement.Message)
		})

		r.Get("/matches", func(w http.ResponseWriter, r *http.Request) {
			matches, err := matchService.ListPendingMatches(r.Context())
			if err != nil {
				httputil.InternalServerError(w, "Failed to list pending matches", err)
				return
			}
			httputil.JSON(w, http.StatusOK, matches)
		})

		r.Patch("/matches/{id}/winner", func(w http.ResponseWriter, r *http.Request) {
			id, ok := parseID(w, r)
			if !ok {
				return
			}
			var body struct {
				WinnerID string `json:"winnerId"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				httputil.BadRequest(w, "Invalid JSON body", err)
				return
			}
			winnerID, err := uuid.Parse(body.WinnerID)
			if err != nil {
				httputil.BadRequest(w, "Invalid winner ID provided", err)
				return
			}
			match, advancement, err := matchService.RecordWinner(r.Context(), id, winnerID)
			if err != nil {
				writeServiceError(w, err, "Failed to record winner")
				return
			}
			httputil.JSONMessage(w, http.StatusOK,
				map[string]any{"match": match, "advancement": advancement},
				fmt.Sprintf("Match %d (Round %d) completed! %s",
					match.MatchNumber, match.RoundNumber, advancement.Message))
		})

		r.Get("/players", func(w http.ResponseWriter, r *http.Request) {
			players, err := playerService.ListPlayers(r.Context())
			if err != nil {
				httputil.InternalServerError(w, "Failed to list players", err)
				return
			}
			httputil.JSON(w, http.StatusOK, players)
		})

		r.Post("/players/bulk", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Players []service.PlayerInput `json:"players"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				httputil.BadRequest(w, "Invalid JSON body", err)
				return
			}
			created, err := playerService.BulkCreatePlayers(r.Context(), body.Players)
			if err != nil {
				writeServiceError(w, err, "Failed to create players")
				return
			}
			httputil.JSONMessage(w, http.StatusOK,
				map[string]int{"created": created},
				fmt.Sprintf("Successfully added %d players.", created))
		})

		r.Get("/winners", func(w http.ResponseWriter, r *http.Request) {
			winners, err := tournamentService.ListWinners(r.Context())
			if err != nil {
				httputil.InternalServerError(w, "Failed to list winners", err)
				return
			}
			httputil.JSON(w, http.StatusOK, winners)
		})
	})

	r.Get("/ws/tournaments/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		hub.ServeWS(w, r, id.String())
	})

	return r
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.BadRequest(w, "Invalid ID provided", err)
		return uuid.Nil, false
	}
	return id, true
}

func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrTournamentNotFound),
		errors.Is(err, service.ErrMatchNotFound):
		httputil.NotFound(w, err.Error(), err)
	case errors.Is(err, service.ErrInsufficientPlayers),
		errors.Is(err, service.ErrInvalidPlayerCount),
		errors.Is(err, service.ErrUnsupportedFormat),
		errors.Is(err, service.ErrDraftNotAllowed),
		errors.Is(err, service.ErrNoPlayersProvided),
		errors.Is(err, service.ErrNameRequired),
		errors.Is(err, service.ErrMatchAlreadyCompleted),
		errors.Is(err, service.ErrWinnerNotParticipant):
		httputil.BadRequest(w, err.Error(), err)
	default:
		httputil.InternalServerError(w, fallback, err)
	}
}
