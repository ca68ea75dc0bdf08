package routes

import (
	"net/http"
	"time"

	"github.com/Dosada05/fjj-brasileirao/handlers"
	"github.com/Dosada05/fjj-brasileirao/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	Team         *handlers.TeamHandler
	Player       *handlers.PlayerHandler
	Championship *handlers.ChampionshipHandler
	Match        *handlers.MatchHandler
	Transfer     *handlers.TransferHandler
	History      *handlers.HistoryHandler
	System       *handlers.SystemHandler
	WebSocket    *handlers.WebSocketHandler
}

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// websocket живёт дольше любого таймаута запроса
	router.Get("/ws", h.WebSocket.ServeWs)

	router.Route("/api", func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(opts.RequestTimeout))

		r.Get("/health", h.System.Health)
		r.Post("/auth/login", h.Auth.Login)

		// Публичные маршруты (чтение)
		r.Get("/teams", h.Team.ListTeams)
		r.Get("/teams/{teamID}", h.Team.GetTeamByID)
		r.Get("/teams/{teamID}/players", h.Team.ListTeamPlayers)
		r.Get("/teams/{teamID}/transfers", h.Team.ListTeamTransfers)
		r.Get("/teams/{teamID}/matches", h.Team.ListTeamMatches)

		r.Get("/players", h.Player.ListPlayers)
		r.Get("/players/free-agents", h.Player.ListFreeAgents)
		r.Get("/players/top-scorers", h.Player.TopScorers)
		r.Get("/players/{playerID}", h.Player.GetPlayerByID)

		r.Get("/championship", h.Championship.GetCurrent)
		r.Get("/championship/standings", h.Championship.Standings)
		r.Get("/championship/matches", h.Championship.ListMatches)
		r.Get("/matches/{matchID}", h.Match.GetMatch)

		r.Get("/transfers", h.Transfer.ListTransfers)
		r.Get("/history", h.History.ListHistory)

		// Маршруты администратора
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(opts.JWTSecret))

			r.Post("/teams", h.Team.CreateTeam)
			r.Put("/teams/{teamID}", h.Team.UpdateTeam)
			r.Delete("/teams/{teamID}", h.Team.DeleteTeam)

			r.Post("/players", h.Player.CreatePlayer)
			r.Put("/players/{playerID}", h.Player.UpdatePlayer)
			r.Delete("/players/{playerID}", h.Player.DeletePlayer)

			r.Post("/championship", h.Championship.CreateChampionship)
			r.Delete("/championship", h.Championship.ResetChampionship)
			r.Post("/championship/teams/{teamID}", h.Championship.AddTeam)
			r.Delete("/championship/teams/{teamID}", h.Championship.RemoveTeam)
			r.Post("/championship/start", h.Championship.Start)
			r.Post("/championship/advance", h.Championship.Advance)
			r.Post("/championship/finalize", h.Championship.Finalize)

			r.Post("/matches", h.Match.CreateMatch)
			r.Patch("/matches/{matchID}", h.Match.RescheduleMatch)
			r.Delete("/matches/{matchID}", h.Match.DeleteMatch)
			r.Post("/matches/{matchID}/result/proposal", h.Match.ProposeResult)
			r.Put("/matches/{matchID}/result", h.Match.ConfirmResult)

			r.Post("/transfers", h.Transfer.CreateTransfer)
			r.Post("/transfers/external", h.Transfer.SignExternal)

			r.Post("/sync", h.System.Sync)
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"the requested resource could not be found"}` + "\n"))
	})
}
