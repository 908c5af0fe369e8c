package routes

import (
	"net/http"

	_ "github.com/Dosada05/raceday/docs"
	"github.com/Dosada05/raceday/handlers"
	"github.com/Dosada05/raceday/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Club          *handlers.ClubHandler
	Player        *handlers.PlayerHandler
	Roster        *handlers.RosterHandler
	Team          *handlers.TeamHandler
	RaceTeam      *handlers.RaceTeamHandler
	Participation *handlers.ParticipationHandler
	Bib           *handlers.BibHandler
	Event         *handlers.EventHandler
	Race          *handlers.RaceHandler
	Dashboard     *handlers.DashboardHandler
	WebSocket     *handlers.WebSocketHandler
	Health        *handlers.HealthHandler
}

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
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

	authenticate := middleware.Authenticate(opts.JWTSecret)

	router.Get("/healthz", h.Health.Check)
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	router.Get("/ws/events/{eventID}", h.WebSocket.ServeWs)

	router.Route("/clubs", func(r chi.Router) {
		r.Post("/register", h.Club.Register)
		r.Post("/login", h.Club.Login)
		r.With(authenticate, middleware.RequireClub).Get("/me", h.Club.Profile)
	})

	router.Route("/events", func(r chi.Router) {
		r.Get("/", h.Event.List)
		r.With(authenticate, middleware.RequireAdmin).Post("/", h.Event.Create)

		r.Route("/{eventID}", func(r chi.Router) {
			r.Get("/", h.Event.Get)
			r.Get("/config", h.Event.GetConfig)
			r.Get("/races", h.Event.ListRaces)
			r.Get("/races/{raceID}/teams", h.Event.GetRaceTeams)
			r.Get("/race-data", h.Event.RaceData)
			r.Get("/published", h.Event.PublishedRaceData)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Use(middleware.RequireAdmin)
				r.Put("/", h.Event.Update)
				r.Delete("/", h.Event.Delete)
				r.Patch("/config", h.Event.UpdateConfig)
			})
		})
	})
	router.Get("/events-races", h.Event.ListWithRaces)

	router.Route("/bibs", func(r chi.Router) {
		r.Get("/{playerID}/{eventID}", h.Bib.Get)
		r.With(authenticate, middleware.RequireAdmin).Post("/assign", h.Bib.Assign)
		r.With(authenticate, middleware.RequireAdmin).Put("/update", h.Bib.Update)
	})

	// Портал клуба.
	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.RequireClub)

		r.Route("/players", func(r chi.Router) {
			r.Post("/", h.Player.Create)
			r.Get("/", h.Player.List)
			r.Get("/filter", h.Player.Filter)
			r.Get("/{cnic}", h.Player.Get)
			r.Put("/{cnic}", h.Player.Update)
			r.Delete("/{cnic}", h.Player.Delete)
			r.Get("/{cnic}/assignment", h.Player.CheckAssignment)
		})

		r.Post("/roster/assign", h.Roster.Assign)
		r.Post("/roster/unassign", h.Roster.Unassign)

		r.Route("/teams", func(r chi.Router) {
			r.Post("/", h.Team.Create)
			r.Get("/", h.Team.List)
			r.Put("/", h.Team.Update)
			r.Delete("/", h.Team.Delete)
			r.Post("/payment-slip", h.Team.UploadPaymentSlip)
			r.With(middleware.RequireAdmin).Patch("/{teamID}/payment", h.Team.SetPaymentStatus)
		})

		r.Route("/race-teams", func(r chi.Router) {
			r.Post("/assign", h.RaceTeam.Assign)
			r.Post("/unassign", h.RaceTeam.Unassign)
			r.Get("/unassigned", h.RaceTeam.Unassigned)
			r.Get("/assigned", h.RaceTeam.Assigned)
			r.Get("/missing-races", h.RaceTeam.MissingRaces)
			r.Get("/players", h.RaceTeam.TeamPlayers)
		})

		r.Put("/participation/status", h.Participation.UpdateStatus)
		r.Put("/participation/group", h.Participation.UpdateGroup)
	})

	// Портал администратора.
	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.RequireAdmin)

		r.Get("/admin/dashboard", h.Dashboard.Stats)

		r.Route("/races", func(r chi.Router) {
			r.Post("/", h.Race.Create)
			r.Put("/{raceID}", h.Race.Update)
			r.Delete("/{raceID}", h.Race.Delete)
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"the requested resource could not be found"}` + "\n"))
	})
}
