package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"gatherplan/internal/delivery/http/controllers"
	"gatherplan/internal/delivery/http/middleware"
	"gatherplan/internal/domain"
)

// Controllers groups the route handlers the router wires up.
type Controllers struct {
	Auth            *controllers.AuthController
	Events          *controllers.EventController
	Participants    *controllers.ParticipantController
	Recommendations *controllers.RecommendationController
	Votes           *controllers.VoteController
}

// NewRouter initializes the HTTP router with all application routes.
// Everything except auth and swagger requires a Bearer token.
func NewRouter(c Controllers, verifier domain.TokenVerifier, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Auth
	mux.HandleFunc("POST /auth/signup", c.Auth.SignUp)
	mux.HandleFunc("POST /auth/login", c.Auth.Login)

	// Events
	mux.HandleFunc("POST /events", auth(c.Events.Create))
	mux.HandleFunc("GET /events", auth(c.Events.List))
	mux.HandleFunc("GET /events/{eventID}", auth(c.Events.Get))
	mux.HandleFunc("PATCH /events/{eventID}", auth(c.Events.Update))
	mux.HandleFunc("POST /events/{eventID}/cancel", auth(c.Events.Cancel))
	mux.HandleFunc("POST /events/{eventID}/confirm", auth(c.Events.Confirm))
	mux.HandleFunc("POST /events/{eventID}/complete", auth(c.Events.Complete))
	mux.HandleFunc("POST /events/{eventID}/reschedule", auth(c.Events.Reschedule))

	// Participants
	mux.HandleFunc("POST /events/{eventID}/participants", auth(c.Participants.Invite))
	mux.HandleFunc("GET /events/{eventID}/participants", auth(c.Participants.List))
	mux.HandleFunc("POST /events/{eventID}/participants/respond", auth(c.Participants.Respond))
	mux.HandleFunc("DELETE /events/{eventID}/participants/{userID}", auth(c.Participants.Remove))

	// Venue options and recommendations
	mux.HandleFunc("POST /events/{eventID}/recommendations", auth(c.Recommendations.Generate))
	mux.HandleFunc("GET /events/{eventID}/options", auth(c.Recommendations.ListOptions))
	mux.HandleFunc("POST /events/{eventID}/options", auth(c.Recommendations.AddOption))

	// Votes
	mux.HandleFunc("POST /events/{eventID}/votes", auth(c.Votes.Cast))
	mux.HandleFunc("GET /events/{eventID}/votes", auth(c.Votes.Results))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
