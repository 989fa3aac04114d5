// Package httpapi exposes the REST boundary of the server: routing,
// session cookies, and the translation of service errors into the small
// set of application error kinds the frontend understands.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dmitrijs2005/hoaboard/internal/logging"
	"github.com/dmitrijs2005/hoaboard/internal/server/config"
	"github.com/dmitrijs2005/hoaboard/internal/server/services"
)

// SessionCookieName is the cookie the browser frontend carries the session
// token in.
const SessionCookieName = "hoaboard_session"

// Server wires the services to HTTP routes.
type Server struct {
	addr            string
	logger          logging.Logger
	users           *services.UserService
	communities     *services.CommunityService
	votes           *services.VoteService
	mailer          Mailer
	sessionSecret   []byte
	sessionValidity time.Duration
	allowedOrigins  []string
}

// NewServer constructs the HTTP server. A nil mailer falls back to
// LogMailer.
func NewServer(cfg *config.Config, logger logging.Logger,
	users *services.UserService, communities *services.CommunityService,
	votes *services.VoteService, mailer Mailer) *Server {

	if mailer == nil {
		mailer = &LogMailer{Logger: logger}
	}

	return &Server{
		addr:            cfg.Addr,
		logger:          logger,
		users:           users,
		communities:     communities,
		votes:           votes,
		mailer:          mailer,
		sessionSecret:   []byte(cfg.SessionSecret),
		sessionValidity: cfg.SessionValidity,
		allowedOrigins:  cfg.AllowedOrigins,
	}
}

// Router assembles the route tree. Routes under requireSession demand a
// valid session cookie; the rest are reachable anonymously.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/users", s.handleRegister)
		r.Post("/sessions", s.handleLogin)
		r.Delete("/sessions", s.handleLogout)

		r.Get("/checks/name", s.handleCheckName)
		r.Get("/checks/email", s.handleCheckEmail)

		r.Post("/users/recovery", s.handleRecoveryRequest)
		r.Post("/users/password-reset", s.handlePasswordReset)
		r.Post("/users/email-validation", s.handleEmailValidation)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)

			r.Get("/users/me", s.handleCurrentUser)
			r.Delete("/users/me", s.handleUnregister)
			r.Put("/users/me/email", s.handleUpdateEmail)
			r.Put("/users/me/password", s.handleUpdatePassword)
			r.Post("/users/me/validation-request", s.handleValidationRequest)
			r.Put("/users/me/default-community", s.handleSetDefaultCommunity)

			r.Post("/communities", s.handleCreateCommunity)
			r.Get("/communities", s.handleListCommunities)
			r.Get("/communities/{communityID}", s.handleGetCommunity)
			r.Get("/communities/{communityID}/members", s.handleListMembers)
			r.Post("/communities/{communityID}/members", s.handleAddProperty)
			r.Get("/communities/{communityID}/topics", s.handleListTopics)
			r.Post("/communities/{communityID}/topics", s.handleCreateTopic)

			r.Post("/members/{memberID}/invitation", s.handleInvite)
			r.Put("/members/{memberID}/roles", s.handleSetRoles)
			r.Delete("/members/{memberID}", s.handleRemoveMember)
			r.Post("/invitations/accept", s.handleAcceptInvitation)

			r.Put("/topics/{topicID}", s.handleUpdateTopic)
			r.Post("/topics/{topicID}/archive", s.handleArchiveTopic)
			r.Get("/topics/{topicID}/tally", s.handleTally)
			r.Put("/propositions/{propositionID}/vote", s.handleCastVote)
		})
	})

	return r
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Router()}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "http server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
