package server

import (
	"context"
	"net/http"
	"time"

	config "example.com/postapi/internal/init"
	"example.com/postapi/internal/logger"
	"example.com/postapi/internal/middleware"
	"example.com/postapi/internal/service"
)

type Server struct {
	accounts *service.Accounts
	posts    *service.Posts
	auth     *middleware.Authenticator
	log      *logger.Logger
}

func New(accounts *service.Accounts, posts *service.Posts, authn *middleware.Authenticator, log *logger.Logger) *Server {
	return &Server{accounts: accounts, posts: posts, auth: authn, log: log}
}

// Routes builds the HTTP handler with public and token-protected endpoints.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// Public endpoints
	mux.HandleFunc("POST /register", s.registerHandler)
	mux.HandleFunc("POST /login", s.loginHandler)
	mux.HandleFunc("GET /healthz", s.healthHandler)

	// Protected endpoints, caller resolved from x-access-token
	mux.Handle("POST /addPost", s.auth.Authenticate(http.HandlerFunc(s.addPostHandler)))
	mux.Handle("DELETE /deleteUser", s.auth.Authenticate(http.HandlerFunc(s.deleteUserHandler)))
	mux.Handle("DELETE /deletePost", s.auth.Authenticate(http.HandlerFunc(s.deletePostHandler)))
	mux.Handle("GET /activity", s.auth.Authenticate(http.HandlerFunc(s.activityHandler)))

	return middleware.RequestLogger(s.log, mux)
}

// Run serves handler until ctx is cancelled, then shuts down gracefully.
// TLS is used when both certificate paths are configured.
func Run(ctx context.Context, cfg *config.Config, handler http.Handler, log *logger.Logger) {
	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second, // prevent slowloris attacks
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		var err error
		if cfg.TLSEnabled() {
			log.Info("server", "Starting HTTPS server on "+cfg.ServerAddr)
			err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			log.Info("server", "Starting HTTP server on "+cfg.ServerAddr)
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Error("server", "Server stopped unexpectedly", err)
		}
	}()

	<-ctx.Done()
	log.Info("server", "Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server", "Error during server shutdown", err)
	} else {
		log.Info("server", "Server stopped gracefully")
	}
}
