package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danceschool/portal/internal/logger"
	"github.com/danceschool/portal/internal/response"
	"github.com/danceschool/portal/internal/ui/auth"
	"github.com/danceschool/portal/internal/ui/client"
	"github.com/danceschool/portal/internal/ui/config"
	"github.com/danceschool/portal/internal/ui/handlers"
	"github.com/danceschool/portal/internal/ui/types"
	"github.com/danceschool/portal/internal/utils"
	"github.com/danceschool/portal/internal/version"
	"github.com/danceschool/portal/web"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// route requirements
var (
	authenticated    = auth.Requirement{}
	financialAccess  = auth.Requirement{Roles: handlers.FinancialRoles}
	modalitiesRead   = auth.Requirement{Permission: types.PermModalitiesRead}
	modalitiesWrite  = auth.Requirement{Permission: types.PermModalitiesWrite}
	modalitiesDelete = auth.Requirement{Roles: []types.Role{types.RoleAdmin}}
)

type Server struct {
	router      *chi.Mux
	config      *config.Config
	corsConfigs *config.CORSConfigs
	logger      *slog.Logger
	authService *auth.AuthService
	gate        *auth.Gate
	apiClient   *client.Client
	money       *utils.MoneyFormatter
}

// NewServer creates the portal server and registers its routes
func NewServer(cfg *config.Config, corsConfigs *config.CORSConfigs, logger *slog.Logger) (*Server, error) {
	money, err := utils.NewMoneyFormatter(cfg.Locale, cfg.Currency)
	if err != nil {
		return nil, err
	}

	apiClient := client.NewClient(cfg.APIBaseURL, client.WithOrigin(cfg.APIOrigin))

	s := &Server{
		router:      chi.NewRouter(),
		config:      cfg,
		corsConfigs: corsConfigs,
		logger:      logger,
		authService: auth.NewAuthService(apiClient, cfg.Environment, cfg.SessionResolveWait, cfg.RefreshTokenMaxAge),
		gate:        auth.NewGate(cfg.SessionResolveWait),
		apiClient:   apiClient,
		money:       money,
	}

	s.setupMiddleware()
	s.registerRoutes()
	return s, nil
}

// ServeHTTP makes the Server usable as an http.Handler (used by the tests)
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(logger.RequestLogging(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(SecurityHeaders(s.config.Environment))
	s.router.Use(MethodOverride)
}

func (s *Server) registerRoutes() {
	handlerService := &handlers.HandlerService{
		AuthService: s.authService,
		ApiClient:   s.apiClient,
		Money:       s.money,
		Environment: s.config.Environment,
	}

	// Static assets (no auth required)
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.Static())))

	// health endpoints can be called from any origin
	s.router.Route("/health", func(r chi.Router) {
		r.Use(CORS(s.corsConfigs.Public))
		r.Get("/live", s.handleLiveness)
		r.Get("/version", s.handleVersion)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(s.authService.ResolveSession)

		// Public routes (no auth required)
		r.Get("/", handlerService.HandleHome)
		r.Get("/login", handlerService.HandleLogin)
		r.With(RateLimit(s.config.LoginRateLimitRPS, s.config.LoginRateLimitBurst)).Post("/login", handlerService.HandleLoginPost)
		r.Post("/logout", handlerService.HandleLogout)
		r.Get("/access-denied", handlerService.HandleAccessDenied)

		// Protected routes
		r.With(s.gate.Require(authenticated)).Get("/dashboard", handlerService.HandleDashboard)
		r.With(s.gate.Require(financialAccess)).Get("/financial", handlerService.HandleFinancial)

		r.Route("/modalities", func(r chi.Router) {
			r.With(s.gate.Require(modalitiesRead)).Get("/", handlerService.HandleModalities)
			r.With(s.gate.Require(modalitiesRead)).Get("/{id}", handlerService.HandleModalityRow)

			r.Group(func(r chi.Router) {
				r.Use(s.gate.Require(modalitiesWrite))
				r.Post("/", handlerService.HandleCreateModality)
				r.Put("/{id}", handlerService.HandleUpdateModality)
				r.Patch("/{id}/active", handlerService.HandleSetModalityActive)
			})

			r.With(s.gate.Require(modalitiesDelete)).Delete("/{id}", handlerService.HandleDeleteModality)
		})
	})
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	response.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	response.RespondWithJSON(w, http.StatusOK, version.Get())
}

// Start runs the server until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	// Start server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info("portal listening", slog.String("address", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutting down portal...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Server forced to shutdown", slog.String("error", err.Error()))
			return err
		}
	}

	return nil
}
