package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/quillpad/identity/internal/api"
	"github.com/quillpad/identity/internal/auth"
	"github.com/quillpad/identity/internal/config"
	"github.com/quillpad/identity/internal/throttle"
)

type Server struct {
	config     *config.AppConfig
	log        *zap.Logger
	httpServer *http.Server
}

type Params struct {
	fx.In

	Config             *config.AppConfig
	Logger             *zap.Logger
	AuthHandler        *auth.Handler
	AuthMiddleware     *auth.AuthMiddleware
	ThrottleMiddleware *throttle.Middleware
}

func NewServer(p Params) *Server {
	router := mux.NewRouter()

	// Public lifecycle endpoints. Login is gated by the throttle but counts
	// only credential failures; register and forgot-password count every
	// request.
	router.Handle(api.UserRegister,
		p.ThrottleMiddleware.Counting(http.HandlerFunc(p.AuthHandler.Register))).Methods(http.MethodPost)
	router.Handle(api.UserLogin,
		p.ThrottleMiddleware.Handler(http.HandlerFunc(p.AuthHandler.Login))).Methods(http.MethodPost)
	router.HandleFunc(api.UserVerify, p.AuthHandler.VerifyEmail).Methods(http.MethodPost)
	router.Handle(api.UserForgotPassword,
		p.ThrottleMiddleware.Counting(http.HandlerFunc(p.AuthHandler.ForgotPassword))).Methods(http.MethodPost)
	router.HandleFunc(api.UserResetPassword, p.AuthHandler.ResetPassword).Methods(http.MethodPost)

	// Protected endpoints sit behind the auth gate.
	router.Handle(api.UserLogout,
		p.AuthMiddleware.Handler(http.HandlerFunc(p.AuthHandler.Logout))).Methods(http.MethodPost)
	router.Handle(api.UserMe,
		p.AuthMiddleware.Handler(http.HandlerFunc(p.AuthHandler.Me))).Methods(http.MethodGet)

	router.HandleFunc(api.Health, func(w http.ResponseWriter, _ *http.Request) {
		api.WriteMessage(w, http.StatusOK, "Health OK")
	}).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		api.WriteMessage(w, http.StatusNotFound, "Not Found")
	})

	addr := fmt.Sprintf("%s:%s", p.Config.Server.Host, p.Config.Server.Port)

	return &Server{
		config: p.Config,
		log:    p.Logger,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Start() error {
	s.log.Info("Starting HTTP server",
		zap.String("address", s.httpServer.Addr),
		zap.Object("config", serverConfigToField(s.config)),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to serve: %w", err)
	}

	return nil
}

func serverConfigToField(config *config.AppConfig) zapcore.ObjectMarshaler {
	return zapcore.ObjectMarshalerFunc(func(enc zapcore.ObjectEncoder) error {
		enc.AddString("environment", os.Getenv("APP_ENV"))
		enc.AddString("frontend_url", config.Server.FrontendURL)
		enc.AddInt("throttle_max_attempts", config.Throttle.MaxAttempts)
		enc.AddDuration("session_token_duration", config.Auth.SessionTokenDuration)
		return nil
	})
}

func (s *Server) Stop() {
	s.log.Info("shutting down HTTP server")

	timeout := s.config.Server.ShutdownTimeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Error("graceful shutdown failed", zap.Error(err))
	}
}
