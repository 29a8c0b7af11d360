package auth

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/quillpad/identity/internal/config"
	"github.com/quillpad/identity/internal/mail"
	"github.com/quillpad/identity/internal/throttle"
)

// NewModule returns the auth module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			// Provide repository
			fx.Annotate(
				func(db *gorm.DB) Repository {
					return NewRepository(db)
				},
			),
			// Provide service
			fx.Annotate(
				func(config *config.AppConfig, log *zap.Logger, repo Repository, mailer mail.Sender) *Service {
					return NewService(&config.Auth, log, repo, mailer, config.Server.FrontendURL)
				},
			),
			// Provide handler
			fx.Annotate(
				func(svc *Service, t *throttle.Throttle, log *zap.Logger) *Handler {
					return NewHandler(svc, t, log)
				},
			),
			// Provide middleware
			fx.Annotate(
				func(svc *Service, log *zap.Logger) *AuthMiddleware {
					return NewAuthMiddleware(svc, log)
				},
			),
		),
	)
}
