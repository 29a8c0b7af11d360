package mail

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/quillpad/identity/internal/config"
)

// Module provides the mail sender selected by configuration
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(cfg *config.AppConfig, log *zap.Logger) Sender {
					if cfg.Mail.Provider == "mailgun" {
						return NewMailgunSender(&cfg.Mail)
					}
					return NewLogSender(log)
				},
			),
		),
	)
}
