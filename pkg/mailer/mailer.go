package mailer

import (
	"context"

	"github.com/apexlearn/campaign-api/pkg/config"
)

// Transport sends a single rendered email and returns the provider message id.
// Implementations must honour context cancellation so callers can bound send
// latency.
type Transport interface {
	Send(ctx context.Context, to, subject, html string) (string, error)
}

// New selects a transport implementation from configuration.
func New(cfg config.MailerConfig) Transport {
	switch cfg.Provider {
	case "sendgrid":
		return NewSendgrid(cfg)
	default:
		return NewConsole(cfg)
	}
}
