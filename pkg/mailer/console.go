package mailer

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/apexlearn/campaign-api/pkg/config"
)

// Console writes messages to stdout instead of delivering them. Used in
// development and as the default when no provider is configured.
type Console struct {
	from string
}

// NewConsole builds the console transport.
func NewConsole(cfg config.MailerConfig) *Console {
	return &Console{from: cfg.FromEmail}
}

// Send prints the message and fabricates a message id.
func (c *Console) Send(ctx context.Context, to, subject, html string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := "console-" + uuid.NewString()
	fmt.Fprintf(os.Stdout, "--- email %s ---\nFrom: %s\nTo: %s\nSubject: %s\n\n%s\n\n", id, c.from, to, subject, html)
	return id, nil
}
