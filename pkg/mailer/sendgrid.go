package mailer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/apexlearn/campaign-api/pkg/config"
	appErrors "github.com/apexlearn/campaign-api/pkg/errors"
)

// Sendgrid delivers mail through the SendGrid v3 API.
type Sendgrid struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

// NewSendgrid builds a SendGrid-backed transport.
func NewSendgrid(cfg config.MailerConfig) *Sendgrid {
	return &Sendgrid{
		client: sendgrid.NewSendClient(cfg.APIKey),
		from:   sgmail.NewEmail(cfg.FromName, cfg.FromEmail),
	}
}

// Send submits a single message and returns the provider message id.
func (s *Sendgrid) Send(ctx context.Context, to, subject, html string) (string, error) {
	message := sgmail.NewSingleEmail(s.from, subject, sgmail.NewEmail("", to), "", html)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "sendgrid request failed")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		err := fmt.Errorf("sendgrid status %d: %s", resp.StatusCode, resp.Body)
		return "", appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "sendgrid rejected message")
	}

	ids := resp.Headers["X-Message-Id"]
	if len(ids) == 0 {
		return "", nil
	}
	return ids[0], nil
}
