package notify

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// ResendConfig holds Resend API transport credentials.
type ResendConfig struct {
	APIKey string
	From   string
}

// ResendTransport sends alert mail through the Resend API.
type ResendTransport struct {
	client *resend.Client
	from   string
}

// NewResendTransport creates a Resend transport. An empty API key leaves the
// transport unconfigured.
func NewResendTransport(cfg ResendConfig) *ResendTransport {
	t := &ResendTransport{from: cfg.From}
	if cfg.APIKey != "" {
		t.client = resend.NewClient(cfg.APIKey)
	}
	return t
}

// Name identifies the transport in logs.
func (t *ResendTransport) Name() string { return "resend" }

// Configured reports whether the API key and sender are present.
func (t *ResendTransport) Configured() bool {
	return t.client != nil && t.from != ""
}

// Send delivers one message.
func (t *ResendTransport) Send(ctx context.Context, msg *Message) error {
	if t.client == nil {
		return fmt.Errorf("resend client not initialized")
	}

	params := &resend.SendEmailRequest{
		From:    t.from,
		To:      []string{msg.Recipient},
		Subject: msg.Subject,
		Text:    msg.Body,
	}
	if _, err := t.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	return nil
}
