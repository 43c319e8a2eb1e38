package providers

import (
	"context"

	"github.com/gofiber/fiber/v2/log"
)

// SendFunc delivers a sign-in link to identifier.
type SendFunc func(ctx context.Context, identifier string, url string) error

// Email returns a passwordless provider. When send is nil links are only logged,
// which is handy in development.
func Email(send SendFunc) *EmailConfig {
	if send == nil {
		send = logLink
	}

	return &EmailConfig{send: send}
}

type EmailConfig struct {
	send SendFunc
}

func (c *EmailConfig) ID() string {
	return "email"
}

func (c *EmailConfig) Info() any {
	return map[string]any{
		"id":   c.ID(),
		"name": "Email",
	}
}

func (c *EmailConfig) SendVerificationRequest(ctx context.Context, identifier string, url string) error {
	return c.send(ctx, identifier, url)
}

func logLink(_ context.Context, identifier string, url string) error {
	log.Infof("sign-in link for %s: %s", identifier, url)
	return nil
}
