// internal/app/relay/relay.go
//
// Package relay delivers templated transactional email through an
// external relay. A Request names the relay service, the template and
// the public key, and carries the template parameters.
package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Request is one templated send.
type Request struct {
	ServiceID  string
	TemplateID string
	PublicKey  string
	Params     map[string]string
}

// Sender delivers one Request. A nil error means the relay accepted it.
type Sender interface {
	Send(ctx context.Context, req Request) error
}

// Provider names.
const (
	ProviderEmailJS = "emailjs"
	ProviderSMTP    = "smtp"
	ProviderMemory  = "memory"
)

// Config selects and configures a provider.
type Config struct {
	Provider   string
	Endpoint   string // emailjs base URL
	PrivateKey string // emailjs access token, optional
	Timeout    time.Duration

	SMTP SMTPConfig
}

// ErrUnknownProvider is returned by New for an unrecognised provider name.
var ErrUnknownProvider = errors.New("relay: unknown provider")

// New builds the Sender named by cfg.Provider.
func New(cfg Config, logger *zap.Logger) (Sender, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Provider {
	case ProviderEmailJS:
		return NewEmailJS(cfg.Endpoint, cfg.PrivateKey, cfg.Timeout), nil
	case ProviderSMTP:
		smtpCfg := cfg.SMTP
		if smtpCfg.Timeout == 0 {
			smtpCfg.Timeout = cfg.Timeout
		}
		return NewSMTP(smtpCfg, logger)
	case ProviderMemory:
		logger.Warn("memory relay selected; messages are recorded, not delivered")
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
}

// StatusError reports a relay response outside 2xx.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("relay: status %d", e.StatusCode)
	}
	return fmt.Sprintf("relay: status %d: %s", e.StatusCode, e.Body)
}
