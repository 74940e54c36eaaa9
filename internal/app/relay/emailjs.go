// internal/app/relay/emailjs.go
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultEmailJSEndpoint is the public EmailJS API.
const DefaultEmailJSEndpoint = "https://api.emailjs.com"

const emailJSSendPath = "/api/v1.0/email/send"

// maxErrorBody bounds how much of a failed response is kept in StatusError.
const maxErrorBody = 1 << 10

// EmailJS sends through an EmailJS-compatible HTTP API.
type EmailJS struct {
	endpoint   string
	privateKey string
	client     *http.Client
}

// NewEmailJS returns a client for endpoint (DefaultEmailJSEndpoint when
// empty). privateKey is sent as accessToken when set. timeout <= 0 leaves
// the transport default in place.
func NewEmailJS(endpoint, privateKey string, timeout time.Duration) *EmailJS {
	if endpoint == "" {
		endpoint = DefaultEmailJSEndpoint
	}
	c := &http.Client{}
	if timeout > 0 {
		c.Timeout = timeout
	}
	return &EmailJS{
		endpoint:   strings.TrimRight(endpoint, "/"),
		privateKey: privateKey,
		client:     c,
	}
}

type emailJSPayload struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// Send posts req and treats any 2xx as delivered.
func (e *EmailJS) Send(ctx context.Context, req Request) error {
	body, err := json.Marshal(emailJSPayload{
		ServiceID:      req.ServiceID,
		TemplateID:     req.TemplateID,
		UserID:         req.PublicKey,
		AccessToken:    e.privateKey,
		TemplateParams: req.Params,
	})
	if err != nil {
		return fmt.Errorf("relay: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+emailJSSendPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("relay: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("relay: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
