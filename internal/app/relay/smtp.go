// internal/app/relay/smtp.go
package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// SMTPConfig configures direct delivery. Subject and Body are text/template
// sources executed with the request params (from_name, to_email, message, ...).
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string // envelope sender; the visible name comes from from_name
	TLS      string // "mandatory" (default), "opportunistic", "none" or "ssl"
	Timeout  time.Duration

	Subject string
	Body    string
}

// Default templates. One template serves both stages, the way a hosted
// relay template does; message is only present on the notification.
const (
	DefaultSubjectTemplate = `{{if .message}}New message from {{.from_name}}{{else}}Thanks for reaching out, {{.to_name}}{{end}}`
	DefaultBodyTemplate    = `Hi {{.to_name}},
{{if .message}}
{{.from_name}} <{{.from_email}}> wrote:

{{.message}}
{{else}}
Thank you for your message. I will get back to you as soon as possible.

{{.from_name}}
{{end}}`
)

// SMTP renders requests locally and delivers them with go-mail.
type SMTP struct {
	cfg     SMTPConfig
	subject *template.Template
	body    *template.Template
	logger  *zap.Logger
}

// NewSMTP validates cfg and parses its templates.
func NewSMTP(cfg SMTPConfig, logger *zap.Logger) (*SMTP, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("relay: smtp host is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, errors.New("relay: smtp from address is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.TLS == "" {
		cfg.TLS = "mandatory"
	}
	switch cfg.TLS {
	case "mandatory", "opportunistic", "none", "ssl":
	default:
		return nil, fmt.Errorf("relay: smtp tls must be mandatory, opportunistic, none or ssl (got %q)", cfg.TLS)
	}
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubjectTemplate
	}
	if cfg.Body == "" {
		cfg.Body = DefaultBodyTemplate
	}

	subject, err := template.New("subject").Option("missingkey=zero").Parse(cfg.Subject)
	if err != nil {
		return nil, fmt.Errorf("relay: parse subject template: %w", err)
	}
	body, err := template.New("body").Option("missingkey=zero").Parse(cfg.Body)
	if err != nil {
		return nil, fmt.Errorf("relay: parse body template: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTP{cfg: cfg, subject: subject, body: body, logger: logger}, nil
}

// Send delivers req to params["to_email"].
func (s *SMTP) Send(ctx context.Context, req Request) error {
	msg, err := s.compose(req)
	if err != nil {
		return err
	}

	c, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("relay: smtp client: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("relay: smtp send: %w", err)
	}
	s.logger.Debug("smtp message delivered",
		zap.String("template_id", req.TemplateID),
		zap.String("host", s.cfg.Host))
	return nil
}

func (s *SMTP) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(s.cfg.Timeout),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	switch s.cfg.TLS {
	case "ssl":
		opts = append(opts, mail.WithSSL())
	case "opportunistic":
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSOpportunistic))
	case "none":
		opts = append(opts, mail.WithTLSPortPolicy(mail.NoTLS))
	default:
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}
	return opts
}

func (s *SMTP) compose(req Request) (*mail.Msg, error) {
	to := req.Params["to_email"]
	if to == "" {
		return nil, errors.New("relay: request has no to_email")
	}
	subject, body, err := s.render(req)
	if err != nil {
		return nil, err
	}

	m := mail.NewMsg()
	if name := req.Params["from_name"]; name != "" {
		err = m.FromFormat(name, s.cfg.From)
	} else {
		err = m.From(s.cfg.From)
	}
	if err != nil {
		return nil, fmt.Errorf("relay: invalid from address: %w", err)
	}
	if name := req.Params["to_name"]; name != "" {
		err = m.AddToFormat(name, to)
	} else {
		err = m.To(to)
	}
	if err != nil {
		return nil, fmt.Errorf("relay: invalid to address: %w", err)
	}
	if reply := req.Params["from_email"]; reply != "" && reply != s.cfg.From {
		if err := m.ReplyTo(reply); err != nil {
			return nil, fmt.Errorf("relay: invalid reply-to address: %w", err)
		}
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, body)
	return m, nil
}

func (s *SMTP) render(req Request) (subject, body string, err error) {
	var sb, bb strings.Builder
	if err := s.subject.Execute(&sb, req.Params); err != nil {
		return "", "", fmt.Errorf("relay: render subject: %w", err)
	}
	if err := s.body.Execute(&bb, req.Params); err != nil {
		return "", "", fmt.Errorf("relay: render body: %w", err)
	}
	return strings.TrimSpace(sb.String()), bb.String(), nil
}

// Check dials the server and closes the connection without sending.
func (s *SMTP) Check(ctx context.Context) error {
	c, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("relay: smtp client: %w", err)
	}
	if err := c.DialWithContext(ctx); err != nil {
		return fmt.Errorf("relay: smtp dial %s: %w", s.cfg.Host, err)
	}
	return c.Close()
}
