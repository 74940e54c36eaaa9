// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/foliokit/contactd/config"
	"github.com/foliokit/contactd/internal/app/features/contact"
	"github.com/foliokit/contactd/internal/app/relay"
	"github.com/foliokit/contactd/internal/app/store"
	"github.com/foliokit/contactd/internal/domain/models"
)

// AppEnvPrefix is the env prefix for the keys below (CONTACT_OWNER_EMAIL, ...).
const AppEnvPrefix = "CONTACT"

// Relay identifiers and keys have no compiled-in values; they come from
// the environment, flags or a config file.
var appKeys = []config.AppKey{
	{Name: "site_title", Default: "Contact", Desc: "Page title"},
	{Name: "owner_name", Default: "", Desc: "Site owner's name (notification recipient, acknowledgment sender)"},
	{Name: "owner_email", Default: "", Desc: "Site owner's email address"},

	{Name: "relay_provider", Default: relay.ProviderEmailJS, Desc: "Email relay: emailjs, smtp or memory"},
	{Name: "relay_endpoint", Default: relay.DefaultEmailJSEndpoint, Desc: "EmailJS-compatible API base URL"},
	{Name: "relay_service_id", Default: "", Desc: "Relay service id"},
	{Name: "relay_template_id", Default: "", Desc: "Relay template id"},
	{Name: "relay_public_key", Default: "", Desc: "Relay public key", Secret: true},
	{Name: "relay_private_key", Default: "", Desc: "Relay private key (accessToken), optional", Secret: true},
	{Name: "relay_timeout", Default: "30s", Desc: "Relay call timeout"},

	{Name: "smtp_host", Default: "", Desc: "SMTP host (relay_provider=smtp)"},
	{Name: "smtp_port", Default: 587, Desc: "SMTP port"},
	{Name: "smtp_username", Default: "", Desc: "SMTP username"},
	{Name: "smtp_password", Default: "", Desc: "SMTP password", Secret: true},
	{Name: "smtp_from", Default: "", Desc: "SMTP envelope sender address"},
	{Name: "smtp_tls", Default: "mandatory", Desc: "SMTP TLS: mandatory, opportunistic, none or ssl"},
	{Name: "smtp_subject_template", Default: "", Desc: "text/template for the subject (empty uses the built-in one)"},
	{Name: "smtp_body_template", Default: "", Desc: "text/template for the body (empty uses the built-in one)"},

	{Name: "state_backend", Default: "memory", Desc: "Form state store: memory or redis"},
	{Name: "redis_addr", Default: "localhost:6379", Desc: "Redis address (state_backend=redis)"},
	{Name: "redis_password", Default: "", Desc: "Redis password", Secret: true},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},
	{Name: "redis_key_prefix", Default: store.DefaultKeyPrefix, Desc: "Redis key prefix"},
	{Name: "state_ttl", Default: "24h", Desc: "How long an untouched form (and the visitor cookie) lives"},
	{Name: "inflight_ttl", Default: "2m", Desc: "Safety expiry of the redis in-flight flag"},

	{Name: "motion_style", Default: "tween", Desc: "Panel entrance animation style"},
	{Name: "motion_duration", Default: "1s", Desc: "Panel entrance duration"},
	{Name: "motion_form_delay", Default: "200ms", Desc: "Form panel entrance delay"},
	{Name: "motion_decor_delay", Default: "400ms", Desc: "Decorative panel entrance delay"},
}

// AppConfig is the service configuration.
type AppConfig struct {
	SiteTitle string
	Owner     models.Identity
	Template  contact.Template
	Relay     relay.Config

	StateBackend   string
	Redis          store.RedisOptions
	RedisKeyPrefix string
	StateTTL       time.Duration
	InFlightTTL    time.Duration

	Motion contact.Motion
}

func appConfigFrom(vals config.AppConfigValues) AppConfig {
	timeout := vals.Duration("relay_timeout", 30*time.Second)
	return AppConfig{
		SiteTitle: vals.String("site_title"),
		Owner: models.Identity{
			Name:  strings.TrimSpace(vals.String("owner_name")),
			Email: strings.TrimSpace(vals.String("owner_email")),
		},
		Template: contact.Template{
			ServiceID:  vals.String("relay_service_id"),
			TemplateID: vals.String("relay_template_id"),
			PublicKey:  vals.String("relay_public_key"),
		},
		Relay: relay.Config{
			Provider:   strings.ToLower(strings.TrimSpace(vals.String("relay_provider"))),
			Endpoint:   vals.String("relay_endpoint"),
			PrivateKey: vals.String("relay_private_key"),
			Timeout:    timeout,
			SMTP: relay.SMTPConfig{
				Host:     vals.String("smtp_host"),
				Port:     vals.Int("smtp_port"),
				Username: vals.String("smtp_username"),
				Password: vals.String("smtp_password"),
				From:     vals.String("smtp_from"),
				TLS:      strings.ToLower(vals.String("smtp_tls")),
				Timeout:  timeout,
				Subject:  vals.String("smtp_subject_template"),
				Body:     vals.String("smtp_body_template"),
			},
		},
		StateBackend: strings.ToLower(strings.TrimSpace(vals.String("state_backend"))),
		Redis: store.RedisOptions{
			Addr:     vals.String("redis_addr"),
			Password: vals.String("redis_password"),
			DB:       vals.Int("redis_db"),
		},
		RedisKeyPrefix: vals.String("redis_key_prefix"),
		StateTTL:       vals.Duration("state_ttl", 24*time.Hour),
		InFlightTTL:    vals.Duration("inflight_ttl", 2*time.Minute),
		Motion: contact.Motion{
			Style:      vals.String("motion_style"),
			Duration:   vals.Duration("motion_duration", time.Second).Seconds(),
			FormDelay:  vals.Duration("motion_form_delay", 200*time.Millisecond).Seconds(),
			DecorDelay: vals.Duration("motion_decor_delay", 400*time.Millisecond).Seconds(),
		},
	}
}

// validate collects every problem so one restart fixes them all.
func (c AppConfig) validate() error {
	var problems []string

	if c.Owner.Name == "" {
		problems = append(problems, "owner_name is required")
	}
	if !contact.ValidEmail(c.Owner.Email) {
		problems = append(problems, fmt.Sprintf("owner_email must be an email address (got %q)", c.Owner.Email))
	}

	switch c.Relay.Provider {
	case relay.ProviderEmailJS:
		if c.Template.ServiceID == "" || c.Template.TemplateID == "" || c.Template.PublicKey == "" {
			problems = append(problems, "relay_service_id, relay_template_id and relay_public_key are required for the emailjs relay")
		}
	case relay.ProviderSMTP:
		if c.Relay.SMTP.Host == "" || c.Relay.SMTP.From == "" {
			problems = append(problems, "smtp_host and smtp_from are required for the smtp relay")
		}
	case relay.ProviderMemory:
	default:
		problems = append(problems, fmt.Sprintf("relay_provider must be emailjs, smtp or memory (got %q)", c.Relay.Provider))
	}

	switch c.StateBackend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			problems = append(problems, "redis_addr is required when state_backend=redis")
		}
		// the flag must outlive both relay calls of one cycle
		if c.InFlightTTL <= 2*c.Relay.Timeout {
			problems = append(problems, fmt.Sprintf("inflight_ttl (%s) must exceed twice relay_timeout (%s)",
				c.InFlightTTL, c.Relay.Timeout))
		}
	default:
		problems = append(problems, fmt.Sprintf("state_backend must be memory or redis (got %q)", c.StateBackend))
	}

	if len(problems) > 0 {
		return errors.New("invalid app config: " + strings.Join(problems, "; "))
	}
	return nil
}
