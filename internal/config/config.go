// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrymomot/mailrelay/pkg/logger"
	"github.com/dmitrymomot/mailrelay/pkg/mailer/mailersend"
	"github.com/dmitrymomot/mailrelay/pkg/mailer/resend"
	"github.com/dmitrymomot/mailrelay/pkg/mailer/sendgrid"
)

// Email providers accepted in EMAIL_PROVIDER.
const (
	ProviderMailerSend = "mailersend"
	ProviderResend     = "resend"
	ProviderSendGrid   = "sendgrid"
	ProviderSES        = "ses"
)

// Total mismatch policies accepted in TOTAL_MISMATCH_POLICY.
const (
	PolicyAccept = "accept"
	PolicyReject = "reject"
)

// DefaultAllowedOrigins are the exact CORS origins used when none are configured.
var DefaultAllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// DefaultAllowedOriginPatterns match the hosted backend and Expo clients.
var DefaultAllowedOriginPatterns = []string{
	`\.convex\.cloud$`,
	`^exp://`,
	`^https?://(.*)\.expo\.dev$`,
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Config is built once at startup and treated as read-only afterwards.
type Config struct {
	Port        int    `env:"PORT" envDefault:"3000"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"E-Waste App Email Service"`

	AppName        string `env:"APP_NAME" envDefault:"E-Waste App"`
	PrimaryColor   string `env:"APP_PRIMARY_COLOR" envDefault:"#4CAF50"`
	CurrencySymbol string `env:"CURRENCY_SYMBOL" envDefault:"₹"`
	MismatchPolicy string `env:"TOTAL_MISMATCH_POLICY" envDefault:"accept"`

	SenderEmail string `env:"SENDER_EMAIL,required"`
	SenderName  string `env:"SENDER_NAME" envDefault:"E-Waste App Notifications"`
	// SenderDomainTXT, when set, must appear in a TXT record of the sender's
	// domain for the service to report ready (e.g. the provider SPF include).
	SenderDomainTXT string `env:"SENDER_DOMAIN_TXT"`

	Provider   string `env:"EMAIL_PROVIDER" envDefault:"mailersend"`
	DryRun     bool   `env:"EMAIL_DRY_RUN" envDefault:"false"`
	MailerSend mailersend.Config
	Resend     resend.Config
	SendGrid   sendgrid.Config

	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"15s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	AllowedOrigins        []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	AllowedOriginPatterns []string `env:"CORS_ALLOWED_ORIGIN_PATTERNS" envSeparator:","`

	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"json"`
	Sentry    logger.SentryConfig

	originPatterns []*regexp.Regexp
}

// Load reads an optional .env file, parses the process environment and
// validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: load .env: %v", ErrConfiguration, err)
	}
	return parse(env.Options{})
}

// Parse builds a Config from the given variables only. The process
// environment is ignored.
func Parse(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field rules and compiles the CORS origin patterns.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
	}
	if strings.TrimSpace(c.SenderEmail) == "" {
		errs = append(errs, errors.New("SENDER_EMAIL is required"))
	}
	if !hexColor.MatchString(c.PrimaryColor) {
		errs = append(errs, fmt.Errorf("APP_PRIMARY_COLOR %q is not a hex colour", c.PrimaryColor))
	}

	c.MismatchPolicy = strings.ToLower(strings.TrimSpace(c.MismatchPolicy))
	if c.MismatchPolicy != PolicyAccept && c.MismatchPolicy != PolicyReject {
		errs = append(errs, fmt.Errorf("TOTAL_MISMATCH_POLICY must be %q or %q, got %q", PolicyAccept, PolicyReject, c.MismatchPolicy))
	}

	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	switch c.Provider {
	case ProviderMailerSend:
		if c.MailerSend.APIKey == "" && !c.DryRun {
			errs = append(errs, errors.New("MAILERSEND_API_KEY is required"))
		}
	case ProviderResend:
		if c.Resend.APIKey == "" && !c.DryRun {
			errs = append(errs, errors.New("RESEND_API_KEY is required"))
		}
	case ProviderSendGrid:
		if c.SendGrid.APIKey == "" && !c.DryRun {
			errs = append(errs, errors.New("SENDGRID_API_KEY is required"))
		}
	case ProviderSES:
		// credentials come from the AWS default chain
	default:
		errs = append(errs, fmt.Errorf("EMAIL_PROVIDER %q is not supported", c.Provider))
	}

	for name, d := range map[string]time.Duration{
		"PROVIDER_TIMEOUT": c.ProviderTimeout,
		"REQUEST_TIMEOUT":  c.RequestTimeout,
		"SHUTDOWN_TIMEOUT": c.ShutdownTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}

	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = DefaultAllowedOrigins
	}
	if len(c.AllowedOriginPatterns) == 0 {
		c.AllowedOriginPatterns = DefaultAllowedOriginPatterns
	}
	c.originPatterns = c.originPatterns[:0]
	for _, p := range c.AllowedOriginPatterns {
		re, err := regexp.Compile(strings.TrimSpace(p))
		if err != nil {
			errs = append(errs, fmt.Errorf("CORS_ALLOWED_ORIGIN_PATTERNS: %w", err))
			continue
		}
		c.originPatterns = append(c.originPatterns, re)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return nil
}

// OriginPatterns returns the compiled CORS origin patterns.
func (c *Config) OriginPatterns() []*regexp.Regexp {
	return c.originPatterns
}

// Address returns the listen address.
func (c *Config) Address() string {
	return net.JoinHostPort("", strconv.Itoa(c.Port))
}

// LogValue keeps credentials out of startup logs.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("port", c.Port),
		slog.String("service_name", c.ServiceName),
		slog.String("app_name", c.AppName),
		slog.String("provider", c.Provider),
		slog.Bool("dry_run", c.DryRun),
		slog.String("api_key", mask(c.apiKey())),
		slog.String("sender_email", c.SenderEmail),
		slog.String("mismatch_policy", c.MismatchPolicy),
		slog.Duration("provider_timeout", c.ProviderTimeout),
		slog.Any("allowed_origins", c.AllowedOrigins),
		slog.Any("allowed_origin_patterns", c.AllowedOriginPatterns),
		slog.Bool("sentry", c.Sentry.DSN != ""),
	)
}

func (c *Config) apiKey() string {
	switch c.Provider {
	case ProviderMailerSend:
		return c.MailerSend.APIKey
	case ProviderResend:
		return c.Resend.APIKey
	case ProviderSendGrid:
		return c.SendGrid.APIKey
	}
	return ""
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:4] + strings.Repeat("*", len(secret)-4)
}
