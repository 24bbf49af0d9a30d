package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration required by the API and worker processes.
// Values come from an optional .env file, an optional config.yaml and the
// environment, in increasing order of precedence. Keys map to env vars by
// upper-casing and replacing dots with underscores (mongo.uri -> MONGO_URI).
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Mongo      MongoConfig      `mapstructure:"mongo"`
	Redis      RedisConfig      `mapstructure:"redis"`
	RabbitMQ   RabbitMQConfig   `mapstructure:"rabbitmq"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Twilio     TwilioConfig     `mapstructure:"twilio"`
	Fast2SMS   Fast2SMSConfig   `mapstructure:"fast2sms"`
	SMTP       SMTPConfig       `mapstructure:"smtp"`
	SMM        SMMConfig        `mapstructure:"smm"`
	Pricing    PricingConfig    `mapstructure:"pricing"`
	Automation AutomationConfig `mapstructure:"automation"`
}

type AppConfig struct {
	Env  string `mapstructure:"env"`
	Port int    `mapstructure:"port"`

	// PublicBaseURL is the externally reachable origin used to build provider callback URLs.
	PublicBaseURL string `mapstructure:"public_base_url"`

	// CORSOrigins is a comma-separated list of dashboard origins; empty allows any.
	CORSOrigins string `mapstructure:"cors_origins"`
}

type MongoConfig struct {
	URI      string        `mapstructure:"uri"`
	Database string        `mapstructure:"database"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type RedisConfig struct {
	Addr string `mapstructure:"addr"`

	// RateLimitPerMinute caps requests per client IP. Zero disables the limiter.
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute"`

	// DispatchConcurrency caps simultaneous campaign dispatches per user.
	DispatchConcurrency int `mapstructure:"dispatch_concurrency"`
}

type RabbitMQConfig struct {
	URL   string `mapstructure:"url"`
	Queue string `mapstructure:"queue"`
}

type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	JWTIssuer       string        `mapstructure:"jwt_issuer"`
	JWTAudience     string        `mapstructure:"jwt_audience"`
	AccessTokenTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_ttl"`
}

type TwilioConfig struct {
	AccountSID         string  `mapstructure:"account_sid"`
	AuthToken          string  `mapstructure:"auth_token"`
	CallerID           string  `mapstructure:"caller_id"`
	WhatsAppFrom       string  `mapstructure:"whatsapp_from"`
	ValidateSignatures bool    `mapstructure:"validate_signatures"`
	SendsPerSecond     float64 `mapstructure:"sends_per_second"`
}

type Fast2SMSConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	BaseURL        string  `mapstructure:"base_url"`
	SenderID       string  `mapstructure:"sender_id"`
	Route          string  `mapstructure:"route"`
	SendsPerSecond float64 `mapstructure:"sends_per_second"`
}

type SMTPConfig struct {
	Host           string  `mapstructure:"host"`
	Port           int     `mapstructure:"port"`
	Username       string  `mapstructure:"username"`
	Password       string  `mapstructure:"password"`
	From           string  `mapstructure:"from"`
	SendsPerSecond float64 `mapstructure:"sends_per_second"`
}

type SMMConfig struct {
	URL           string        `mapstructure:"url"`
	Key           string        `mapstructure:"key"`
	MarkupPercent int64         `mapstructure:"markup_percent"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
}

// PricingConfig holds flat per-recipient prices in minor units and the charge
// policy of each channel ("attempted" or "succeeded").
type PricingConfig struct {
	Currency string `mapstructure:"currency"`

	SMSMinor         int64 `mapstructure:"sms_minor"`
	WhatsAppMinor    int64 `mapstructure:"whatsapp_minor"`
	EmailMinor       int64 `mapstructure:"email_minor"`
	VoiceMinuteMinor int64 `mapstructure:"voice_minute_minor"`

	SMSPolicy      string `mapstructure:"sms_policy"`
	WhatsAppPolicy string `mapstructure:"whatsapp_policy"`
	EmailPolicy    string `mapstructure:"email_policy"`
	VoicePolicy    string `mapstructure:"voice_policy"`
}

type AutomationConfig struct {
	StepDelay time.Duration `mapstructure:"step_delay"`
	MaxSteps  int           `mapstructure:"max_steps"`
}

var defaults = map[string]any{
	"app.env":             "local",
	"app.port":            8080,
	"app.public_base_url": "",
	"app.cors_origins":    "",

	"mongo.uri":      "",
	"mongo.database": "brandbuzz",
	"mongo.timeout":  "10s",

	"redis.addr":                  "",
	"redis.rate_limit_per_minute": 120,
	"redis.dispatch_concurrency":  2,

	"rabbitmq.url":   "",
	"rabbitmq.queue": "automation.jobs",

	"nats.url":            "",
	"nats.subject_prefix": "brandbuzz",

	"auth.jwt_secret":   "",
	"auth.jwt_issuer":   "",
	"auth.jwt_audience": "",
	"auth.access_ttl":   "0s",
	"auth.refresh_ttl":  "0s",

	"twilio.account_sid":         "",
	"twilio.auth_token":          "",
	"twilio.caller_id":           "",
	"twilio.whatsapp_from":       "",
	"twilio.validate_signatures": false,
	"twilio.sends_per_second":    5.0,

	"fast2sms.api_key":          "",
	"fast2sms.base_url":         "https://www.fast2sms.com/dev/bulkV2",
	"fast2sms.sender_id":        "",
	"fast2sms.route":            "q",
	"fast2sms.sends_per_second": 10.0,

	"smtp.host":             "",
	"smtp.port":             587,
	"smtp.username":         "",
	"smtp.password":         "",
	"smtp.from":             "",
	"smtp.sends_per_second": 5.0,

	"smm.url":            "",
	"smm.key":            "",
	"smm.markup_percent": 20,
	"smm.cache_ttl":      "10m",

	"pricing.currency":           "INR",
	"pricing.sms_minor":          25,
	"pricing.whatsapp_minor":     50,
	"pricing.email_minor":        10,
	"pricing.voice_minute_minor": 100,
	"pricing.sms_policy":         "attempted",
	"pricing.whatsapp_policy":    "succeeded",
	"pricing.email_policy":       "succeeded",
	"pricing.voice_policy":       "succeeded",

	"automation.step_delay": "2s",
	"automation.max_steps":  100,
}

// Load reads configuration and validates it.
func Load() (Config, error) {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/brandbuzz")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	c.applyDefaults()
	return c, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if strings.TrimSpace(c.Mongo.URI) == "" {
		errs = append(errs, errors.New("MONGO_URI is required"))
	}
	if strings.TrimSpace(c.Mongo.Database) == "" {
		errs = append(errs, errors.New("MONGO_DATABASE is required"))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET is required"))
	}
	access, refresh := c.tokenTTLs()
	if refresh <= access {
		errs = append(errs, errors.New("AUTH_REFRESH_TTL must be greater than AUTH_ACCESS_TTL"))
	}

	for name, p := range map[string]string{
		"PRICING_SMS_POLICY":      c.Pricing.SMSPolicy,
		"PRICING_WHATSAPP_POLICY": c.Pricing.WhatsAppPolicy,
		"PRICING_EMAIL_POLICY":    c.Pricing.EmailPolicy,
		"PRICING_VOICE_POLICY":    c.Pricing.VoicePolicy,
	} {
		if p != "" && !isValidPolicy(p) {
			errs = append(errs, fmt.Errorf("%s must be attempted or succeeded, got %q", name, p))
		}
	}
	for name, amt := range map[string]int64{
		"PRICING_SMS_MINOR":          c.Pricing.SMSMinor,
		"PRICING_WHATSAPP_MINOR":     c.Pricing.WhatsAppMinor,
		"PRICING_EMAIL_MINOR":        c.Pricing.EmailMinor,
		"PRICING_VOICE_MINUTE_MINOR": c.Pricing.VoiceMinuteMinor,
	} {
		if amt < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %d", name, amt))
		}
	}

	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("AUTH_JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("AUTH_JWT_AUDIENCE is required in production"))
		}
		if c.App.PublicBaseURL == "" {
			errs = append(errs, errors.New("APP_PUBLIC_BASE_URL is required in production"))
		}
		if c.Twilio.AccountSID == "" || c.Twilio.AuthToken == "" {
			errs = append(errs, errors.New("TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN are required in production"))
		}
		if !c.Twilio.ValidateSignatures {
			errs = append(errs, errors.New("TWILIO_VALIDATE_SIGNATURES must be enabled in production"))
		}
		if c.Fast2SMS.APIKey == "" {
			errs = append(errs, errors.New("FAST2SMS_API_KEY is required in production"))
		}
		if c.RabbitMQ.URL == "" {
			errs = append(errs, errors.New("RABBITMQ_URL is required in production"))
		}
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required in production"))
		}
	}

	return joinErrors(errs)
}

// applyDefaults fills zero values that depend on other settings.
func (c *Config) applyDefaults() {
	c.Auth.AccessTokenTTL, c.Auth.RefreshTokenTTL = c.tokenTTLs()
	if c.Mongo.Timeout <= 0 {
		c.Mongo.Timeout = 10 * time.Second
	}
	if c.SMM.CacheTTL <= 0 {
		c.SMM.CacheTTL = 10 * time.Minute
	}
	if c.Automation.MaxSteps <= 0 {
		c.Automation.MaxSteps = 100
	}
}

func (c Config) tokenTTLs() (time.Duration, time.Duration) {
	access, refresh := c.Auth.AccessTokenTTL, c.Auth.RefreshTokenTTL
	if access <= 0 {
		// Default: short-lived access tokens.
		access = 15 * time.Minute
	}
	if refresh <= 0 {
		refresh = 30 * 24 * time.Hour
	}
	return access, refresh
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

// AllowedOrigins splits App.CORSOrigins.
func (c Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.App.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// CallbackURL joins the public base URL with a path for provider callbacks.
func (c Config) CallbackURL(path string) string {
	if c.App.PublicBaseURL == "" {
		return ""
	}
	return strings.TrimRight(c.App.PublicBaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidPolicy(v string) bool {
	switch v {
	case "attempted", "succeeded":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
