package config

import (
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	MetricsPort int    `envconfig:"METRICS_PORT" default:"9090"`
	Environment string `envconfig:"ENV" default:"development"`

	// Hosted backend (database, identity, storage)
	DBConnectionString     string `envconfig:"DB_CONNECTION_STRING" required:"true"`
	SupabaseURL            string `envconfig:"SUPABASE_URL" required:"true"`
	SupabaseAnonKey        string `envconfig:"SUPABASE_ANON_KEY"`
	SupabaseServiceRoleKey string `envconfig:"SUPABASE_SERVICE_ROLE_KEY"`
	JWTSecret              string `envconfig:"SUPABASE_JWT_SECRET" required:"true"`
	S3URL                  string `envconfig:"SUPABASE_S3_URL" required:"true"`
	S3Bucket               string `envconfig:"SUPABASE_S3_BUCKET" default:"media"`
	S3Region               string `envconfig:"SUPABASE_S3_REGION" default:"us-east-1"`
	S3AccessKey            string `envconfig:"SUPABASE_S3_ACCESS_KEY" required:"true"`
	S3SecretKey            string `envconfig:"SUPABASE_S3_SECRET_KEY" required:"true"`

	// Stripe
	StripeSecretKey         string `envconfig:"STRIPE_SECRET_KEY" required:"true"`
	StripePublishableKey    string `envconfig:"STRIPE_PUBLISHABLE_KEY"`
	StripeWebhookSecret     string `envconfig:"STRIPE_WEBHOOK_SECRET" required:"true"`
	StripePriceStarterMonth string `envconfig:"STRIPE_PRICE_STARTER_MONTHLY"`
	StripePriceStarterYear  string `envconfig:"STRIPE_PRICE_STARTER_YEARLY"`
	StripePriceProMonth     string `envconfig:"STRIPE_PRICE_PRO_MONTHLY"`
	StripePriceProYear      string `envconfig:"STRIPE_PRICE_PRO_YEARLY"`

	// Public app
	AppURL    string `envconfig:"NEXT_PUBLIC_APP_URL" default:"http://localhost:3000"`
	AppDomain string `envconfig:"NEXT_PUBLIC_APP_DOMAIN" default:"localhost"`

	// Custom domain provider (optional)
	VercelAPIToken  string `envconfig:"VERCEL_API_TOKEN"`
	VercelProjectID string `envconfig:"VERCEL_PROJECT_ID"`
	VercelTeamID    string `envconfig:"VERCEL_TEAM_ID"`
	DNSResolver     string `envconfig:"DNS_RESOLVER" default:"1.1.1.1:53"`

	// Optional infrastructure
	RedisURL              string `envconfig:"REDIS_URL"`
	NATSURL               string `envconfig:"NATS_URL"`
	GCPProjectID          string `envconfig:"GCP_PROJECT_ID"`
	PubSubRevalidateTopic string `envconfig:"PUBSUB_REVALIDATE_TOPIC" default:"page-revalidate"`
	PubSubEmulatorHost    string `envconfig:"PUBSUB_EMULATOR_HOST"`
	SentryDSN             string `envconfig:"SENTRY_DSN"`
	RateLimitPerMinute    int    `envconfig:"RATE_LIMIT_PER_MINUTE" default:"60"`
	CORSAllowedOrigins    string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment reports whether the service runs against local infrastructure.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// VercelEnabled reports whether custom domains are registered with the provider.
func (c *Config) VercelEnabled() bool {
	return c.VercelAPIToken != "" && c.VercelProjectID != ""
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// PublicObjectURL builds the public storage URL for an object key.
func (c *Config) PublicObjectURL(key string) string {
	return strings.TrimRight(c.SupabaseURL, "/") + "/storage/v1/object/public/" + c.S3Bucket + "/" + key
}
