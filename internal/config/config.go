package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

const envPrefix = "NOSCITE"

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Debug       bool   `envconfig:"DEBUG" default:"false"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	Environment string `envconfig:"ENV" default:"development"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// postgres, redis or memory
	RateLimitBackend string        `envconfig:"RATE_LIMIT_BACKEND" default:"postgres"`
	ChatQuota        int           `envconfig:"CHAT_QUOTA" default:"20"`
	ContactIPQuota   int           `envconfig:"CONTACT_IP_QUOTA" default:"10"`
	ContactMailQuota int           `envconfig:"CONTACT_EMAIL_QUOTA" default:"3"`
	RateLimitWindow  time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"60m"`

	OpenAIAPIKey        string        `envconfig:"OPENAI_API_KEY"`
	EmbeddingModel      string        `envconfig:"EMBEDDING_MODEL" default:"text-embedding-ada-002"`
	EmbeddingDimensions int           `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`
	EmbeddingCacheTTL   time.Duration `envconfig:"EMBEDDING_CACHE_TTL" default:"24h"`

	// openai or gemini
	ChatProvider string  `envconfig:"CHAT_PROVIDER" default:"openai"`
	ChatModel    string  `envconfig:"CHAT_MODEL" default:"gpt-4o-mini"`
	GeminiAPIKey string  `envconfig:"GEMINI_API_KEY"`
	GeminiModel  string  `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`
	Temperature  float32 `envconfig:"TEMPERATURE" default:"0.7"`
	MaxTokens    int     `envconfig:"MAX_TOKENS" default:"800"`
	MaxAttempts  int     `envconfig:"GENERATION_MAX_ATTEMPTS" default:"3"`

	SimilarityThreshold float64 `envconfig:"SIMILARITY_THRESHOLD" default:"0.7"`
	SiteTopK            int     `envconfig:"SITE_TOP_K" default:"5"`
	DocumentTopK        int     `envconfig:"DOCUMENT_TOP_K" default:"3"`
	ContextBudget       int     `envconfig:"CONTEXT_BUDGET" default:"6000"`
	HistoryLength       int     `envconfig:"HISTORY_LENGTH" default:"10"`

	JWTSecret string        `envconfig:"JWT_SECRET"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"1h"`

	CaptchaSecret    string `envconfig:"CAPTCHA_SECRET"`
	CaptchaVerifyURL string `envconfig:"CAPTCHA_VERIFY_URL" default:"https://challenges.cloudflare.com/turnstile/v0/siteverify"`

	MailAPIKey   string `envconfig:"MAIL_API_KEY"`
	MailEndpoint string `envconfig:"MAIL_ENDPOINT" default:"https://api.resend.com/emails"`
	MailFrom     string `envconfig:"MAIL_FROM" default:"Noscite <noreply@noscite.it>"`
	MailTo       string `envconfig:"MAIL_TO" default:"info@noscite.it"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"noscite-documents"`
	S3Region    string `envconfig:"S3_REGION" default:"eu-south-1"`

	ConversationRetention time.Duration `envconfig:"CONVERSATION_RETENTION" default:"2160h"`
	RetentionInterval     time.Duration `envconfig:"RETENTION_INTERVAL" default:"1h"`

	SentryDSN   string   `envconfig:"SENTRY_DSN"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"https://noscite.it,https://www.noscite.it"`
	SiteBaseURL string   `envconfig:"SITE_BASE_URL" default:"https://noscite.it"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	return cfg
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasRedis() bool {
	return c.RedisAddr != ""
}

func (c *Config) HasMailer() bool {
	return c.MailAPIKey != ""
}

func (c *Config) UseGemini() bool {
	return c.ChatProvider == "gemini"
}
