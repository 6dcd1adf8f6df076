package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/spf13/pflag"

	"github.com/noscite/noscite-assistant/internal/config"
	"github.com/noscite/noscite-assistant/internal/database"
	"github.com/noscite/noscite-assistant/internal/domain"
	"github.com/noscite/noscite-assistant/internal/gemini"
	"github.com/noscite/noscite-assistant/internal/jobs"
	"github.com/noscite/noscite-assistant/internal/llm"
	"github.com/noscite/noscite-assistant/internal/logging"
	"github.com/noscite/noscite-assistant/internal/openai"
	"github.com/noscite/noscite-assistant/internal/repository"
	"github.com/noscite/noscite-assistant/internal/repository/memory"
	redisrepo "github.com/noscite/noscite-assistant/internal/repository/redis"
	"github.com/noscite/noscite-assistant/internal/service"
)

// loadConfig reads the environment, applies explicitly set flags and sets
// up the process logger.
func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := applyFlagOverrides(flags, cfg); err != nil {
		return nil, err
	}
	logging.Setup(cfg.LogLevel, !cfg.IsProduction())
	return cfg, nil
}

// applyFlagOverrides copies flags the user set on the command line into cfg.
// Defaults never override environment values.
func applyFlagOverrides(flags *pflag.FlagSet, cfg *config.Config) error {
	if flags == nil {
		return nil
	}
	if f := flags.Lookup("port"); f != nil && f.Changed {
		cfg.Port = f.Value.String()
	}
	if f := flags.Lookup("log-level"); f != nil && f.Changed {
		cfg.LogLevel = f.Value.String()
	}
	if f := flags.Lookup("rate-limit-backend"); f != nil && f.Changed {
		backend := f.Value.String()
		switch backend {
		case "postgres", "redis", "memory":
			cfg.RateLimitBackend = backend
		default:
			return fmt.Errorf("unknown rate limit backend %q", backend)
		}
	}
	return nil
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info().Msg("connected to database")
	return pool, nil
}

func openRedis(ctx context.Context, cfg *config.Config) (*redisrepo.Client, error) {
	if !cfg.HasRedis() {
		return nil, nil
	}
	client, err := redisrepo.NewClient(ctx, redisrepo.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("connected to redis")
	return client, nil
}

// newEmbedder returns the OpenAI embedding client, fronted by the Redis cache
// when Redis is configured.
func newEmbedder(cfg *config.Config, rdb *redisrepo.Client) (service.EmbeddingClient, error) {
	if !cfg.HasOpenAI() {
		return nil, fmt.Errorf("NOSCITE_OPENAI_API_KEY is required")
	}
	client := openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		EmbeddingModel:      goopenai.EmbeddingModel(cfg.EmbeddingModel),
		EmbeddingDimensions: cfg.EmbeddingDimensions,
	})
	if rdb == nil {
		return client, nil
	}
	return redisrepo.NewEmbeddingCache(rdb, client, client.Model(), cfg.EmbeddingCacheTTL), nil
}

// newProvider returns the chat provider and a function releasing it.
func newProvider(ctx context.Context, cfg *config.Config) (llm.Provider, func(), error) {
	if cfg.UseGemini() {
		p, err := gemini.NewProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		return p, func() { _ = p.Close() }, nil
	}
	if !cfg.HasOpenAI() {
		return nil, nil, fmt.Errorf("NOSCITE_OPENAI_API_KEY is required for the openai chat provider")
	}
	p := openai.NewChatProvider(openai.Config{APIKey: cfg.OpenAIAPIKey, ChatModel: cfg.ChatModel})
	return p, func() {}, nil
}

// newRateLimitStore picks the counter backend. The returned pruner is nil
// when the backend expires counters itself.
func newRateLimitStore(cfg *config.Config, pool *pgxpool.Pool, rdb *redisrepo.Client) (service.RateLimitStore, jobs.RateLimitPruner, error) {
	switch cfg.RateLimitBackend {
	case "redis":
		if rdb == nil {
			return nil, nil, fmt.Errorf("rate limit backend redis requires NOSCITE_REDIS_ADDR")
		}
		return redisrepo.NewRateLimitStore(rdb), nil, nil
	case "memory":
		store := memory.NewRateLimitStore()
		return store, store, nil
	case "postgres", "":
		repo := repository.NewRateLimitRepository(pool)
		return repo, repo, nil
	default:
		return nil, nil, fmt.Errorf("unknown rate limit backend %q", cfg.RateLimitBackend)
	}
}

func quota(max int, window time.Duration) domain.Quota {
	return domain.Quota{Max: max, Window: window}
}

func generatorConfig(cfg *config.Config) service.GeneratorConfig {
	g := service.DefaultGeneratorConfig()
	g.Temperature = cfg.Temperature
	g.MaxTokens = cfg.MaxTokens
	g.MaxAttempts = cfg.MaxAttempts
	g.SiteBaseURL = cfg.SiteBaseURL
	return g
}

func chatConfig(cfg *config.Config) service.ChatConfig {
	c := service.DefaultChatConfig()
	c.Quota = quota(cfg.ChatQuota, cfg.RateLimitWindow)
	c.SiteTopK = cfg.SiteTopK
	c.DocumentTopK = cfg.DocumentTopK
	c.HistoryLength = cfg.HistoryLength
	return c
}

func contactConfig(cfg *config.Config) service.ContactConfig {
	c := service.DefaultContactConfig()
	c.IPQuota = quota(cfg.ContactIPQuota, cfg.RateLimitWindow)
	c.EmailQuota = quota(cfg.ContactMailQuota, cfg.RateLimitWindow)
	if to := splitList(cfg.MailTo); len(to) > 0 {
		c.NotifyTo = to
	}
	return c
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
