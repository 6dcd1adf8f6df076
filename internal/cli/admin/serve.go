package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/noscite/noscite-assistant/internal/api/handlers"
	"github.com/noscite/noscite-assistant/internal/audit"
	"github.com/noscite/noscite-assistant/internal/captcha"
	"github.com/noscite/noscite-assistant/internal/config"
	"github.com/noscite/noscite-assistant/internal/database"
	"github.com/noscite/noscite-assistant/internal/jobs"
	"github.com/noscite/noscite-assistant/internal/mailer"
	"github.com/noscite/noscite-assistant/internal/repository"
	"github.com/noscite/noscite-assistant/internal/security"
	"github.com/noscite/noscite-assistant/internal/server"
	"github.com/noscite/noscite-assistant/internal/service"
	"github.com/noscite/noscite-assistant/internal/storage"
	"github.com/noscite/noscite-assistant/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the assistant API server with the retention worker",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().String("rate-limit-backend", "postgres", "Rate limit store: postgres, redis or memory")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.JWTSecret == "" {
		return errors.New("NOSCITE_JWT_SECRET is required")
	}

	shutdownTelemetry, err := telemetry.Init(telemetry.Config{
		DSN:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		TracesSampleRate: sampleRate(cfg),
		Debug:            cfg.Debug,
	})
	if err != nil {
		log.Warn().Err(err).Msg("telemetry init failed, continuing without tracing")
	} else {
		defer shutdownTelemetry()
	}

	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if noMigrate, _ := cmd.Flags().GetBool("no-migrate"); !noMigrate {
		if err := database.Migrate(cfg.DatabaseURL, database.DefaultMigrationsDir); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	rdb, err := openRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	embedder, err := newEmbedder(cfg, rdb)
	if err != nil {
		return err
	}
	provider, closeProvider, err := newProvider(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeProvider()
	log.Info().Str("provider", provider.Name()).Msg("chat provider ready")

	rateStore, ratePruner, err := newRateLimitStore(cfg, pool, rdb)
	if err != nil {
		return err
	}

	archive, err := newArchive(ctx, cfg)
	if err != nil {
		return err
	}

	knowledgeRepo := repository.NewKnowledgeRepository(pool)
	conversationRepo := repository.NewConversationRepository(pool)
	roleRepo := repository.NewRoleRepository(pool)

	limiter := service.NewRateLimiter(rateStore)
	retriever := service.NewFallbackRetriever(
		service.NewSemanticRetriever(embedder, knowledgeRepo, cfg.SimilarityThreshold),
		service.NewKeywordRetriever(knowledgeRepo),
	)
	chatSvc := service.NewChatService(
		limiter,
		retriever,
		service.NewContextAssembler(cfg.ContextBudget),
		service.NewGenerator(provider, generatorConfig(cfg)),
		service.NewConversationService(conversationRepo),
		chatConfig(cfg),
	)
	contactSvc := service.NewContactService(
		limiter,
		captcha.NewVerifier(cfg.CaptchaSecret, cfg.CaptchaVerifyURL),
		repository.NewContactRepository(pool),
		newMailer(cfg),
		contactConfig(cfg),
	)
	syncSvc := service.NewKnowledgeSyncService(embedder, knowledgeRepo, repository.NewBlogRepository(pool))
	documentSvc := service.NewDocumentService(embedder, repository.NewTxRunner(pool), archive)

	events := audit.NewLogger(log.Logger)
	router := server.NewRouter(server.RouterConfig{
		CORSOrigins:      cfg.CORSOrigins,
		Tokens:           security.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL),
		Roles:            service.NewRoleService(roleRepo),
		Events:           events,
		ChatHandler:      handlers.NewChatHandler(chatSvc, events),
		ContactHandler:   handlers.NewContactHandler(contactSvc, events),
		KnowledgeHandler: handlers.NewKnowledgeHandler(syncSvc, documentSvc, service.NewKnowledgeService(knowledgeRepo), events),
	})

	retention := jobs.NewWorker(
		jobs.NewRetentionProcessor(conversationRepo, ratePruner, cfg.ConversationRetention, cfg.RateLimitWindow),
		cfg.RetentionInterval,
	)
	go retention.Start(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down...")

	retention.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server exited")
	return nil
}

// sampleRate traces everything outside production.
func sampleRate(cfg *config.Config) float64 {
	if cfg.IsProduction() {
		return 0.1
	}
	return 1.0
}

func newMailer(cfg *config.Config) service.Mailer {
	if cfg.HasMailer() {
		return mailer.NewHTTPMailer(cfg.MailAPIKey, cfg.MailEndpoint, cfg.MailFrom)
	}
	log.Warn().Msg("mail API key not set, contact notifications are only logged")
	return mailer.NewLogMailer(log.Logger)
}

// newArchive returns the S3 document archive, or nil when S3 is not
// configured.
func newArchive(ctx context.Context, cfg *config.Config) (service.DocumentArchive, error) {
	if !cfg.HasS3() {
		return nil, nil
	}
	client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.S3Bucket,
		UsePathStyle:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	if err := client.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
	}
	log.Info().Str("bucket", cfg.S3Bucket).Msg("document archive ready")
	return client, nil
}
