package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/noscite/noscite-assistant/internal/content"
	"github.com/noscite/noscite-assistant/internal/domain"
	"github.com/noscite/noscite-assistant/internal/llm"
	"github.com/noscite/noscite-assistant/internal/logging"
	"github.com/noscite/noscite-assistant/internal/telemetry"
)

// GeneratorConfig holds the fixed sampling parameters and retry policy.
type GeneratorConfig struct {
	Temperature    float32
	MaxTokens      int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	SiteBaseURL    string
}

func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Temperature:    0.7,
		MaxTokens:      800,
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     4 * time.Second,
		SiteBaseURL:    "https://noscite.it",
	}
}

// Generator produces the assistant reply for a user message.
type Generator struct {
	provider llm.Provider
	cfg      GeneratorConfig
	links    *LinkNormalizer
}

func NewGenerator(provider llm.Provider, cfg GeneratorConfig) *Generator {
	def := DefaultGeneratorConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}
	if cfg.SiteBaseURL == "" {
		cfg.SiteBaseURL = def.SiteBaseURL
	}
	return &Generator{provider: provider, cfg: cfg, links: NewLinkNormalizer(cfg.SiteBaseURL)}
}

// Generate answers userMessage grounded on contextBlock. history holds prior
// messages of the session, oldest first.
func (g *Generator) Generate(ctx context.Context, contextBlock, userMessage string, history []domain.Message) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "Generator.Generate", telemetry.SpanAttributes{
		Provider:  g.provider.Name(),
		Operation: "generate",
	})
	defer span.End()

	req := llm.Request{
		System:      g.SystemPrompt(contextBlock),
		Messages:    toLLMMessages(history, userMessage),
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
	}

	resp, err := g.complete(ctx, req)
	if err != nil {
		span.SetError(err)
		return "", fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
	}

	return g.links.Normalize(strings.TrimSpace(resp.Text)), nil
}

func (g *Generator) complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = g.cfg.InitialBackoff
	eb.MaxInterval = g.cfg.MaxBackoff
	eb.RandomizationFactor = 0.5
	eb.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(g.cfg.MaxAttempts-1)), ctx)

	var resp *llm.Response
	attempt := 0
	op := func() error {
		attempt++
		r, err := g.provider.Complete(ctx, req)
		if err != nil {
			if llm.IsRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		resp = r
		return nil
	}

	notify := func(err error, wait time.Duration) {
		logging.FromContext(ctx).Warn().
			Err(err).
			Str("provider", g.provider.Name()).
			Int("attempt", attempt).
			Dur("retry_in", wait).
			Msg("generation attempt failed")
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return resp, nil
}

// SystemPrompt renders the Italian system prompt around contextBlock.
func (g *Generator) SystemPrompt(contextBlock string) string {
	var b strings.Builder

	b.WriteString("Sei l'assistente virtuale di Noscite. Rispondi sempre in italiano, con tono cordiale e professionale, ")
	b.WriteString("basandoti esclusivamente sulle informazioni di contesto riportate di seguito.\n\n")

	b.WriteString("ISTRUZIONI:\n")
	b.WriteString("- Quando usi informazioni tratte da una FONTE DOCUMENTO, cita il documento per nome.\n")
	b.WriteString("- Puoi inserire link solo verso queste sezioni del sito, sempre nel formato markdown [testo](URL completo):\n")
	for _, section := range content.Sections {
		fmt.Fprintf(&b, "  - %s\n", g.links.SectionURL(section))
	}
	b.WriteString("- Non usare link relativi e non inserire link ad altri siti.\n")
	fmt.Fprintf(&b, "- Prima fornisci informazioni concrete; solo dopo puoi suggerire di contattarci tramite [la pagina contatti](%s).\n", g.links.SectionURL(content.SectionContatti))
	b.WriteString("- Se il contesto non contiene la risposta, dillo con onestà senza inventare.\n\n")

	b.WriteString("CONTESTO:\n")
	if strings.TrimSpace(contextBlock) == "" {
		b.WriteString("Nessuna informazione di contesto disponibile.")
	} else {
		b.WriteString(contextBlock)
	}

	return b.String()
}

func toLLMMessages(history []domain.Message, userMessage string) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+1)
	for _, m := range history {
		role := llm.RoleUser
		if m.Role == domain.MessageRoleAssistant {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: m.Content})
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: userMessage})
}
