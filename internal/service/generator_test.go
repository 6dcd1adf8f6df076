package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/noscite/noscite-assistant/internal/domain"
	"github.com/noscite/noscite-assistant/internal/llm"
)

func testGeneratorConfig() GeneratorConfig {
	cfg := DefaultGeneratorConfig()
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 2 * time.Millisecond
	return cfg
}

func TestGenerator_SystemPrompt(t *testing.T) {
	g := NewGenerator(new(MockProvider), testGeneratorConfig())

	prompt := g.SystemPrompt("FONTE SITO WEB - Home: Benvenuti")

	assert.Contains(t, prompt, "FONTE SITO WEB - Home: Benvenuti")
	assert.Contains(t, prompt, "cita il documento per nome")
	for _, section := range []string{"percorsi", "servizi", "commentarium", "chi-siamo", "contatti"} {
		assert.Contains(t, prompt, "https://noscite.it/"+section)
	}
	assert.Contains(t, g.SystemPrompt(""), "Nessuna informazione di contesto disponibile.")
}

func TestGenerator_SendsHistoryAndFixedParameters(t *testing.T) {
	provider := new(MockProvider)
	provider.On("Complete", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
		return req.Temperature == 0.7 &&
			req.MaxTokens == 800 &&
			len(req.Messages) == 3 &&
			req.Messages[0].Role == llm.RoleUser &&
			req.Messages[1].Role == llm.RoleAssistant &&
			req.Messages[2].Content == "E i costi?"
	})).Return(&llm.Response{Text: "  Ecco i costi.  "}, nil).Once()

	g := NewGenerator(provider, testGeneratorConfig())
	history := domain.NewTurn("Quali corsi?", "Abbiamo vari corsi.", time.Now())

	out, err := g.Generate(context.Background(), "", "E i costi?", history)
	require.NoError(t, err)
	assert.Equal(t, "Ecco i costi.", out)
	provider.AssertExpectations(t)
}

func TestGenerator_RetriesTransientErrors(t *testing.T) {
	provider := new(MockProvider)
	provider.On("Complete", mock.Anything, mock.Anything).Return(nil, llm.Retryable(assert.AnError)).Twice()
	provider.On("Complete", mock.Anything, mock.Anything).Return(&llm.Response{Text: "ok"}, nil).Once()

	out, err := NewGenerator(provider, testGeneratorConfig()).Generate(context.Background(), "", "ciao", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	provider.AssertNumberOfCalls(t, "Complete", 3)
}

func TestGenerator_GivesUpAfterMaxAttempts(t *testing.T) {
	provider := new(MockProvider)
	provider.On("Complete", mock.Anything, mock.Anything).Return(nil, llm.Retryable(assert.AnError))

	_, err := NewGenerator(provider, testGeneratorConfig()).Generate(context.Background(), "", "ciao", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
	assert.Equal(t, domain.ErrCodeUpstream, domain.CodeOf(err))
	provider.AssertNumberOfCalls(t, "Complete", 3)
}

func TestGenerator_DoesNotRetryPermanentErrors(t *testing.T) {
	provider := new(MockProvider)
	provider.On("Complete", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	_, err := NewGenerator(provider, testGeneratorConfig()).Generate(context.Background(), "", "ciao", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	provider.AssertNumberOfCalls(t, "Complete", 1)
}

func TestGenerator_NormalizesLinks(t *testing.T) {
	provider := new(MockProvider)
	provider.On("Complete", mock.Anything, mock.Anything).
		Return(&llm.Response{Text: "Vedi [i percorsi](/percorsi) oppure [questo sito](https://example.com/x)."}, nil)

	out, err := NewGenerator(provider, testGeneratorConfig()).Generate(context.Background(), "", "percorsi?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Vedi [i percorsi](https://noscite.it/percorsi) oppure questo sito.", out)
}
