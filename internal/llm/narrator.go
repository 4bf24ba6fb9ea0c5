package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/claimtrust/internal/metrics"
	"github.com/ppiankov/claimtrust/internal/model"
	"github.com/ppiankov/claimtrust/internal/worker"
)

// Narrator writes the optional report narrative for a claim.
// A narrative never affects scoring; every failure is folded into the
// returned model.Narrative.
type Narrator struct {
	provider     Provider
	instructions string
	limiter      *worker.Limiter
	logger       *zap.Logger
	metrics      *metrics.Metrics

	checkOnce sync.Once
	checkErr  error
}

// NewNarrator builds the configured provider. An empty provider name yields
// a disabled narrator, not an error.
func NewNarrator(config Config, limiter *worker.Limiter, logger *zap.Logger, m *metrics.Metrics) (*Narrator, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}

	instructions, err := LoadInstructions(config.PromptFile)
	if err != nil {
		return nil, err
	}

	return newNarrator(provider, instructions, limiter, logger, m), nil
}

func newNarrator(provider Provider, instructions string, limiter *worker.Limiter, logger *zap.Logger, m *metrics.Metrics) *Narrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Narrator{
		provider:     provider,
		instructions: instructions,
		limiter:      limiter,
		logger:       logger,
		metrics:      m,
	}
}

// IsEnabled returns true if a provider is configured
func (n *Narrator) IsEnabled() bool {
	return n != nil && n.provider != nil
}

// ProviderName returns the configured provider name, or "" when disabled
func (n *Narrator) ProviderName() string {
	if !n.IsEnabled() {
		return ""
	}
	return n.provider.Name()
}

// Narrate generates the narrative for rec. The attachment texts are passed
// separately because records never carry raw document text.
func (n *Narrator) Narrate(ctx context.Context, rec *model.ClaimRecord, statementText, treatySlipText string) model.Narrative {
	if !n.IsEnabled() {
		return model.Narrative{Available: false}
	}

	out := model.Narrative{
		Provider: n.provider.Name(),
		Model:    n.provider.Model(),
	}

	n.checkOnce.Do(func() {
		n.checkErr = n.provider.Check(ctx)
		if n.checkErr != nil {
			n.logger.Warn("narrative provider not available",
				zap.String("provider", n.provider.Name()),
				zap.Error(n.checkErr),
			)
		}
	})
	if n.checkErr != nil {
		out.Error = fmt.Sprintf("LLM provider %s is not available: %v", n.provider.Name(), n.checkErr)
		return out
	}

	prompt, err := BuildPrompt(PromptData{
		Instructions:   n.instructions,
		Record:         rec,
		StatementText:  statementText,
		TreatySlipText: treatySlipText,
	})
	if err != nil {
		out.Error = err.Error()
		return out
	}

	if err := n.limiter.Wait(ctx, worker.ServiceNarrative); err != nil {
		out.Error = fmt.Sprintf("rate limiter: %v", err)
		return out
	}

	start := time.Now()
	text, err := n.provider.Generate(ctx, prompt)
	n.metrics.ObserveCall("narrative", start, err)
	if err != nil {
		n.logger.Warn("narrative generation failed",
			zap.String("claim_id", rec.ClaimID),
			zap.String("provider", out.Provider),
			zap.Error(err),
		)
		out.Error = fmt.Sprintf("narrative generation failed: %v", err)
		return out
	}

	n.logger.Debug("narrative generated",
		zap.String("claim_id", rec.ClaimID),
		zap.Int("chars", len(text)),
		zap.Duration("elapsed", time.Since(start)),
	)

	out.Available = true
	out.Text = text
	return out
}
