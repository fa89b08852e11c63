package classify

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hero-lab/litscreen/internal/config"
	"github.com/hero-lab/litscreen/internal/resilience"
	"github.com/hero-lab/litscreen/pkg/anthropic"
)

// Classifier decides whether a candidate paper should be kept for manual
// review.
type Classifier interface {
	Classify(ctx context.Context, title, abstract string) (Verdict, error)
}

// AnthropicClassifier screens papers through the Anthropic message API.
// Failures never surface as errors: after the retry budget is exhausted it
// returns the default reject/low verdict so one bad paper cannot halt a
// batch run.
type AnthropicClassifier struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
	retry       resilience.RetryConfig
	limiter     *rate.Limiter
}

// NewAnthropicClassifier wires a classifier from configuration. The rate
// limiter enforces a fixed inter-request interval regardless of outcome.
func NewAnthropicClassifier(client anthropic.Client, aiCfg config.AnthropicConfig, clsCfg config.ClassifyConfig) *AnthropicClassifier {
	interval := time.Duration(clsCfg.RequestIntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	retry := resilience.DefaultRetryConfig()
	if clsCfg.MaxAttempts > 0 {
		retry.MaxAttempts = clsCfg.MaxAttempts
	}
	retry.InitialBackoff = time.Second
	// Parse failures and API errors both count as retryable here; the
	// terminal fallback below caps the damage.
	retry.ShouldRetry = func(error) bool { return true }
	retry.OnRetry = resilience.RetryLogger("anthropic", "classify")

	return &AnthropicClassifier{
		client:      client,
		model:       aiCfg.Model,
		maxTokens:   aiCfg.MaxTokens,
		temperature: aiCfg.Temperature,
		retry:       retry,
		limiter:     rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Classify evaluates one paper. The returned error is always nil for the
// Anthropic implementation; on total failure the default verdict is
// returned instead.
func (c *AnthropicClassifier) Classify(ctx context.Context, title, abstract string) (Verdict, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return DefaultVerdict(), nil
	}

	prompt := BuildPrompt(title, abstract)
	temp := c.temperature

	verdict, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (Verdict, error) {
		resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:       c.model,
			MaxTokens:   c.maxTokens,
			System:      systemPrompt,
			Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
			Temperature: &temp,
		})
		if err != nil {
			return Verdict{}, err
		}
		return ParseVerdict(resp.Text())
	})
	if err != nil {
		zap.L().Warn("classification failed, using default verdict",
			zap.String("title", title),
			zap.Error(err),
		)
		return DefaultVerdict(), nil
	}

	return verdict, nil
}
