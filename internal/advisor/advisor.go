package advisor

import (
	"context"
	"fmt"
	"log"
	"strings"

	"whale-sentry/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const systemPrompt = `You are a crypto market risk analyst. You receive a model-scored
risk assessment plus trading-signal components for one coin and write a short,
plain-language read of the situation. Two to four sentences. No disclaimers,
no advice to consult a professional. Mention concrete numbers.`

// LLMClient abstracts the OpenAI chat completions API for testability.
type LLMClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// Advisor turns a risk result into a short written commentary. When no LLM is
// configured or the call fails, a rule-based summary takes over, so callers
// always get text back.
type Advisor struct {
	tracer trace.Tracer
	llm    LLMClient
	model  string
}

func New(tracer trace.Tracer, llm LLMClient, model string) *Advisor {
	return &Advisor{tracer: tracer, llm: llm, model: model}
}

func (a *Advisor) Commentary(ctx context.Context, risk domain.RiskResult, signal domain.SignalScore) string {
	ctx, span := a.tracer.Start(ctx, "advisor.commentary")
	defer span.End()
	span.SetAttributes(attribute.String("coin", risk.Coin))

	if a.llm == nil {
		return heuristicCommentary(risk, signal)
	}

	reply, err := a.callLLM(ctx, buildPrompt(risk, signal))
	if err != nil {
		span.RecordError(err)
		log.Printf("advisor: llm unavailable, falling back to rule-based commentary: %v", err)
		return heuristicCommentary(risk, signal)
	}
	return reply
}

func (a *Advisor) callLLM(ctx context.Context, userPrompt string) (string, error) {
	ctx, span := a.tracer.Start(ctx, "advisor.llm-call")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", a.model))

	completion, err := a.llm.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model: a.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no choices in LLM response")
	}
	return completion.Choices[0].Message.Content, nil
}

func buildPrompt(risk domain.RiskResult, signal domain.SignalScore) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Coin: %s (%s)\n", risk.Coin, risk.Date.Format("2006-01-02"))
	fmt.Fprintf(&b, "Risk score: %.1f/100 (high-volatility probability %.2f)\n", risk.RiskScore, risk.HighVolatilityProb)
	fmt.Fprintf(&b, "Liquidation risk: %.1f/100\n", risk.LiquidationRisk)
	fmt.Fprintf(&b, "Signal score: %.1f (buy=%t sell=%t)\n", signal.SignalScore, signal.Buy, signal.Sell)
	for name, v := range risk.Indicators {
		fmt.Fprintf(&b, "Indicator %s: %.4f\n", name, v)
	}
	return b.String()
}

// heuristicCommentary is the no-LLM summary. Same shape every time so it
// stays easy to scan in a chat channel.
func heuristicCommentary(risk domain.RiskResult, signal domain.SignalScore) string {
	level := "low"
	switch {
	case risk.RiskScore >= 70:
		level = "high"
	case risk.RiskScore >= 40:
		level = "moderate"
	}

	action := "no action"
	if signal.Buy {
		action = "buy signal active"
	} else if signal.Sell {
		action = "sell signal active"
	}

	return fmt.Sprintf(
		"%s risk is %s (%.0f/100, high-volatility probability %.0f%%). Liquidation pressure %.0f/100. Signal %.0f, %s.",
		risk.Coin, level, risk.RiskScore, risk.HighVolatilityProb*100, risk.LiquidationRisk, signal.SignalScore, action,
	)
}

// openaiClient wraps the official SDK's chat completions service.
type openaiClient struct {
	client openai.Client
}

func NewOpenAIClient(apiKey string) LLMClient {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &openaiClient{client: client}
}

func (c *openaiClient) CreateChatCompletion(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
