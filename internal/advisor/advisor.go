package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"otc-signals/internal/domain"
	"otc-signals/internal/signal"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const systemPrompt = `You are a binary options analyst for OTC markets.
Reply with a single JSON object and nothing else:
{"direction":"CALL" or "PUT","confidence":integer 0-100,"reason":"one short sentence in Arabic"}`

// Request is everything the model sees about one scheduled entry.
type Request struct {
	Pair      string
	Timeframe domain.Timeframe
	EntryTime string
	Price     float64
	Snapshot  domain.IndicatorSnapshot
	Score     domain.ScoreResult
}

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type Advisor struct {
	client  openai.Client
	model   string
	timeout time.Duration
	tracer  trace.Tracer
	logger  zerolog.Logger
}

// New returns nil when no API key is configured.
func New(cfg Config, tracer trace.Tracer, logger zerolog.Logger) *Advisor {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Advisor{
		client:  openai.NewClient(opts...),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		tracer:  tracer,
		logger:  logger.With().Str("component", "advisor").Logger(),
	}
}

// Advise asks the model for one entry. Transport failures and empty replies
// wrap domain.ErrUpstreamUnavailable; unusable content wraps
// domain.ErrMalformedResponse.
func (a *Advisor) Advise(ctx context.Context, req Request) (signal.Advice, error) {
	ctx, span := a.tracer.Start(ctx, "advisor.advise")
	defer span.End()
	span.SetAttributes(attribute.String("pair", req.Pair), attribute.String("entry_time", req.EntryTime))

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt(req)),
		},
	})
	if err != nil {
		span.RecordError(err)
		return signal.Advice{}, fmt.Errorf("%w: chat completion: %v", domain.ErrUpstreamUnavailable, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return signal.Advice{}, fmt.Errorf("%w: empty completion", domain.ErrUpstreamUnavailable)
	}

	advice, err := ParseAdvice(resp.Choices[0].Message.Content)
	if err != nil {
		span.RecordError(err)
		return signal.Advice{}, err
	}
	a.logger.Debug().Str("pair", req.Pair).Str("direction", string(advice.Direction)).Int("confidence", advice.Confidence).Msg("advice received")
	return advice, nil
}

func userPrompt(req Request) string {
	s := req.Snapshot
	var b strings.Builder
	fmt.Fprintf(&b, "Pair: %s\nTimeframe: %s\nEntry time: %s\nPrice: %.5f\n", req.Pair, req.Timeframe, req.EntryTime, req.Price)
	fmt.Fprintf(&b, "RSI(7): %.2f\nMACD: %.6f signal %.6f\nStochastic(5): %.2f\n", s.RSI, s.MACD, s.MACDSignal, s.Stochastic)
	fmt.Fprintf(&b, "EMA21: %.5f MA20: %.5f MA50: %.5f\nATR(14): %.6f ADX(14): %.2f\n", s.EMA21, s.MA20, s.MA50, s.ATR, s.ADX)
	fmt.Fprintf(&b, "Rule score: %s %.1f%% (%s)\n", req.Score.Direction, req.Score.Confidence, req.Score.Strength)
	return b.String()
}

type rawAdvice struct {
	Direction  string  `json:"direction"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// ParseAdvice extracts the JSON object from a model reply, tolerating code
// fences and surrounding prose.
func ParseAdvice(content string) (signal.Advice, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return signal.Advice{}, fmt.Errorf("%w: no json object in reply", domain.ErrMalformedResponse)
	}

	var raw rawAdvice
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return signal.Advice{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	dir := domain.Direction(strings.ToUpper(strings.TrimSpace(raw.Direction)))
	if dir != domain.DirectionCall && dir != domain.DirectionPut {
		return signal.Advice{}, fmt.Errorf("%w: direction %q", domain.ErrMalformedResponse, raw.Direction)
	}
	if math.IsNaN(raw.Confidence) || raw.Confidence < 0 || raw.Confidence > 100 {
		return signal.Advice{}, fmt.Errorf("%w: confidence %v", domain.ErrMalformedResponse, raw.Confidence)
	}
	return signal.Advice{
		Direction:  dir,
		Confidence: int(math.Round(raw.Confidence)),
		Reason:     strings.TrimSpace(raw.Reason),
	}, nil
}
