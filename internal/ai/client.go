// Package ai voices the heroine through an OpenAI-compatible chat API.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"marry-fun-bot/internal/config"
	"marry-fun-bot/internal/model"
	"marry-fun-bot/internal/persona"
)

// Completion errors.
var (
	ErrNoChoice         = errors.New("no completion choice returned")
	ErrUnexpectedFinish = errors.New("unexpected finish reason")
	ErrRefusal          = errors.New("model refused")
	ErrEmptyContent     = errors.New("empty response content")
)

// DefaultModel is used when no model is configured.
const DefaultModel = "openclaw:main"

var tracer = otel.Tracer("marry-fun-bot/internal/ai")

// Client implements the game's AI adapter on top of openai-go.
type Client struct {
	client      openai.Client
	model       string
	maxAttempts int
	temperature float64
	personas    *persona.Registry
	chatPrompt  string
}

// NewClient creates a client for cfg. The SDK's own retries are disabled;
// each structured call retries on invalid output up to cfg.MaxAttempts.
func NewClient(cfg config.AIConfig, personas *persona.Registry) *Client {
	opts := []option.RequestOption{
		option.WithBaseURL(cfg.BaseURL),
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultModel
	}
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	return &Client{
		client:      openai.NewClient(opts...),
		model:       modelName,
		maxAttempts: attempts,
		temperature: cfg.Temperature,
		personas:    personas,
		chatPrompt:  chatSystemPrompt(personas),
	}
}

// GenerateNgWords asks for a fresh taboo list for a session.
func (c *Client) GenerateNgWords(ctx context.Context, sessionID string, characterType model.CharacterType, locale model.Locale) ([]string, error) {
	ctx, span := c.startSpan(ctx, "ai.GenerateNgWords", sessionID, characterType, locale)
	defer span.End()

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(ngWordSystemPrompt),
		openai.UserMessage(ngWordPrompt(c.personas, locale, characterType)),
	}

	var words []string
	err := c.structured(ctx, "GenerateNgWords", sessionID, messages, func(doc gjson.Result) error {
		var err error
		words, err = decodeNgWords(doc)
		return err
	})
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("ngword.count", len(words)))
	return words, nil
}

// SendMessage returns the heroine's scored reply. model.InitMessage asks
// for the opening greeting.
func (c *Client) SendMessage(ctx context.Context, sessionID string, characterType model.CharacterType, username, message string, locale model.Locale) (*model.AIReply, error) {
	ctx, span := c.startSpan(ctx, "ai.SendMessage", sessionID, characterType, locale)
	defer span.End()

	prompt := replyPrompt(locale, characterType, username, message)
	if message == model.InitMessage {
		prompt = greetingPrompt(locale, characterType, username)
	}
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(c.chatPrompt),
		openai.UserMessage(prompt),
	}

	var reply *model.AIReply
	err := c.structured(ctx, "SendMessage", sessionID, messages, func(doc gjson.Result) error {
		var err error
		reply, err = decodeReply(doc)
		return err
	})
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	return reply, nil
}

// GetShockResponse returns a plain-text game-over line. It makes a single
// attempt; callers supply their own fallback.
func (c *Client) GetShockResponse(ctx context.Context, sessionID string, characterType model.CharacterType, username, hitWord string, locale model.Locale) (string, error) {
	ctx, span := c.startSpan(ctx, "ai.GetShockResponse", sessionID, characterType, locale)
	defer span.End()

	content, err := c.complete(ctx, sessionID, []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(c.chatPrompt),
		openai.UserMessage(shockPrompt(locale, characterType, username, hitWord)),
	}, false)
	if err != nil {
		recordError(span, err)
		return "", fmt.Errorf("shock response: %w", err)
	}
	return content, nil
}

// structured runs a JSON-mode completion until decode accepts the output.
func (c *Client) structured(ctx context.Context, label, sessionID string, messages []openai.ChatCompletionMessageParamUnion, decode func(gjson.Result) error) error {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		content, err := c.complete(ctx, sessionID, messages, true)
		if err == nil {
			var doc gjson.Result
			if doc, err = parseJSON(content); err == nil {
				err = decode(doc)
			}
		}
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
		log.Warn().
			Err(err).
			Str("call", label).
			Str("session_id", sessionID).
			Int("attempt", attempt).
			Int("max_attempts", c.maxAttempts).
			Msg("AI response rejected")
	}
	return fmt.Errorf("%s failed after %d attempts: %w", label, c.maxAttempts, lastErr)
}

func (c *Client) complete(ctx context.Context, sessionID string, messages []openai.ChatCompletionMessageParamUnion, jsonMode bool) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.model),
		Messages:    messages,
		User:        openai.String(sessionID),
		Temperature: openai.Float(c.temperature),
	}
	if jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrNoChoice
	}

	choice := resp.Choices[0]
	if choice.FinishReason != "stop" {
		return "", fmt.Errorf("%w: %q", ErrUnexpectedFinish, choice.FinishReason)
	}
	if choice.Message.Refusal != "" {
		return "", fmt.Errorf("%w: %s", ErrRefusal, choice.Message.Refusal)
	}
	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		return "", ErrEmptyContent
	}
	return content, nil
}

func (c *Client) startSpan(ctx context.Context, name, sessionID string, characterType model.CharacterType, locale model.Locale) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("character.type", string(characterType)),
		attribute.String("locale", string(locale)),
		attribute.String("ai.model", c.model),
	))
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
