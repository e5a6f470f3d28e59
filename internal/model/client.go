package model

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/phonepilot/phonepilot/internal/config"
)

// StreamResult is one complete model reply with its timing breakdown.
type StreamResult struct {
	Thinking string
	Action   string
	Raw      string

	FirstToken  time.Duration
	ThinkingEnd time.Duration
	Total       time.Duration
}

// Client streams chat completions from an OpenAI-compatible endpoint.
type Client struct {
	api    openai.Client
	cfg    config.ModelConfig
	logger *zap.Logger
}

// NewClient builds a client for the configured endpoint.
func NewClient(cfg config.ModelConfig, logger *zap.Logger) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
	}
	if cfg.RequestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.RequestTimeout))
	}
	return &Client{
		api:    openai.NewClient(opts...),
		cfg:    cfg,
		logger: logger.Named("model"),
	}
}

// StreamCompletion sends the conversation and consumes the streamed reply.
// Thinking text is forwarded to the observer live; the final split and the
// timing breakdown are returned once the stream ends. Any stream failure is
// returned as an error and must terminate the caller's run.
func (c *Client) StreamCompletion(ctx context.Context, messages []Message, observer func(string)) (*StreamResult, error) {
	params := openai.ChatCompletionNewParams{
		Model:            c.cfg.ModelName,
		Messages:         toParams(messages),
		MaxTokens:        openai.Int(int64(c.cfg.MaxTokens)),
		Temperature:      openai.Float(c.cfg.Temperature),
		TopP:             openai.Float(c.cfg.TopP),
		FrequencyPenalty: openai.Float(c.cfg.FrequencyPenalty),
	}

	start := time.Now()
	splitter := NewSplitter(observer)
	var firstToken, thinkingEnd time.Duration

	stream := c.api.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		fragment := chunk.Choices[0].Delta.Content
		if fragment == "" {
			continue
		}
		if firstToken == 0 {
			firstToken = time.Since(start)
		}
		wasAction := splitter.ActionStarted()
		splitter.Feed(fragment)
		if !wasAction && splitter.ActionStarted() {
			thinkingEnd = time.Since(start)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("model stream failed: %w", err)
	}

	split := splitter.Finish()
	total := time.Since(start)
	if thinkingEnd == 0 {
		thinkingEnd = total
	}

	c.logger.Debug("model reply complete",
		zap.Duration("first_token", firstToken),
		zap.Duration("thinking_end", thinkingEnd),
		zap.Duration("total", total),
		zap.Int("raw_len", len(split.Thinking)+len(split.Action)))

	return &StreamResult{
		Thinking:    split.Thinking,
		Action:      split.Action,
		Raw:         splitter.Raw(),
		FirstToken:  firstToken,
		ThinkingEnd: thinkingEnd,
		Total:       total,
	}, nil
}

// TestConnection sends a trivial completion request to verify the endpoint
// and model name are reachable.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.cfg.ModelName,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("ping"),
		},
		MaxTokens: openai.Int(1),
	})
	if err != nil {
		return fmt.Errorf("model endpoint unreachable: %w", err)
	}
	return nil
}

// toParams converts conversation messages to the SDK's union params. User
// turns carrying an image become multimodal content-part messages.
func toParams(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Text))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Text))
		default:
			if m.ImageB64 == "" {
				out = append(out, openai.UserMessage(m.Text))
				continue
			}
			parts := []openai.ChatCompletionContentPartUnionParam{
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: "data:image/png;base64," + m.ImageB64,
				}),
				openai.TextContentPart(m.Text),
			}
			out = append(out, openai.UserMessage(parts))
		}
	}
	return out
}
