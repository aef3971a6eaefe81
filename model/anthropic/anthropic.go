// Package anthropic provides a model wrapper for the Anthropic Claude API.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/codemesh/core"
	"github.com/hupe1980/codemesh/model"
)

// Options configures the Anthropic model adapter (temperature, model id,
// max tokens, API key).
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Model wraps the Anthropic Messages API behind the generic model.ChatModel
// interface.
type Model struct {
	client *anthropic.Client
	opts   Options
}

// NewModel creates a new Anthropic model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Model{
		client: &client,
		opts:   opts,
	}
}

// NewModelFromClient creates a new Anthropic model from an existing client.
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Model{
		client: client,
		opts:   opts,
	}
}

// Chat implements model.ChatModel over the Anthropic Messages API. The
// Messages call itself is not chunked here; with Stream requested the full
// completion is emitted as one partial followed by the final response so
// streaming consumers behave uniformly across providers.
func (m *Model) Chat(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 4)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		params := anthropic.MessageNewParams{
			Model:       m.opts.Model,
			Messages:    buildMessages(req.Messages),
			MaxTokens:   m.opts.MaxTokens,
			Temperature: anthropic.Float(m.opts.Temperature),
		}

		if system := systemBlocks(req); len(system) > 0 {
			params.System = system
		}

		resp, err := m.client.Messages.New(ctx, params)
		if err != nil {
			errCh <- fmt.Errorf("anthropic api error: %w", err)
			return
		}

		var text string
		for _, block := range resp.Content {
			if block.Type == "text" {
				text += block.AsText().Text
			}
		}

		finishReason := "stop"
		if resp.StopReason != "" {
			finishReason = string(resp.StopReason)
		}

		if req.Stream {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case out <- model.Response{Partial: true, Message: core.AssistantMessage(text)}:
			}
		}

		out <- model.Response{
			Message:      core.AssistantMessage(text),
			FinishReason: finishReason,
		}
	}()

	return out, errCh
}

// Info implements model.ChatModel.
func (m *Model) Info() model.Info {
	return model.Info{Name: string(m.opts.Model), Provider: "anthropic"}
}

// buildMessages converts conversation messages to the Anthropic message
// format. System messages are handled separately.
func buildMessages(messages []core.ChatMessage) []anthropic.MessageParam {
	var out []anthropic.MessageParam

	for _, msg := range messages {
		if msg.Content == "" || msg.Role == "system" {
			continue
		}

		switch msg.Role {
		case "assistant":
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			// Unknown roles are treated as user input.
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	return out
}

// systemBlocks collects the request system instruction plus any system-role
// messages.
func systemBlocks(req model.Request) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam

	if req.System != "" {
		blocks = append(blocks, anthropic.TextBlockParam{Text: req.System})
	}
	for _, msg := range req.Messages {
		if msg.Role == "system" && msg.Content != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: msg.Content})
		}
	}

	return blocks
}
