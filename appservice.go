package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/fake"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// ChatStream delivers response fragments in producer order. Err reports
// the terminal error once Fragments is closed; a cancelled request is not
// an error.
type ChatStream struct {
	fragments chan ResponseFragment

	mu  sync.Mutex
	err error
}

func newChatStream() *ChatStream {
	return &ChatStream{fragments: make(chan ResponseFragment, 64)}
}

// Fragments is the single-consumer fragment channel.
func (s *ChatStream) Fragments() <-chan ResponseFragment { return s.fragments }

// Err returns the stream's terminal error, if any.
func (s *ChatStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *ChatStream) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// send delivers a fragment unless the request was cancelled.
func (s *ChatStream) send(ctx context.Context, frag ResponseFragment) bool {
	select {
	case s.fragments <- frag:
		return true
	case <-ctx.Done():
		return false
	}
}

// AppService is the opaque chat backend: it accepts a prompt plus prior
// turns and streams response fragments back to the event loop.
type AppService interface {
	StreamChat(ctx context.Context, history []ConversationTurn, prompt string) *ChatStream
}

// langchainService adapts a langchaingo model to the fragment stream.
type langchainService struct {
	llm llms.Model
	cfg *Config
}

// NewAppService builds the chat backend for the active profile.
func NewAppService(cfg *Config) (AppService, error) {
	llm, err := getModelClient(cfg)
	if err != nil {
		return nil, err
	}
	return &langchainService{llm: llm, cfg: cfg}, nil
}

// getModelClient constructs the provider client for the active profile.
func getModelClient(cfg *Config) (llms.Model, error) {
	p := cfg.Profile()
	switch p.Provider {
	case "fake":
		return fake.NewFakeLLM([]string{}), nil
	case "anthropic":
		opts := []anthropic.Option{anthropic.WithModel(p.Model)}
		if p.APIKey != "" {
			opts = append(opts, anthropic.WithToken(p.APIKey))
		}
		if p.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(p.BaseURL))
		}
		return anthropic.New(opts...)
	case "openai":
		opts := []openai.Option{openai.WithModel(p.Model)}
		if p.APIKey != "" {
			opts = append(opts, openai.WithToken(p.APIKey))
		}
		if p.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(p.BaseURL))
		}
		return openai.New(opts...)
	case "ollama":
		opts := []ollama.Option{ollama.WithModel(p.Model)}
		if p.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(p.BaseURL))
		}
		return ollama.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", p.Provider)
	}
}

// StreamChat launches the request in its own goroutine; fragments arrive
// on the returned stream and the channel closes at end of stream.
func (s *langchainService) StreamChat(ctx context.Context, history []ConversationTurn, prompt string) *ChatStream {
	stream := newChatStream()

	go func() {
		defer close(stream.fragments)

		messages := turnsToMessages(history)
		messages = append(messages, llms.MessageContent{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		})

		streamingFunc := func(ctx context.Context, chunk []byte) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if len(chunk) > 0 {
				stream.send(ctx, ResponseFragment{Kind: FragmentTextDelta, Text: string(chunk)})
			}
			return nil
		}

		resp, err := s.llm.GenerateContent(ctx, messages,
			llms.WithStreamingFunc(streamingFunc))
		if err != nil {
			if ctx.Err() == nil {
				stream.fail(err)
			}
			return
		}
		if len(resp.Choices) == 0 {
			return
		}

		for _, tc := range resp.Choices[0].ToolCalls {
			if tc.FunctionCall == nil {
				continue
			}
			if !stream.send(ctx, ResponseFragment{Kind: FragmentToolCallStart, CallID: tc.ID, ToolName: tc.FunctionCall.Name}) {
				return
			}
			if tc.FunctionCall.Arguments != "" {
				if !stream.send(ctx, ResponseFragment{Kind: FragmentToolCallDelta, CallID: tc.ID, Args: tc.FunctionCall.Arguments}) {
					return
				}
			}
			if !stream.send(ctx, ResponseFragment{Kind: FragmentToolCallEnd, CallID: tc.ID}) {
				return
			}
		}
	}()

	return stream
}

// turnsToMessages converts the display history into provider messages.
// Tool turns are folded into text so a resumed session keeps its context
// without replaying provider-specific tool envelopes.
func turnsToMessages(history []ConversationTurn) []llms.MessageContent {
	var out []llms.MessageContent
	for _, t := range history {
		switch t.Kind {
		case TurnUser:
			out = append(out, llms.MessageContent{
				Role:  llms.ChatMessageTypeHuman,
				Parts: []llms.ContentPart{llms.TextPart(t.Text)},
			})
		case TurnAssistant:
			out = append(out, llms.MessageContent{
				Role:  llms.ChatMessageTypeAI,
				Parts: []llms.ContentPart{llms.TextPart(t.Text)},
			})
		case TurnToolCall:
			out = append(out, llms.MessageContent{
				Role:  llms.ChatMessageTypeAI,
				Parts: []llms.ContentPart{llms.TextPart(fmt.Sprintf("[called %s]", t.ToolName))},
			})
		case TurnToolResult:
			if t.Result != nil {
				out = append(out, llms.MessageContent{
					Role:  llms.ChatMessageTypeHuman,
					Parts: []llms.ContentPart{llms.TextPart(fmt.Sprintf("[%s result] %s", t.Result.ToolName, t.Result.Summary))},
				})
			}
		}
	}
	return out
}

// scriptedService replays canned fragment sequences; it backs the fake
// provider and the tests.
type scriptedService struct {
	mu      sync.Mutex
	scripts [][]ResponseFragment
	next    int
}

// NewScriptedService builds a service that plays one script per request.
func NewScriptedService(scripts ...[]ResponseFragment) AppService {
	return &scriptedService{scripts: scripts}
}

func (s *scriptedService) StreamChat(ctx context.Context, _ []ConversationTurn, prompt string) *ChatStream {
	stream := newChatStream()

	s.mu.Lock()
	var script []ResponseFragment
	if s.next < len(s.scripts) {
		script = s.scripts[s.next]
		s.next++
	} else {
		script = []ResponseFragment{{Kind: FragmentTextDelta, Text: "echo: " + strings.TrimSpace(prompt)}}
	}
	s.mu.Unlock()

	go func() {
		defer close(stream.fragments)
		for _, frag := range script {
			if !stream.send(ctx, frag) {
				return
			}
		}
	}()

	return stream
}
