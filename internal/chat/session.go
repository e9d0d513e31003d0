// Package chat keeps the conversation with a local OpenAI-compatible model
// and streams its replies.
package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/CageChen/folderchat/internal/config"
	"github.com/sashabaranov/go-openai"
)

// ChatClient is the part of the OpenAI client the session uses.
type ChatClient interface {
	CreateChatCompletionStream(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionStream, error)
}

var _ ChatClient = (*openai.Client)(nil)

// Options are the per-request sampling settings.
type Options struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// Message is one turn of the conversation.
type Message struct {
	Role    string
	Content string
}

// Session holds the conversation history. It is safe for concurrent use,
// but only one Stream should run at a time.
type Session struct {
	client   ChatClient
	opts     Options
	mu       sync.Mutex
	messages []openai.ChatCompletionMessage
}

// NewSession creates a session talking to the server configured in cfg.
func NewSession(cfg *config.ChatConfig) *Session {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.APIURL
	return NewSessionWithClient(openai.NewClientWithConfig(clientConfig), Options{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
}

// NewSessionWithClient creates a session with a provided client.
func NewSessionWithClient(client ChatClient, opts Options) *Session {
	return &Session{client: client, opts: opts}
}

// Model returns the configured model name.
func (s *Session) Model() string {
	return s.opts.Model
}

// Clear drops the conversation history.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}

// Messages returns a copy of the conversation so far.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	for i, m := range s.messages {
		out[i] = Message{Role: m.Role, Content: m.Content}
	}
	return out
}

func (s *Session) add(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, openai.ChatCompletionMessage{Role: role, Content: content})
}

// StreamEventType identifies the type of streaming event.
type StreamEventType int

const (
	StreamEventContent StreamEventType = iota
	StreamEventError
)

// StreamEvent is one chunk of a streamed reply, or the error that ended it.
type StreamEvent struct {
	Type    StreamEventType
	Content string
	Err     error
}

// Stream records prompt as a user turn and streams the reply into events,
// closing the channel when done. fileContext, when set, is sent as a system
// message ahead of the history for this request only. The assistant turn is
// recorded once the stream completes.
func (s *Session) Stream(ctx context.Context, prompt, fileContext string, events chan<- StreamEvent) {
	defer close(events)

	s.add(openai.ChatMessageRoleUser, prompt)

	stream, err := s.client.CreateChatCompletionStream(ctx, s.request(fileContext))
	if err != nil {
		events <- StreamEvent{Type: StreamEventError, Err: &StreamError{Operation: "create_stream", Err: err}}
		return
	}
	defer stream.Close()

	var reply strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			s.add(openai.ChatMessageRoleAssistant, reply.String())
			return
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			events <- StreamEvent{Type: StreamEventError, Err: &StreamError{Operation: "receive_chunk", Err: err}}
			return
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
			continue
		}
		chunk := resp.Choices[0].Delta.Content
		reply.WriteString(chunk)
		events <- StreamEvent{Type: StreamEventContent, Content: chunk}
	}
}

func (s *Session) request(fileContext string) openai.ChatCompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := make([]openai.ChatCompletionMessage, 0, len(s.messages)+1)
	if fileContext != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: fileContext})
	}
	msgs = append(msgs, s.messages...)

	return openai.ChatCompletionRequest{
		Model:       s.opts.Model,
		Messages:    msgs,
		Temperature: s.opts.Temperature,
		MaxTokens:   s.opts.MaxTokens,
		Stream:      true,
	}
}
