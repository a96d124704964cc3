// Package chat is the client side of the resume chat: a session state machine that sends the
// transcript to /api/chat and grows one assistant message as the answer streams in.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonathan/resume-site/internal/types"
	"go.uber.org/zap"
)

// State of a chat session
type State int

const (
	// Idle accepts a new submission
	Idle State = iota
	// Sending has posted the transcript and waits for the first chunk
	Sending
	// Streaming is appending chunks to the assistant message
	Streaming
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sending:
		return "sending"
	case Streaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// Submission errors. Both leave the transcript untouched and issue no request.
var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrBusy         = errors.New("a request is already in flight")
)

// Message is one transcript entry. ID is local to the session and never sent.
type Message struct {
	ID      string
	Role    string
	Content string
}

// EventType identifies a session event
type EventType int

const (
	// EventUserMessage fires when the user message is appended
	EventUserMessage EventType = iota
	// EventAssistantDelta fires for every decoded chunk. Message holds the content so far.
	EventAssistantDelta
	// EventAssistantDone fires when the answer body ends cleanly
	EventAssistantDone
	// EventFailure fires after the fallback message is appended. Err holds the cause.
	EventFailure
	// EventStateChange fires on every state transition
	EventStateChange
)

// Event is delivered to listeners on the goroutine running Submit
type Event struct {
	Type    EventType
	Message Message
	Delta   string
	State   State
	Err     error
}

// Listener observes session events. It must not call Submit; Cancel is allowed.
type Listener func(Event)

// Session is one chat conversation. At most one request is in flight at a time.
type Session struct {
	transport Transport
	logger    *zap.Logger
	bufSize   int
	listeners []Listener

	mu       sync.Mutex
	messages []Message
	state    State
	cancel   context.CancelFunc
	mounted  bool
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the logger for transport failures
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithListener registers a listener
func WithListener(l Listener) Option {
	return func(s *Session) {
		s.listeners = append(s.listeners, l)
	}
}

// WithBufferSize sets the read size of the decode loop
func WithBufferSize(n int) Option {
	return func(s *Session) {
		s.bufSize = n
	}
}

// NewSession creates an idle session with an empty transcript
func NewSession(transport Transport, opts ...Option) *Session {
	s := &Session{
		transport: transport,
		logger:    zap.NewNop(),
		bufSize:   DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transcript returns a copy of the messages so far
func (s *Session) Transcript() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// Submit appends a user message, sends the transcript and blocks until the answer has been
// streamed, the request failed, or it was cancelled. Failures are absorbed into the fixed
// fallback message and Submit returns nil; only the guard errors are returned.
// The text is stored and sent as typed; whitespace only matters to the empty check.
func (s *Session) Submit(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return ErrBusy
	}
	user := Message{ID: uuid.NewString(), Role: types.RoleUser, Content: text}
	s.messages = append(s.messages, user)
	payload := wireMessages(s.messages)
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state = Sending
	s.mu.Unlock()

	s.emit(Event{Type: EventUserMessage, Message: user})
	s.emit(Event{Type: EventStateChange, State: Sending})

	defer func() {
		cancel()
		s.mu.Lock()
		s.cancel = nil
		s.state = Idle
		s.mu.Unlock()
		s.emit(Event{Type: EventStateChange, State: Idle})
	}()

	s.run(ctx, payload)
	return nil
}

func (s *Session) run(ctx context.Context, payload []types.ChatMessage) {
	body, err := s.transport.Send(ctx, payload)
	if err != nil {
		s.fail(ctx, err)
		return
	}
	defer body.Close()

	assistant := -1
	for chunk, err := range DecodeChunks(body, s.bufSize) {
		if ctx.Err() != nil {
			s.fail(ctx, ctx.Err())
			return
		}
		if err != nil {
			s.fail(ctx, err)
			return
		}

		s.mu.Lock()
		started := assistant < 0
		if started {
			s.messages = append(s.messages, Message{ID: uuid.NewString(), Role: types.RoleAssistant, Content: chunk})
			assistant = len(s.messages) - 1
			s.state = Streaming
		} else {
			s.messages[assistant].Content += chunk
		}
		msg := s.messages[assistant]
		s.mu.Unlock()

		if started {
			s.emit(Event{Type: EventStateChange, State: Streaming})
		}
		s.emit(Event{Type: EventAssistantDelta, Message: msg, Delta: chunk})
	}

	if ctx.Err() != nil {
		s.fail(ctx, ctx.Err())
		return
	}
	if assistant >= 0 {
		s.mu.Lock()
		msg := s.messages[assistant]
		s.mu.Unlock()
		s.emit(Event{Type: EventAssistantDone, Message: msg})
	}
}

// fail records a failed turn. Cancellation through Cancel or the caller's context is silent.
func (s *Session) fail(ctx context.Context, err error) {
	if errors.Is(ctx.Err(), context.Canceled) {
		s.logger.Debug("chat request cancelled")
		return
	}

	s.logger.Warn("chat request failed", zap.Error(err))

	msg := Message{ID: uuid.NewString(), Role: types.RoleAssistant, Content: types.ChatFallbackMessage}
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	s.emit(Event{Type: EventFailure, Message: msg, Err: err})
}

// Cancel aborts the in-flight request, if any. The transcript keeps what was already streamed
// and no fallback message is added.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Mount submits the initial prompt of a bridge or suggested-prompt action. Only the first call
// on a session has any effect, whatever its prompt.
func (s *Session) Mount(ctx context.Context, initialPrompt string) error {
	s.mu.Lock()
	if s.mounted {
		s.mu.Unlock()
		return nil
	}
	s.mounted = true
	s.mu.Unlock()

	if strings.TrimSpace(initialPrompt) == "" {
		return nil
	}
	return s.Submit(ctx, initialPrompt)
}

func (s *Session) emit(e Event) {
	for _, l := range s.listeners {
		l(e)
	}
}

func wireMessages(messages []Message) []types.ChatMessage {
	out := make([]types.ChatMessage, len(messages))
	for i, m := range messages {
		out[i] = types.ChatMessage{Role: m.Role, Content: m.Content}
	}
	return out
}
