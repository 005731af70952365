package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/bizdata-cli/internal/ai"
	"github.com/KaramelBytes/bizdata-cli/internal/analysis"
)

// Fixed assistant texts.
const (
	Greeting       = "Hello! I'm your Business Consultant. I've analyzed your data and noticed some interesting trends. How can I help you grow your business today?"
	NoInsightReply = "I've analyzed your data but couldn't generate a specific insight. Try asking me about your best-performing months or weekend sales!"
	ApologyReply   = "I'm sorry, I encountered an issue processing that. Could you try rephrasing or asking something else about your revenue or customers?"
)

var (
	// ErrEmptyQuestion is returned for blank questions; nothing is logged or sent.
	ErrEmptyQuestion = errors.New("question is empty")
	// ErrBusy is returned while another question on the same session is in flight.
	ErrBusy = errors.New("advisor is still answering the previous question")
	// ErrAdvisorUnavailable wraps runtime failures. The apology reply has
	// already been appended when it is returned.
	ErrAdvisorUnavailable = errors.New("advisor unavailable")
)

// Options are the generation knobs forwarded on every call.
type Options struct {
	Model       string
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// DefaultOptions matches the consultant's tuned sampling.
func DefaultOptions() Options {
	return Options{Temperature: 0.7, TopP: 0.95}
}

// Session is one advisory conversation over one analysed dataset.
type Session struct {
	ID      string
	Created time.Time

	rt     ai.Runtime
	opt    Options
	logger *slog.Logger

	busy atomic.Bool

	mu       sync.Mutex
	messages []ai.Message
	result   *analysis.Result
	summary  Summary
}

// NewSession starts a conversation whose log opens with the greeting.
func NewSession(rt ai.Runtime, res *analysis.Result, opt Options, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	return &Session{
		ID:       id,
		Created:  time.Now().UTC(),
		rt:       rt,
		opt:      opt,
		logger:   logger.With("session", id),
		messages: []ai.Message{{Role: ai.RoleAssistant, Content: Greeting}},
		result:   res,
		summary:  Summarize(res),
	}
}

// SetResult swaps the analysed data, e.g. after cleaning. The log is kept.
func (s *Session) SetResult(res *analysis.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = res
	s.summary = Summarize(res)
}

// Result returns the dataset the session currently advises on.
func (s *Session) Result() *analysis.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Summary returns the briefing sent with each question.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// Messages returns a copy of the conversation log in arrival order.
func (s *Session) Messages() []ai.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ai.Message(nil), s.messages...)
}

// Busy reports whether a question is in flight.
func (s *Session) Busy() bool { return s.busy.Load() }

// Request builds the runtime request for question without sending it.
func (s *Session) Request(question string) ai.GenerateRequest {
	return ai.GenerateRequest{
		Model:       s.opt.Model,
		System:      BuildSystemPrompt(s.Summary()),
		Messages:    []ai.Message{{Role: ai.RoleUser, Content: strings.TrimSpace(question)}},
		MaxTokens:   s.opt.MaxTokens,
		Temperature: s.opt.Temperature,
		TopP:        s.opt.TopP,
	}
}

// Ask sends one question and appends both sides to the log. The runtime is
// called exactly once. On failure the apology reply is appended and returned
// together with an error wrapping ErrAdvisorUnavailable and the runtime error.
func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return "", ErrEmptyQuestion
	}
	if !s.busy.CompareAndSwap(false, true) {
		return "", ErrBusy
	}
	defer s.busy.Store(false)

	s.append(ai.Message{Role: ai.RoleUser, Content: q})
	req := s.Request(q)

	start := time.Now()
	resp, err := s.rt.Generate(ctx, req)
	if err != nil {
		s.logger.Warn("advisor call failed", "error", err, "elapsed", time.Since(start))
		s.append(ai.Message{Role: ai.RoleAssistant, Content: ApologyReply})
		return ApologyReply, fmt.Errorf("%w: %w", ErrAdvisorUnavailable, err)
	}
	reply := resp.Text()
	if reply == "" {
		reply = NoInsightReply
	}
	s.logger.Debug("advisor replied", "elapsed", time.Since(start), "request_id", resp.RequestID, "tokens", resp.Usage.TotalTokens)
	s.append(ai.Message{Role: ai.RoleAssistant, Content: reply})
	return reply, nil
}

func (s *Session) append(m ai.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.mu.Unlock()
}
