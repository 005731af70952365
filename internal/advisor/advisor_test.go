package advisor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/bizdata-cli/internal/ai"
	"github.com/KaramelBytes/bizdata-cli/internal/analysis"
	"github.com/KaramelBytes/bizdata-cli/internal/dataset"
)

type fakeRuntime struct {
	mu    sync.Mutex
	calls []ai.GenerateRequest
	reply string
	err   error
	gate  chan struct{}
}

func (f *fakeRuntime) Generate(ctx context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}
	return &ai.GenerateResponse{Choices: []ai.Choice{{Message: ai.Message{Role: ai.RoleAssistant, Content: f.reply}}}}, nil
}

func salesResult() *analysis.Result {
	ds := dataset.New([]string{"Date", "Amount", "Customer"}, []dataset.Record{
		{"Date": "2024-01-15", "Amount": "$100", "Customer": "A"},
		{"Date": "2024-02-15", "Amount": "$50", "Customer": "B"},
		{"Date": "2024-02-20", "Amount": "$150", "Customer": "A"},
		{"Date": "2024-03-02", "Amount": "$80", "Customer": "C"},
	})
	return analysis.Analyze(ds, analysis.DefaultOptions())
}

func TestSummarize(t *testing.T) {
	s := Summarize(salesResult())
	assert.InDelta(t, 380, s.TotalRevenue, 1e-9)
	assert.Equal(t, 4, s.RecordCount)
	assert.Equal(t, 3, s.CustomerCount)
	assert.Equal(t, []string{"Date", "Amount", "Customer"}, s.Columns)
	assert.Equal(t, "2024-02 (Growth: 100.0%)", s.HighestGrowth)
	assert.True(t, s.HasNegativeGrowth)
	// 2024-03-02 is a Saturday.
	assert.InDelta(t, 60, s.WeekdayAverage, 1e-9)
	assert.InDelta(t, 40, s.WeekendAverage, 1e-9)
	assert.False(t, s.WeekendsLead())
	assert.Equal(t, "A ($250.00), C ($80.00), B ($50.00)", s.TopSegments())
	assert.Equal(t, "Jan 2024: $100.00; Feb 2024: $200.00; Mar 2024: $80.00", s.Trend())
}

func TestHighestGrowthTreatsUndefinedAsZero(t *testing.T) {
	neg := -10.0
	months := []analysis.MonthlyGrowth{{Month: "2024-01"}, {Month: "2024-02", Growth: &neg}, {Month: "2024-03"}}
	assert.Equal(t, "2024-01 (Growth: n/a)", highestGrowth(months))
	assert.Equal(t, InsufficientData, highestGrowth(nil))

	s := Summarize(analysis.Analyze(dataset.New([]string{"Region"}, []dataset.Record{{"Region": "x"}}), analysis.DefaultOptions()))
	assert.Equal(t, InsufficientData, s.HighestGrowth)
	assert.False(t, s.HasNegativeGrowth)
	assert.Equal(t, InsufficientData, Summarize(nil).HighestGrowth)
}

func TestBuildSystemPrompt(t *testing.T) {
	p := BuildSystemPrompt(Summarize(salesResult()))
	for _, want := range []string{
		"- Total Sales: $380.00",
		"- Records: 4 rows of Date, Amount, Customer",
		"- Highest Growth Period: 2024-02 (Growth: 100.0%)",
		"Weekdays perform better on average ($60.00/day) than weekends ($40.00/day).",
		"Negative Growth Detected: true",
		"under 180 words",
		"refocus them",
	} {
		assert.Contains(t, p, want)
	}
}

func TestSessionAsk(t *testing.T) {
	rt := &fakeRuntime{reply: "Run a weekend bundle."}
	opt := DefaultOptions()
	opt.Model = "gemini-test"
	s := NewSession(rt, salesResult(), opt, nil)
	require.NotEmpty(t, s.ID)
	assert.Equal(t, []ai.Message{{Role: ai.RoleAssistant, Content: Greeting}}, s.Messages())

	reply, err := s.Ask(context.Background(), "  What should I do? ")
	require.NoError(t, err)
	assert.Equal(t, "Run a weekend bundle.", reply)

	require.Len(t, rt.calls, 1)
	req := rt.calls[0]
	assert.Equal(t, "gemini-test", req.Model)
	assert.InDelta(t, 0.7, req.Temperature, 1e-9)
	assert.InDelta(t, 0.95, req.TopP, 1e-9)
	assert.Equal(t, []ai.Message{{Role: ai.RoleUser, Content: "What should I do?"}}, req.Messages)
	assert.Contains(t, req.System, "Total Sales: $380.00")

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, ai.Message{Role: ai.RoleUser, Content: "What should I do?"}, msgs[1])
	assert.Equal(t, ai.Message{Role: ai.RoleAssistant, Content: "Run a weekend bundle."}, msgs[2])
}

func TestSessionAskEmpty(t *testing.T) {
	rt := &fakeRuntime{reply: "x"}
	s := NewSession(rt, salesResult(), DefaultOptions(), nil)
	_, err := s.Ask(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
	assert.Empty(t, rt.calls)
	assert.Len(t, s.Messages(), 1)
}

func TestSessionEmptyReplyFallsBack(t *testing.T) {
	s := NewSession(&fakeRuntime{reply: "  "}, salesResult(), DefaultOptions(), nil)
	reply, err := s.Ask(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, NoInsightReply, reply)
}

func TestSessionFailureAppendsApology(t *testing.T) {
	cause := &ai.AuthError{APIError: &ai.APIError{StatusCode: 401}}
	rt := &fakeRuntime{err: cause}
	s := NewSession(rt, salesResult(), DefaultOptions(), nil)

	reply, err := s.Ask(context.Background(), "hi")
	assert.Equal(t, ApologyReply, reply)
	assert.ErrorIs(t, err, ErrAdvisorUnavailable)
	var ae *ai.AuthError
	assert.True(t, errors.As(err, &ae))
	assert.Len(t, rt.calls, 1, "no retry")

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, ApologyReply, msgs[2].Content)
	assert.False(t, s.Busy())
}

func TestSessionRejectsConcurrentAsk(t *testing.T) {
	rt := &fakeRuntime{reply: "ok", gate: make(chan struct{})}
	s := NewSession(rt, salesResult(), DefaultOptions(), nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.Ask(context.Background(), "first")
		done <- err
	}()
	require.Eventually(t, s.Busy, time.Second, time.Millisecond)

	_, err := s.Ask(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)

	close(rt.gate)
	require.NoError(t, <-done)
	assert.Len(t, s.Messages(), 3)
}

func TestSessionSetResult(t *testing.T) {
	rt := &fakeRuntime{reply: "ok"}
	res := salesResult()
	s := NewSession(rt, res, DefaultOptions(), nil)
	cleaned := analysis.Clean(res, analysis.DefaultOptions())
	s.SetResult(cleaned)
	assert.Same(t, cleaned, s.Result())
	assert.Contains(t, s.Summary().Columns, analysis.DayOfWeekHeader)

	_, err := s.Ask(context.Background(), "q")
	require.NoError(t, err)
	assert.Contains(t, rt.calls[0].System, "Day_of_Week")
}
