package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/bizdata-cli/internal/advisor"
	"github.com/KaramelBytes/bizdata-cli/internal/ai"
	"github.com/KaramelBytes/bizdata-cli/internal/logging"
)

const salesCSV = "Date,Amount,Customer,Region\n2024-01-15,$100,A,\n2024-02-15,$50,B,West\n2024-02-20,$150,A,East\n"

type stubRuntime struct {
	mu    sync.Mutex
	calls int
	reply string
	err   error
}

func (s *stubRuntime) Generate(ctx context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &ai.GenerateResponse{Choices: []ai.Choice{{Message: ai.Message{Role: ai.RoleAssistant, Content: s.reply}}}}, nil
}

func newTestServer(t *testing.T, rt ai.Runtime, cfg Config) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(cfg, rt, logging.Discard()).Router())
	t.Cleanup(srv.Close)
	return srv
}

func upload(t *testing.T, base, name, content string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, _ = io.WriteString(fw, content)
	require.NoError(t, mw.Close())
	resp, err := http.Post(base+"/api/datasets", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func postChat(t *testing.T, base, id, question string) *http.Response {
	t.Helper()
	b, _ := json.Marshal(map[string]string{"question": question})
	resp, err := http.Post(base+"/api/datasets/"+id+"/chat", "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	return resp
}

func TestUploadAnalyzesDataset(t *testing.T) {
	srv := newTestServer(t, &stubRuntime{reply: "ok"}, DefaultConfig())
	resp := upload(t, srv.URL, "sales.csv", salesCSV)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	v := decode[datasetView](t, resp)

	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "sales.csv", v.Name)
	assert.Equal(t, 3, v.RowCount)
	assert.True(t, v.Capabilities.HasFinancialData)
	assert.True(t, v.Capabilities.HasTimeData)
	assert.InDelta(t, 300, v.Stats.TotalRevenue, 1e-9)
	require.Len(t, v.Stats.MonthlyGrowth, 2)
	assert.Nil(t, v.Stats.MonthlyGrowth[0].Growth)

	got, err := http.Get(srv.URL + "/api/datasets/" + v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.ID, decode[datasetView](t, got).ID)

	list, err := http.Get(srv.URL + "/api/datasets")
	require.NoError(t, err)
	assert.Len(t, decode[[]map[string]any](t, list), 1)
}

func TestUploadRejectsEmptyAndUnknownFiles(t *testing.T) {
	srv := newTestServer(t, &stubRuntime{}, DefaultConfig())

	resp := upload(t, srv.URL, "empty.csv", "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	p := decode[problem](t, resp)
	assert.Equal(t, "The file appears to be empty.", p.Detail)
	assert.NotEmpty(t, p.TraceID)

	resp = upload(t, srv.URL, "data.json", "{}")
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	resp.Body.Close()

	cfg := DefaultConfig()
	cfg.MaxUploadBytes = 64
	small := newTestServer(t, &stubRuntime{}, cfg)
	resp = upload(t, small.URL, "big.csv", salesCSV+strings.Repeat("2024-03-01,$1,C,North\n", 20))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	resp.Body.Close()
}

func TestRowsPaging(t *testing.T) {
	srv := newTestServer(t, &stubRuntime{}, DefaultConfig())
	v := decode[datasetView](t, upload(t, srv.URL, "sales.csv", salesCSV))

	resp, err := http.Get(srv.URL + "/api/datasets/" + v.ID + "/rows?offset=1&limit=1")
	require.NoError(t, err)
	page := decode[map[string]any](t, resp)
	assert.EqualValues(t, 3, page["total"])
	rows := page["rows"].([]any)
	require.Len(t, rows, 1)
	assert.Equal(t, "B", rows[0].(map[string]any)["Customer"])

	resp, err = http.Get(srv.URL + "/api/datasets/" + v.ID + "/rows?offset=10")
	require.NoError(t, err)
	assert.Empty(t, decode[map[string]any](t, resp)["rows"])

	resp, err = http.Get(srv.URL + "/api/datasets/" + v.ID + "/rows?offset=9223372036854775807&limit=500")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page = decode[map[string]any](t, resp)
	assert.EqualValues(t, 3, page["offset"])
	assert.Empty(t, page["rows"])

	resp, err = http.Get(srv.URL + "/api/datasets/" + v.ID + "/rows?limit=zero")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestCleanReplacesSnapshot(t *testing.T) {
	srv := newTestServer(t, &stubRuntime{}, DefaultConfig())
	v := decode[datasetView](t, upload(t, srv.URL, "sales.csv", salesCSV))

	resp, err := http.Post(srv.URL+"/api/datasets/"+v.ID+"/clean", "application/json", nil)
	require.NoError(t, err)
	cleaned := decode[datasetView](t, resp)
	assert.True(t, cleaned.Cleaned)
	assert.Contains(t, cleaned.Headers, "Day_of_Week")
	assert.InDelta(t, v.Stats.TotalRevenue, cleaned.Stats.TotalRevenue, 1e-9)

	resp, err = http.Get(srv.URL + "/api/datasets/" + v.ID + "/rows")
	require.NoError(t, err)
	first := decode[map[string]any](t, resp)["rows"].([]any)[0].(map[string]any)
	assert.Equal(t, "Unknown", first["Region"])
	assert.Equal(t, "Monday", first["Day_of_Week"])

	resp, err = http.Get(srv.URL + "/api/datasets/" + v.ID + "/report")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "Cleaned: yes")
}

func TestChatFlow(t *testing.T) {
	rt := &stubRuntime{reply: "Promote weekends."}
	srv := newTestServer(t, rt, DefaultConfig())
	v := decode[datasetView](t, upload(t, srv.URL, "sales.csv", salesCSV))

	resp := postChat(t, srv.URL, v.ID, "How do I grow?")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[chatResponse](t, resp)
	assert.Equal(t, "Promote weekends.", out.Reply)
	require.Len(t, out.Messages, 3)
	assert.Equal(t, advisor.Greeting, out.Messages[0].Content)
	assert.Empty(t, out.Error)

	resp = postChat(t, srv.URL, v.ID, "   ")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[problem](t, resp).Detail, "question is required")

	resp = postChat(t, srv.URL, v.ID, strings.Repeat("x", 2001))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, 1, rt.calls)

	msgs, err := http.Get(srv.URL + "/api/datasets/" + v.ID + "/messages")
	require.NoError(t, err)
	assert.Len(t, decode[map[string][]ai.Message](t, msgs)["messages"], 3)
}

func TestChatFailureReturnsApology(t *testing.T) {
	srv := newTestServer(t, &stubRuntime{err: errors.New("boom")}, DefaultConfig())
	v := decode[datasetView](t, upload(t, srv.URL, "sales.csv", salesCSV))

	resp := postChat(t, srv.URL, v.ID, "hello?")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[chatResponse](t, resp)
	assert.Equal(t, advisor.ApologyReply, out.Reply)
	assert.Contains(t, out.Error, "advisor unavailable")
	assert.Equal(t, advisor.ApologyReply, out.Messages[len(out.Messages)-1].Content)
}

func TestChatRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ChatRate = 0.001
	cfg.ChatBurst = 2
	srv := newTestServer(t, &stubRuntime{reply: "ok"}, cfg)
	v := decode[datasetView](t, upload(t, srv.URL, "sales.csv", salesCSV))

	for i := 0; i < 2; i++ {
		resp := postChat(t, srv.URL, v.ID, "q")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}
	resp := postChat(t, srv.URL, v.ID, "q")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
	resp.Body.Close()
}

func TestDeleteAndNotFound(t *testing.T) {
	srv := newTestServer(t, &stubRuntime{}, DefaultConfig())
	v := decode[datasetView](t, upload(t, srv.URL, "sales.csv", salesCSV))

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/datasets/"+v.ID, nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/datasets/" + v.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = postChat(t, srv.URL, "missing", "q")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, &stubRuntime{reply: "ok"}, DefaultConfig())
	v := decode[datasetView](t, upload(t, srv.URL, "sales.csv", salesCSV))
	postChat(t, srv.URL, v.ID, "q").Body.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	h := decode[map[string]any](t, resp)
	assert.Equal(t, "ok", h["status"])
	assert.EqualValues(t, 1, h["datasets"])

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	text := string(body)
	assert.Contains(t, text, "bizdata_datasets_loaded 1")
	assert.Contains(t, text, `bizdata_uploads_total{outcome="ok"} 1`)
	assert.Contains(t, text, `bizdata_chat_requests_total{outcome="ok"} 1`)
	assert.Contains(t, text, "bizdata_analysis_duration_seconds_count 1")
}
