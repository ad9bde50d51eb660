package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"marry-fun-bot/internal/config"
	"marry-fun-bot/internal/model"
	"marry-fun-bot/internal/persona"
)

type completion struct {
	content string
	finish  string
	refusal string
	status  int
}

// fakeBackend serves queued completions and records request bodies.
type fakeBackend struct {
	mu       sync.Mutex
	queue    []completion
	requests []gjson.Result
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/chat/completions" {
		http.NotFound(w, r)
		return
	}
	body, _ := io.ReadAll(r.Body)

	b.mu.Lock()
	b.requests = append(b.requests, gjson.ParseBytes(body))
	c := completion{content: `{}`, finish: "stop"}
	if len(b.queue) > 0 {
		c = b.queue[0]
		b.queue = b.queue[1:]
	}
	b.mu.Unlock()

	if c.status != 0 {
		w.WriteHeader(c.status)
		_, _ = w.Write([]byte(`{"error":{"message":"boom"}}`))
		return
	}

	message := map[string]any{"role": "assistant", "content": c.content}
	if c.refusal != "" {
		message["refusal"] = c.refusal
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 0,
		"model":   "test",
		"choices": []any{map[string]any{
			"index":         0,
			"finish_reason": c.finish,
			"message":       message,
		}},
	})
}

func (b *fakeBackend) requestCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

func newTestClient(t *testing.T, queue ...completion) (*Client, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{queue: queue}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	client := NewClient(config.AIConfig{
		BaseURL:     srv.URL + "/v1",
		APIKey:      "test-key",
		Model:       "test-model",
		Timeout:     5 * time.Second,
		MaxAttempts: 2,
		Temperature: 0.5,
	}, persona.NewDefaultRegistry())
	return client, backend
}

func ok(content string) completion {
	return completion{content: content, finish: "stop"}
}

func TestSendMessage_Reply(t *testing.T) {
	client, backend := newTestClient(t, ok("```json\n{\"message\":\"Hmph.\",\"score\":6,\"emotion\":\"angry\"}\n```"))

	reply, err := client.SendMessage(context.Background(), "s-1", model.CharacterTsundere, "alice", "hello", model.LocaleEN)
	require.NoError(t, err)
	assert.Equal(t, "Hmph.", reply.Message)
	assert.Equal(t, 6.0, reply.RawScore)
	assert.Equal(t, model.EmotionAngry, reply.Emotion)

	require.Equal(t, 1, backend.requestCount())
	req := backend.requests[0]
	assert.Equal(t, "test-model", req.Get("model").String())
	assert.Equal(t, "s-1", req.Get("user").String())
	assert.Equal(t, "json_object", req.Get("response_format.type").String())
	assert.Contains(t, req.Get("messages.1.content").String(), "You MUST respond in English.")
	assert.Contains(t, req.Get("messages.1.content").String(), "User message: hello")
	assert.Contains(t, req.Get("messages.0.content").String(), "### tsundere")
}

func TestSendMessage_Greeting(t *testing.T) {
	client, backend := newTestClient(t, ok(`{"message":"はじめまして","score":5,"emotion":"joy"}`))

	reply, err := client.SendMessage(context.Background(), "s-1", model.CharacterGenki, "alice", model.InitMessage, model.LocaleJA)
	require.NoError(t, err)
	assert.Equal(t, "はじめまして", reply.Message)

	content := backend.requests[0].Get("messages.1.content").String()
	assert.Contains(t, content, "日本語で応答してください。")
	assert.Contains(t, content, "Greet the user for the first time")
	assert.NotContains(t, content, model.InitMessage)
}

func TestSendMessage_RetriesInvalidOutput(t *testing.T) {
	client, backend := newTestClient(t,
		ok(`{"message":"too good","score":12}`),
		ok(`{"message":"fine","score":9}`),
	)

	reply, err := client.SendMessage(context.Background(), "s-1", model.CharacterCool, "alice", "hi", model.LocaleEN)
	require.NoError(t, err)
	assert.Equal(t, "fine", reply.Message)
	assert.Equal(t, 2, backend.requestCount())
}

func TestSendMessage_FailsAfterMaxAttempts(t *testing.T) {
	client, backend := newTestClient(t,
		completion{content: `{"message":"cut","score":5}`, finish: "length"},
		completion{content: "", finish: "stop", refusal: "I can't"},
	)

	_, err := client.SendMessage(context.Background(), "s-1", model.CharacterCool, "alice", "hi", model.LocaleEN)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRefusal)
	assert.Equal(t, 2, backend.requestCount())
}

func TestSendMessage_HTTPError(t *testing.T) {
	client, _ := newTestClient(t, completion{status: http.StatusInternalServerError}, completion{status: http.StatusInternalServerError})

	_, err := client.SendMessage(context.Background(), "s-1", model.CharacterCool, "alice", "hi", model.LocaleEN)
	require.Error(t, err)
}

func TestGenerateNgWords(t *testing.T) {
	client, backend := newTestClient(t, ok("Here: "+wordsJSON(30)))

	words, err := client.GenerateNgWords(context.Background(), "s-1", model.CharacterCool, model.LocaleEN)
	require.NoError(t, err)
	assert.Len(t, words, 30)

	content := backend.requests[0].Get("messages.1.content").String()
	assert.Contains(t, content, "Character type: cool")
	assert.Contains(t, content, "boring")
}

func TestGenerateNgWords_TooFew(t *testing.T) {
	client, _ := newTestClient(t, ok(wordsJSON(5)), ok(wordsJSON(5)))

	_, err := client.GenerateNgWords(context.Background(), "s-1", model.CharacterCool, model.LocaleEN)
	assert.ErrorIs(t, err, ErrWordCount)
}

func TestGetShockResponse(t *testing.T) {
	client, backend := newTestClient(t, ok("  No... not that word...  "))

	line, err := client.GetShockResponse(context.Background(), "s-1", model.CharacterTennen, "alice", "dumb", model.LocaleEN)
	require.NoError(t, err)
	assert.Equal(t, "No... not that word...", line)

	req := backend.requests[0]
	assert.False(t, req.Get("response_format").Exists())
	assert.Contains(t, req.Get("messages.1.content").String(), `"dumb"`)
}

func TestGetShockResponse_SingleAttempt(t *testing.T) {
	client, backend := newTestClient(t, ok(""), ok("second"))

	_, err := client.GetShockResponse(context.Background(), "s-1", model.CharacterTennen, "alice", "dumb", model.LocaleEN)
	assert.ErrorIs(t, err, ErrEmptyContent)
	assert.Equal(t, 1, backend.requestCount())
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(config.AIConfig{BaseURL: "http://localhost/v1"}, persona.NewDefaultRegistry())
	assert.Equal(t, DefaultModel, client.model)
	assert.Equal(t, 1, client.maxAttempts)
}
