package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyGenerator struct {
	failures int
	calls    int
	reply    string
}

func (f *flakyGenerator) Generate(context.Context, Request) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", errors.New("connection refused")
	}
	return f.reply, nil
}

func (f *flakyGenerator) CheckAvailability(context.Context) bool { return f.failures == 0 }

func noSleep(r *Retrying) *Retrying {
	r.sleep = func(context.Context, time.Duration) error { return nil }
	return r
}

func TestRetrying_RecoversWithinBudget(t *testing.T) {
	g := &flakyGenerator{failures: 2, reply: "ok"}
	r := noSleep(NewRetrying(g, 3, time.Second, nil, nil))

	out, err := r.Generate(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, g.calls)
}

func TestRetrying_ExhaustedIsConnectivity(t *testing.T) {
	g := &flakyGenerator{failures: 10}
	var slept []time.Duration
	r := NewRetrying(g, 3, 2*time.Second, nil, nil)
	r.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	_, err := r.Generate(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConnectivity))
	assert.Equal(t, 3, g.calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, slept)
}

func TestRetrying_StopsOnCancel(t *testing.T) {
	g := &flakyGenerator{failures: 10}
	r := NewRetrying(g, 5, time.Hour, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Generate(ctx, Request{})
	assert.ErrorIs(t, err, ErrConnectivity)
	assert.Equal(t, 1, g.calls)
}

func TestOpenAIClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "local-model", req.Model)
		if assert.Len(t, req.Messages, 2) {
			assert.Equal(t, "system", req.Messages[0].Role)
			assert.Equal(t, "be brief", req.Messages[0].Content)
		}
		assert.Equal(t, 100, req.MaxTokens)
		assert.False(t, req.Stream)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Is it paid?  "}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIOptions{BaseURL: srv.URL + "/v1/"})
	out, err := c.Generate(context.Background(), Request{Prompt: "q", SystemPrompt: "be brief", MaxTokens: 100, Temperature: 0.8})
	require.NoError(t, err)
	assert.Equal(t, "Is it paid?", out)
}

func TestOpenAIClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIOptions{BaseURL: srv.URL})
	_, err := c.Generate(context.Background(), Request{Prompt: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestOpenAIClient_CheckAvailability(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" {
			_, _ = w.Write([]byte(`{"data":[]}`))
			return
		}
		http.NotFound(w, r)
	}))
	c := NewOpenAIClient(OpenAIOptions{BaseURL: srv.URL})
	assert.True(t, c.CheckAvailability(context.Background()))

	srv.Close()
	assert.False(t, c.CheckAvailability(context.Background()))
}

func TestClaudeCLI_Generate(t *testing.T) {
	c := NewClaudeCLI("sonnet", time.Minute)
	var gotArgs []string
	c.run = func(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
		assert.Equal(t, "claude", name)
		gotArgs = args
		return []byte(`{"type":"result","result":" Да - подходит \n","is_error":false}`), nil, nil
	}

	out, err := c.Generate(context.Background(), Request{Prompt: "p", SystemPrompt: "s"})
	require.NoError(t, err)
	assert.Equal(t, "Да - подходит", out)
	assert.Equal(t, []string{"-p", "p", "--output-format", "json", "--append-system-prompt", "s", "--model", "sonnet"}, gotArgs)
}

func TestClaudeCLI_ErrorEnvelope(t *testing.T) {
	c := NewClaudeCLI("", time.Minute)
	c.run = func(context.Context, string, ...string) ([]byte, []byte, error) {
		return []byte(`{"result":"rate limited","is_error":true}`), nil, nil
	}
	_, err := c.Generate(context.Background(), Request{Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}
