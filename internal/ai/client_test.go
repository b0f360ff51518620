package ai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"taskflow/internal/ai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroqClient_Complete(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			Temperature float64 `json:"temperature"`
			MaxTokens   int     `json:"max_tokens"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, ai.DefaultModel, body.Model)
		assert.Equal(t, ai.DefaultTemperature, body.Temperature)
		assert.Equal(t, ai.DefaultMaxTokens, body.MaxTokens)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)
		assert.Equal(t, "be brief", body.Messages[0].Content)
		assert.Equal(t, "user", body.Messages[1].Role)
		assert.Equal(t, "fix the login bug", body.Messages[1].Content)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"title\":\"Fix login\"}"}}]}`))
	}))
	defer server.Close()

	client := ai.NewGroqClient(ai.GroqConfig{APIKey: "secret", BaseURL: server.URL})
	got, err := client.Complete(context.Background(), "be brief", "fix the login bug")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Fix login"}`, got)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGroqClient_NotConfigured(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	for _, key := range []string{"", "   "} {
		client := ai.NewGroqClient(ai.GroqConfig{APIKey: key, BaseURL: server.URL})
		assert.False(t, client.Configured())

		_, err := client.Complete(context.Background(), "s", "u")
		assert.ErrorIs(t, err, ai.ErrNotConfigured)
	}
	assert.Zero(t, calls.Load(), "запрос не должен уходить без ключа")
}

func TestGroqClient_ErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":{"message":"Invalid API Key","type":"invalid_request_error"}}`},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"error":{"message":"Rate limit reached"}}`},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`},
		{name: "long cyrillic body", status: http.StatusBadGateway, body: "x" + strings.Repeat("сервис недоступен ", 60)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := ai.NewGroqClient(ai.GroqConfig{APIKey: "k", BaseURL: server.URL})
			_, err := client.Complete(context.Background(), "s", "u")
			assert.ErrorIs(t, err, ai.ErrUnavailable)
			assert.True(t, utf8.ValidString(err.Error()))
			// без повторов
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestGroqClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := ai.NewGroqClient(ai.GroqConfig{APIKey: "k", BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	_, err := client.Complete(context.Background(), "s", "u")
	assert.ErrorIs(t, err, ai.ErrUnavailable)
}

func TestGroqClient_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := ai.NewGroqClient(ai.GroqConfig{APIKey: "k", BaseURL: server.URL})
	_, err := client.Complete(ctx, "s", "u")
	assert.ErrorIs(t, err, ai.ErrUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGroqClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := ai.NewGroqClient(ai.GroqConfig{APIKey: "k", BaseURL: url})
	_, err := client.Complete(context.Background(), "s", "u")
	assert.ErrorIs(t, err, ai.ErrUnavailable)
}

func TestGroqClient_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := ai.NewGroqClient(ai.GroqConfig{APIKey: "k", BaseURL: server.URL, Model: "other-model"})
	got, err := client.Complete(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Empty(t, got)
}
