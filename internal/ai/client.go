package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"taskflow/internal/logger"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL     = "https://api.groq.com/openai/v1/chat/completions"
	DefaultModel       = "llama-3.3-70b-versatile"
	DefaultTemperature = 0.4
	DefaultMaxTokens   = 256
	DefaultTimeout     = 30 * time.Second

	// тело ошибки в лог попадает не целиком
	maxErrorBody = 512
)

// Completer - граница с языковой моделью: один системный и один пользовательский
// текст на входе, текст ответа на выходе.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type GroqConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// GroqClient ходит в OpenAI-совместимый chat completions API Groq.
// Повторов нет: один вызов Complete - ровно один HTTP-запрос.
type GroqClient struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	client      *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func NewGroqClient(cfg GroqConfig) *GroqClient {
	c := &GroqClient{
		apiKey:      strings.TrimSpace(cfg.APIKey),
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.temperature <= 0 {
		c.temperature = DefaultTemperature
	}
	if c.maxTokens <= 0 {
		c.maxTokens = DefaultMaxTokens
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c.client = &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	return c
}

func (c *GroqClient) Configured() bool {
	return c.apiKey != ""
}

func (c *GroqClient) Complete(ctx context.Context, system, user string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("сериализация запроса: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: создание запроса: %w", ErrUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		logger.Error("AI: Запрос к модели не удался", err, zap.Duration("ms", time.Since(start)))
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("AI: Не удалось прочитать ответ", err)
		return "", fmt.Errorf("%w: чтение ответа: %w", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(respBody)
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		msg = truncateBody(msg, maxErrorBody)
		logger.Warn("AI: Модель вернула ошибку",
			zap.Int("status", resp.StatusCode), zap.String("message", msg))
		return "", fmt.Errorf("%w: статус %d: %s", ErrUnavailable, resp.StatusCode, msg)
	}

	logger.Debug("AI: Ответ модели получен",
		zap.String("model", c.model), zap.Duration("ms", time.Since(start)))

	// структура ответа, которую не удалось разобрать, - тоже "кривой ответ модели",
	// решение о fallback принимает синтезатор
	var chat chatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil || len(chat.Choices) == 0 {
		return "", nil
	}
	return chat.Choices[0].Message.Content, nil
}

// truncateBody обрезает до limit байт, не разрывая многобайтовый символ
func truncateBody(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
