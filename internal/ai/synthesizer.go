package ai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"taskflow/internal/logger"
	"taskflow/internal/models/task"

	"go.uber.org/zap"
)

const (
	FallbackDescription = "Generated from AI prompt."
	fallbackTitleRunes  = 80
)

const systemPrompt = `You are a helpful project management assistant.
Given a brief description of a task, generate a clear task title, a concise description, and an appropriate priority level.
Respond ONLY with a valid JSON object in this exact format (no markdown, no backticks):
{
  "title": "Short, action-oriented task title",
  "description": "Clear, one or two sentence description of what needs to be done and why.",
  "priority": "low" | "medium" | "high"
}`

// Suggestion - черновик задачи от модели, нигде не сохраняется
type Suggestion struct {
	Title       string        `json:"title" yaml:"title"`
	Description string        `json:"description" yaml:"description"`
	Priority    task.Priority `json:"priority" yaml:"priority"`
	// Fallback выставлен, когда ответ модели не разобран и черновик собран из запроса
	Fallback bool `json:"fallback" yaml:"fallback"`
}

type Synthesizer struct {
	client Completer
}

func NewSynthesizer(client Completer) *Synthesizer {
	return &Synthesizer{client: client}
}

// Synthesize делает ровно один вызов модели. Неразборчивый ответ ошибкой не является:
// вместо него возвращается черновик из первых 80 символов запроса.
func (s *Synthesizer) Synthesize(ctx context.Context, prompt string) (Suggestion, error) {
	if strings.TrimSpace(prompt) == "" {
		return Suggestion{}, ErrValidation
	}

	raw, err := s.client.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) || errors.Is(err, ErrUnavailable) {
			return Suggestion{}, err
		}
		// Completer со своими ошибками, включая отмену контекста
		return Suggestion{}, errors.Join(ErrUnavailable, err)
	}

	suggestion, ok := parseSuggestion(raw)
	if !ok {
		logger.Warn("AI: Ответ модели не разобран, используем запасной вариант",
			zap.Int("raw_len", len(raw)))
		return fallback(prompt), nil
	}

	logger.Info("AI: Черновик задачи сгенерирован", zap.String("priority", string(suggestion.Priority)))
	return suggestion, nil
}

func parseSuggestion(raw string) (Suggestion, bool) {
	text := stripFence(strings.TrimSpace(raw))

	var parsed struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Priority    string `json:"priority"`
	}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return Suggestion{}, false
	}

	title := strings.TrimSpace(parsed.Title)
	description := strings.TrimSpace(parsed.Description)
	if title == "" || description == "" || strings.TrimSpace(parsed.Priority) == "" {
		return Suggestion{}, false
	}

	priority, valid := task.ParsePriority(parsed.Priority)
	if !valid {
		logger.Warn("AI: Недопустимый приоритет заменён на medium", zap.String("priority", parsed.Priority))
		priority = task.PriorityMedium
	}

	return Suggestion{Title: title, Description: description, Priority: priority}, true
}

// stripFence снимает обёртку ```json ... ```, которую модели добавляют вопреки инструкции
func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		// язык после открывающей обёртки
		text = text[nl+1:]
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// fallback берёт заголовок как есть, без обрезки пробелов: он остаётся префиксом запроса
func fallback(prompt string) Suggestion {
	title := prompt
	if runes := []rune(prompt); len(runes) > fallbackTitleRunes {
		title = string(runes[:fallbackTitleRunes])
	}
	return Suggestion{
		Title:       title,
		Description: FallbackDescription,
		Priority:    task.PriorityMedium,
		Fallback:    true,
	}
}
