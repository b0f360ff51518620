package ai_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"taskflow/internal/ai"
	"taskflow/internal/models/task"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCompleter - мок языковой модели
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	args := m.Called(ctx, system, user)
	return args.String(0), args.Error(1)
}

func TestSynthesizer_Synthesize(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected ai.Suggestion
	}{
		{
			name: "clean json",
			raw:  `{"title":"Fix login","description":"Users cannot sign in with SSO.","priority":"high"}`,
			expected: ai.Suggestion{
				Title:       "Fix login",
				Description: "Users cannot sign in with SSO.",
				Priority:    task.PriorityHigh,
			},
		},
		{
			name: "surrounding whitespace",
			raw:  "\n  {\"title\":\" Plan sprint \",\"description\":\"Pick stories.\",\"priority\":\"low\"}  \n",
			expected: ai.Suggestion{
				Title:       "Plan sprint",
				Description: "Pick stories.",
				Priority:    task.PriorityLow,
			},
		},
		{
			name: "markdown fence",
			raw:  "```json\n{\"title\":\"Write docs\",\"description\":\"Document the API.\",\"priority\":\"medium\"}\n```",
			expected: ai.Suggestion{
				Title:       "Write docs",
				Description: "Document the API.",
				Priority:    task.PriorityMedium,
			},
		},
		{
			name: "bare fence",
			raw:  "```\n{\"title\":\"Deploy\",\"description\":\"Ship it.\",\"priority\":\"HIGH\"}\n```",
			expected: ai.Suggestion{
				Title:       "Deploy",
				Description: "Ship it.",
				Priority:    task.PriorityHigh,
			},
		},
		{
			name: "priority out of enum",
			raw:  `{"title":"Refactor","description":"Clean up.","priority":"urgent"}`,
			expected: ai.Suggestion{
				Title:       "Refactor",
				Description: "Clean up.",
				Priority:    task.PriorityMedium,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := new(MockCompleter)
			completer.On("Complete", mock.Anything, mock.AnythingOfType("string"), "some prompt").
				Return(tt.raw, nil).Once()

			got, err := ai.NewSynthesizer(completer).Synthesize(context.Background(), "some prompt")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			completer.AssertExpectations(t)
		})
	}
}

func TestSynthesizer_Fallback(t *testing.T) {
	prompt := strings.Repeat("a", 100)

	tests := []struct {
		name string
		raw  string
	}{
		{name: "plain text", raw: "Sure! Here is your task: write tests"},
		{name: "empty", raw: ""},
		{name: "missing description", raw: `{"title":"T","priority":"low"}`},
		{name: "empty title", raw: `{"title":"  ","description":"D","priority":"low"}`},
		{name: "missing priority", raw: `{"title":"T","description":"D"}`},
		{name: "array", raw: `[{"title":"T","description":"D","priority":"low"}]`},
		{name: "truncated", raw: `{"title":"T","description":"D","prio`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := new(MockCompleter)
			completer.On("Complete", mock.Anything, mock.Anything, prompt).Return(tt.raw, nil).Once()

			got, err := ai.NewSynthesizer(completer).Synthesize(context.Background(), prompt)
			require.NoError(t, err)
			assert.Equal(t, ai.Suggestion{
				Title:       strings.Repeat("a", 80),
				Description: ai.FallbackDescription,
				Priority:    task.PriorityMedium,
				Fallback:    true,
			}, got)
		})
	}
}

func TestSynthesizer_FallbackShortPromptAndRunes(t *testing.T) {
	completer := new(MockCompleter)
	completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("not json", nil)
	synth := ai.NewSynthesizer(completer)

	got, err := synth.Synthesize(context.Background(), "short")
	require.NoError(t, err)
	assert.Equal(t, "short", got.Title)

	// обрезка по символам, а не по байтам
	long := strings.Repeat("я", 90)
	got, err = synth.Synthesize(context.Background(), long)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("я", 80), got.Title)

	// ведущие пробелы сохраняются: заголовок остаётся префиксом запроса
	spaced := "  fix the login bug"
	got, err = synth.Synthesize(context.Background(), spaced)
	require.NoError(t, err)
	assert.Equal(t, spaced, got.Title)
	assert.True(t, strings.HasPrefix(spaced, got.Title))
}

func TestSynthesizer_EmptyPrompt(t *testing.T) {
	completer := new(MockCompleter)
	synth := ai.NewSynthesizer(completer)

	for _, prompt := range []string{"", "   ", "\n\t"} {
		_, err := synth.Synthesize(context.Background(), prompt)
		assert.ErrorIs(t, err, ai.ErrValidation)
	}
	completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestSynthesizer_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{name: "not configured", err: ai.ErrNotConfigured, expected: ai.ErrNotConfigured},
		{name: "unavailable", err: ai.ErrUnavailable, expected: ai.ErrUnavailable},
		{name: "foreign error", err: errors.New("boom"), expected: ai.ErrUnavailable},
		{name: "cancelled", err: context.Canceled, expected: ai.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := new(MockCompleter)
			completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("", tt.err).Once()

			_, err := ai.NewSynthesizer(completer).Synthesize(context.Background(), "prompt")
			assert.ErrorIs(t, err, tt.expected)
			completer.AssertNumberOfCalls(t, "Complete", 1)
		})
	}
}

// TestSynthesizer_WithGroqClient - весь путь через HTTP: не-JSON ответ модели
// превращается в запасной черновик
func TestSynthesizer_WithGroqClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"I think you should fix the bug."}}]}`))
	}))
	defer server.Close()

	synth := ai.NewSynthesizer(ai.NewGroqClient(ai.GroqConfig{APIKey: "k", BaseURL: server.URL}))
	got, err := synth.Synthesize(context.Background(), "fix the bug")
	require.NoError(t, err)
	assert.Equal(t, "fix the bug", got.Title)
	assert.Equal(t, task.PriorityMedium, got.Priority)
	assert.True(t, got.Fallback)
}

func TestSynthesizer_WithGroqClientNotConfigured(t *testing.T) {
	synth := ai.NewSynthesizer(ai.NewGroqClient(ai.GroqConfig{}))
	_, err := synth.Synthesize(context.Background(), "anything")
	assert.ErrorIs(t, err, ai.ErrNotConfigured)
}
