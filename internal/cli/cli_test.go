package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"taskflow/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("TASKFLOW_AI_API_KEY", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := "storage:\n  type: file\n  dir: " + filepath.Join(dir, "data") + "\nworker:\n  enabled: false\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

type jsonTask struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	DueDate     *string `json:"due_date"`
	DeletedAt   *string `json:"deleted_at"`
}

func TestCLI_AddListDelete(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, cfg, "add", "--format", "json", "-p", "high", "--due", "2020-01-01", "Buy", "milk")
	require.NoError(t, err)
	var created jsonTask
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, "Buy milk", created.Title)
	assert.Equal(t, "high", created.Priority)
	assert.Equal(t, "todo", created.Status)
	require.NotNil(t, created.DueDate)
	assert.Equal(t, "2020-01-01", *created.DueDate)

	_, err = run(t, cfg, "add", "Second")
	require.NoError(t, err)

	out, err = run(t, cfg, "list", "-f", "json")
	require.NoError(t, err)
	var active []jsonTask
	require.NoError(t, json.Unmarshal([]byte(out), &active))
	require.Len(t, active, 2)
	assert.Equal(t, "Second", active[0].Title, "новые задачи первыми")

	out, err = run(t, cfg, "list", "--overdue", "-f", "json")
	require.NoError(t, err)
	var overdue []jsonTask
	require.NoError(t, json.Unmarshal([]byte(out), &overdue))
	require.Len(t, overdue, 1)
	assert.Equal(t, created.ID, overdue[0].ID)

	// удаление по короткому префиксу, как в таблице
	out, err = run(t, cfg, "delete", created.ID[:8])
	require.NoError(t, err)
	assert.Contains(t, out, created.ID)

	out, err = run(t, cfg, "list", "-f", "json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &active))
	assert.Len(t, active, 1)

	out, err = run(t, cfg, "list", "--all", "-f", "json")
	require.NoError(t, err)
	var all []jsonTask
	require.NoError(t, json.Unmarshal([]byte(out), &all))
	require.Len(t, all, 2)
	assert.Equal(t, created.ID, all[0].ID, "--all сохраняет порядок хранения")
	assert.NotNil(t, all[0].DeletedAt)
}

func TestCLI_Update(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, cfg, "add", "-f", "json", "-d", "draft", "--due", "2030-05-01", "Write report")
	require.NoError(t, err)
	var created jsonTask
	require.NoError(t, json.Unmarshal([]byte(out), &created))

	out, err = run(t, cfg, "update", created.ID, "-f", "json", "--status", "in_progress", "--clear-description", "--clear-due")
	require.NoError(t, err)
	var updated jsonTask
	require.NoError(t, json.Unmarshal([]byte(out), &updated))
	assert.Equal(t, "in_progress", updated.Status)
	assert.Equal(t, "Write report", updated.Title)
	assert.Equal(t, "medium", updated.Priority)
	assert.Nil(t, updated.Description)
	assert.Nil(t, updated.DueDate)

	_, err = run(t, cfg, "update", created.ID)
	var bErr *service.BusinessError
	require.True(t, errors.As(err, &bErr))
	assert.Equal(t, service.CodeValidation, bErr.Code)

	_, err = run(t, cfg, "update", created.ID, "--title", "   ")
	require.True(t, errors.As(err, &bErr))
	assert.Equal(t, service.CodeValidation, bErr.Code)
}

func TestCLI_Validation(t *testing.T) {
	cfg := writeConfig(t)

	tests := []struct {
		name string
		args []string
	}{
		{"blank title", []string{"add", "   "}},
		{"bad priority", []string{"add", "-p", "urgent", "x"}},
		{"bad status", []string{"add", "-s", "blocked", "x"}},
		{"bad due", []string{"add", "--due", "01.02.2024", "x"}},
		{"bad list status", []string{"list", "--status", "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, cfg, tt.args...)
			var bErr *service.BusinessError
			require.True(t, errors.As(err, &bErr), "ожидалась бизнес-ошибка, получено %v", err)
			assert.Equal(t, service.CodeValidation, bErr.Code)
		})
	}
}

func TestCLI_DeleteUnknown(t *testing.T) {
	cfg := writeConfig(t)

	_, err := run(t, cfg, "delete", "missing")
	var bErr *service.BusinessError
	require.True(t, errors.As(err, &bErr))
	assert.Equal(t, service.CodeNotFound, bErr.Code)
}

func TestCLI_Stats(t *testing.T) {
	cfg := writeConfig(t)

	_, err := run(t, cfg, "add", "-s", "done", "one")
	require.NoError(t, err)
	_, err = run(t, cfg, "add", "two")
	require.NoError(t, err)

	out, err := run(t, cfg, "stats", "-f", "json")
	require.NoError(t, err)
	var s struct {
		Total             int            `json:"total"`
		Done              int            `json:"done"`
		ByPriority        map[string]int `json:"by_priority"`
		CompletionPercent int            `json:"completion_percent"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.Done)
	assert.Equal(t, 50, s.CompletionPercent)
	assert.Equal(t, 2, s.ByPriority["medium"])
}

func TestCLI_SuggestWithoutKey(t *testing.T) {
	cfg := writeConfig(t)

	_, err := run(t, cfg, "suggest", "plan", "the", "sprint")
	var bErr *service.BusinessError
	require.True(t, errors.As(err, &bErr))
	assert.Equal(t, service.CodeAINotConfigured, bErr.Code)
}

func TestCLI_TableOutput(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, cfg, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Задач нет")

	_, err = run(t, cfg, "add", "Table row")
	require.NoError(t, err)

	out, err = run(t, cfg, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "TITLE")
	assert.Contains(t, out, "Table row")
}

func TestCLI_BadFormat(t *testing.T) {
	cfg := writeConfig(t)
	_, err := run(t, cfg, "list", "-f", "xml")
	assert.Error(t, err)
}

func TestCLI_MigrateRequiresPostgres(t *testing.T) {
	cfg := writeConfig(t)
	_, err := run(t, cfg, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	code := report(&buf, service.NewNotFound("task", "42"))
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(buf.String(), "Ошибка [NOT_FOUND]"))

	buf.Reset()
	code = report(&buf, errors.New("boom"))
	assert.Equal(t, 2, code)
	assert.Contains(t, buf.String(), "boom")
}
