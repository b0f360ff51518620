package ai

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateBody(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{name: "short", in: "oops", limit: 10, want: "oops"},
		{name: "ascii", in: "abcdef", limit: 3, want: "abc"},
		// "я" занимает два байта, граница 3 попадает в середину второго символа
		{name: "cyrillic mid rune", in: "яяя", limit: 3, want: "я"},
		{name: "cyrillic on boundary", in: "яяя", limit: 4, want: "яя"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateBody(tt.in, tt.limit)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestTruncateBody_ErrorLimit(t *testing.T) {
	// нечётный префикс, чтобы граница maxErrorBody пришлась на середину символа
	body := "x" + strings.Repeat("ошибка", 100)
	got := truncateBody(body, maxErrorBody)
	assert.LessOrEqual(t, len(got), maxErrorBody)
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasPrefix(body, got))
}
