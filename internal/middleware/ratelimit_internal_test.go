package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedWindow(t *testing.T) {
	fw := newFixedWindow(2, time.Minute)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	ok, remaining, resetAt := fw.allow("a", base)
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)
	assert.Equal(t, base.Add(time.Minute), resetAt)

	ok, remaining, _ = fw.allow("a", base.Add(10*time.Second))
	assert.True(t, ok)
	assert.Equal(t, 0, remaining)

	ok, _, _ = fw.allow("a", base.Add(20*time.Second))
	assert.False(t, ok)

	// чужой ключ считается отдельно
	ok, _, _ = fw.allow("b", base.Add(20*time.Second))
	assert.True(t, ok)

	// новое окно
	ok, remaining, resetAt = fw.allow("a", base.Add(time.Minute))
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)
	assert.Equal(t, base.Add(2*time.Minute), resetAt)
}

func TestFixedWindow_Sweep(t *testing.T) {
	fw := newFixedWindow(1, time.Minute)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	fw.allow("a", base)
	fw.allow("b", base)
	assert.Len(t, fw.counters, 2)

	fw.allow("c", base.Add(2*time.Minute))
	assert.Len(t, fw.counters, 1)
	assert.Contains(t, fw.counters, "c")
}
