package ai

import "errors"

var (
	// ErrNotConfigured - ключ API не задан; запрос не отправлялся
	ErrNotConfigured = errors.New("ai: api key is not configured")
	// ErrUnavailable - сеть, не-2xx ответ, таймаут или отмена вызывающим
	ErrUnavailable = errors.New("ai: completion service unavailable")
	// ErrValidation - пустой запрос пользователя
	ErrValidation = errors.New("ai: prompt is empty")
)
