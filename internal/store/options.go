package store

import (
	"time"

	"github.com/google/uuid"
)

// DefaultKey - имя слота, под которым лежит коллекция
const DefaultKey = "taskflow_tasks"

type Option func(*TaskStore)

func WithKey(key string) Option {
	return func(s *TaskStore) {
		if key != "" {
			s.key = key
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *TaskStore) {
		s.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *TaskStore) {
		s.newID = newID
	}
}

func defaultID() string {
	return uuid.NewString()
}
