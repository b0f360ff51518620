package store

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("задача не найдена")
	ErrValidation     = errors.New("ошибка валидации")
	ErrCorruptStorage = errors.New("данные хранилища повреждены")
	ErrPersist        = errors.New("не удалось сохранить коллекцию задач")
)

// ValidationError - переданные данные нарушают инвариант задачи.
// errors.Is(err, ErrValidation) для него истинно.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("неверное значение поля '%s': %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
