package config

import (
	"errors"
	"fmt"
)

// Ошибки конфигурации.
var (
	// ErrConfig оборачивает любую ошибку загрузки или валидации.
	ErrConfig = errors.New("config error")

	// ErrProfileNotFound — профиль не найден в каталоге профилей.
	ErrProfileNotFound = fmt.Errorf("%w: profile not found", ErrConfig)
)

// FieldError — некорректное значение в секции конфигурации.
type FieldError struct {
	Key     string
	Value   any
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Key, e.Message, e.Value)
}

// Unwrap позволяет errors.Is(err, ErrConfig).
func (e *FieldError) Unwrap() error {
	return ErrConfig
}
