package repo

import "errors"

// Общие ошибки хранилищ истории.
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("not found")

	// ErrUnknownDriver — неизвестный драйвер истории.
	ErrUnknownDriver = errors.New("unknown history driver")
)
