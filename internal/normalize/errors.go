package normalize

import "errors"

// Ошибки уровня нормализации. Любая из них отменяет импорт целиком:
// на стадии разбора действует правило "все или ничего".
var (
	ErrEmptyInput        = errors.New("empty input")
	ErrNoRecords         = errors.New("no records to import")
	ErrMalformedRecord   = errors.New("malformed record")
	ErrDanglingReference = errors.New("dangling media reference")
	ErrNotImplemented    = errors.New("not implemented")
)
