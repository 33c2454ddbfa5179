package common

import "errors"

// Общие ошибки для всех репозиториев
var (
	ErrNotFound = errors.New("entity not found")
	// ErrStatusConflict - compare-and-swap по статусу не нашёл строку в
	// ожидаемом исходном состоянии: её успел перевести кто-то другой.
	ErrStatusConflict = errors.New("status conflict")
)
