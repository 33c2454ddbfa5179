package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound               ErrorCode = "NOT_FOUND"
	ErrCodeInvalidState           ErrorCode = "INVALID_STATE"
	ErrCodeInvalidParty           ErrorCode = "INVALID_PARTY"
	ErrCodeAlreadySigned          ErrorCode = "ALREADY_SIGNED"
	ErrCodeLocked                 ErrorCode = "LOCKED"
	ErrCodeConcurrentModification ErrorCode = "CONCURRENT_MODIFICATION"
	ErrCodeTransactionFailed      ErrorCode = "TRANSACTION_FAILED"
	ErrCodeUnauthorized           ErrorCode = "UNAUTHORIZED"
	ErrCodeValidation             ErrorCode = "VALIDATION_ERROR"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error

	// Заполняются только для INVALID_STATE: какой переход пытались
	// выполнить и в каком статусе сущность находится на самом деле.
	AttemptedState string
	CurrentState   string
}

func (e *AppError) Error() string {
	if e.AttemptedState != "" || e.CurrentState != "" {
		return fmt.Sprintf("%s: %s (переход в %q, текущий статус %q)", e.Code, e.Message, e.AttemptedState, e.CurrentState)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// InvalidState создаёт ошибку недопустимого перехода с диагностикой:
// целевой и фактический статусы попадают в сообщение.
func InvalidState(message, attempted, current string) *AppError {
	return &AppError{
		Code:           ErrCodeInvalidState,
		Message:        message,
		HTTPStatus:     http.StatusConflict,
		AttemptedState: attempted,
		CurrentState:   current,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeInvalidState, ErrCodeAlreadySigned, ErrCodeLocked, ErrCodeConcurrentModification:
		return http.StatusConflict
	case ErrCodeInvalidParty:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Code возвращает код AppError из цепочки ошибок, либо INTERNAL_ERROR.
func Code(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool {
	return Is(err, ErrCodeNotFound)
}

func IsInvalidState(err error) bool {
	return Is(err, ErrCodeInvalidState)
}

func IsConcurrentModification(err error) bool {
	return Is(err, ErrCodeConcurrentModification)
}

var (
	ErrContractNotFound = New(ErrCodeNotFound, "договор не найден")
	ErrPaymentNotFound  = New(ErrCodeNotFound, "платёж не найден")
	ErrUnauthorized     = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrInvalidParty     = New(ErrCodeInvalidParty, "пользователь не является стороной договора")
	ErrAlreadySigned    = New(ErrCodeAlreadySigned, "сторона уже подписала договор")
	ErrContractLocked   = New(ErrCodeLocked, "договор заблокирован для изменений")
)
