package service

import "fmt"

const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeConflict     = "CONFLICT"
	CodeBadRequest   = "BAD_REQUEST"
	CodeInternal     = "INTERNAL"
)

// BusinessError - ошибка бизнес-логики с кодом для маппинга в HTTP
type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func NewNotFound(resource, id string) *BusinessError {
	return &BusinessError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %s не найден(а)", resource, id),
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func NewForbidden(message string) *BusinessError {
	return &BusinessError{
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewUnauthorized(message string) *BusinessError {
	return &BusinessError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewBadRequest(message string) *BusinessError {
	return &BusinessError{
		Code:    CodeBadRequest,
		Message: message,
	}
}

func NewConflict(message string) *BusinessError {
	return &BusinessError{
		Code:    CodeConflict,
		Message: message,
	}
}

func NewValidationError(field, reason string) *BusinessError {
	return &BusinessError{
		Code:    CodeValidation,
		Message: fmt.Sprintf("Неверное значение поля '%s': %s", field, reason),
		Details: map[string]any{
			"validation_errors": map[string]string{field: reason},
		},
	}
}

// NewValidationErrors собирает карту поле->сообщение целиком
func NewValidationErrors(errors map[string]string) *BusinessError {
	return &BusinessError{
		Code:    CodeValidation,
		Message: "Ошибка валидации",
		Details: map[string]any{
			"validation_errors": errors,
		},
	}
}

func NewInternal(message string, err error) *BusinessError {
	return &BusinessError{
		Code:    CodeInternal,
		Message: message,
		Err:     err,
	}
}
