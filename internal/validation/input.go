package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MaxAmount          = int64(100_000_000_000) // 100 миллиардов FCFA
	MaxDurationMonths  = 120
	MinReasonLength    = 3
	MaxReasonLength    = 1000
	MinSignatureLength = 16
	MaxSignatureLength = 256
	MaxEscrowHoldHours = 8760 // год
)

// ValidateAmount проверяет денежную сумму в FCFA.
func ValidateAmount(fieldName string, value int64) error {
	if value < 0 {
		return fmt.Errorf("%s не может быть отрицательной", fieldName)
	}
	if value > MaxAmount {
		return fmt.Errorf("%s превышает допустимый максимум", fieldName)
	}
	return nil
}

// ValidateDurationMonths проверяет срок договора в месяцах.
func ValidateDurationMonths(months int) error {
	if months < 0 {
		return fmt.Errorf("срок договора не может быть отрицательным")
	}
	if months > MaxDurationMonths {
		return fmt.Errorf("срок договора не может превышать %d месяцев", MaxDurationMonths)
	}
	return nil
}

// ValidateEscrowHoldHours проверяет срок удержания escrow в часах.
// Ноль и отрицательные значения означают дефолт конфигурации и
// валидируются на уровне сервиса отдельно.
func ValidateEscrowHoldHours(hours int) error {
	if hours > MaxEscrowHoldHours {
		return fmt.Errorf("срок удержания не может превышать %d часов", MaxEscrowHoldHours)
	}
	return nil
}

// ValidateReason проверяет причину отмены или возврата.
func ValidateReason(reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fmt.Errorf("причина обязательна")
	}
	length := utf8.RuneCountInString(reason)
	if length < MinReasonLength {
		return fmt.Errorf("причина должна быть не менее %d символов", MinReasonLength)
	}
	if length > MaxReasonLength {
		return fmt.Errorf("причина должна быть не более %d символов", MaxReasonLength)
	}
	return nil
}

// ValidateSignatureHash проверяет хэш электронной подписи.
func ValidateSignatureHash(hash string) error {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return fmt.Errorf("хэш подписи обязателен")
	}
	if len(hash) < MinSignatureLength || len(hash) > MaxSignatureLength {
		return fmt.Errorf("хэш подписи должен быть от %d до %d символов", MinSignatureLength, MaxSignatureLength)
	}
	for _, r := range hash {
		isHex := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
		if !isHex {
			return fmt.Errorf("хэш подписи должен быть в hex формате")
		}
	}
	return nil
}
