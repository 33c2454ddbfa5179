package reference

import (
	"crypto/rand"
	"fmt"
	"time"
)

// Алфавит случайной части номеров: заглавные буквы и цифры.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// randomPart возвращает n случайных символов из алфавита.
func randomPart(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand на поддерживаемых платформах не возвращает ошибку
		panic(fmt.Sprintf("reference: rand.Read: %v", err))
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(buf)
}

// Contract генерирует номер договора: PREFIX-YYYYMM-XXXXXX.
// Формат совместим с существующими записями, менять нельзя.
func Contract(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("200601"), randomPart(6))
}

// Payment генерирует номер платежа: PAY-<unix-seconds>-XXXXXXXX.
func Payment(now time.Time) string {
	return fmt.Sprintf("PAY-%d-%s", now.Unix(), randomPart(8))
}
