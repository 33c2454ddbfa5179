package reference_test

import (
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/immo-backend/internal/pkg/reference"
)

func TestContract_Format(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

	ref := reference.Contract("LOC", now)
	assert.Regexp(t, regexp.MustCompile(`^LOC-202603-[A-Z0-9]{6}$`), ref)
}

func TestContract_MonthRollover(t *testing.T) {
	// Январь форматируется с ведущим нулём
	now := time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)

	ref := reference.Contract("VTE", now)
	assert.Regexp(t, regexp.MustCompile(`^VTE-202701-[A-Z0-9]{6}$`), ref)
}

func TestContract_Uniqueness(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		ref := reference.Contract("LOC", now)
		assert.False(t, seen[ref], "повторный номер %s", ref)
		seen[ref] = true
	}
}

func TestPayment_Format(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

	ref := reference.Payment(now)
	expected := fmt.Sprintf(`^PAY-%d-[A-Z0-9]{8}$`, now.Unix())
	assert.Regexp(t, regexp.MustCompile(expected), ref)
}

func TestPayment_Uniqueness(t *testing.T) {
	// Одна и та же секунда не должна давать коллизий
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		ref := reference.Payment(now)
		assert.False(t, seen[ref], "повторный номер %s", ref)
		seen[ref] = true
	}
}
