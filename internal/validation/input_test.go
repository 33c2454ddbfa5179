package validation_test

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/immo-backend/internal/validation"
)

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, validation.ValidateAmount("сумма", 0))
	assert.NoError(t, validation.ValidateAmount("сумма", 2_500_000))
	assert.NoError(t, validation.ValidateAmount("сумма", validation.MaxAmount))

	assert.Error(t, validation.ValidateAmount("сумма", -1))
	assert.Error(t, validation.ValidateAmount("сумма", validation.MaxAmount+1))
}

func TestValidateDurationMonths(t *testing.T) {
	assert.NoError(t, validation.ValidateDurationMonths(0))
	assert.NoError(t, validation.ValidateDurationMonths(12))
	assert.NoError(t, validation.ValidateDurationMonths(validation.MaxDurationMonths))

	assert.Error(t, validation.ValidateDurationMonths(-1))
	assert.Error(t, validation.ValidateDurationMonths(validation.MaxDurationMonths+1))
}

func TestValidateEscrowHoldHours(t *testing.T) {
	assert.NoError(t, validation.ValidateEscrowHoldHours(0))
	assert.NoError(t, validation.ValidateEscrowHoldHours(48))
	assert.NoError(t, validation.ValidateEscrowHoldHours(validation.MaxEscrowHoldHours))

	assert.Error(t, validation.ValidateEscrowHoldHours(validation.MaxEscrowHoldHours+1))
	assert.Error(t, validation.ValidateEscrowHoldHours(math.MaxInt))
}

func TestValidateReason(t *testing.T) {
	assert.NoError(t, validation.ValidateReason("передумал арендовать"))

	assert.Error(t, validation.ValidateReason(""))
	assert.Error(t, validation.ValidateReason("   "))
	assert.Error(t, validation.ValidateReason("ок"))
	assert.Error(t, validation.ValidateReason(strings.Repeat("x", validation.MaxReasonLength+1)))
}

func TestValidateSignatureHash(t *testing.T) {
	assert.NoError(t, validation.ValidateSignatureHash(strings.Repeat("ab12", 16)))
	assert.NoError(t, validation.ValidateSignatureHash(strings.Repeat("AB", 8)))

	assert.Error(t, validation.ValidateSignatureHash(""))
	assert.Error(t, validation.ValidateSignatureHash("abc"))
	assert.Error(t, validation.ValidateSignatureHash(strings.Repeat("g", 32)), "не hex")
	assert.Error(t, validation.ValidateSignatureHash(strings.Repeat("a", validation.MaxSignatureLength+2)))
}
