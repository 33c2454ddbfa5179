package valueobject

import (
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/immo-backend/internal/pkg/apperror"
)

// Ставки комиссии площадки по типам договоров. Суммы в FCFA, без
// дробной части, поэтому считаем через decimal и отбрасываем сантимы:
// комиссия попадает в юридически значимый итог платежа.
var commissionRates = map[ContractType]decimal.Decimal{
	// 50% месячной арендной платы
	ContractTypeLocation:       decimal.RequireFromString("0.5"),
	ContractTypeBailCommercial: decimal.RequireFromString("0.5"),
	// 1% цены участка
	ContractTypeVenteTerrain: decimal.RequireFromString("0.01"),
	// 10% месячной платы за управление
	ContractTypeMandatGestion: decimal.RequireFromString("0.1"),
	// 5% суммы залога
	ContractTypeAttestationCaution: decimal.RequireFromString("0.05"),
}

// CalculateCommission возвращает комиссию площадки для базовой суммы
// (месячная арендная плата либо цена сделки) в целых FCFA. Расчёт
// детерминированный: никакой плавающей точки.
func CalculateCommission(amount int64, contractType ContractType) (int64, error) {
	if amount < 0 {
		return 0, apperror.New(apperror.ErrCodeValidation, "сумма не может быть отрицательной")
	}

	rate, ok := commissionRates[contractType]
	if !ok {
		return 0, apperror.New(apperror.ErrCodeValidation, "некорректный тип договора")
	}

	commission := decimal.NewFromInt(amount).Mul(rate)
	return commission.Floor().IntPart(), nil
}
