package valueobject

import "github.com/ignatzorin/immo-backend/internal/pkg/apperror"

// ContractType - тип договора. Слаги унаследованы от существующих
// записей и мобильного клиента, менять нельзя.
type ContractType string

const (
	// Жилая аренда
	ContractTypeLocation ContractType = "location"
	// Коммерческая аренда
	ContractTypeBailCommercial ContractType = "bail_commercial"
	// Предварительный договор купли-продажи участка
	ContractTypeVenteTerrain ContractType = "vente_terrain"
	// Мандат на управление недвижимостью
	ContractTypeMandatGestion ContractType = "mandat_gestion"
	// Аттестация залога
	ContractTypeAttestationCaution ContractType = "attestation_caution"
)

func (t ContractType) IsValid() bool {
	switch t {
	case ContractTypeLocation, ContractTypeBailCommercial, ContractTypeVenteTerrain, ContractTypeMandatGestion, ContractTypeAttestationCaution:
		return true
	}
	return false
}

// ReferencePrefix возвращает префикс для номера договора этого типа.
func (t ContractType) ReferencePrefix() string {
	switch t {
	case ContractTypeLocation:
		return "LOC"
	case ContractTypeBailCommercial:
		return "BAL"
	case ContractTypeVenteTerrain:
		return "VTE"
	case ContractTypeMandatGestion:
		return "MDT"
	case ContractTypeAttestationCaution:
		return "CAU"
	default:
		return "CTR"
	}
}

func NewContractType(t string) (ContractType, error) {
	ct := ContractType(t)
	if !ct.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный тип договора")
	}
	return ct, nil
}
