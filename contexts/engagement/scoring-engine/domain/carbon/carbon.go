package carbon

import (
	"strings"

	domainerrors "greenloop/contexts/engagement/scoring-engine/domain/errors"
)

// Utility identifies a metered resource tracked by the engine.
type Utility string

const (
	UtilityElectricity Utility = "electricity"
	UtilityWater       Utility = "water"
	UtilityGas         Utility = "gas"
)

// Emission factors in kg CO2e per native unit. The values follow the
// published grid/supply averages the platform has always used: kWh for
// electricity, liters for water, cubic meters for gas.
const (
	factorElectricity = 0.5
	factorWater       = 0.0003
	factorGas         = 2.0
)

func ParseUtility(raw string) (Utility, bool) {
	switch Utility(strings.ToLower(strings.TrimSpace(raw))) {
	case UtilityElectricity:
		return UtilityElectricity, true
	case UtilityWater:
		return UtilityWater, true
	case UtilityGas:
		return UtilityGas, true
	default:
		return "", false
	}
}

// Unit returns the native billing unit readings are expressed in.
func (u Utility) Unit() string {
	switch u {
	case UtilityElectricity:
		return "kWh"
	case UtilityWater:
		return "liters"
	case UtilityGas:
		return "m3"
	default:
		return ""
	}
}

func factorFor(u Utility) (float64, bool) {
	switch u {
	case UtilityElectricity:
		return factorElectricity, true
	case UtilityWater:
		return factorWater, true
	case UtilityGas:
		return factorGas, true
	default:
		return 0, false
	}
}

// ComputeDelta converts a pair of consecutive readings into an estimated
// CO2e delta in kilograms. A reduction yields a positive delta, an
// increase a negative one; equal readings yield zero.
func ComputeDelta(utility Utility, previous, current float64) (float64, error) {
	if previous < 0 || current < 0 {
		return 0, domainerrors.ErrInvalidQuantity
	}
	factor, ok := factorFor(utility)
	if !ok {
		return 0, domainerrors.ErrUnknownUtility
	}
	return (previous - current) * factor, nil
}

// Impacts expresses a carbon quantity as everyday equivalents.
type Impacts struct {
	TreesPlanted           float64
	CarMilesAvoided        float64
	PlasticBottlesRecycled float64
	LEDBulbHours           float64
}

// Equivalence constants: a tree absorbs ~22 kg CO2 per year, a car emits
// ~0.404 kg per mile, a recycled bottle saves ~0.082 kg, an LED bulb
// draws ~0.0005 kg per hour of runtime.
func EquivalentImpacts(kg float64) Impacts {
	if kg < 0 {
		kg = 0
	}
	return Impacts{
		TreesPlanted:           round1(kg / 22),
		CarMilesAvoided:        round1(kg / 0.404),
		PlasticBottlesRecycled: round1(kg / 0.082),
		LEDBulbHours:           round1(kg / 0.0005),
	}
}

func round1(v float64) float64 {
	if v < 0 {
		return 0
	}
	return float64(int64(v*10+0.5)) / 10
}
