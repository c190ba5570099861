package carbon

import (
	"errors"
	"testing"

	domainerrors "greenloop/contexts/engagement/scoring-engine/domain/errors"
)

func TestComputeDeltaReduction(t *testing.T) {
	delta, err := ComputeDelta(UtilityElectricity, 100, 80)
	if err != nil {
		t.Fatalf("compute delta failed: %v", err)
	}
	if delta != 10 {
		t.Fatalf("expected 10 kg for a 20 kWh reduction, got %v", delta)
	}
}

func TestComputeDeltaIncreaseIsNegative(t *testing.T) {
	delta, err := ComputeDelta(UtilityGas, 40, 50)
	if err != nil {
		t.Fatalf("compute delta failed: %v", err)
	}
	if delta != -20 {
		t.Fatalf("expected -20 kg for a 10 m3 increase, got %v", delta)
	}
}

func TestComputeDeltaEqualReadingsIsZero(t *testing.T) {
	delta, err := ComputeDelta(UtilityWater, 3000, 3000)
	if err != nil {
		t.Fatalf("compute delta failed: %v", err)
	}
	if delta != 0 {
		t.Fatalf("expected zero delta, got %v", delta)
	}
}

func TestComputeDeltaRejectsNegativeReading(t *testing.T) {
	if _, err := ComputeDelta(UtilityElectricity, -1, 10); !errors.Is(err, domainerrors.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestComputeDeltaUnknownUtility(t *testing.T) {
	if _, err := ComputeDelta(Utility("coal"), 10, 5); !errors.Is(err, domainerrors.ErrUnknownUtility) {
		t.Fatalf("expected ErrUnknownUtility, got %v", err)
	}
}

func TestParseUtilityNormalizes(t *testing.T) {
	utility, ok := ParseUtility("  Electricity ")
	if !ok || utility != UtilityElectricity {
		t.Fatalf("expected electricity, got %q ok=%v", utility, ok)
	}
	if _, ok := ParseUtility("steam"); ok {
		t.Fatalf("expected steam to be rejected")
	}
}

func TestEquivalentImpacts(t *testing.T) {
	impacts := EquivalentImpacts(220)
	if impacts.TreesPlanted != 10 {
		t.Fatalf("expected 10 trees for 220 kg, got %v", impacts.TreesPlanted)
	}
	if impacts.CarMilesAvoided <= 0 || impacts.PlasticBottlesRecycled <= 0 || impacts.LEDBulbHours <= 0 {
		t.Fatalf("expected positive equivalents, got %+v", impacts)
	}

	zero := EquivalentImpacts(-5)
	if zero.TreesPlanted != 0 || zero.CarMilesAvoided != 0 {
		t.Fatalf("expected zeroed impacts for negative input, got %+v", zero)
	}
}
