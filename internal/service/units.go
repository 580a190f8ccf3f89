package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/saadjs/tdee-cli/internal/model"
)

const (
	kgPerLb   = 0.45359237
	kjPerKcal = 4.184
)

func ParseWeightUnit(unit string) (model.WeightUnit, error) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "", "kg", "kgs":
		return model.WeightKg, nil
	case "lb", "lbs":
		return model.WeightLb, nil
	}
	return "", fmt.Errorf("invalid weight unit %q (use kg or lb)", unit)
}

func ParseEnergyUnit(unit string) (model.EnergyUnit, error) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "", "kcal", "cal":
		return model.EnergyKcal, nil
	case "kj":
		return model.EnergyKJ, nil
	}
	return "", fmt.Errorf("invalid energy unit %q (use kcal or kj)", unit)
}

func ConvertWeightToKg(value float64, unit string) (float64, error) {
	if value <= 0 {
		return 0, fmt.Errorf("weight must be > 0")
	}
	u, err := ParseWeightUnit(unit)
	if err != nil {
		return 0, err
	}
	if u == model.WeightLb {
		return value * kgPerLb, nil
	}
	return value, nil
}

func WeightFromKg(weightKg float64, unit string) (float64, error) {
	u, err := ParseWeightUnit(unit)
	if err != nil {
		return 0, err
	}
	if u == model.WeightLb {
		return weightKg / kgPerLb, nil
	}
	return weightKg, nil
}

// EnergyToKcal converts an intake value to whole kilocalories.
func EnergyToKcal(value float64, unit string) (int, error) {
	if value < 0 {
		return 0, fmt.Errorf("calories must be >= 0")
	}
	u, err := ParseEnergyUnit(unit)
	if err != nil {
		return 0, err
	}
	if u == model.EnergyKJ {
		value = value / kjPerKcal
	}
	return int(math.Round(value)), nil
}

func EnergyFromKcal(kcal float64, unit string) (float64, error) {
	u, err := ParseEnergyUnit(unit)
	if err != nil {
		return 0, err
	}
	if u == model.EnergyKJ {
		return kcal * kjPerKcal, nil
	}
	return kcal, nil
}
