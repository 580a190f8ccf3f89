package model

import "time"

type GoalCategory string

const (
	GoalUnset      GoalCategory = ""
	GoalFatLoss    GoalCategory = "fat-loss"
	GoalMuscleGain GoalCategory = "muscle-gain"
	GoalMaintain   GoalCategory = "maintain"
)

func (g GoalCategory) Valid() bool {
	switch g {
	case GoalUnset, GoalFatLoss, GoalMuscleGain, GoalMaintain:
		return true
	}
	return false
}

// LogSummary is a nutrition log. Summary fields and entries are stored and
// delivered separately; Entries carries no meaningful order.
type LogSummary struct {
	ID       int64        `json:"id" yaml:"id"`
	Title    string       `json:"title" yaml:"title"`
	Goal     GoalCategory `json:"goal,omitempty" yaml:"goal,omitempty"`
	LastEdit time.Time    `json:"last_edit" yaml:"last_edit"`
	Entries  []DayEntry   `json:"entries" yaml:"entries"`
}

// DayEntry holds one calendar day of measurements for a log. Date is the
// civil day at UTC midnight.
type DayEntry struct {
	ID        int64      `json:"id" yaml:"id"`
	LogID     int64      `json:"log_id" yaml:"log_id"`
	Date      time.Time  `json:"date" yaml:"date"`
	WeightKg  *float64   `json:"weight_kg,omitempty" yaml:"weight_kg,omitempty"`
	Calories  *int       `json:"calories,omitempty" yaml:"calories,omitempty"`
	Bounds    *DayBounds `json:"bounds,omitempty" yaml:"bounds,omitempty"`
	Notes     string     `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" yaml:"updated_at"`
}

type DayBounds struct {
	MinCalories    *int     `json:"min_calories,omitempty" yaml:"min_calories,omitempty"`
	MaxCalories    *int     `json:"max_calories,omitempty" yaml:"max_calories,omitempty"`
	TargetWeightKg *float64 `json:"target_weight_kg,omitempty" yaml:"target_weight_kg,omitempty"`
}

func (b *DayBounds) Empty() bool {
	return b == nil || (b.MinCalories == nil && b.MaxCalories == nil && b.TargetWeightKg == nil)
}

type WeightUnit string

const (
	WeightKg WeightUnit = "kg"
	WeightLb WeightUnit = "lb"
)

type EnergyUnit string

const (
	EnergyKcal EnergyUnit = "kcal"
	EnergyKJ   EnergyUnit = "kj"
)

// Preferences are the display settings shared by the list view and the
// entry commands.
type Preferences struct {
	PeriodDays int        `json:"period_days" yaml:"period_days"`
	Order      string     `json:"order" yaml:"order"`
	WeightUnit WeightUnit `json:"weight_unit" yaml:"weight_unit"`
	EnergyUnit EnergyUnit `json:"energy_unit" yaml:"energy_unit"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		PeriodDays: 7,
		Order:      "desc",
		WeightUnit: WeightKg,
		EnergyUnit: EnergyKcal,
	}
}
