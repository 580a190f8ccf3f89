package tdee

import (
	"fmt"
	"io"

	"github.com/saadjs/tdee-cli/internal/estimator"
	"github.com/saadjs/tdee-cli/internal/listview"
	"github.com/saadjs/tdee-cli/internal/model"
	"github.com/saadjs/tdee-cli/internal/period"
	"github.com/saadjs/tdee-cli/internal/service"
)

func renderView(out io.Writer, ctrl *listview.Controller, prefs model.Preferences) error {
	l := ctrl.Snapshot()
	if l == nil {
		fmt.Fprintln(out, "No data yet")
		return nil
	}
	fmt.Fprintf(out, "Log %d: %s (%s)\n", l.ID, l.Title, goalLabel(string(l.Goal)))
	if err := renderEstimate(out, ctrl.Estimate(), prefs); err != nil {
		return err
	}

	periods := ctrl.Periods()
	if ctrl.CurrentGranularity() == period.GranularityDay {
		var entries []model.DayEntry
		if len(periods) > 0 {
			entries = periods[0].Entries
		}
		if err := writeDayRows(out, entries, prefs); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "START\tEND\tDAYS\tAVG_WEIGHT_%s\tAVG_ENERGY_%s\n", prefs.WeightUnit, prefs.EnergyUnit)
		for _, p := range periods {
			weight, energy, err := periodAverages(p, prefs)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s\t%s\t%d\t%s\t%s\n", service.FormatDay(p.Start), service.FormatDay(p.End), len(p.Entries), formatOptional(weight, 2), formatOptional(energy, 0))
		}
	}
	fmt.Fprintf(out, "Next day to log: %s\n", service.FormatDay(ctrl.AutoPromptDate()))
	return nil
}

func renderEstimate(out io.Writer, p *estimator.Payload, prefs model.Preferences) error {
	if p == nil {
		return nil
	}
	latest := "-"
	if !p.LatestDate.IsZero() {
		latest = service.FormatDay(p.LatestDate)
	}
	if p.Estimate <= 0 {
		fmt.Fprintf(out, "Estimate: unavailable (%s)\tlatest %s\n", p.Confidence, latest)
		return nil
	}
	v, err := service.EnergyFromKcal(p.Estimate, string(prefs.EnergyUnit))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Estimate: %.0f %s/day (%s)\tlatest %s\n", v, prefs.EnergyUnit, p.Confidence, latest)
	return nil
}

// periodAverages averages the days that have a value; nil when none do.
func periodAverages(p period.Period, prefs model.Preferences) (*float64, *float64, error) {
	var wSum, eSum float64
	var wN, eN int
	for _, e := range p.Entries {
		if e.WeightKg != nil {
			wSum += *e.WeightKg
			wN++
		}
		if e.Calories != nil {
			eSum += float64(*e.Calories)
			eN++
		}
	}
	var weight, energy *float64
	if wN > 0 {
		w, err := service.WeightFromKg(wSum/float64(wN), string(prefs.WeightUnit))
		if err != nil {
			return nil, nil, err
		}
		weight = &w
	}
	if eN > 0 {
		v, err := service.EnergyFromKcal(eSum/float64(eN), string(prefs.EnergyUnit))
		if err != nil {
			return nil, nil, err
		}
		energy = &v
	}
	return weight, energy, nil
}
