package performance

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/seenimoa/stocker/pkg/models"
)

// ErrEmptySeries is returned when matching against a series with no quotes.
var ErrEmptySeries = errors.New("empty quote series")

const day = 24 * time.Hour

// MatchResult is the quote found closest to a period's target date.
type MatchResult struct {
	Period        TargetPeriod
	Target        time.Time
	Quote         models.DailyQuote
	DeviationDays int
}

// Label returns the period name annotated with the day deviation, if any.
func (m MatchResult) Label() string {
	return labelFor(m.Period.Name, m.DeviationDays)
}

// FindClosest returns the quote whose date is nearest to target.
// On equal distance the first quote in the series wins.
func FindClosest(series []models.DailyQuote, target time.Time) (models.DailyQuote, error) {
	if len(series) == 0 {
		return models.DailyQuote{}, ErrEmptySeries
	}

	best := series[0]
	bestDist := absDuration(best.Date.Sub(target))
	for _, q := range series[1:] {
		if d := absDuration(q.Date.Sub(target)); d < bestDist {
			best, bestDist = q, d
		}
	}
	return best, nil
}

// Match finds the closest quote to the target of period p.
func Match(series []models.DailyQuote, p TargetPeriod, today time.Time) (MatchResult, error) {
	target := p.Target(today)
	q, err := FindClosest(series, target)
	if err != nil {
		return MatchResult{}, fmt.Errorf("match %s: %w", p.Name, err)
	}
	return MatchResult{
		Period:        p,
		Target:        target,
		Quote:         q,
		DeviationDays: DeviationDays(target, q.Date),
	}, nil
}

// DeviationDays is the signed whole-day offset of matched from target.
func DeviationDays(target, matched time.Time) int {
	return int(math.Round(float64(matched.Sub(target)) / float64(day)))
}

// Label formats periodName with the deviation between target and matched.
func Label(periodName string, target, matched time.Time) string {
	return labelFor(periodName, DeviationDays(target, matched))
}

func labelFor(name string, deviation int) string {
	switch {
	case deviation > 0:
		return fmt.Sprintf("%s + %d days", name, deviation)
	case deviation < 0:
		return fmt.Sprintf("%s - %d days", name, -deviation)
	default:
		return name
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
