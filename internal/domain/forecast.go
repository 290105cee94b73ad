package domain

import (
	"slices"
	"time"
)

// Forecast window bounds, in days.
const (
	MinForecastDays = 1
	MaxForecastDays = 7
)

// ClampForecastDays limits days to [MinForecastDays, MaxForecastDays].
func ClampForecastDays(days int) int {
	return max(MinForecastDays, min(days, MaxForecastDays))
}

// GroupForecastByDay buckets forecast points by UTC calendar date over the
// window [today, today+days), where today is the UTC date of now. Every date in
// the window gets exactly one summary, in ascending order, whether or not any
// points fall on it. The input slice is not modified.
func GroupForecastByDay(points []ForecastPoint, days int, now time.Time) []ForecastDaySummary {
	days = ClampForecastDays(days)

	sorted := slices.Clone(points)
	slices.SortStableFunc(sorted, func(a, b ForecastPoint) int {
		return a.TimeTag.Compare(b.TimeTag)
	})

	today := DateOf(now)
	end := today.AddDays(days)

	byDate := make(map[Date][]ForecastPoint, days)
	for _, p := range sorted {
		d := DateOf(p.TimeTag)
		if d.Before(today) || !d.Before(end) {
			continue
		}
		p.GScale = KpToGScale(p.Kp)
		byDate[d] = append(byDate[d], p)
	}

	out := make([]ForecastDaySummary, 0, days)
	for i := range days {
		d := today.AddDays(i)
		pts := byDate[d]
		if pts == nil {
			pts = []ForecastPoint{}
		}
		kpMax := 0.0
		for j, p := range pts {
			if j == 0 || p.Kp > kpMax {
				kpMax = p.Kp
			}
		}
		out = append(out, ForecastDaySummary{
			Date:      d,
			KpMax:     kpMax,
			GScaleMax: KpToGScale(kpMax),
			Points:    pts,
		})
	}
	return out
}
