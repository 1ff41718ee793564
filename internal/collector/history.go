package collector

import "time"

const (
	historyStep      = 5 * time.Minute
	historyPointsDay = 288
	historyMaxDays   = 7
	historyMinDays   = 1
)

// ClampDays bounds a requested history window to 1..7 days.
func ClampDays(days int) int {
	if days < historyMinDays {
		return historyMinDays
	}
	if days > historyMaxDays {
		return historyMaxDays
	}
	return days
}

// SyntheticHistory fabricates a series of 5-minute points ending at now,
// oldest first. Values are a fixed function of the point index. No metrics
// are stored, so this is all the history there is.
func SyntheticHistory(now time.Time, days int) History {
	n := historyPointsDay * ClampDays(days)
	end := now.Unix()
	step := int64(historyStep / time.Second)

	points := make([]HistoryPoint, n)
	for i := 0; i < n; i++ {
		// i counts back from now; fill from the end so the slice is oldest first.
		points[n-1-i] = HistoryPoint{
			Timestamp:   end - int64(i)*step,
			CPUUsage:    float64(30 + i%40),
			MemoryUsage: float64(45 + i%30),
			DiskUsage:   float64(35 + i%15),
			LoadAverage: 0.5 + float64(i%20)/10,
		}
	}

	return History{
		Metrics:       points,
		Alerts:        []HistoryAlert{},
		ServiceEvents: []ServiceEvent{},
		Synthetic:     true,
	}
}

// History returns the synthetic series for the last days.
func (c *Collector) History(days int) History {
	return SyntheticHistory(c.now(), days)
}
