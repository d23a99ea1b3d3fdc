package stats

import (
	"math"
	"sort"

	"github.com/verte-zerg/reelstats/internal/model"
)

// DurationCount is the number of records sharing one duration.
type DurationCount struct {
	Duration float64
	Count    int
}

// DurationFrequencies counts durations, most frequent first. Equal counts are
// ordered by ascending duration. NaN durations are ignored.
func DurationFrequencies(records []model.TitleRecord) []DurationCount {
	counts := make(map[float64]int, len(records))
	for _, rec := range records {
		if math.IsNaN(rec.Duration) {
			continue
		}
		counts[rec.Duration]++
	}
	items := make([]DurationCount, 0, len(counts))
	for d, n := range counts {
		items = append(items, DurationCount{Duration: d, Count: n})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return items[i].Duration < items[j].Duration
		}
		return items[i].Count > items[j].Count
	})
	return items
}

// TopDurations returns the n most frequent durations.
func TopDurations(records []model.TitleRecord, n int) []DurationCount {
	if n <= 0 || len(records) == 0 {
		return nil
	}
	items := DurationFrequencies(records)
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}
