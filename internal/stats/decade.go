// Package stats contains statistics calculations and reporting.
package stats

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/verte-zerg/reelstats/internal/model"
)

// ErrEmptyInput is returned when a statistic is requested over zero records.
var ErrEmptyInput = errors.New("empty input")

// FilterByDecade returns the records released inside the window, in input order.
func FilterByDecade(records []model.TitleRecord, window model.DecadeWindow) []model.TitleRecord {
	out := make([]model.TitleRecord, 0, len(records))
	for _, rec := range records {
		if window.Contains(rec.ReleaseYear) {
			out = append(out, rec)
		}
	}
	return out
}

// ModeDuration returns the most frequent duration. Ties resolve to the smallest value.
func ModeDuration(records []model.TitleRecord) (float64, error) {
	freqs := DurationFrequencies(records)
	if len(freqs) == 0 {
		return 0, ErrEmptyInput
	}
	return freqs[0].Duration, nil
}

// CountShortGenreTitles counts records whose genre contains the substring
// and whose duration is below the threshold.
func CountShortGenreTitles(records []model.TitleRecord, criteria model.FilterCriteria) int {
	count := 0
	for _, rec := range records {
		if !strings.Contains(rec.Genre, criteria.GenreSubstring) {
			continue
		}
		if rec.Duration < criteria.MaxDurationExclusive {
			count++
		}
	}
	return count
}

// ComputeDecadeStats filters records to the window and computes the mode
// duration and short-title count over that subset.
func ComputeDecadeStats(records []model.TitleRecord, window model.DecadeWindow, criteria model.FilterCriteria) (model.StatsResult, error) {
	inWindow := FilterByDecade(records, window)
	mode, err := ModeDuration(inWindow)
	if err != nil {
		return model.StatsResult{}, fmt.Errorf("no titles in the %s: %w", window.Label(), err)
	}
	return model.StatsResult{
		Window:          window,
		Titles:          len(inWindow),
		ModeDuration:    mode,
		ShortTitleCount: CountShortGenreTitles(inWindow, criteria),
	}, nil
}

// Decades returns the ten-year windows that contain at least one record, ascending.
func Decades(records []model.TitleRecord) []model.DecadeWindow {
	seen := map[int]struct{}{}
	starts := make([]int, 0)
	for _, rec := range records {
		start := decadeStart(rec.ReleaseYear)
		if _, ok := seen[start]; ok {
			continue
		}
		seen[start] = struct{}{}
		starts = append(starts, start)
	}
	sort.Ints(starts)
	out := make([]model.DecadeWindow, len(starts))
	for i, start := range starts {
		out[i] = model.DecadeWindow{Start: start}
	}
	return out
}

// ComputeAllDecades runs ComputeDecadeStats for every decade present in records.
func ComputeAllDecades(records []model.TitleRecord, criteria model.FilterCriteria) ([]model.StatsResult, error) {
	windows := Decades(records)
	results := make([]model.StatsResult, 0, len(windows))
	for _, window := range windows {
		res, err := ComputeDecadeStats(records, window, criteria)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

func decadeStart(year int) int {
	start := year - year%10
	if year < 0 && year%10 != 0 {
		start -= 10
	}
	return start
}
