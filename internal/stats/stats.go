package stats

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/reelstats/internal/model"
)

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
)

// FormatDuration prints whole minutes without decimals.
func FormatDuration(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ShortTitleLabel describes the short-title query, e.g. "Short Action titles under 90 min".
func ShortTitleLabel(criteria model.FilterCriteria) string {
	genre := criteria.GenreSubstring
	if genre == "" {
		genre = "any-genre"
	}
	return fmt.Sprintf("Short %s titles under %s min", genre, FormatDuration(criteria.MaxDurationExclusive))
}

// RenderResult prints the decade statistics.
func RenderResult(w io.Writer, res model.StatsResult, criteria model.FilterCriteria, useColor bool) error {
	label := res.Window.Label()
	lines := [][2]string{
		{fmt.Sprintf("Titles (%s)", label), strconv.Itoa(res.Titles)},
		{fmt.Sprintf("Most frequent duration (%s)", label), FormatDuration(res.ModeDuration)},
		{fmt.Sprintf("%s (%s)", ShortTitleLabel(criteria), label), strconv.Itoa(res.ShortTitleCount)},
	}
	for _, line := range lines {
		key, value := line[0]+":", line[1]
		if useColor {
			key = labelStyle.Render(key)
			value = valueStyle.Render(value)
		}
		if _, err := fmt.Fprintf(w, "%s %s\n", key, value); err != nil {
			return err
		}
	}
	return nil
}

// RenderFrequencies prints a duration frequency table.
func RenderFrequencies(w io.Writer, freqs []DurationCount, total int, useColor bool) error {
	if len(freqs) == 0 {
		_, err := fmt.Fprintln(w, "No durations found.")
		return err
	}
	if err := renderHeading(w, "Top Durations", useColor); err != nil {
		return err
	}
	headers := []string{"Duration", "Titles", "Share"}
	rows := make([][]string, 0, len(freqs))
	for _, f := range freqs {
		share := 0.0
		if total > 0 {
			share = float64(f.Count) / float64(total)
		}
		rows = append(rows, []string{
			FormatDuration(f.Duration),
			strconv.Itoa(f.Count),
			fmt.Sprintf("%.2f%%", share*100),
		})
	}
	return writeLines(w, formatTable(headers, rows, map[int]bool{0: true, 1: true, 2: true}))
}

// RenderDecadeTable prints one row of statistics per decade.
func RenderDecadeTable(w io.Writer, results []model.StatsResult, criteria model.FilterCriteria, useColor bool) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No titles found.")
		return err
	}
	if err := renderHeading(w, "Per-Decade", useColor); err != nil {
		return err
	}
	headers := []string{"Decade", "Titles", "Mode (min)", ShortTitleLabel(criteria)}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.Window.Label(),
			strconv.Itoa(r.Titles),
			FormatDuration(r.ModeDuration),
			strconv.Itoa(r.ShortTitleCount),
		})
	}
	return writeLines(w, formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true}))
}

func renderHeading(w io.Writer, title string, useColor bool) error {
	if useColor {
		title = titleStyle.Render(title)
	}
	_, err := fmt.Fprintln(w, title)
	return err
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}
