package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// formatTable lays out rows in aligned columns with a dashed rule under the headers.
func formatTable(headers []string, rows [][]string, alignRight map[int]bool) []string {
	widths := columnWidths(headers, rows)
	if len(widths) == 0 {
		return nil
	}

	lines := make([]string, 0, len(rows)+2)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, alignRight))
		rule := make([]string, len(widths))
		for i, w := range widths {
			rule[i] = strings.Repeat("-", w)
		}
		lines = append(lines, strings.Join(rule, " "))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, alignRight))
	}
	return lines
}

func columnWidths(headers []string, rows [][]string) []int {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	widths := make([]int, colCount)
	measure := func(row []string) {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(headers)
	for _, row := range rows {
		measure(row)
	}
	return widths
}

func formatRow(row []string, widths []int, alignRight map[int]bool) string {
	cells := make([]string, len(widths))
	for i, width := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		cells[i] = padCell(cell, width, alignRight[i])
	}
	return strings.TrimRight(strings.Join(cells, " "), " ")
}

func padCell(value string, width int, right bool) string {
	if right {
		return runewidth.FillLeft(value, width)
	}
	return runewidth.FillRight(value, width)
}
