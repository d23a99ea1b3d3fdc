package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/verte-zerg/reelstats/internal/model"
	"github.com/verte-zerg/reelstats/internal/stats"
)

const (
	formatText   = "text"
	formatJSON   = "json"
	formatPretty = "pretty"
)

type jsonReport struct {
	Decade          string         `json:"decade"`
	StartYear       int            `json:"startYear"`
	EndYear         int            `json:"endYear"`
	Kind            string         `json:"kind,omitempty"`
	CatalogTitles   int            `json:"catalogTitles"`
	Titles          int            `json:"titles"`
	ModeDuration    float64        `json:"modeDuration"`
	ShortTitleCount int            `json:"shortTitleCount"`
	Criteria        jsonCriteria   `json:"criteria"`
	TopDurations    []jsonDuration `json:"topDurations,omitempty"`
}

type jsonCriteria struct {
	Genre       string  `json:"genre"`
	MaxDuration float64 `json:"maxDurationExclusive"`
}

type jsonDuration struct {
	Duration float64 `json:"duration"`
	Titles   int     `json:"titles"`
}

func writeReport(w io.Writer, report stats.Report, cfg model.StatsConfig) error {
	switch cfg.Format {
	case formatJSON, formatPretty:
		return writeJSON(w, toJSONReport(report, cfg), cfg.Format == formatPretty)
	default:
		useColor := shouldUseColor(w)
		if err := stats.RenderResult(w, report.Result, cfg.Criteria(), useColor); err != nil {
			return err
		}
		if cfg.Top <= 0 {
			return nil
		}
		if _, err := fmt.Fprintln(w, ""); err != nil {
			return err
		}
		return stats.RenderFrequencies(w, report.Top, report.Result.Titles, useColor)
	}
}

func toJSONReport(report stats.Report, cfg model.StatsConfig) jsonReport {
	res := report.Result
	out := jsonReport{
		Decade:          res.Window.Label(),
		StartYear:       res.Window.Start,
		EndYear:         res.Window.End(),
		Kind:            cfg.Kind,
		CatalogTitles:   report.Catalog,
		Titles:          res.Titles,
		ModeDuration:    res.ModeDuration,
		ShortTitleCount: res.ShortTitleCount,
		Criteria: jsonCriteria{
			Genre:       cfg.Genre,
			MaxDuration: cfg.MaxDuration,
		},
	}
	for _, d := range report.Top {
		out.TopDurations = append(out.TopDurations, jsonDuration{Duration: d.Duration, Titles: d.Count})
	}
	return out
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	return nil
}

func shouldUseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "", "info":
		lvl = slog.LevelInfo
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("--log-level must be one of debug, info, warn, error")
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
