// Package model defines shared data structures.
package model

import (
	"fmt"
	"time"
)

// TitleRecord is one row of the title catalog.
type TitleRecord struct {
	ShowID      string
	Kind        string
	Title       string
	ReleaseYear int
	Duration    float64
	Genre       string
}

// DecadeWindow is the half-open year range [Start, Start+10).
type DecadeWindow struct {
	Start int
}

// End returns the first year after the window.
func (w DecadeWindow) End() int {
	return w.Start + 10
}

// Contains reports whether year falls inside the window.
func (w DecadeWindow) Contains(year int) bool {
	return year >= w.Start && year < w.End()
}

// Label renders the window as "1990s".
func (w DecadeWindow) Label() string {
	return fmt.Sprintf("%ds", w.Start)
}

// FilterCriteria selects short titles of a genre.
type FilterCriteria struct {
	GenreSubstring       string
	MaxDurationExclusive float64
}

// StatsResult holds the statistics computed for one decade.
type StatsResult struct {
	Window          DecadeWindow
	Titles          int
	ModeDuration    float64
	ShortTitleCount int
}

// StatsConfig defines the settings for a stats run.
type StatsConfig struct {
	File        string
	Kind        string
	Decade      int
	Genre       string
	MaxDuration float64
	Top         int
	Format      string
}

// Window returns the decade window selected by the config.
func (c StatsConfig) Window() DecadeWindow {
	return DecadeWindow{Start: c.Decade}
}

// Criteria returns the short-title filter selected by the config.
func (c StatsConfig) Criteria() FilterCriteria {
	return FilterCriteria{
		GenreSubstring:       c.Genre,
		MaxDurationExclusive: c.MaxDuration,
	}
}

// Import describes a catalog import stored in the database.
type Import struct {
	ID         int64
	Source     string
	ImportedAt time.Time
	Rows       int
}

// DecadeCount is the number of stored titles per decade.
type DecadeCount struct {
	Window DecadeWindow
	Titles int
}
