package stats

import (
	"context"
	"fmt"

	"github.com/verte-zerg/reelstats/internal/model"
)

// TitleSource lists catalog titles, optionally restricted to one kind.
type TitleSource interface {
	ListTitles(ctx context.Context, kind string) ([]model.TitleRecord, error)
}

// Records is an in-memory TitleSource.
type Records []model.TitleRecord

// ListTitles implements TitleSource.
func (r Records) ListTitles(_ context.Context, kind string) ([]model.TitleRecord, error) {
	if kind == "" {
		return r, nil
	}
	out := make([]model.TitleRecord, 0, len(r))
	for _, rec := range r {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Catalog int
	Result  model.StatsResult
	Top     []DurationCount
}

// BuildReport loads titles and computes the statistics for the configured decade.
func BuildReport(ctx context.Context, src TitleSource, cfg model.StatsConfig) (Report, error) {
	records, err := src.ListTitles(ctx, cfg.Kind)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list titles: %w", err)
	}
	criteria := cfg.Criteria()
	res, err := ComputeDecadeStats(records, cfg.Window(), criteria)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Catalog: len(records),
		Result:  res,
		Top:     TopDurations(FilterByDecade(records, cfg.Window()), cfg.Top),
	}, nil
}
