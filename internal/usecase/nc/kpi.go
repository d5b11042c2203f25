package nc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"fleetcheck/internal/bootstrap/logging"
	domainnc "fleetcheck/internal/domain/nc"
	"fleetcheck/internal/errs"
	"fleetcheck/internal/ports"
)

// ReduceKPIs loads the scoped batch and runs the pure reducer over it.
// The unfiltered report is served from cache when available; filtered
// queries always hit the store.
func (s *Service) ReduceKPIs(ctx context.Context, query KPIQuery) (domainnc.KPIReport, error) {
	if ctx == nil {
		return domainnc.KPIReport{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return domainnc.KPIReport{}, errs.Wrap(err, "check context")
	}
	if s.ncRepo == nil {
		return domainnc.KPIReport{}, errors.New("service is not fully wired")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "usecase.nc"))

	cacheable := query == KPIQuery{}
	if cacheable {
		if report, ok := s.cachedKPIReport(logCtx); ok {
			return report, nil
		}
	}

	records, err := s.ncRepo.ListNCs(ctx, ports.KPIFilter{
		MachineID:     query.MachineID,
		CreatedAfter:  query.From,
		CreatedBefore: query.To,
	})
	if err != nil {
		return domainnc.KPIReport{}, errs.Wrap(err, "load kpi batch")
	}

	report := domainnc.ReduceKPIs(records, query.Month)

	if cacheable {
		s.storeKPIReport(logCtx, report)
	}

	logging.Info(logCtx, "kpis reduced",
		slog.Int("records", report.Total),
		slog.String("month", query.Month),
	)

	return report, nil
}

func (s *Service) cachedKPIReport(ctx context.Context) (domainnc.KPIReport, bool) {
	if s.cache == nil {
		return domainnc.KPIReport{}, false
	}
	value, found, err := s.cache.Get(ctx, cacheKeyKPIReport)
	if err != nil {
		logging.Warn(ctx, "kpi cache read failed", slog.Any("err", errs.Loggable(err)))
		return domainnc.KPIReport{}, false
	}
	if !found {
		return domainnc.KPIReport{}, false
	}
	var report domainnc.KPIReport
	if err := json.Unmarshal([]byte(value), &report); err != nil {
		logging.Warn(ctx, "kpi cache entry unreadable, recomputing", slog.Any("err", errs.Loggable(err)))
		return domainnc.KPIReport{}, false
	}
	return report, true
}

func (s *Service) storeKPIReport(ctx context.Context, report domainnc.KPIReport) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(report)
	if err != nil {
		logging.Warn(ctx, "kpi report marshal failed", slog.Any("err", errs.Loggable(err)))
		return
	}
	if err := s.cache.Set(ctx, cacheKeyKPIReport, string(raw), 0); err != nil {
		logging.Warn(ctx, "kpi cache write failed", slog.Any("err", errs.Loggable(err)))
	}
}
