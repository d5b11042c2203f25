package nc

import (
	"context"
	"log/slog"

	"fleetcheck/internal/bootstrap/logging"
	"fleetcheck/internal/errs"
)

// cacheKeyKPIReport holds the rendered unfiltered KPI report. The report is
// a pure function of the stored records, so write-triggered invalidation
// keeps it correct. Compliance is never cached: it depends on the clock.
const cacheKeyKPIReport = "report:kpi"

// invalidateReportCaches drops cached report renderings after a write.
// Best effort: cache failures are logged, never returned.
func (s *Service) invalidateReportCaches(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKeyKPIReport); err != nil {
		logging.Warn(ctx, "cache invalidation failed",
			slog.String("key", cacheKeyKPIReport),
			slog.Any("err", errs.Loggable(err)),
		)
	}
}
