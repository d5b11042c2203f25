package ports

import (
	"context"
	"encoding/json"
	"time"
)

// TelemetryProvider fetches an opaque machine snapshot (hours, odometer,
// fuel, fault codes) for an instant. Failures must be treated as degraded
// input by callers: a nil snapshot never aborts non-conformity creation.
type TelemetryProvider interface {
	Snapshot(ctx context.Context, machineID string, at time.Time) (json.RawMessage, error)
}
