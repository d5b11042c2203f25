package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fleetcheck/internal/errs"
	"fleetcheck/internal/ports"
)

// HTTPProvider fetches opaque telemetry snapshots from an external fleet
// telemetry service. Callers treat any failure as degraded input; the
// provider itself only reports the error.
//
// Request shape: GET {base}/machines/{id}/snapshot?at={RFC3339}.
type HTTPProvider struct {
	baseURL    string
	httpClient *http.Client
}

var _ ports.TelemetryProvider = (*HTTPProvider)(nil)

func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
			},
		},
	}
}

func (p *HTTPProvider) Snapshot(ctx context.Context, machineID string, at time.Time) (json.RawMessage, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if strings.TrimSpace(machineID) == "" {
		return nil, errors.New("machine id is required")
	}

	reqURL := fmt.Sprintf("%s/machines/%s/snapshot?at=%s",
		p.baseURL,
		url.PathEscape(machineID),
		url.QueryEscape(at.UTC().Format(time.RFC3339)),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, errs.Wrap(err, "build telemetry request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errs.Wrap(err, "fetch telemetry snapshot")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		// No telemetry for this machine; not an error.
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telemetry service returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errs.Wrap(err, "read telemetry response")
	}
	if !json.Valid(body) {
		return nil, errors.New("telemetry response is not valid json")
	}
	return json.RawMessage(body), nil
}

// Noop is the provider used when no telemetry service is configured.
type Noop struct{}

var _ ports.TelemetryProvider = Noop{}

func (Noop) Snapshot(context.Context, string, time.Time) (json.RawMessage, error) {
	return nil, nil
}
