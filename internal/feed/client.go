// Package feed implements the Feed Client (spec §4.A): it fetches the
// upstream JSON snapshot at a fixed cadence and parses it into a normalized
// Snapshot, tolerating missing optional fields and dropping (but counting)
// records that fail schema validation.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/vatpac-net/ingestd/internal/apperrors"
	"github.com/vatpac-net/ingestd/internal/config"
	"github.com/vatpac-net/ingestd/internal/metrics"
)

// Client fetches and decodes the upstream feed. It never blocks longer than
// the configured request timeout, matching the teacher's
// internal/common/live_api_service.go use of an http.Client with a fixed
// Timeout — here additionally bounded by a request context.
type Client struct {
	baseURL         string
	transceiversURL string
	http            *http.Client
	// limiter bounds how often FetchSnapshot actually hits the network,
	// the way internal/middleware/rate_limit.go bounds inbound requests
	// with golang.org/x/time/rate — here protecting the upstream feed
	// from being hammered by a manual/backfill trigger racing the
	// regular poll ticker.
	limiter *rate.Limiter
}

// New builds a Client from configuration.
func New(cfg *config.Config) *Client {
	return &Client{
		baseURL:         cfg.FeedBaseURL,
		transceiversURL: cfg.TransceiversBaseURL,
		http:            &http.Client{Timeout: cfg.FeedRequestTimeout},
		limiter:         rate.NewLimiter(rate.Every(time.Second), 2),
	}
}

// FetchSnapshot performs the GET, decodes the JSON body, and normalizes it,
// then separately fetches the transceivers endpoint if one is configured
// (spec §6: "A separate fetch and normalization per endpoint"). Network
// timeouts, non-2xx responses, and top-level decode failures on the primary
// endpoint are reported as apperrors.ErrTransientUpstream; a successful
// decode with some malformed per-record data still returns a Snapshot (with
// skip counts) and a nil error, per spec §4.A: "the latter skips the
// record, counts it, and continues". A transceivers-endpoint failure is
// logged via metrics and does not fail the tick: transceiver samples are
// ancillary to the pilot/controller snapshot the rest of the pipeline
// depends on.
func (c *Client) FetchSnapshot(ctx context.Context) (*Snapshot, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("feed: rate limiter: %w", err)
	}

	start := time.Now()
	raw, err := c.fetchJSON(ctx, c.baseURL)
	metrics.FeedFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.FeedFetchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.FeedFetchesTotal.WithLabelValues("success").Inc()

	var parsed RawSnapshot
	if err := json.Unmarshal(raw, &parsed); err != nil {
		metrics.FeedFetchesTotal.WithLabelValues("decode_error").Inc()
		return nil, fmt.Errorf("%w: decode: %v", apperrors.ErrTransientUpstream, err)
	}

	now := time.Now().UTC()
	snap := normalize(&parsed, now)
	metrics.FeedRecordsSkippedTotal.WithLabelValues("pilot").Add(float64(snap.SkippedPilots))
	metrics.FeedRecordsSkippedTotal.WithLabelValues("controller").Add(float64(snap.SkippedControllers))

	if c.transceiversURL != "" {
		txRaw, err := c.fetchJSON(ctx, c.transceiversURL)
		if err != nil {
			metrics.FeedFetchesTotal.WithLabelValues("transceivers_error").Inc()
		} else {
			var entries []RawTransceiverEntry
			if err := json.Unmarshal(txRaw, &entries); err != nil {
				metrics.FeedFetchesTotal.WithLabelValues("transceivers_decode_error").Inc()
			} else {
				metrics.FeedFetchesTotal.WithLabelValues("transceivers_success").Inc()
				snap.Transceivers = NormalizeTransceivers(entries, now)
			}
		}
	}

	return snap, nil
}

// fetchJSON performs one bounded GET and returns the raw response body.
func (c *Client) fetchJSON(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("feed: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrTransientUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status %d", apperrors.ErrTransientUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", apperrors.ErrTransientUpstream, err)
	}
	return body, nil
}
