// Package notifier posts JSON payloads to outbound webhook endpoints
// (approval flows, Teams channels). Endpoints are Power Automate flows that
// answer with a workflow run id; the id is harvested so a pending approval
// run can be cancelled later.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// correlationHeader carries the workflow run id on Power Automate responses.
const correlationHeader = "x-ms-workflow-run-id"

// Receipt is the outcome of a delivered notification.
type Receipt struct {
	// CorrelationToken identifies the workflow run that received the
	// payload. Empty when the endpoint does not report one.
	CorrelationToken string
}

// Notifier delivers webhook payloads.
type Notifier struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// New builds a notifier. Pass a nil client to use a default one with the
// given timeout.
func New(httpClient *http.Client, timeout time.Duration, logger *slog.Logger) *Notifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Notifier{httpClient: httpClient, logger: logger}
}

// Post marshals payload as JSON and delivers it to url. Any non-2xx answer
// is an error; the body is drained so the connection can be reused.
func (n *Notifier) Post(ctx context.Context, url string, payload any) (Receipt, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Receipt{}, fmt.Errorf("marshaling webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("delivering webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Receipt{}, fmt.Errorf("webhook answered status %d", resp.StatusCode)
	}

	return Receipt{CorrelationToken: resp.Header.Get(correlationHeader)}, nil
}

// CancelRun asks the endpoint to cancel a previously started workflow run.
// Cancellation is best effort: the caller decides whether a failure here
// blocks its own flow.
func (n *Notifier) CancelRun(ctx context.Context, url, runID string) error {
	_, err := n.Post(ctx, url, map[string]string{"run_id": runID})
	if err != nil {
		n.logger.Warn("Failed to cancel workflow run", "run_id", runID, "error", err)
		return err
	}
	return nil
}
