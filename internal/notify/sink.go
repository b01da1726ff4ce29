package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// TicketSummary is the plain payload handed to the outbound channel.
type TicketSummary struct {
	Number     string                `json:"number"`
	Title      string                `json:"title"`
	Status     domain.TicketStatus   `json:"status"`
	Priority   domain.TicketPriority `json:"priority"`
	Creator    string                `json:"creator"`
	ResolvedAt *time.Time            `json:"resolved_at,omitempty"`
}

// Sink accepts "ticket completed" events for a destination address.
// Failures are reported but treated as non-fatal by callers.
type Sink interface {
	Send(ctx context.Context, destinationAddress string, summary TicketSummary) error
}

// WebhookSink posts summaries to a configured HTTP endpoint.
type WebhookSink struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewWebhookSink builds a sink for the configured webhook URL.
func NewWebhookSink(url string, logger *zap.Logger) *WebhookSink {
	return &WebhookSink{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// Send posts the summary. A blank URL turns the sink into a logging
// no-op, which keeps local runs working without an endpoint.
func (s *WebhookSink) Send(ctx context.Context, destinationAddress string, summary TicketSummary) error {
	if s.url == "" {
		s.logger.Info("notification (no webhook configured)",
			zap.String("destination", destinationAddress),
			zap.String("ticket", summary.Number))
		return nil
	}

	body, err := json.Marshal(map[string]any{
		"destination": destinationAddress,
		"ticket":      summary,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
