package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

func newNopLogger() *zap.Logger {
	return zap.NewNop()
}

func TestWebhookSinkPostsSummary(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resolved := time.Now().UTC()
	sink := NewWebhookSink(server.URL, newNopLogger())
	err := sink.Send(context.Background(), "ops@example.com", TicketSummary{
		Number:     "TH210825001",
		Title:      "Printer on fire",
		Status:     domain.TicketStatusResolved,
		Priority:   domain.TicketPriorityHigh,
		Creator:    "alice@example.com",
		ResolvedAt: &resolved,
	})
	if err != nil {
		t.Fatal(err)
	}

	if received["destination"] != "ops@example.com" {
		t.Errorf("destination = %v", received["destination"])
	}
	ticket, ok := received["ticket"].(map[string]any)
	if !ok || ticket["number"] != "TH210825001" {
		t.Errorf("ticket payload = %v", received["ticket"])
	}
}

func TestWebhookSinkRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	sink := NewWebhookSink(server.URL, newNopLogger())
	if err := sink.Send(context.Background(), "ops@example.com", TicketSummary{Number: "TH1"}); err == nil {
		t.Fatal("5xx response must surface as an error")
	}
}
