package auditlog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/agilabus/ftms-backend-go/internal/domain/audit"
	"github.com/agilabus/ftms-backend-go/internal/pkg/outbound"
	"github.com/google/uuid"
)

// Client delivers audit events to the external audit microservice through
// the outbound dispatcher. It satisfies audit.Logger: Log never blocks the
// caller and never returns an error.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	dispatcher *outbound.Dispatcher
}

func NewClient(baseURL, apiKey string, timeout time.Duration, dispatcher *outbound.Dispatcher) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		dispatcher: dispatcher,
	}
}

type eventPayload struct {
	EventID    string `json:"event_id"`
	Module     string `json:"module"`
	Action     string `json:"action"`
	UserID     string `json:"user_id"`
	UserName   string `json:"user_name"`
	UserRole   string `json:"user_role"`
	RecordID   string `json:"record_id"`
	Before     any    `json:"before_value,omitempty"`
	After      any    `json:"after_value,omitempty"`
	Reason     string `json:"reason,omitempty"`
	IPAddress  string `json:"ip_address,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// Log enqueues the event for asynchronous delivery. The request context is
// deliberately not propagated: the event must outlive the HTTP request that
// produced it.
func (c *Client) Log(_ context.Context, e audit.Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}

	// Retries resend the same event ID, so the audit service can dedupe.
	payload := eventPayload{
		EventID:    uuid.NewString(),
		Module:     e.Module,
		Action:     string(e.Action),
		UserID:     e.Actor.ID,
		UserName:   e.Actor.Name,
		UserRole:   e.Actor.Role,
		RecordID:   e.RecordID,
		Before:     e.Before,
		After:      e.After,
		Reason:     e.Reason,
		IPAddress:  e.Meta.IP,
		UserAgent:  e.Meta.UserAgent,
		OccurredAt: e.OccurredAt.Format(time.RFC3339),
	}

	name := fmt.Sprintf("audit:%s:%s", e.Module, e.Action)
	c.dispatcher.Enqueue(outbound.Task{
		Name: name,
		Fn: func(ctx context.Context) error {
			return c.post(ctx, payload)
		},
	})
}

func (c *Client) post(ctx context.Context, payload eventPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/audit-logs", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build audit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send audit event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("audit service returned status %d", resp.StatusCode)
	}
	return nil
}
