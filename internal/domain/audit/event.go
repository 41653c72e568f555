package audit

import (
	"context"
	"time"
)

// Action enum
type Action string

const (
	ActionCreate  Action = "CREATE"
	ActionUpdate  Action = "UPDATE"
	ActionDelete  Action = "DELETE"
	ActionApprove Action = "APPROVE"
	ActionReject  Action = "REJECT"
)

// Actor identifies the authenticated user performing an action.
type Actor struct {
	ID   string
	Name string
	Role string
}

// RequestMeta carries request-level metadata captured at the HTTP boundary.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// Event is a single entry for the external audit trail. Before/After hold
// value snapshots where applicable; Reason is mandatory for deletions and
// rejections.
type Event struct {
	Module     string
	Action     Action
	Actor      Actor
	RecordID   string
	Before     any
	After      any
	Reason     string
	Meta       RequestMeta
	OccurredAt time.Time
}

// Logger delivers events to the external audit service. Delivery is best
// effort: implementations must never fail or block the primary operation.
type Logger interface {
	Log(ctx context.Context, e Event)
}

type metaKey struct{}

// WithRequestMeta attaches request metadata for downstream audit events.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, metaKey{}, meta)
}

// RequestMetaFromContext returns the metadata attached by WithRequestMeta,
// or a zero value when none is present.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if meta, ok := ctx.Value(metaKey{}).(RequestMeta); ok {
		return meta
	}
	return RequestMeta{}
}
