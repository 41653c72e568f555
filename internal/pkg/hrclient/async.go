package hrclient

import (
	"context"

	"github.com/agilabus/ftms-backend-go/internal/domain/hrsync"
	"github.com/agilabus/ftms-backend-go/internal/pkg/outbound"
)

// AsyncNotifier queues disbursement notices on the outbound dispatcher so a
// slow or unreachable HR endpoint can never stall a release. Failed
// deliveries are retried and then dead-lettered by the dispatcher.
type AsyncNotifier struct {
	inner      hrsync.Notifier
	dispatcher *outbound.Dispatcher
}

func NewAsyncNotifier(inner hrsync.Notifier, dispatcher *outbound.Dispatcher) *AsyncNotifier {
	return &AsyncNotifier{inner: inner, dispatcher: dispatcher}
}

// NotifyDisbursement enqueues the notice and returns immediately. The
// request context is not propagated; the delivery must outlive the request.
func (n *AsyncNotifier) NotifyDisbursement(_ context.Context, notice hrsync.DisbursementNotice) error {
	n.dispatcher.Enqueue(outbound.Task{
		Name: "hr:disbursement:" + notice.PeriodCode,
		Fn: func(ctx context.Context) error {
			return n.inner.NotifyDisbursement(ctx, notice)
		},
	})
	return nil
}
