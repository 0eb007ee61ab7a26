package trigger

import (
	"context"
	"time"
)

// Observer receives trigger events for metrics
type Observer interface {
	ObserveRejection(ctx context.Context, rejection *RejectionError)
	ObserveDispatch(ctx context.Context, target ResolvedTarget, outcome Outcome, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveRejection(context.Context, *RejectionError) {}

func (nopObserver) ObserveDispatch(context.Context, ResolvedTarget, Outcome, time.Duration) {}
