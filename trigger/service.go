package trigger

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

/* Service represents the business logic layer
 * Safe for concurrent use once constructed
 */

// UseCase defines the go-live operations
type UseCase interface {
	Trigger(ctx context.Context, req Request) (Outcome, error)
	History(ctx context.Context, query HistoryQuery) ([]AuditRecord, int64, error)
}

type Service struct {
	Resolver   *Resolver
	Dispatcher *Dispatcher
	Audit      AuditReader
	Observer   Observer
	Logger     zerolog.Logger
}

// NewService creates a go-live service with dependency injection
func NewService(resolver *Resolver, dispatcher *Dispatcher, audit AuditReader, logger zerolog.Logger) *Service {
	return &Service{
		Resolver:   resolver,
		Dispatcher: dispatcher,
		Audit:      audit,
		Observer:   nopObserver{},
		Logger:     logger,
	}
}

/* Trigger resolves the target and dispatches it.
 * A rejection is returned as a *RejectionError with no audit record written.
 * Once dispatched, the returned error is nil and the Outcome carries the result.
 */
func (s *Service) Trigger(ctx context.Context, req Request) (Outcome, error) {
	user := "none"
	if req.Principal != nil {
		user = req.Principal.Username
	}
	s.Logger.Info().
		Str("ip", req.RemoteAddr).
		Str("user", user).
		Bool("secretProvided", req.ProvidedSecret != "").
		Msg("[go-live] Trigger request received")

	target, err := s.Resolver.Resolve(ctx, req)
	var rejection *RejectionError
	if errors.As(err, &rejection) {
		s.Logger.Warn().
			Str("ip", req.RemoteAddr).
			Str("user", user).
			Bool("secretProvided", req.ProvidedSecret != "").
			Str("reason", rejection.Reason).
			Msg("[go-live] Trigger rejected")
		s.observer().ObserveRejection(ctx, rejection)
		return Outcome{}, err
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("resolving target: %w", err)
	}

	s.Logger.Info().
		Str("webhook", target.Name).
		Str("source", target.Source.String()).
		Str("triggeredBy", target.TriggeredBy).
		Msg("[go-live] Dispatching webhook")

	return s.Dispatcher.Dispatch(ctx, target), nil
}

// History lists audit records and the total record count
func (s *Service) History(ctx context.Context, query HistoryQuery) ([]AuditRecord, int64, error) {
	records, err := s.Audit.List(ctx, query.Normalize())
	if err != nil {
		return nil, 0, fmt.Errorf("listing triggers: %w", err)
	}
	total, err := s.Audit.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("counting triggers: %w", err)
	}
	return records, total, nil
}

func (s *Service) observer() Observer {
	if s.Observer == nil {
		return nopObserver{}
	}
	return s.Observer
}
