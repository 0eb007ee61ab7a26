package trigger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marcelsud/go-live/trigger/payload"
	"github.com/marcelsud/go-live/trigger/signature"
	"github.com/rs/zerolog"
)

const (
	DefaultTimeout = 15 * time.Second
	maxBodyBytes   = 64 << 10

	msgTriggered      = "Go Live webhook triggered successfully"
	msgRequestFailed  = "Webhook request failed"
	msgTriggerError   = "Error triggering webhook"
	msgRecordingError = "trigger was not recorded in the audit log"
)

/* Dispatcher performs the outbound call and writes the audit record
 * Safe for concurrent use once constructed
 */
type Dispatcher struct {
	Client   *http.Client
	Store    AuditWriter
	Signer   *signature.Signer
	Observer Observer
	Logger   zerolog.Logger
	now      func() time.Time
}

// NewDispatcher creates a dispatcher; a nil client gets one with DefaultTimeout
func NewDispatcher(client *http.Client, store AuditWriter, logger zerolog.Logger) *Dispatcher {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Dispatcher{
		Client:   client,
		Store:    store,
		Observer: nopObserver{},
		Logger:   logger,
		now:      time.Now,
	}
}

/* Dispatch makes exactly one attempt and appends exactly one audit record.
 * The inbound request's cancellation is dropped: once dispatch has begun the
 * caller cannot abort it, only the client timeout bounds it.
 */
func (d *Dispatcher) Dispatch(ctx context.Context, target ResolvedTarget) Outcome {
	ctx = context.WithoutCancel(ctx)
	started := d.now()

	result := d.call(ctx, target, started)
	outcome := newOutcome(target, result)

	d.Logger.Info().
		Str("webhook", target.Name).
		Str("source", target.Source.String()).
		Int("status", result.ResponseStatus()).
		Bool("ok", outcome.Success).
		Str("failure", result.Kind.String()).
		Int("dataLength", len(result.AuditResponse().Body)).
		Dur("elapsed", d.now().Sub(started)).
		Msg("[go-live] Webhook response")

	record := AuditRecord{
		ID:          uuid.NewString(),
		TriggeredAt: started.UTC(),
		TriggeredBy: target.TriggeredBy,
		WebhookName: target.Name,
		Status:      result.Status(),
		Response:    result.AuditResponse(),
		CreatedAt:   d.now().UTC(),
	}
	if err := d.Store.Append(ctx, record); err != nil {
		d.Logger.Error().Err(err).
			Str("webhook", target.Name).
			Bool("ok", outcome.Success).
			Msg("[go-live] Recording trigger failed")
		outcome.RecordingError = msgRecordingError
	} else {
		outcome.RecordID = record.ID
	}

	d.observer().ObserveDispatch(ctx, target, outcome, d.now().Sub(started))
	return outcome
}

func (d *Dispatcher) call(ctx context.Context, target ResolvedTarget, now time.Time) CallResult {
	body, err := payload.New(target.TriggeredBy, now).Bytes()
	if err != nil {
		return Err(Network, fmt.Sprintf("building payload: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, bytes.NewReader(body))
	if err != nil {
		return Err(Network, "building request: invalid webhook URL")
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range target.ExtraHeaders {
		req.Header.Set(k, v)
	}
	if d.Signer != nil {
		if err := d.Signer.Apply(req.Header, "msg_"+uuid.NewString(), now, body); err != nil {
			return Err(Network, err.Error())
		}
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		kind, detail := classifyError(err)
		return Err(kind, detail)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	return Ok(WebhookResponse{
		StatusCode: resp.StatusCode,
		StatusText: statusText(resp),
		Body:       string(data),
	})
}

func (d *Dispatcher) observer() Observer {
	if d.Observer == nil {
		return nopObserver{}
	}
	return d.Observer
}

func newOutcome(target ResolvedTarget, result CallResult) Outcome {
	out := Outcome{
		WebhookName: target.Name,
		Failure:     result.Kind,
	}
	switch {
	case result.Status() == Success:
		out.Success = true
		out.Message = msgTriggered
		out.ResponseBody = result.Response.Body
		out.StatusCode = http.StatusOK
	case result.Kind == HTTPStatus:
		out.Message = msgRequestFailed
		out.ErrorDetail = result.Response.Body
		out.StatusCode = http.StatusInternalServerError
	default:
		out.Message = msgTriggerError
		out.ErrorDetail = result.Detail
		out.StatusCode = http.StatusInternalServerError
	}
	return out
}

/* classifyError strips the request URL from client errors
 * Deploy hook URLs embed their token in the path
 */
func classifyError(err error) (FailureKind, string) {
	kind := Network
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = Timeout
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	return kind, err.Error()
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
