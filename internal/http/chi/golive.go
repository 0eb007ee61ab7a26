package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/marcelsud/go-live/internal/user"
	"github.com/marcelsud/go-live/trigger"
	"github.com/marcelsud/go-live/trigger/payload"
	"github.com/rs/zerolog"
)

/* HTTP layer DTOs for the go-live API
 * Separate from domain entities to avoid leaking internal structure
 */

const (
	headerSecret       = "x-go-live-secret"
	headerSecretLegacy = "go-live-secret"
	headerTriggeredBy  = "x-go-live-by"
)

// triggerResponse is the body of POST /api/go-live/trigger
type triggerResponse struct {
	Success     bool    `json:"success"`
	Message     string  `json:"message"`
	WebhookName string  `json:"webhookName,omitempty"`
	Response    *string `json:"response,omitempty"`
	Error       *string `json:"error,omitempty"`
	AuditError  string  `json:"auditError,omitempty"`
}

type webhookResponseDTO struct {
	Status     int    `json:"status"`
	StatusText string `json:"statusText"`
	Data       string `json:"data"`
}

type recordResponse struct {
	ID              string             `json:"id"`
	TriggeredAt     string             `json:"triggeredAt"`
	TriggeredBy     string             `json:"triggeredBy"`
	WebhookName     string             `json:"webhookName"`
	Status          string             `json:"status"`
	WebhookResponse webhookResponseDTO `json:"webhookResponse"`
	CreatedAt       string             `json:"createdAt"`
}

type paginationMeta struct {
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

type historyResponse struct {
	Data []recordResponse `json:"data"`
	Meta struct {
		Pagination paginationMeta `json:"pagination"`
	} `json:"meta"`
}

// postTrigger handles POST /api/go-live/trigger
func postTrigger(service trigger.UseCase, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := trigger.Request{
			ProvidedSecret: r.Header.Get(headerSecret),
			CallerIdentity: strings.TrimSpace(r.Header.Get(headerTriggeredBy)),
			RemoteAddr:     r.RemoteAddr,
		}
		if req.ProvidedSecret == "" {
			req.ProvidedSecret = r.Header.Get(headerSecretLegacy)
		}
		if p, ok := user.FromContext(r.Context()); ok {
			req.Principal = &p
		}

		outcome, err := service.Trigger(r.Context(), req)
		var rejection *trigger.RejectionError
		if errors.As(err, &rejection) {
			writeJSON(w, rejection.StatusCode(), triggerResponse{Message: rejection.Reason})
			return
		}
		if err != nil {
			logger.Error().Err(err).Msg("[go-live] Trigger failed before dispatch")
			detail := "internal error"
			writeJSON(w, http.StatusInternalServerError, triggerResponse{
				Message: "Error triggering webhook",
				Error:   &detail,
			})
			return
		}

		writeJSON(w, outcome.StatusCode, newTriggerResponse(outcome))
	})
}

func newTriggerResponse(o trigger.Outcome) triggerResponse {
	resp := triggerResponse{
		Success:    o.Success,
		Message:    o.Message,
		AuditError: o.RecordingError,
	}
	if o.Success {
		body := o.ResponseBody
		resp.WebhookName = o.WebhookName
		resp.Response = &body
		return resp
	}
	detail := o.ErrorDetail
	resp.Error = &detail
	return resp
}

// getTriggers handles GET /api/go-live-triggers
func getTriggers(service trigger.UseCase, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query, err := parseHistoryQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		query = query.Normalize()

		records, total, err := service.History(r.Context(), query)
		if err != nil {
			logger.Error().Err(err).Msg("[go-live] Listing triggers failed")
			http.Error(w, "listing triggers failed", http.StatusInternalServerError)
			return
		}

		var resp historyResponse
		resp.Data = make([]recordResponse, 0, len(records))
		for _, rec := range records {
			resp.Data = append(resp.Data, recordResponse{
				ID:          rec.ID,
				TriggeredAt: payload.FormatTime(rec.TriggeredAt),
				TriggeredBy: rec.TriggeredBy,
				WebhookName: rec.WebhookName,
				Status:      rec.Status.String(),
				WebhookResponse: webhookResponseDTO{
					Status:     rec.Response.StatusCode,
					StatusText: rec.Response.StatusText,
					Data:       rec.Response.Body,
				},
				CreatedAt: payload.FormatTime(rec.CreatedAt),
			})
		}
		resp.Meta.Pagination = paginationMeta{Limit: query.Limit, Total: total}

		writeJSON(w, http.StatusOK, resp)
	})
}

// parseHistoryQuery reads sort=field[:asc|desc] and pagination[limit]=n.
// Newest first when no sort is given.
func parseHistoryQuery(r *http.Request) (trigger.HistoryQuery, error) {
	query := trigger.HistoryQuery{Descending: true}
	values := r.URL.Query()

	if sort := values.Get("sort"); sort != "" {
		field, dir, _ := strings.Cut(sort, ":")
		switch field {
		case "createdAt", "triggeredAt":
		default:
			return query, fmt.Errorf("unsupported sort field %q", field)
		}
		switch strings.ToLower(dir) {
		case "", "desc":
			query.Descending = true
		case "asc":
			query.Descending = false
		default:
			return query, fmt.Errorf("unsupported sort direction %q", dir)
		}
	}

	if limit := values.Get("pagination[limit]"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			return query, fmt.Errorf("invalid pagination[limit] %q", limit)
		}
		query.Limit = n
	}
	return query, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
