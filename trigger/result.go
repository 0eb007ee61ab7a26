package trigger

/* FailureKind tells a failed dispatch apart
 * HTTPStatus means a response arrived with a non-2xx status, the others mean none arrived
 */
type FailureKind int

const (
	NoFailure FailureKind = iota
	HTTPStatus
	Network
	Timeout
)

// String returns the string representation of the failure kind
func (k FailureKind) String() string {
	switch k {
	case NoFailure:
		return "none"
	case HTTPStatus:
		return "http_status"
	case Network:
		return "network_error"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// CallResult is the outcome of the outbound HTTP call: either a response or a failure without one
type CallResult struct {
	Response *WebhookResponse
	Kind     FailureKind
	Detail   string
}

// Ok wraps a received response
func Ok(resp WebhookResponse) CallResult {
	kind := NoFailure
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		kind = HTTPStatus
	}
	return CallResult{Response: &resp, Kind: kind}
}

// Err records a call that never produced a response
func Err(kind FailureKind, detail string) CallResult {
	return CallResult{Kind: kind, Detail: detail}
}

// Status classifies the call for the audit trail
func (c CallResult) Status() Status {
	if c.Response != nil && c.Kind == NoFailure {
		return Success
	}
	return Failed
}

// AuditResponse is the response stored in the audit record
func (c CallResult) AuditResponse() WebhookResponse {
	if c.Response != nil {
		return *c.Response
	}
	text := "network error"
	if c.Kind == Timeout {
		text = "timeout"
	}
	return WebhookResponse{
		StatusCode: 0,
		StatusText: text,
		Body:       c.Detail,
	}
}

// ResponseStatus is the remote status code, 0 when no response arrived
func (c CallResult) ResponseStatus() int {
	if c.Response == nil {
		return 0
	}
	return c.Response.StatusCode
}
