package trigger

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
)

// DefaultMatchTokens select a directory webhook by name
var DefaultMatchTokens = []string{"vercel", "production", "go live"}

const defaultCallerIdentity = "external"

// ResolverConfig is the environment configuration injected at construction time
type ResolverConfig struct {
	Secret      string
	WebhookURL  string
	MatchTokens []string
}

// Resolver decides which webhook a request may trigger
type Resolver struct {
	cfg       ResolverConfig
	directory Directory
}

// NewResolver creates a resolver; an empty token list falls back to DefaultMatchTokens
func NewResolver(cfg ResolverConfig, directory Directory) *Resolver {
	tokens := make([]string, 0, len(cfg.MatchTokens))
	for _, t := range cfg.MatchTokens {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	if len(tokens) == 0 {
		tokens = append(tokens, DefaultMatchTokens...)
	}
	cfg.MatchTokens = tokens
	return &Resolver{
		cfg:       cfg,
		directory: directory,
	}
}

/* Resolve evaluates the credential branches in strict order, first match wins:
 * a session principal, then a matching shared secret, then rejection.
 * A *RejectionError is returned for every terminal outcome; any other error
 * is an unexpected fault from the directory.
 */
func (r *Resolver) Resolve(ctx context.Context, req Request) (ResolvedTarget, error) {
	if req.Principal != nil {
		return r.resolveDirectory(ctx, req)
	}
	if r.secretMatches(req.ProvidedSecret) {
		return r.resolveEnvironment(req)
	}
	return ResolvedTarget{}, reject(ErrUnauthorized, "Missing or invalid credentials")
}

func (r *Resolver) resolveDirectory(ctx context.Context, req Request) (ResolvedTarget, error) {
	targets, err := r.directory.ListEnabled(ctx)
	if err != nil {
		return ResolvedTarget{}, fmt.Errorf("listing webhooks: %w", err)
	}
	for _, t := range targets {
		if !t.Enabled || !r.Matches(t.Name) {
			continue
		}
		return ResolvedTarget{
			URL:          t.URL,
			Name:         t.Name,
			ExtraHeaders: t.Headers,
			TriggeredBy:  req.Principal.Name(),
			Source:       FromDirectory,
		}, nil
	}
	return ResolvedTarget{}, reject(ErrNotFound, "Vercel webhook not found or not enabled")
}

func (r *Resolver) resolveEnvironment(req Request) (ResolvedTarget, error) {
	if r.cfg.WebhookURL == "" {
		return ResolvedTarget{}, reject(ErrMisconfigured, "GO_LIVE_WEBHOOK_URL is not configured for secret-based triggers")
	}
	by := strings.TrimSpace(req.CallerIdentity)
	if by == "" {
		by = defaultCallerIdentity
	}
	return ResolvedTarget{
		URL:         r.cfg.WebhookURL,
		Name:        EnvironmentTargetName,
		TriggeredBy: by,
		Source:      FromEnvironment,
	}, nil
}

// secretMatches never matches when either side is empty
func (r *Resolver) secretMatches(provided string) bool {
	if r.cfg.Secret == "" || provided == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(r.cfg.Secret)) == 1
}

// Matches reports whether a webhook name contains one of the match tokens
func (r *Resolver) Matches(name string) bool {
	lower := strings.ToLower(name)
	for _, token := range r.cfg.MatchTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}
