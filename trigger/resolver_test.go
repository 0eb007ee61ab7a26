package trigger_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/marcelsud/go-live/internal/user"
	"github.com/marcelsud/go-live/trigger"
	"github.com/marcelsud/go-live/trigger/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alice() *user.Principal {
	return &user.Principal{ID: "1", Username: "alice"}
}

func TestResolve_Session(t *testing.T) {
	ctx := context.Background()

	t.Run("first enabled match wins", func(t *testing.T) {
		dir := mocks.NewDirectory(t)
		dir.On("ListEnabled", ctx).Return([]trigger.WebhookTarget{
			{Name: "Search reindex", URL: "https://hook/a", Enabled: true},
			{Name: "Staging preview", URL: "https://hook/b", Enabled: false},
			{Name: "Vercel Prod", URL: "https://hook/x", Enabled: true, Headers: map[string]string{"Authorization": "Bearer t"}},
			{Name: "Production mirror", URL: "https://hook/y", Enabled: true},
		}, nil)
		r := trigger.NewResolver(trigger.ResolverConfig{}, dir)

		target, err := r.Resolve(ctx, trigger.Request{Principal: alice()})

		require.NoError(t, err)
		assert.Equal(t, "Vercel Prod", target.Name)
		assert.Equal(t, "https://hook/x", target.URL)
		assert.Equal(t, "alice", target.TriggeredBy)
		assert.Equal(t, trigger.FromDirectory, target.Source)
		assert.Equal(t, "Bearer t", target.ExtraHeaders["Authorization"])
	})

	t.Run("match is case-insensitive", func(t *testing.T) {
		dir := mocks.NewDirectory(t)
		dir.On("ListEnabled", ctx).Return([]trigger.WebhookTarget{
			{Name: "Site GO LIVE hook", URL: "https://hook/g", Enabled: true},
		}, nil)
		r := trigger.NewResolver(trigger.ResolverConfig{}, dir)

		target, err := r.Resolve(ctx, trigger.Request{Principal: alice()})

		require.NoError(t, err)
		assert.Equal(t, "https://hook/g", target.URL)
	})

	t.Run("display name is the author", func(t *testing.T) {
		dir := mocks.NewDirectory(t)
		dir.On("ListEnabled", ctx).Return([]trigger.WebhookTarget{
			{Name: "vercel", URL: "https://hook/v", Enabled: true},
		}, nil)
		r := trigger.NewResolver(trigger.ResolverConfig{}, dir)

		target, err := r.Resolve(ctx, trigger.Request{Principal: &user.Principal{Username: "alice", DisplayName: "Alice Doe"}})

		require.NoError(t, err)
		assert.Equal(t, "Alice Doe", target.TriggeredBy)
	})

	t.Run("custom match tokens", func(t *testing.T) {
		dir := mocks.NewDirectory(t)
		dir.On("ListEnabled", ctx).Return([]trigger.WebhookTarget{
			{Name: "Vercel Prod", URL: "https://hook/x", Enabled: true},
			{Name: "Netlify main", URL: "https://hook/n", Enabled: true},
		}, nil)
		r := trigger.NewResolver(trigger.ResolverConfig{MatchTokens: []string{" NETLIFY ", ""}}, dir)

		target, err := r.Resolve(ctx, trigger.Request{Principal: alice()})

		require.NoError(t, err)
		assert.Equal(t, "Netlify main", target.Name)
	})

	t.Run("no match is not found", func(t *testing.T) {
		dir := mocks.NewDirectory(t)
		dir.On("ListEnabled", ctx).Return([]trigger.WebhookTarget{
			{Name: "Search reindex", URL: "https://hook/a", Enabled: true},
			{Name: "Vercel Prod", URL: "https://hook/x", Enabled: false},
		}, nil)
		r := trigger.NewResolver(trigger.ResolverConfig{}, dir)

		_, err := r.Resolve(ctx, trigger.Request{Principal: alice()})

		require.ErrorIs(t, err, trigger.ErrNotFound)
		var rejection *trigger.RejectionError
		require.ErrorAs(t, err, &rejection)
		assert.Equal(t, http.StatusNotFound, rejection.StatusCode())
	})

	t.Run("session wins over a valid secret", func(t *testing.T) {
		dir := mocks.NewDirectory(t)
		dir.On("ListEnabled", ctx).Return([]trigger.WebhookTarget{}, nil)
		r := trigger.NewResolver(trigger.ResolverConfig{Secret: "right", WebhookURL: "https://env/hook"}, dir)

		_, err := r.Resolve(ctx, trigger.Request{Principal: alice(), ProvidedSecret: "right"})

		require.ErrorIs(t, err, trigger.ErrNotFound)
	})

	t.Run("directory failure is not a rejection", func(t *testing.T) {
		dir := mocks.NewDirectory(t)
		dir.On("ListEnabled", ctx).Return(nil, errors.New("connection reset"))
		r := trigger.NewResolver(trigger.ResolverConfig{}, dir)

		_, err := r.Resolve(ctx, trigger.Request{Principal: alice()})

		require.Error(t, err)
		var rejection *trigger.RejectionError
		assert.False(t, errors.As(err, &rejection))
		assert.Contains(t, err.Error(), "listing webhooks")
	})

	t.Run("deterministic", func(t *testing.T) {
		dir := mocks.NewDirectory(t)
		dir.On("ListEnabled", ctx).Return([]trigger.WebhookTarget{
			{Name: "Production A", URL: "https://hook/a", Enabled: true},
			{Name: "Production B", URL: "https://hook/b", Enabled: true},
		}, nil)
		r := trigger.NewResolver(trigger.ResolverConfig{}, dir)

		first, err := r.Resolve(ctx, trigger.Request{Principal: alice()})
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			next, err := r.Resolve(ctx, trigger.Request{Principal: alice()})
			require.NoError(t, err)
			assert.Equal(t, first, next)
		}
	})
}

func TestResolve_Secret(t *testing.T) {
	ctx := context.Background()

	t.Run("matching secret uses the environment webhook", func(t *testing.T) {
		r := trigger.NewResolver(trigger.ResolverConfig{Secret: "right", WebhookURL: "https://env/hook"}, mocks.NewDirectory(t))

		target, err := r.Resolve(ctx, trigger.Request{ProvidedSecret: "right"})

		require.NoError(t, err)
		assert.Equal(t, "https://env/hook", target.URL)
		assert.Equal(t, trigger.EnvironmentTargetName, target.Name)
		assert.Equal(t, "external", target.TriggeredBy)
		assert.Equal(t, trigger.FromEnvironment, target.Source)
		assert.Empty(t, target.ExtraHeaders)
	})

	t.Run("caller identity is the author", func(t *testing.T) {
		r := trigger.NewResolver(trigger.ResolverConfig{Secret: "right", WebhookURL: "https://env/hook"}, mocks.NewDirectory(t))

		target, err := r.Resolve(ctx, trigger.Request{ProvidedSecret: "right", CallerIdentity: "github-actions"})

		require.NoError(t, err)
		assert.Equal(t, "github-actions", target.TriggeredBy)
	})

	t.Run("missing webhook URL is misconfigured", func(t *testing.T) {
		r := trigger.NewResolver(trigger.ResolverConfig{Secret: "right"}, mocks.NewDirectory(t))

		_, err := r.Resolve(ctx, trigger.Request{ProvidedSecret: "right"})

		require.ErrorIs(t, err, trigger.ErrMisconfigured)
		var rejection *trigger.RejectionError
		require.ErrorAs(t, err, &rejection)
		assert.Equal(t, http.StatusInternalServerError, rejection.StatusCode())
		assert.NotContains(t, err.Error(), "right")
	})

	t.Run("wrong secret is unauthorized even without URL", func(t *testing.T) {
		r := trigger.NewResolver(trigger.ResolverConfig{Secret: "right"}, mocks.NewDirectory(t))

		_, err := r.Resolve(ctx, trigger.Request{ProvidedSecret: "wrong"})

		require.ErrorIs(t, err, trigger.ErrUnauthorized)
	})
}

func TestResolve_Unauthorized(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		cfg  trigger.ResolverConfig
		req  trigger.Request
	}{
		{"no credentials", trigger.ResolverConfig{Secret: "right", WebhookURL: "https://env/hook"}, trigger.Request{}},
		{"wrong secret", trigger.ResolverConfig{Secret: "right", WebhookURL: "https://env/hook"}, trigger.Request{ProvidedSecret: "wrong"}},
		{"secret prefix", trigger.ResolverConfig{Secret: "right", WebhookURL: "https://env/hook"}, trigger.Request{ProvidedSecret: "righ"}},
		{"no secret configured", trigger.ResolverConfig{WebhookURL: "https://env/hook"}, trigger.Request{ProvidedSecret: "anything"}},
		{"both empty", trigger.ResolverConfig{WebhookURL: "https://env/hook"}, trigger.Request{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := trigger.NewResolver(tt.cfg, mocks.NewDirectory(t))

			_, err := r.Resolve(ctx, tt.req)

			require.ErrorIs(t, err, trigger.ErrUnauthorized)
			var rejection *trigger.RejectionError
			require.ErrorAs(t, err, &rejection)
			assert.Equal(t, http.StatusUnauthorized, rejection.StatusCode())
			assert.Equal(t, "Missing or invalid credentials", rejection.Reason)
		})
	}
}
