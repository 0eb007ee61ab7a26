package directory

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/marcelsud/go-live/trigger"
	"gopkg.in/yaml.v3"
)

/* Loader is a read-only Webhook Directory backed by a webhooks.yaml file
 * Entries keep file order, which is the order the resolver scans them in
 */

// Config represents the structure of webhooks.yaml
type Config struct {
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// WebhookConfig represents a single webhook in the YAML file
type WebhookConfig struct {
	ID      string            `yaml:"id"`
	Name    string            `yaml:"name"`
	URL     string            `yaml:"url"`
	Enabled *bool             `yaml:"enabled"` // Default: true
	Headers map[string]string `yaml:"headers"`
}

type Loader struct {
	webhooks []trigger.WebhookTarget
}

func NewLoader() *Loader {
	return &Loader{}
}

// Load reads, validates and replaces the loaded webhooks
func (l *Loader) Load(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading webhooks file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("parsing webhooks YAML: %w", err)
	}

	webhooks := make([]trigger.WebhookTarget, 0, len(config.Webhooks))
	seen := make(map[string]bool, len(config.Webhooks))
	for i, wc := range config.Webhooks {
		target := wc.target()
		if err := Validate(target); err != nil {
			return fmt.Errorf("validating webhook %d: %w", i+1, err)
		}
		if seen[target.ID] {
			return fmt.Errorf("validating webhook %d: duplicate id %q", i+1, target.ID)
		}
		seen[target.ID] = true
		webhooks = append(webhooks, target)
	}

	l.webhooks = webhooks
	return nil
}

func (wc WebhookConfig) target() trigger.WebhookTarget {
	enabled := true
	if wc.Enabled != nil {
		enabled = *wc.Enabled
	}
	headers := make(map[string]string, len(wc.Headers))
	for k, v := range wc.Headers {
		headers[k] = v
	}
	return trigger.WebhookTarget{
		ID:      wc.ID,
		Name:    wc.Name,
		URL:     wc.URL,
		Enabled: enabled,
		Headers: headers,
	}
}

// Validate checks a webhook entry
func Validate(t trigger.WebhookTarget) error {
	if t.ID == "" {
		return fmt.Errorf("id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("name is required for %s", t.ID)
	}
	u, err := url.Parse(t.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("url of %s must be an absolute http(s) URL", t.ID)
	}
	return nil
}

// List returns every loaded webhook, enabled or not
func (l *Loader) List() []trigger.WebhookTarget {
	out := make([]trigger.WebhookTarget, len(l.webhooks))
	copy(out, l.webhooks)
	return out
}

// ListEnabled returns enabled webhooks in file order
func (l *Loader) ListEnabled(ctx context.Context) ([]trigger.WebhookTarget, error) {
	out := make([]trigger.WebhookTarget, 0, len(l.webhooks))
	for _, w := range l.webhooks {
		if w.Enabled {
			out = append(out, w)
		}
	}
	return out, nil
}
