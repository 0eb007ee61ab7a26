package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/marcelsud/go-live/directory"
	"github.com/marcelsud/go-live/trigger"
)

/* validate-webhooks - Standalone CLI tool to validate webhooks.yaml
 * Usage: go run cmd/validate-webhooks/main.go [webhooks.yaml] [match tokens...]
 * Exit codes: 0 = valid, 1 = invalid
 */

func main() {
	webhooksFile := "webhooks.yaml"
	if len(os.Args) > 1 {
		webhooksFile = os.Args[1]
	}
	resolver := trigger.NewResolver(trigger.ResolverConfig{MatchTokens: os.Args[min(2, len(os.Args)):]}, nil)

	fmt.Printf("Validating webhooks file: %s\n", webhooksFile)
	fmt.Println(strings.Repeat("-", 50))

	loader := directory.NewLoader()
	if err := loader.Load(webhooksFile); err != nil {
		fmt.Fprintf(os.Stderr, "❌ VALIDATION FAILED\n\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	webhooks := loader.List()
	fmt.Printf("✓ VALIDATION PASSED\n\n")
	fmt.Printf("Loaded %d webhook(s):\n", len(webhooks))

	selected := ""
	for i, w := range webhooks {
		fmt.Printf("\n%d. Webhook: %s (%s)\n", i+1, w.Name, w.ID)
		fmt.Printf("   Host:     %s\n", host(w.URL))
		fmt.Printf("   Enabled:  %t\n", w.Enabled)
		fmt.Printf("   Headers:  %d\n", len(w.Headers))
		if selected == "" && w.Enabled && resolver.Matches(w.Name) {
			selected = w.Name
		}
	}

	if selected == "" {
		fmt.Fprintf(os.Stderr, "\n❌ No enabled webhook matches the go-live tokens, session triggers will answer 404\n")
		os.Exit(1)
	}
	fmt.Printf("\n✓ Session triggers will call: %s\n", selected)
	os.Exit(0)
}

// host keeps tokens in the URL path off the terminal
func host(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "?"
	}
	return u.Scheme + "://" + u.Host
}
