package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/marcelsud/go-live/config"
	"github.com/marcelsud/go-live/directory"
	"github.com/marcelsud/go-live/internal/store"
	"github.com/marcelsud/go-live/trigger"
	"github.com/marcelsud/go-live/trigger/payload"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

/* go-live CLI
 *   trigger           call a running gateway as an external caller with GO_LIVE_SECRET
 *   history           print the latest audit records straight from the store
 *   import-webhooks   copy a webhooks.yaml file into the store's directory
 */

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "go-live",
		Short:         "Trigger and inspect go-live deployments",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newTriggerCmd(), newHistoryCmd(), newImportCmd())
	return root
}

func newTriggerCmd() *cobra.Command {
	var baseURL, by string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Trigger the go-live webhook through a running gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.GetConfig()
			if err != nil {
				return err
			}
			if cfg.GoLiveSecret == "" {
				return fmt.Errorf("GO_LIVE_SECRET is not set")
			}
			return runTrigger(cmd.Context(), cmd.OutOrStdout(), &http.Client{Timeout: timeout}, baseURL, cfg.GoLiveSecret, by)
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "gateway base URL")
	cmd.Flags().StringVar(&by, "by", "", "name recorded as the trigger author")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "request timeout")
	return cmd
}

func runTrigger(ctx context.Context, out io.Writer, client *http.Client, baseURL, secret, by string) error {
	endpoint := strings.TrimRight(baseURL, "/") + "/api/go-live/trigger"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("x-go-live-secret", secret)
	if by != "" {
		req.Header.Set("x-go-live-by", by)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("calling gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	var pretty bytes.Buffer
	if json.Indent(&pretty, body, "", "  ") == nil {
		body = pretty.Bytes()
	}
	fmt.Fprintln(out, string(body))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("trigger failed with status %d", resp.StatusCode)
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	var limit int
	var asc bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the latest go-live triggers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.GetConfig()
			if err != nil {
				return err
			}
			stores, err := store.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer stores.Close(ctx)

			s := trigger.NewService(nil, nil, stores.Audit, zerolog.Nop())
			records, total, err := s.History(ctx, trigger.HistoryQuery{Descending: !asc, Limit: limit})
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), records, total)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 5, "number of records")
	cmd.Flags().BoolVar(&asc, "asc", false, "oldest first")
	return cmd
}

func printHistory(out io.Writer, records []trigger.AuditRecord, total int64) {
	if len(records) == 0 {
		fmt.Fprintln(out, "(no triggers yet)")
		return
	}
	for _, rec := range records {
		fmt.Fprintf(out, "%s  %-7s  %3d %-12s  %-20s  %s\n",
			payload.FormatTime(rec.TriggeredAt),
			rec.Status,
			rec.Response.StatusCode,
			rec.Response.StatusText,
			rec.TriggeredBy,
			rec.WebhookName,
		)
	}
	fmt.Fprintf(out, "%d of %d trigger(s)\n", len(records), total)
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-webhooks [webhooks.yaml]",
		Short: "Import webhooks from a YAML file into the store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			file := "webhooks.yaml"
			if len(args) > 0 {
				file = args[0]
			}
			loader := directory.NewLoader()
			if err := loader.Load(file); err != nil {
				return err
			}

			cfg, err := config.GetConfig()
			if err != nil {
				return err
			}
			// The file is the source here, not the directory
			cfg.WebhooksFile = ""
			stores, err := store.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer stores.Close(ctx)

			return importWebhooks(ctx, cmd.OutOrStdout(), stores.Importer, loader.List())
		},
	}
}

func importWebhooks(ctx context.Context, out io.Writer, importer store.Importer, webhooks []trigger.WebhookTarget) error {
	for _, w := range webhooks {
		id, err := importer.ImportWebhook(ctx, w)
		if err != nil {
			return fmt.Errorf("importing webhook %s: %w", w.ID, err)
		}
		fmt.Fprintf(out, "imported %s as %s (enabled=%t)\n", w.Name, id, w.Enabled)
	}
	return nil
}
