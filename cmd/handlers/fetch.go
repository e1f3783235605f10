package handlers

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"newsforge/internal/config"
	"newsforge/internal/pipeline"
)

// NewFetchCmd creates the fetch command for pulling provider headlines only
func NewFetchCmd() *cobra.Command {
	var (
		categories []string
		locale     string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch headlines from configured news providers",
		Long: `Fetch pulls current headlines from every provider with a configured
API key and stores the raw items for later ranking. Items already seen
are skipped.

Examples:
  newsforge fetch
  newsforge fetch --categories technology,business --locale us`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			if !cfg.HasNewsKey() {
				return fmt.Errorf("no news provider key configured. Set NEWS_API_KEY, GUARDIAN_API_KEY, or NYT_API_KEY")
			}

			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := context.Background()
			notifier := buildNotifier(cfg)
			total := 0

			for _, fetcher := range buildFetchers(cfg) {
				items, err := fetcher.Fetch(ctx, pipeline.FetchOptions{Categories: categories, Locale: locale})
				if err != nil {
					return fmt.Errorf("%s fetch failed: %w", fetcher.Name(), err)
				}
				saved, err := st.SaveSourceItems(items)
				if err != nil {
					return fmt.Errorf("failed to save %s items: %w", fetcher.Name(), err)
				}
				fmt.Printf("📰 %s: %d items (%d new)\n", fetcher.Name(), len(items), saved)
				total += saved

				if quota := fetcher.Quota(); quota.Low() {
					notifier.SendRateLimitWarning(fetcher.Name(), quota.Remaining, quota.Limit)
				}
			}

			fmt.Printf("✅ Stored %d new source items\n", total)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&categories, "categories", nil, "Categories to fetch (e.g. technology,science)")
	cmd.Flags().StringVar(&locale, "locale", "", "Country code for headline fetching (e.g. us, gb)")

	return cmd
}
