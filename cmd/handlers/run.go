package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"newsforge/internal/config"
	"newsforge/internal/pipeline"
)

// NewRunCmd creates the run command executing the full production pipeline
func NewRunCmd() *cobra.Command {
	var (
		dryRun           bool
		skipFetch        bool
		stopAfterRanking bool
		withAI           bool
		categories       []string
		locale           string
		limit            int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the full fetch-to-publish pipeline",
		Long: `Run executes every pipeline step in order: fetch, rank, outline,
draft, polish, verify, publish.

Fetch, rank, and publish failures abort the run with an error
notification. Per-article generation failures are recorded and the run
continues with the remaining topics.

Examples:
  # Full run limited to 3 articles
  newsforge run --limit 3

  # Rank US technology and science headlines, then stop
  newsforge run --categories technology,science --locale us --stop-after-ranking

  # Work from already fetched items only
  newsforge run --skip-fetch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()

			if !skipFetch && !dryRun && !cfg.HasNewsKey() {
				return fmt.Errorf("no news provider key configured. Set NEWS_API_KEY, GUARDIAN_API_KEY, or NYT_API_KEY, or pass --skip-fetch")
			}

			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := context.Background()
			runner, err := buildRunner(ctx, cfg, st)
			if err != nil {
				return err
			}

			if limit <= 0 {
				limit = cfg.Pipeline.TargetCount
			}

			p := pipeline.New(buildFetchers(cfg), st, runner, buildNotifier(cfg), cfg.ThrottleDuration())
			metrics, err := p.Run(ctx, pipeline.Options{
				DryRun:           dryRun,
				SkipFetch:        skipFetch,
				StopAfterRanking: stopAfterRanking,
				WithAIScoring:    withAI,
				Categories:       categories,
				Locale:           locale,
				Limit:            limit,
			})
			if err != nil {
				return err
			}

			fmt.Printf("✅ Run complete: %d fetched, %d ranked, %d drafted, %d published (%d errors) in %s\n",
				metrics.Fetched, metrics.Ranked, metrics.Drafted, metrics.Published,
				len(metrics.Errors), metrics.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log what the run would do without fetching, generating, or publishing")
	cmd.Flags().BoolVar(&skipFetch, "skip-fetch", false, "Skip provider fetching and rank already stored items")
	cmd.Flags().BoolVar(&stopAfterRanking, "stop-after-ranking", false, "Stop after topics are ranked, before any generation")
	cmd.Flags().BoolVar(&withAI, "with-ai", false, "Blend an AI newsworthiness rating into topic scores")
	cmd.Flags().StringSliceVar(&categories, "categories", nil, "Categories to fetch (e.g. technology,science)")
	cmd.Flags().StringVar(&locale, "locale", "", "Country code for headline fetching (e.g. us, gb)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum articles to produce (default from config)")

	return cmd
}
