package handlers

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"newsforge/internal/config"
	"newsforge/internal/core"
	"newsforge/internal/pipeline"
)

// NewRankCmd creates the rank command for scoring stored items into topics
func NewRankCmd() *cobra.Command {
	var withAI bool

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank stored source items into candidate topics",
		Long: `Rank deduplicates unprocessed source items, scores them with the
content-quality heuristic, classifies their genre, and stores them as
NEW topics ready for outlining.

With --with-ai an additional Gemini newsworthiness rating is blended
into each heuristic score. AI failures leave the heuristic scores
untouched.

Examples:
  newsforge rank
  newsforge rank --with-ai`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()

			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := context.Background()
			p := pipeline.New(nil, st, nil, buildNotifier(cfg), cfg.ThrottleDuration())

			metrics, err := p.Run(ctx, pipeline.Options{SkipFetch: true, StopAfterRanking: true})
			if err != nil {
				return err
			}
			fmt.Printf("🏆 Ranked %d new topics\n", metrics.Ranked)

			if withAI {
				runner, err := buildRunner(ctx, cfg, st)
				if err != nil {
					return err
				}
				topics, err := st.ListTopicsByStatus(core.TopicNew, 0)
				if err != nil {
					return err
				}
				if err := runner.Rescore(ctx, topics); err != nil {
					return err
				}
				fmt.Printf("🤖 Blended AI ratings into %d topics\n", len(topics))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&withAI, "with-ai", false, "Blend an AI newsworthiness rating into topic scores")

	return cmd
}
