package handlers

import (
	"fmt"

	"github.com/spf13/cobra"

	"newsforge/internal/config"
)

// NewStatsCmd creates the stats command reporting database counts
func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show stored item, topic, and article counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()

			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			stats, err := st.GetStats()
			if err != nil {
				return fmt.Errorf("failed to read stats: %w", err)
			}

			fmt.Printf("Source items: %d (%d pending)\n", stats.SourceItems, stats.PendingSources)
			fmt.Printf("Topics:       %d\n", stats.Topics)
			fmt.Printf("Articles:     %d (%d published)\n", stats.Articles, stats.PublishedCount)
			return nil
		},
	}
}
