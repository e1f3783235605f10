package handlers

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"newsforge/internal/config"
)

// NewCleanupCmd creates the cleanup command for pruning stale drafts
func NewCleanupCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete stale draft articles",
		Long: `Cleanup deletes draft articles that have not been touched within the
retention window (30 days by default, pipeline.stale_after in config).
Published articles are never removed.

Examples:
  newsforge cleanup
  newsforge cleanup --older-than 168h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()

			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			window := olderThan
			if window <= 0 {
				window = cfg.StaleAfterDuration()
			}

			cutoff := time.Now().UTC().Add(-window)
			deleted, err := st.DeleteStaleDrafts(cutoff)
			if err != nil {
				return fmt.Errorf("cleanup failed: %w", err)
			}

			fmt.Printf("🧹 Deleted %d stale drafts older than %s\n", deleted, window)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Retention window override (e.g. 720h)")

	return cmd
}
