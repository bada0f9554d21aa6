package cli

import (
	"fmt"

	"github.com/possync/edgehub/internal/config"
	"github.com/possync/edgehub/internal/outbox"
	"github.com/possync/edgehub/internal/store"
	"github.com/spf13/cobra"
)

// NewRetryDeadLettersCommand resets DEAD_LETTER outbox rows back to
// PENDING with their attempt counters cleared, the CLI equivalent of
// the /api/sync/retry-dead-letters route.
func NewRetryDeadLettersCommand() *cobra.Command {
	var entityType string

	cmd := &cobra.Command{
		Use:   "retry-dead-letters",
		Short: "Requeue dead-lettered outbox rows for another push attempt",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("hub: failed to load configuration: %w", err)
			}
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("hub: failed to open store: %w", err)
			}
			defer st.Close()

			count, err := outbox.RetryDeadLetters(st.DB, entityType)
			if err != nil {
				return fmt.Errorf("hub: retry dead letters failed: %w", err)
			}
			fmt.Printf("requeued %d dead letter(s)\n", count)
			return nil
		},
	}

	cmd.Flags().StringVar(&entityType, "entity-type", "", "limit to a single entity type (default: all)")
	return cmd
}
