package cli

import (
	"fmt"

	"github.com/possync/edgehub/internal/config"
	"github.com/possync/edgehub/internal/models"
	"github.com/possync/edgehub/internal/store"
	"github.com/spf13/cobra"
)

// NewResetCursorsCommand clears pull entities' LastSyncedAt and cursor,
// the CLI equivalent of the /api/sync/reset-cursor route: every entity
// by default, or only the one named by --entity-type — an operator
// escape hatch after a cloud-side history rewrite.
func NewResetCursorsCommand() *cobra.Command {
	var entityType string

	cmd := &cobra.Command{
		Use:   "reset-cursors",
		Short: "Clear pull cursors so the next pull re-fetches full history",
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

			q := st.DB.Model(&models.SyncState{})
			if entityType != "" {
				q = q.Where("entity_type = ?", entityType)
			} else {
				q = q.Where("1 = 1")
			}
			res := q.Updates(map[string]any{"last_synced_at": nil, "cursor": nil})
			if res.Error != nil {
				return fmt.Errorf("hub: reset cursors failed: %w", res.Error)
			}
			fmt.Printf("reset %d cursor(s)\n", res.RowsAffected)
			return nil
		},
	}

	cmd.Flags().StringVar(&entityType, "entity-type", "", "limit to a single entity type (default: all)")
	return cmd
}
