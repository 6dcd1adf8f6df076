package admin

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noscite/noscite-assistant/internal/repository"
	"github.com/noscite/noscite-assistant/internal/service"
)

func KnowledgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Manage the knowledge base",
	}
	cmd.AddCommand(knowledgeSyncCmd())
	return cmd
}

func knowledgeSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Re-index site pages and published blog posts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			rdb, err := openRedis(ctx, cfg)
			if err != nil {
				return err
			}
			if rdb != nil {
				defer rdb.Close()
			}

			embedder, err := newEmbedder(cfg, rdb)
			if err != nil {
				return err
			}

			prune, _ := cmd.Flags().GetBool("prune")
			svc := service.NewKnowledgeSyncService(embedder, repository.NewKnowledgeRepository(pool), repository.NewBlogRepository(pool))
			result, err := svc.Sync(ctx, service.SyncOptions{Prune: prune})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d of %d sources failed", len(result.Errors), result.Total)
			}
			return nil
		},
	}

	cmd.Flags().Bool("prune", false, "Delete site entries that are no longer published")
	return cmd
}
