package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wopihost/internal/config"
	"wopihost/internal/database"
	"wopihost/internal/logger"
	"wopihost/internal/repository/postgres"
	"wopihost/internal/resolver"
	"wopihost/internal/storage"
)

type indexFlags struct {
	DryRun      bool
	Concurrency int
}

func newRootCmd() *cobra.Command {
	var flags indexFlags

	cmd := &cobra.Command{
		Use:   "wopi-index",
		Short: "Rebuild the document id index from storage",
		Long: `wopi-index lists the configured document storage and records one
"<id> -> <object key>" row per document in the Postgres index used by
RESOLVER=index. Rows for objects that no longer exist are pruned.

Storage and database settings are read from the same environment
variables as the server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "log what would be indexed without touching the database")
	cmd.Flags().IntVar(&flags.Concurrency, "concurrency", 4, "number of concurrent index writes")
	return cmd
}

func run(ctx context.Context, flags indexFlags) error {
	cfg := config.Load()
	log := logger.Open(cfg.LogFile, cfg.Location(), cfg.LogLevel)
	defer log.Sync()

	store, err := storage.New(cfg.Storage)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}

	opts := resolver.ReindexOptions{DryRun: flags.DryRun, Concurrency: flags.Concurrency}
	if flags.DryRun {
		_, err := resolver.Reindex(ctx, store, nil, log, opts)
		return err
	}

	db, err := database.OpenIndex(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := resolver.Reindex(ctx, store, postgres.NewDocumentPostgres(db), log, opts)
	if err != nil {
		log.Error("reindex_failed", zap.Error(err))
		return err
	}
	fmt.Fprintf(os.Stdout, "indexed=%d skipped=%d pruned=%d\n", res.Indexed, res.Skipped, res.Pruned)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
