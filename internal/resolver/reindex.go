package resolver

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"wopihost/internal/model"
	"wopihost/internal/repository"
	"wopihost/internal/storage"
)

// ReindexOptions tune a Reindex run.
type ReindexOptions struct {
	DryRun      bool
	Concurrency int
}

// ReindexResult summarises a Reindex run.
type ReindexResult struct {
	Indexed int
	Skipped int
	Pruned  int64
}

// Reindex rebuilds the document index from the objects currently in storage.
//
// An object is indexed under every id Scan would resolve to it: each prefix of its
// key that ends just before a dot, so "report.v2.docx" is reachable as "report" and
// "report.v2". Storage lists keys in order, so when several objects share an id the
// first key wins, as it does for Scan. Objects that contribute no id are skipped.
// Rows not refreshed by this run are pruned afterwards.
func Reindex(ctx context.Context, store storage.Storage, repo repository.DocumentIndex, log *zap.Logger, opts ReindexOptions) (ReindexResult, error) {
	var res ReindexResult
	startedAt := time.Now().UTC()

	objs, err := store.List(ctx, "")
	if err != nil {
		return res, fmt.Errorf("list storage: %w", err)
	}

	owner := make(map[string]string, len(objs))
	entries := make([]model.IndexEntry, 0, len(objs))
	for _, obj := range objs {
		ids := stems(obj.Key)
		if len(ids) == 0 {
			res.Skipped++
			log.Warn("reindex_skip", zap.String("object_key", obj.Key), zap.String("reason", "invalid_stem"))
			continue
		}

		added := 0
		for _, id := range ids {
			if _, ok := owner[id]; ok {
				continue
			}
			owner[id] = obj.Key
			entries = append(entries, model.IndexEntry{ID: id, ObjectKey: obj.Key, UpdatedAt: startedAt})
			added++
		}
		if added == 0 {
			res.Skipped++
			log.Warn("reindex_skip",
				zap.String("object_key", obj.Key),
				zap.String("reason", "duplicate_stem"),
				zap.String("indexed_key", owner[ids[0]]),
			)
		}
	}

	if opts.DryRun {
		for _, e := range entries {
			log.Info("reindex_dry_run", zap.String("document_id", e.ID), zap.String("object_key", e.ObjectKey))
		}
		res.Indexed = len(entries)
		return res, nil
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = 4
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range entries {
		e := &entries[i]
		g.Go(func() error {
			if _, err := repo.Upsert(gctx, e); err != nil {
				return fmt.Errorf("upsert %s: %w", e.ID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	res.Indexed = len(entries)

	pruned, err := repo.Prune(ctx, startedAt)
	if err != nil {
		return res, fmt.Errorf("prune index: %w", err)
	}
	res.Pruned = pruned

	log.Info("reindex_complete",
		zap.Int("indexed", res.Indexed),
		zap.Int("skipped", res.Skipped),
		zap.Int64("pruned", res.Pruned),
		zap.Duration("duration_ms", time.Since(startedAt)),
	)
	return res, nil
}

// stems returns the valid ids whose "<id>.*" pattern matches key, shortest first.
func stems(key string) []string {
	var ids []string
	for i := 1; i < len(key); i++ {
		if key[i] != '.' {
			continue
		}
		if id := key[:i]; ValidID(id) {
			ids = append(ids, id)
		}
	}
	return ids
}
