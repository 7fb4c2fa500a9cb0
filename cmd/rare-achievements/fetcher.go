package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"rare-achievements/cmd/rare-achievements/rarestore"
	"rare-achievements/cmd/rare-achievements/rarity"
	"rare-achievements/cmd/rare-achievements/report"
	"rare-achievements/steamhttprpc"
	"time"

	"golang.org/x/sync/errgroup"
)

const cacheMaxAge = 24 * time.Hour

var errPrivateAchievements = errors.New("achievement data is private")

// Cache persists Steam data between runs. A nil Cache disables it.
type Cache interface {
	GetGlobalPercentages(ctx context.Context, appID uint32) (*rarestore.GlobalPercentages, bool, error)
	InsertGlobalPercentages(ctx context.Context, appID uint32, gp *rarestore.GlobalPercentages) error
	GetAppMeta(ctx context.Context, appID uint32) (*rarestore.AppMeta, bool, error)
	InsertAppMeta(ctx context.Context, appID uint32, meta *rarestore.AppMeta) error
}

type Outcome uint8

const (
	OutcomeOK Outcome = iota
	OutcomeInvalidAccount
	OutcomePrivateOrEmpty
	OutcomePrivateAchievements
)

type Fetcher struct {
	client *steamhttprpc.Client
	cache  Cache
	logger *slog.Logger

	// concurrency bounds in-flight games; 1 keeps the run sequential.
	concurrency int
	// skipPrivate skips games with hidden achievement data instead of
	// aborting the run.
	skipPrivate bool
	count       int

	now func() time.Time
}

func (f *Fetcher) Rarest(ctx context.Context, accountID uint64) ([]rarestore.DisplayRecord, Outcome, error) {
	owned, err := f.client.GetOwnedGames(ctx, accountID)
	if err != nil {
		return nil, OutcomeOK, fmt.Errorf("get owned games: %w", err)
	}

	switch owned.Status {
	case steamhttprpc.OwnedGamesInvalidAccount:
		return nil, OutcomeInvalidAccount, nil
	case steamhttprpc.OwnedGamesPrivateOrEmpty:
		return nil, OutcomePrivateOrEmpty, nil
	}

	f.logger.Info("fetched owned games", slog.Int("count", len(owned.AppIDs)))

	start := time.Now()

	entries, err := f.collect(ctx, accountID, owned.AppIDs)
	if errors.Is(err, errPrivateAchievements) {
		return nil, OutcomePrivateAchievements, nil
	}

	if err != nil {
		return nil, OutcomeOK, fmt.Errorf("collect achievements: %w", err)
	}

	f.logger.Info("collected unlocked achievements",
		slog.Int("count", len(entries)),
		slog.Duration("took", time.Since(start)))

	top := rarity.Rarest(entries, f.count)

	records, err := f.resolve(ctx, top)
	if err != nil {
		return nil, OutcomeOK, fmt.Errorf("resolve display records: %w", err)
	}

	return records, OutcomeOK, nil
}

// collect keeps the owned games order in its result regardless of
// concurrency.
func (f *Fetcher) collect(ctx context.Context, accountID uint64, appIDs []uint32) ([]rarestore.Entry, error) {
	perGame := make([][]rarestore.Entry, len(appIDs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(f.concurrency, 1))

	for i, appID := range appIDs {
		if ctx.Err() != nil {
			break
		}

		i, appID := i, appID

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			entries, err := f.gameEntries(ctx, accountID, appID)
			if err != nil {
				return fmt.Errorf("game %d: %w", appID, err)
			}

			perGame[i] = entries

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []rarestore.Entry

	for _, entries := range perGame {
		all = append(all, entries...)
	}

	return all, nil
}

func (f *Fetcher) gameEntries(ctx context.Context, accountID uint64, appID uint32) ([]rarestore.Entry, error) {
	pa, err := f.client.GetPlayerAchievements(ctx, accountID, appID)
	if err != nil {
		return nil, fmt.Errorf("get player achievements: %w", err)
	}

	switch pa.Status {
	case steamhttprpc.AchievementsForbidden:
		if !f.skipPrivate {
			return nil, errPrivateAchievements
		}

		f.logger.Warn("skipping game with private achievement data", slog.Any("app_id", appID))
		return nil, nil
	case steamhttprpc.AchievementsNoStats:
		f.logger.Debug("game has no achievements", slog.Any("app_id", appID))
		return nil, nil
	}

	percentages, err := f.globalPercentages(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("get global percentages: %w", err)
	}

	entries, unmatched := rarity.Join(appID, pa.Achievements, percentages)

	for _, name := range unmatched {
		f.logger.Warn("unlocked achievement has no global percentage",
			slog.Any("app_id", appID),
			slog.String("name", name))
	}

	f.logger.Debug("fetched game achievements",
		slog.Any("app_id", appID),
		slog.Int("unlocked", len(entries)))

	return entries, nil
}

func (f *Fetcher) stale(updated time.Time) bool {
	return f.now().Sub(updated) > cacheMaxAge
}

func (f *Fetcher) globalPercentages(ctx context.Context, appID uint32) (map[string]float64, error) {
	if f.cache != nil {
		gp, ok, err := f.cache.GetGlobalPercentages(ctx, appID)
		if err != nil {
			return nil, fmt.Errorf("get cached global percentages: %w", err)
		}

		if ok && !f.stale(gp.Updated) {
			return gp.Percentages, nil
		}
	}

	percentages, err := f.client.GetGlobalAchievementPercentages(ctx, appID)
	if err != nil {
		return nil, err
	}

	if f.cache != nil {
		gp := &rarestore.GlobalPercentages{
			Updated:     f.now(),
			Percentages: percentages,
		}

		if err := f.cache.InsertGlobalPercentages(ctx, appID, gp); err != nil {
			return nil, fmt.Errorf("insert global percentages: %w", err)
		}
	}

	return percentages, nil
}

func (f *Fetcher) appMeta(ctx context.Context, appID uint32) (*rarestore.AppMeta, error) {
	if f.cache != nil {
		meta, ok, err := f.cache.GetAppMeta(ctx, appID)
		if err != nil {
			return nil, fmt.Errorf("get cached app meta: %w", err)
		}

		if ok && !f.stale(meta.Updated) {
			return meta, nil
		}
	}

	schema, err := f.client.GetSchemaForGame(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("get schema: %w", err)
	}

	title, ok, err := f.client.GetAppTitle(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("get app title: %w", err)
	}

	if !ok {
		title = schema.Game.GameName
		if title == "" {
			title = fmt.Sprintf("App %d", appID)
		}

		f.logger.Warn("store title unavailable, using fallback",
			slog.Any("app_id", appID),
			slog.String("title", title))
	}

	meta := &rarestore.AppMeta{
		Updated: f.now(),
		Title:   title,
		Schema:  schema.Game,
	}

	if f.cache != nil {
		if err := f.cache.InsertAppMeta(ctx, appID, meta); err != nil {
			return nil, fmt.Errorf("insert app meta: %w", err)
		}
	}

	return meta, nil
}

// resolve enriches only the selected entries. Entries missing from their
// game's schema are dropped.
func (f *Fetcher) resolve(ctx context.Context, entries []rarestore.Entry) ([]rarestore.DisplayRecord, error) {
	metas := make(map[uint32]*rarestore.AppMeta)
	records := make([]rarestore.DisplayRecord, 0, len(entries))

	for _, e := range entries {
		meta, ok := metas[e.AppID]
		if !ok {
			var err error

			meta, err = f.appMeta(ctx, e.AppID)
			if err != nil {
				return nil, fmt.Errorf("game %d: %w", e.AppID, err)
			}

			metas[e.AppID] = meta
		}

		a, ok := report.Resolve(meta.Schema, e.Name)
		if !ok {
			f.logger.Warn("achievement missing from schema",
				slog.Any("app_id", e.AppID),
				slog.String("name", e.Name))
			continue
		}

		record := rarestore.DisplayRecord{
			Entry:       e,
			GameTitle:   meta.Title,
			DisplayName: a.DisplayName,
			Description: a.Description,
		}

		records = append(records, record)
	}

	return records, nil
}
