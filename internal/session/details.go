package session

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/importer-intel/internal/model"
)

// ViewDetails opens the detail view for an importer from the current
// results. The pending placeholder is published immediately and replaced
// whole once the profile resolves, from the cache when possible. On
// failure the placeholder stays and the message is MessageProfileFailed.
func (c *Controller) ViewDetails(ctx context.Context, importerName string) (*model.DetailedImporterResult, error) {
	c.mu.Lock()
	summary, ok := model.FindSummary(importerName, c.results, c.similar)
	if !ok {
		c.mu.Unlock()
		return nil, eris.Wrapf(ErrUnknownImporter, "session: view %q", importerName)
	}
	c.profileGen++
	gen := c.profileGen
	c.profile = &model.DetailedImporterResult{ParsedData: model.PendingProfile(summary)}
	c.profileName = importerName
	c.mu.Unlock()

	if cached := c.cachedProfile(ctx, importerName); cached != nil {
		c.publishProfile(gen, importerName, cached)
		return cached, nil
	}

	result, err := c.details.FetchDetails(ctx, importerName, &summary)
	if err != nil {
		zap.L().Warn("profile resolution failed", zap.String("importer", importerName), zap.Error(err))
		c.mu.Lock()
		if gen == c.profileGen {
			c.message = MessageProfileFailed
		}
		c.mu.Unlock()
		return nil, err
	}

	c.publishProfile(gen, importerName, result)
	c.cacheProfile(ctx, importerName, result)
	return result, nil
}

// RefreshDetails re-runs the profile analysis for importerName, bypassing
// and then overwriting the cache. The current profile stays visible until
// the new one arrives; a failure leaves it in place. A refresh for an
// importer other than the one in the detail view only updates the cache.
func (c *Controller) RefreshDetails(ctx context.Context, importerName string) (*model.DetailedImporterResult, error) {
	c.mu.Lock()
	gen := c.profileGen
	shown := c.profile == nil || model.FoldName(c.profileName) == model.FoldName(importerName)
	c.refreshing = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.refreshing = false
		c.mu.Unlock()
	}()

	result, err := c.details.FetchDetails(ctx, importerName, nil)
	if err != nil {
		zap.L().Warn("profile refresh failed", zap.String("importer", importerName), zap.Error(err))
		return nil, err
	}

	if shown {
		c.publishProfile(gen, importerName, result)
	}
	c.cacheProfile(ctx, importerName, result)
	return result, nil
}

// Profile returns the profile in the detail view, or nil if none is open.
func (c *Controller) Profile() *model.DetailedImporterResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.profile == nil {
		return nil
	}
	p := *c.profile
	return &p
}

// publishProfile replaces the current profile unless another detail view
// was opened since gen.
func (c *Controller) publishProfile(gen uint64, importerName string, result *model.DetailedImporterResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.profileGen {
		return
	}
	c.profile = result
	c.profileName = importerName
}

func (c *Controller) cachedProfile(ctx context.Context, importerName string) *model.DetailedImporterResult {
	if c.profileTTL <= 0 {
		return nil
	}
	cached, err := c.store.GetCachedProfile(ctx, importerName)
	if err != nil {
		zap.L().Warn("profile cache read failed", zap.String("importer", importerName), zap.Error(err))
		return nil
	}
	if cached != nil {
		zap.L().Debug("profile cache hit", zap.String("importer", importerName))
	}
	return cached
}

func (c *Controller) cacheProfile(ctx context.Context, importerName string, result *model.DetailedImporterResult) {
	if c.profileTTL <= 0 {
		return
	}
	if err := c.store.SetCachedProfile(ctx, importerName, result, c.profileTTL); err != nil {
		zap.L().Warn("profile cache write failed", zap.String("importer", importerName), zap.Error(err))
	}
}
