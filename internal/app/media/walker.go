// Package media extracts embedded media URLs from a row's content block tree.
package media

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/yigit/practicelog/internal/pkg/apperrors"
	"github.com/yigit/practicelog/internal/pkg/logger"
	"github.com/yigit/practicelog/internal/pkg/mediacache"
	"github.com/yigit/practicelog/internal/pkg/metrics"
	"github.com/yigit/practicelog/internal/pkg/notion"
)

// Default traversal bounds
const (
	DefaultMaxDepth    = 2
	DefaultMaxItems    = 20
	DefaultWalkTimeout = 30 * time.Second
)

const childPageSize = 100

// Walker performs bounded depth-first walks of content trees
type Walker struct {
	api     notion.API
	cache   *mediacache.Cache
	group   singleflight.Group
	timeout time.Duration
	logger  zerolog.Logger
}

// NewWalker creates a walker backed by cache. Each shared walk is bounded by timeout.
func NewWalker(api notion.API, cache *mediacache.Cache, timeout time.Duration, lgr zerolog.Logger) *Walker {
	if timeout <= 0 {
		timeout = DefaultWalkTimeout
	}
	return &Walker{
		api:     api,
		cache:   cache,
		timeout: timeout,
		logger:  logger.Component(lgr, "media"),
	}
}

// ExtractMedia returns up to maxItems media URLs found within maxDepth levels below rootID.
// Listing failures count as zero children. Concurrent callers for the same root share one
// walk that runs detached from any single caller, so a caller leaving early only abandons
// its own wait. A walk cut short by the walk timeout returns a provider error and is not
// cached; a completed walk is cached even when empty.
func (w *Walker) ExtractMedia(ctx context.Context, rootID string, maxDepth, maxItems int) ([]string, error) {
	if maxItems <= 0 {
		return []string{}, nil
	}
	if maxDepth < 0 {
		maxDepth = 0
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewProviderError("extract media", err)
	}

	if urls, ok := w.cache.Get(rootID); ok {
		return truncate(urls, maxItems), nil
	}

	key := fmt.Sprintf("%s/%d/%d", rootID, maxDepth, maxItems)
	results := w.group.DoChan(key, func() (interface{}, error) {
		return w.walk(context.WithoutCancel(ctx), rootID, maxDepth, maxItems)
	})

	select {
	case <-ctx.Done():
		return nil, apperrors.NewProviderError("extract media", ctx.Err())
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		return append([]string{}, res.Val.([]string)...), nil
	}
}

func (w *Walker) walk(ctx context.Context, rootID string, maxDepth, maxItems int) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	t := &traversal{walker: w, maxDepth: maxDepth, maxItems: maxItems, urls: []string{}}
	t.visit(ctx, rootID, 0)
	if err := ctx.Err(); err != nil {
		metrics.MediaWalk("cancelled", len(t.urls))
		w.logger.Warn().Err(err).Str("rootId", rootID).Dur("timeout", w.timeout).Msg("Content tree walk did not finish")
		return nil, apperrors.NewProviderError("extract media", err)
	}
	metrics.MediaWalk("ok", len(t.urls))
	w.cache.Put(rootID, t.urls)
	w.logger.Debug().
		Str("rootId", rootID).
		Int("items", len(t.urls)).
		Int("listings", t.listings).
		Int("failedListings", t.failures).
		Msg("Content tree walked")
	return t.urls, nil
}

type traversal struct {
	walker   *Walker
	maxDepth int
	maxItems int
	urls     []string
	listings int
	failures int
}

func (t *traversal) full() bool {
	return len(t.urls) >= t.maxItems
}

// visit lists the children of nodeID, which sits at depth, with full pagination.
// Bounds are checked before every descent.
func (t *traversal) visit(ctx context.Context, nodeID string, depth int) {
	cursor := ""
	for !t.full() {
		if ctx.Err() != nil {
			return
		}
		t.listings++
		list, err := t.walker.api.ListBlockChildren(ctx, nodeID, cursor, childPageSize)
		if err != nil {
			t.failures++
			t.walker.logger.Warn().Err(err).Str("blockId", nodeID).Int("depth", depth).Msg("Failed to list block children, treating as empty")
			return
		}

		for _, block := range list.Results {
			if t.full() {
				return
			}
			if url := BlockURL(block); url != "" {
				t.urls = append(t.urls, url)
			}
			if block.HasChildren && depth < t.maxDepth && !t.full() {
				t.visit(ctx, block.ID, depth+1)
			}
		}

		if !list.HasMore || list.NextCursor == "" {
			return
		}
		cursor = list.NextCursor
	}
}

func truncate(urls []string, n int) []string {
	if len(urls) > n {
		return urls[:n]
	}
	return urls
}
