package tasks

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/alitto/pond/v2"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/photosync/internal/models"
	"github.com/desertthunder/photosync/internal/shared"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// MaxPrefetchWorkers caps the thumbnail worker pool.
const MaxPrefetchWorkers = 8

// FetchFunc loads the preview bytes for one photo. Nil data with a nil error means no preview.
type FetchFunc func(ctx context.Context, photo models.Photo) ([]byte, error)

// DecodeFunc turns preview bytes into a renderable value, e.g. a resized image.
type DecodeFunc func(data []byte) (any, error)

// ThumbnailResult is one prefetched preview, published for the presentation layer to render.
type ThumbnailResult struct {
	UID        string // Photo UID
	Index      int    // Position in the photo list passed to Prefetch
	Generation uint64 // Result set the fetch belongs to
	Data       []byte // Raw preview bytes
	Preview    any    // Output of the decode hook, if configured
	NoPreview  bool   // The photo has no usable preview
	Err        error  // Fetch or decode failure, wrapping [shared.ErrPartialFailure]
}

// ThumbnailCache holds previews keyed by photo UID. Entries are write-once until [ThumbnailCache.Flush].
type ThumbnailCache struct {
	c *cache.Cache
}

func NewThumbnailCache() *ThumbnailCache {
	return &ThumbnailCache{c: cache.New(cache.NoExpiration, -1)}
}

// Put stores res under its UID. It reports false if the UID is already cached.
func (t *ThumbnailCache) Put(res ThumbnailResult) bool {
	return t.c.Add(res.UID, res, cache.NoExpiration) == nil
}

func (t *ThumbnailCache) Get(uid string) (ThumbnailResult, bool) {
	v, ok := t.c.Get(uid)
	if !ok {
		return ThumbnailResult{}, false
	}
	res, ok := v.(ThumbnailResult)
	return res, ok
}

func (t *ThumbnailCache) Has(uid string) bool {
	_, ok := t.c.Get(uid)
	return ok
}

func (t *ThumbnailCache) Len() int {
	return t.c.ItemCount()
}

func (t *ThumbnailCache) Flush() {
	t.c.Flush()
}

// PrefetchOpts configures a [Prefetcher].
type PrefetchOpts struct {
	MaxWorkers int                   // Pool size cap (default and maximum: [MaxPrefetchWorkers])
	RateLimit  float64               // Fetch starts per second; 0 disables limiting
	Decode     DecodeFunc            // Optional decode hook run on the worker
	Progress   chan<- ProgressUpdate // Optional per-item progress
	Logger     *log.Logger
}

// Prefetcher loads thumbnails for a result set on a bounded worker pool.
//
// Workers only publish [ThumbnailResult] values on the channel returned by [Prefetcher.Prefetch].
// [Prefetcher.Reset] starts a new result set; late results from the previous set are dropped.
type Prefetcher struct {
	cache      *ThumbnailCache
	mu         sync.Mutex // orders cache writes against Reset
	generation atomic.Uint64
	maxWorkers int
	limiter    *rate.Limiter
	decode     DecodeFunc
	progress   chan<- ProgressUpdate
	logger     *log.Logger
}

func NewPrefetcher(opts PrefetchOpts) *Prefetcher {
	workers := opts.MaxWorkers
	if workers <= 0 || workers > MaxPrefetchWorkers {
		workers = MaxPrefetchWorkers
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Prefetcher{
		cache:      NewThumbnailCache(),
		maxWorkers: workers,
		limiter:    limiter,
		decode:     opts.Decode,
		progress:   opts.Progress,
		logger:     logger,
	}
}

func (p *Prefetcher) Cache() *ThumbnailCache {
	return p.cache
}

// Reset invalidates the current result set and clears the cache. Call it on every new search.
func (p *Prefetcher) Reset() uint64 {
	p.mu.Lock()
	gen := p.generation.Add(1)
	p.cache.Flush()
	p.mu.Unlock()

	p.logger.Debug("thumbnail cache reset", "generation", gen)
	return gen
}

// Current reports whether res belongs to the active result set.
func (p *Prefetcher) Current(res ThumbnailResult) bool {
	return res.Generation == p.generation.Load()
}

// Prefetch fetches previews for every photo not already cached.
//
// Results arrive in completion order on the returned channel, which is closed once the batch
// finishes. The pool runs min(MaxWorkers, pending) fetches at a time. A failing or panicking
// fetch yields a result with Err set and never affects its siblings.
func (p *Prefetcher) Prefetch(ctx context.Context, photos []models.Photo, fetch FetchFunc) <-chan ThumbnailResult {
	gen := p.generation.Load()

	pending := make([]int, 0, len(photos))
	for i, photo := range photos {
		if !p.cache.Has(photo.UID) {
			pending = append(pending, i)
		}
	}

	results := make(chan ThumbnailResult, len(pending))
	if len(pending) == 0 {
		close(results)
		return results
	}

	workers := min(p.maxWorkers, len(pending))
	pool := pond.NewPool(workers, pond.WithContext(ctx))

	var done atomic.Int64
	total := len(pending)

	for _, idx := range pending {
		idx := idx
		photo := photos[idx]
		pool.Submit(func() {
			res := p.fetchOne(ctx, gen, idx, photo, fetch)

			if !p.publish(res) {
				return
			}
			results <- res
			sendProgress(p.progress, prefetchUpdate(int(done.Add(1)), total, res))
		})
	}

	go func() {
		pool.StopAndWait()
		close(results)
	}()

	p.logger.Debug("prefetch started", "generation", gen, "pending", total, "cached", len(photos)-total, "workers", workers)
	return results
}

func (p *Prefetcher) fetchOne(ctx context.Context, gen uint64, idx int, photo models.Photo, fetch FetchFunc) (res ThumbnailResult) {
	res = ThumbnailResult{UID: photo.UID, Index: idx, Generation: gen}

	defer func() {
		if r := recover(); r != nil {
			res.Data, res.Preview = nil, nil
			res.Err = fmt.Errorf("%w: thumbnail %s: panic: %v", shared.ErrPartialFailure, photo.UID, r)
		}
	}()

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			res.Err = fmt.Errorf("%w: thumbnail %s: %w", shared.ErrPartialFailure, photo.UID, err)
			return res
		}
	}

	data, err := fetch(ctx, photo)
	if err != nil {
		res.Err = fmt.Errorf("%w: thumbnail %s: %w", shared.ErrPartialFailure, photo.UID, err)
		return res
	}
	if len(data) == 0 {
		res.NoPreview = true
		return res
	}

	res.Data = data
	if p.decode != nil {
		preview, err := p.decode(data)
		if err != nil {
			res.Data = nil
			res.Err = fmt.Errorf("%w: thumbnail %s: decode: %w", shared.ErrPartialFailure, photo.UID, err)
			return res
		}
		res.Preview = preview
	}
	return res
}

// publish drops stale results and caches successful ones. It reports whether res should be delivered.
func (p *Prefetcher) publish(res ThumbnailResult) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.Current(res) {
		p.logger.Debug("dropping stale thumbnail", "uid", res.UID, "generation", res.Generation)
		return false
	}

	switch {
	case res.Err != nil:
		p.logger.Warn("thumbnail failed", "uid", res.UID, "error", res.Err)
	case res.NoPreview:
	default:
		if !p.cache.Put(res) {
			p.logger.Debug("thumbnail already cached", "uid", res.UID)
		}
	}
	return true
}
