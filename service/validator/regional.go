package validator

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Regional looks a cluster up in every configured region concurrently. A
// region that cannot be listed counts as not containing the cluster.
type Regional struct {
	lister  Lister
	config  Config
	cache   *gocache.Cache
	group   singleflight.Group
	limiter *rate.Limiter
	logger  *zap.Logger
}

// Exists returns true when externalName is listed in any region
func (r *Regional) Exists(ctx context.Context, externalName string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var found atomic.Bool
	g, gCtx := errgroup.WithContext(ctx)
	for _, region := range r.config.Regions {
		region := region
		g.Go(func() error {
			names, err := r.list(gCtx, region)
			if err != nil {
				r.logger.Warn("failed to list clusters", zap.String("region", region), zap.Error(err))
				return nil
			}
			for _, name := range names {
				if name == externalName {
					found.Store(true)
					break
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return found.Load(), nil
}

// Invalidate drops cached listings
func (r *Regional) Invalidate() {
	if r.cache != nil {
		r.cache.Flush()
	}
}

func (r *Regional) list(ctx context.Context, region string) ([]string, error) {
	if r.cache != nil {
		if cached, ok := r.cache.Get(region); ok {
			return cached.([]string), nil
		}
	}
	result, err, _ := r.group.Do(region, func() (interface{}, error) {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		listCtx := ctx
		if r.config.Timeout > 0 {
			var cancel context.CancelFunc
			listCtx, cancel = context.WithTimeout(ctx, r.config.Timeout)
			defer cancel()
		}
		names, err := r.lister.ListClusters(listCtx, region)
		if err != nil {
			return nil, fmt.Errorf("region %s: %w", region, err)
		}
		if r.cache != nil {
			r.cache.Set(region, names, gocache.DefaultExpiration)
		}
		return names, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

// NewRegional creates a regional validator
func NewRegional(lister Lister, config Config, logger *zap.Logger) (*Regional, error) {
	if lister == nil {
		return nil, fmt.Errorf("cluster lister was nil")
	}
	if len(config.Regions) == 0 {
		config.Regions = append([]string{}, DefaultRegions...)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ret := &Regional{lister: lister, config: config, logger: logger}
	if config.CacheTTL > 0 {
		ret.cache = gocache.New(config.CacheTTL, 2*config.CacheTTL+time.Minute)
	}
	if config.RatePerSecond > 0 {
		burst := config.Burst
		if burst <= 0 {
			burst = 1
		}
		ret.limiter = rate.NewLimiter(rate.Limit(config.RatePerSecond), burst)
	}
	return ret, nil
}
