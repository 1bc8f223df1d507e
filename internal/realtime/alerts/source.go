package alerts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/bluele/gcache"
	"golang.org/x/sync/singleflight"
	"google.golang.org/protobuf/proto"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"

	"github.com/berajelin/routia/internal/prediction"
)

const (
	feedCacheKey  = "alerts"
	errorCacheKey = "alerts-error"
)

// DefaultFailureTTL is how long a failed fetch is remembered before the feed
// is tried again
const DefaultFailureTTL = 15 * time.Second

// Source serves nearby-event observations from a GTFS-RT alerts feed.
// Decoded feeds are cached for the configured TTL and failures for
// failureTTL; concurrent misses share a single fetch.
type Source struct {
	url        string
	client     *http.Client
	ttl        time.Duration
	failureTTL time.Duration
	cache      gcache.Cache
	group      singleflight.Group
	now        func() time.Time
}

// NewSource creates an alerts source for url
func NewSource(url string, ttl, timeout time.Duration) *Source {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Source{
		url:        url,
		client:     &http.Client{Timeout: timeout},
		ttl:        ttl,
		failureTTL: DefaultFailureTTL,
		cache:      gcache.New(2).LRU().Build(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Alerts returns the current feed's alerts, from cache when fresh.
// A recent failure is returned without refetching. The wait is bounded by
// ctx even while a shared fetch is still running.
func (s *Source) Alerts(ctx context.Context) ([]Alert, error) {
	if alerts, ok, err := s.cached(); ok {
		return alerts, err
	}

	ch := s.group.DoChan(feedCacheKey, func() (interface{}, error) {
		if alerts, ok, err := s.cached(); ok {
			return alerts, err
		}

		// A caller giving up must not fail the fetch for the others
		feed, err := s.fetchFeed(context.WithoutCancel(ctx))
		if err != nil {
			if cerr := s.cache.SetWithExpire(errorCacheKey, err, s.failureTTL); cerr != nil {
				log.Printf("Alerts: failed to cache feed error: %v", cerr)
			}
			return nil, err
		}
		alerts := ParseFeed(feed)
		if err := s.cache.SetWithExpire(feedCacheKey, alerts, s.ttl); err != nil {
			log.Printf("Alerts: failed to cache feed: %v", err)
		}
		return alerts, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]Alert), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("alerts feed wait abandoned: %w", ctx.Err())
	}
}

// cached returns a fresh feed or a recent failure; ok is false on a miss
func (s *Source) cached() ([]Alert, bool, error) {
	if v, err := s.cache.Get(feedCacheKey); err == nil {
		return v.([]Alert), true, nil
	}
	if v, err := s.cache.Get(errorCacheKey); err == nil {
		return nil, true, v.(error)
	}
	return nil, false, nil
}

// EventFor implements prediction.EventSource. A feed error is logged and
// reported as no observation.
func (s *Source) EventFor(ctx context.Context, line string) (prediction.Event, bool) {
	alerts, err := s.Alerts(ctx)
	if err != nil {
		log.Printf("Alerts: feed unavailable, using placeholder events: %v", err)
		return prediction.Event{}, false
	}

	now := s.now()
	for _, a := range alerts {
		if a.Affects(line) && a.ActiveAt(now) {
			return prediction.Event{NearEvent: true, TypeCode: EventTypeForCause(a.Cause)}, true
		}
	}
	return prediction.Event{}, true
}

func (s *Source) fetchFeed(ctx context.Context) (*gtfs.FeedMessage, error) {
	if s.url == "" {
		return nil, errors.New("alerts feed URL is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	feed := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, feed); err != nil {
		return nil, fmt.Errorf("failed to parse protobuf: %w", err)
	}

	return feed, nil
}
