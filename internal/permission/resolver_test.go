package permission

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/frahmantamala/visitor-management/pkg/logger"
)

var _ = ginkgo.Describe("Resolver", func() {
	var (
		store    *fakeStore
		cache    *fakeCache
		metrics  *Metrics
		resolver *Resolver
		ctx      context.Context
		cfg      ResolverConfig
	)

	build := func() {
		resolver = NewResolver(store, cache, cfg, logger.Discard(), metrics)
	}

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		store = newFakeStore(map[int64][]string{
			1: {Wildcard},
			7: {"view:visitors", "update:appointments"},
		})
		cache = newFakeCache()
		metrics = NewMetrics(prometheus.NewRegistry())
		cfg = ResolverConfig{TTL: time.Hour, CacheTimeout: 50 * time.Millisecond, StoreTimeout: time.Second}
		build()
	})

	lookups := func(result string) float64 {
		return testutil.ToFloat64(metrics.Lookups.WithLabelValues(result))
	}

	ginkgo.Describe("Resolve", func() {
		ginkgo.It("should load from the store on a miss and serve the next call from cache", func() {
			// When
			first, err := resolver.Resolve(ctx, 7)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			second, err := resolver.Resolve(ctx, 7)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			// Then
			gomega.Expect(first.Strings()).To(gomega.Equal([]string{"update:appointments", "view:visitors"}))
			gomega.Expect(second.Equal(first)).To(gomega.BeTrue())
			gomega.Expect(store.calls.Load()).To(gomega.Equal(int32(1)))
			gomega.Expect(lookups("miss")).To(gomega.Equal(1.0))
			gomega.Expect(lookups("hit")).To(gomega.Equal(1.0))
		})

		ginkgo.It("should cache an empty grant set as a hit", func() {
			_, err := resolver.Resolve(ctx, 99)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			set, err := resolver.Resolve(ctx, 99)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(set.Len()).To(gomega.BeZero())
			gomega.Expect(store.calls.Load()).To(gomega.Equal(int32(1)))
		})

		ginkgo.It("should mark wildcard roles unrestricted", func() {
			set, err := resolver.Resolve(ctx, 1)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(set.Unrestricted()).To(gomega.BeTrue())
		})

		ginkgo.It("should treat a cache fault as a miss", func() {
			cache.fail(errors.New("redis unreachable"), nil, nil)

			set, err := resolver.Resolve(ctx, 7)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(set.Has("view:visitors")).To(gomega.BeTrue())
			gomega.Expect(lookups("fault")).To(gomega.Equal(1.0))
		})

		ginkgo.It("should treat a hanging cache as a miss once the cache timeout passes", func() {
			cache.hang = true

			set, err := resolver.Resolve(ctx, 7)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(set.Has("update:appointments")).To(gomega.BeTrue())
		})

		ginkgo.It("should still answer when the write back fails", func() {
			cache.fail(nil, errors.New("read only replica"), nil)

			set, err := resolver.Resolve(ctx, 7)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(set.Len()).To(gomega.Equal(2))
		})

		ginkgo.It("should fail with ErrStore when the store fails", func() {
			store.setError(errStoreDown)

			_, err := resolver.Resolve(ctx, 7)

			gomega.Expect(err).To(gomega.MatchError(ErrStore))
			gomega.Expect(testutil.ToFloat64(metrics.StoreErrors)).To(gomega.Equal(1.0))
		})

		ginkgo.It("should not cache a failed load", func() {
			store.setError(errStoreDown)
			_, err := resolver.Resolve(ctx, 7)
			gomega.Expect(err).To(gomega.HaveOccurred())

			store.setError(nil)
			set, err := resolver.Resolve(ctx, 7)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(set.Len()).To(gomega.Equal(2))
		})

		ginkgo.It("should bound the store query with the store timeout", func() {
			cfg.StoreTimeout = 20 * time.Millisecond
			build()
			store.hold = true

			_, err := resolver.Resolve(ctx, 7)

			gomega.Expect(err).To(gomega.MatchError(ErrStore))
			gomega.Expect(err.Error()).To(gomega.ContainSubstring(context.DeadlineExceeded.Error()))
		})

		ginkgo.It("should share one load between concurrent callers", func() {
			store.hold = true
			const callers = 8

			var wg sync.WaitGroup
			results := make([]Set, callers)
			errs := make([]error, callers)

			wg.Add(1)
			go func() {
				defer wg.Done()
				results[0], errs[0] = resolver.Resolve(ctx, 7)
			}()
			<-store.entered

			for i := 1; i < callers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					results[i], errs[i] = resolver.Resolve(ctx, 7)
				}(i)
			}
			time.Sleep(20 * time.Millisecond)
			close(store.release)
			wg.Wait()

			for i := 0; i < callers; i++ {
				gomega.Expect(errs[i]).ToNot(gomega.HaveOccurred())
				gomega.Expect(results[i].Equal(results[0])).To(gomega.BeTrue())
			}
			gomega.Expect(store.calls.Load()).To(gomega.BeNumerically("<", callers))
		})

		ginkgo.It("should not fail other callers when one caller cancels", func() {
			store.hold = true
			cancelCtx, cancel := context.WithCancel(ctx)

			firstErr := make(chan error, 1)
			go func() {
				_, err := resolver.Resolve(cancelCtx, 7)
				firstErr <- err
			}()
			<-store.entered

			type outcome struct {
				set Set
				err error
			}
			second := make(chan outcome, 1)
			go func() {
				set, err := resolver.Resolve(ctx, 7)
				second <- outcome{set, err}
			}()

			cancel()
			gomega.Eventually(firstErr).Should(gomega.Receive(gomega.MatchError(context.Canceled)))

			close(store.release)
			var got outcome
			gomega.Eventually(second).Should(gomega.Receive(&got))
			gomega.Expect(got.err).ToNot(gomega.HaveOccurred())
			gomega.Expect(got.set.Has("view:visitors")).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("Invalidate", func() {
		ginkgo.It("should make the next resolve reflect the store", func() {
			before, err := resolver.Resolve(ctx, 7)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(before.Has("view:visitors")).To(gomega.BeTrue())

			// When
			store.setGrants(7, []string{})
			gomega.Expect(resolver.Invalidate(ctx, 7)).To(gomega.Succeed())

			// Then
			after, err := resolver.Resolve(ctx, 7)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(after.Len()).To(gomega.BeZero())
			gomega.Expect(testutil.ToFloat64(metrics.Invalidations)).To(gomega.Equal(1.0))
		})

		ginkgo.It("should leave other roles cached", func() {
			_, err := resolver.Resolve(ctx, 1)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			_, err = resolver.Resolve(ctx, 7)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			gomega.Expect(resolver.Invalidate(ctx, 7)).To(gomega.Succeed())

			gomega.Expect(cache.MemoryCache.Get(ctx, 1).Status).To(gomega.Equal(CacheHit))
			gomega.Expect(cache.MemoryCache.Get(ctx, 7).Status).To(gomega.Equal(CacheMiss))
		})

		ginkgo.It("should report a failed delete with ErrInvalidate", func() {
			cache.fail(nil, nil, errors.New("redis unreachable"))

			err := resolver.Invalidate(ctx, 7)

			gomega.Expect(err).To(gomega.MatchError(ErrInvalidate))
		})

		ginkgo.It("should keep a load that started before it from writing back", func() {
			store.hold = true

			stale := make(chan Set, 1)
			go func() {
				set, _ := resolver.Resolve(ctx, 7)
				stale <- set
			}()
			<-store.entered

			// Given a grant change while the first load is in flight
			store.setGrants(7, []string{"view:visitors"})
			gomega.Expect(resolver.Invalidate(ctx, 7)).To(gomega.Succeed())

			// When a later caller resolves
			fresh, err := resolver.Resolve(ctx, 7)

			// Then it does not join the stale load
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(fresh.Strings()).To(gomega.Equal([]string{"view:visitors"}))

			close(store.release)
			var old Set
			gomega.Eventually(stale).Should(gomega.Receive(&old))
			gomega.Expect(old.Len()).To(gomega.Equal(2))

			cached := cache.MemoryCache.Get(ctx, 7)
			gomega.Expect(cached.Status).To(gomega.Equal(CacheHit))
			gomega.Expect(cached.Set.Strings()).To(gomega.Equal([]string{"view:visitors"}))
		})
	})
})
