package cache_test

import (
	"context"
	"errors"
	"time"

	"telemetry-server/internal/infra/cache"
	mockcache "telemetry-server/test/unit/doubles/infra/cache"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"
	"go.uber.org/mock/gomock"
)

type storedValue struct {
	Temp float64 `json:"temp"`
	BtnA int     `json:"btn_a"`
}

var _ = ginkgo.Describe("RedisCache", func() {
	var (
		redisCache      *cache.RedisCache
		mockCacheClient *mockcache.MockCacheClient
		ctrl            *gomock.Controller
		ctx             context.Context
	)

	ginkgo.BeforeEach(func() {
		ctrl = gomock.NewController(ginkgo.GinkgoT())
		mockCacheClient = mockcache.NewMockCacheClient(ctrl)
		redisCache = cache.NewRedisCacheWithClient(mockCacheClient, nil)
		ctx = context.Background()
	})

	ginkgo.AfterEach(func() {
		ctrl.Finish()
	})

	ginkgo.Context("Set", func() {
		ginkgo.When("the value is stored without TTL", func() {
			ginkgo.It("should send JSON to redis", func() {
				mockCacheClient.EXPECT().
					Set(gomock.Any(), "readings", []byte(`{"temp":23.5,"btn_a":1}`), time.Duration(0)).
					Return(redis.NewStatusCmd(ctx, "OK"))

				err := redisCache.Set(ctx, "readings", storedValue{Temp: 23.5, BtnA: 1}, 0)
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
			})
		})

		ginkgo.When("the value is stored with TTL", func() {
			ginkgo.It("should pass the TTL through", func() {
				mockCacheClient.EXPECT().
					Set(gomock.Any(), "readings", gomock.Any(), time.Minute).
					Return(redis.NewStatusCmd(ctx, "OK"))

				err := redisCache.Set(ctx, "readings", storedValue{}, time.Minute)
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
			})
		})

		ginkgo.When("redis rejects the command", func() {
			ginkgo.It("should return the error", func() {
				cmd := redis.NewStatusCmd(ctx)
				cmd.SetErr(errors.New("READONLY You can't write against a read only replica."))
				mockCacheClient.EXPECT().
					Set(gomock.Any(), "readings", gomock.Any(), time.Duration(0)).
					Return(cmd)

				err := redisCache.Set(ctx, "readings", storedValue{}, 0)
				gomega.Expect(err).To(gomega.HaveOccurred())
				gomega.Expect(err.Error()).To(gomega.ContainSubstring("READONLY"))
			})
		})
	})

	ginkgo.Context("Get", func() {
		ginkgo.When("the key exists", func() {
			ginkgo.It("should decode the stored JSON", func() {
				cmd := redis.NewStringCmd(ctx, "get", "readings")
				cmd.SetVal(`{"temp":19.25,"btn_a":0}`)
				mockCacheClient.EXPECT().Get(gomock.Any(), "readings").Return(cmd)

				var value storedValue
				found, err := redisCache.Get(ctx, "readings", &value)

				gomega.Expect(err).NotTo(gomega.HaveOccurred())
				gomega.Expect(found).To(gomega.BeTrue())
				gomega.Expect(value).To(gomega.Equal(storedValue{Temp: 19.25}))
			})
		})

		ginkgo.When("the key does not exist", func() {
			ginkgo.It("should report not found without error", func() {
				cmd := redis.NewStringCmd(ctx, "get", "readings")
				cmd.SetErr(redis.Nil)
				mockCacheClient.EXPECT().Get(gomock.Any(), "readings").Return(cmd)

				var value storedValue
				found, err := redisCache.Get(ctx, "readings", &value)

				gomega.Expect(err).NotTo(gomega.HaveOccurred())
				gomega.Expect(found).To(gomega.BeFalse())
			})
		})

		ginkgo.When("the connection fails", func() {
			ginkgo.It("should return the error", func() {
				cmd := redis.NewStringCmd(ctx, "get", "readings")
				cmd.SetErr(errors.New("dial tcp 127.0.0.1:6379: connect: connection refused"))
				mockCacheClient.EXPECT().Get(gomock.Any(), "readings").Return(cmd)

				var value storedValue
				found, err := redisCache.Get(ctx, "readings", &value)

				gomega.Expect(err).To(gomega.HaveOccurred())
				gomega.Expect(found).To(gomega.BeFalse())
			})
		})

		ginkgo.When("the stored value is not JSON", func() {
			ginkgo.It("should return a decoding error", func() {
				cmd := redis.NewStringCmd(ctx, "get", "readings")
				cmd.SetVal("not-json")
				mockCacheClient.EXPECT().Get(gomock.Any(), "readings").Return(cmd)

				var value storedValue
				_, err := redisCache.Get(ctx, "readings", &value)

				gomega.Expect(err).To(gomega.MatchError(cache.ErrUndecodable))
			})
		})
	})
})
