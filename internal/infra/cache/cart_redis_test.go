package cache

import (
	"context"
	"testing"

	"storefront/internal/domain/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type CartRedisStoreTestSuite struct {
	suite.Suite
	mr    *miniredis.Miniredis
	rdb   *redis.Client
	store *CartRedisStore
}

func (s *CartRedisStoreTestSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
	s.rdb = redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	s.store = NewCartRedisStore(s.rdb)
}

func (s *CartRedisStoreTestSuite) TearDownTest() {
	_ = s.rdb.Close()
}

func (s *CartRedisStoreTestSuite) TestSetAndGet() {
	ctx := context.Background()
	entry := model.CartEntry{ProductID: 10, Quantity: 2, Name: "Tea", Price: decimal.NewFromInt(29000), ImageURL: "tea.png"}

	require.NoError(s.T(), s.store.Set(ctx, 1, entry))

	got, err := s.store.Get(ctx, 1)
	require.NoError(s.T(), err)
	require.Len(s.T(), got, 1)
	require.Equal(s.T(), int64(2), got[10].Quantity)
	require.True(s.T(), got[10].Price.Equal(decimal.NewFromInt(29000)))

	// ハッシュの構造を確認
	require.True(s.T(), s.mr.Exists("cart:1"))
	keys, err := s.mr.HKeys("cart:1")
	require.NoError(s.T(), err)
	require.Equal(s.T(), []string{"10"}, keys)
}

func (s *CartRedisStoreTestSuite) TestSetOverwrites() {
	ctx := context.Background()
	require.NoError(s.T(), s.store.Set(ctx, 1, model.CartEntry{ProductID: 10, Quantity: 2}))
	require.NoError(s.T(), s.store.Set(ctx, 1, model.CartEntry{ProductID: 10, Quantity: 5}))

	got, err := s.store.Get(ctx, 1)
	require.NoError(s.T(), err)
	require.Equal(s.T(), int64(5), got[10].Quantity)
}

func (s *CartRedisStoreTestSuite) TestGetEmpty() {
	got, err := s.store.Get(context.Background(), 99)
	require.NoError(s.T(), err)
	require.Empty(s.T(), got)
}

func (s *CartRedisStoreTestSuite) TestRemove() {
	ctx := context.Background()
	require.NoError(s.T(), s.store.Set(ctx, 1, model.CartEntry{ProductID: 10, Quantity: 1}))

	removed, err := s.store.Remove(ctx, 1, 10)
	require.NoError(s.T(), err)
	require.True(s.T(), removed)

	removed, err = s.store.Remove(ctx, 1, 10)
	require.NoError(s.T(), err)
	require.False(s.T(), removed)
}

func (s *CartRedisStoreTestSuite) TestClearIsPerUser() {
	ctx := context.Background()
	require.NoError(s.T(), s.store.Set(ctx, 1, model.CartEntry{ProductID: 10, Quantity: 1}))
	require.NoError(s.T(), s.store.Set(ctx, 2, model.CartEntry{ProductID: 10, Quantity: 1}))

	require.NoError(s.T(), s.store.Clear(ctx, 1))

	got, err := s.store.Get(ctx, 1)
	require.NoError(s.T(), err)
	require.Empty(s.T(), got)

	got, err = s.store.Get(ctx, 2)
	require.NoError(s.T(), err)
	require.Len(s.T(), got, 1)
}

func (s *CartRedisStoreTestSuite) TestGetCorruptEntry() {
	s.mr.HSet("cart:1", "10", "{not json")

	_, err := s.store.Get(context.Background(), 1)
	require.ErrorIs(s.T(), err, model.ErrInvalidCartEntry)
}

func (s *CartRedisStoreTestSuite) TestGetNonPositiveQuantity() {
	s.mr.HSet("cart:1", "10", `{"productId":10,"quantity":0}`)

	_, err := s.store.Get(context.Background(), 1)
	require.ErrorIs(s.T(), err, model.ErrInvalidCartEntry)
}

func (s *CartRedisStoreTestSuite) TestSetRejectsInvalidEntry() {
	err := s.store.Set(context.Background(), 1, model.CartEntry{ProductID: 10, Quantity: -1})
	require.ErrorIs(s.T(), err, model.ErrInvalidCartEntry)
	require.False(s.T(), s.mr.Exists("cart:1"))
}

func TestCartRedisStoreTestSuite(t *testing.T) {
	suite.Run(t, new(CartRedisStoreTestSuite))
}
