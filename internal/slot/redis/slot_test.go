package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/rocketshoes-cart/internal/domain"
)

const testKey = "@RocketShoes:cart"

func setupTestRedis(t *testing.T, ttl time.Duration) (*Slot, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSlot(client, testKey, ttl), mr
}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

func TestSlot_Load_Success(t *testing.T) {
	s, mr := setupTestRedis(t, 0)
	require.NoError(t, mr.Set(testKey, `[{"id":1,"title":"Tênis","price":179.9,"image":"a.jpg","amount":3}]`))

	data, err := s.Load(context.Background())
	require.NoError(t, err)

	cart, err := domain.DecodeCart(data)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Amount)
}

func TestSlot_Load_NotFound(t *testing.T) {
	s, _ := setupTestRedis(t, 0)

	data, err := s.Load(context.Background())
	assert.Nil(t, data)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSlot_Load_ConnectionError(t *testing.T) {
	s, mr := setupTestRedis(t, 0)
	mr.Close()

	_, err := s.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis get cart slot")
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

// ---------------------------------------------------------------------------
// Save
// ---------------------------------------------------------------------------

func TestSlot_Save_RoundTrip(t *testing.T) {
	s, mr := setupTestRedis(t, 0)
	ctx := context.Background()

	orig := domain.Cart{Items: []domain.LineItem{
		{ID: 2, Title: "Tênis VR Caminhada", Price: decimal.RequireFromString("139.9"), Image: "b.jpg", Amount: 1},
		{ID: 1, Title: "Tênis de Caminhada", Price: decimal.RequireFromString("179.9"), Image: "a.jpg", Amount: 2},
	}}
	data, err := domain.EncodeCart(orig)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, data))
	assert.True(t, mr.Exists(testKey))
	assert.Equal(t, time.Duration(0), mr.TTL(testKey))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	got, err := domain.DecodeCart(loaded)
	require.NoError(t, err)
	assert.True(t, orig.Equal(got))
}

func TestSlot_Save_Overwrites(t *testing.T) {
	s, mr := setupTestRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, []byte(`[{"id":1,"amount":1}]`)))
	require.NoError(t, s.Save(ctx, []byte(`[]`)))

	raw, err := mr.Get(testKey)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestSlot_Save_SetsTTL(t *testing.T) {
	s, mr := setupTestRedis(t, time.Hour)

	require.NoError(t, s.Save(context.Background(), []byte(`[]`)))
	assert.Equal(t, time.Hour, mr.TTL(testKey))
}

func TestSlot_Save_ConnectionError(t *testing.T) {
	s, mr := setupTestRedis(t, 0)
	mr.Close()

	err := s.Save(context.Background(), []byte(`[]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis set cart slot")
}

func TestSlot_Ping(t *testing.T) {
	s, mr := setupTestRedis(t, 0)
	assert.NoError(t, s.Ping(context.Background()))

	mr.Close()
	assert.Error(t, s.Ping(context.Background()))
}
