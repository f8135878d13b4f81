package ledgerstore

import (
	"context"
	"io"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/storefront_backend/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, nil, "salesRecords", quietLogger()), mr
}

func TestRedisStore_LoadAbsentKey(t *testing.T) {
	store, _ := setupTestRedis(t)

	data, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestRedisStore_SaveAndLoad(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, []byte(`[{"total":8.26}]`)))

	raw, err := mr.Get("salesRecords")
	require.NoError(t, err)
	assert.Equal(t, `[{"total":8.26}]`, raw)
	assert.Equal(t, time.Duration(0), mr.TTL("salesRecords"), "ledger key must not expire")
	assert.False(t, mr.Exists("lock:salesRecords"), "lock must be released after save")

	data, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[{"total":8.26}]`, string(data))
}

func TestRedisStore_SaveWritesEvenWhenLockHeld(t *testing.T) {
	store, mr := setupTestRedis(t)
	store.LockTTL = time.Second
	require.NoError(t, mr.Set("lock:salesRecords", "someone-else"))

	require.NoError(t, store.Save(context.Background(), []byte("[]")))

	raw, err := mr.Get("salesRecords")
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
	got, _ := mr.Get("lock:salesRecords")
	assert.Equal(t, "someone-else", got, "foreign lock must be left alone")
}

func TestRedisStore_ServerDown(t *testing.T) {
	store, mr := setupTestRedis(t)
	mr.Close()

	_, err := store.Load(context.Background())
	assert.Error(t, err)
	assert.Error(t, store.Save(context.Background(), []byte("[]")))
}

func TestRedisStore_LedgerRoundTrip(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	writer := models.NewSalesLedger(store, quietLogger(), time.UTC)
	cart := models.NewCart()
	_, err := cart.Add("Burger", decimal.RequireFromString("5.00"))
	require.NoError(t, err)
	details := models.CustomerDetails{
		Customer:      models.Customer{Name: "Asha", Phone: "9876543210", Address: "Pune"},
		PaymentMethod: models.PaymentMethodUPI,
	}
	res := writer.Commit(ctx, models.NewSaleRecord(cart.Items(), details, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), time.UTC))
	require.True(t, res.OK(), "commit result: %+v", res)

	reader := models.NewSalesLedger(store, quietLogger(), time.UTC)
	require.Equal(t, 1, reader.Load(ctx))
	rec := reader.Records()[0]
	assert.True(t, rec.Total.Equal(decimal.RequireFromString("5.90")))
	assert.Equal(t, models.PaymentMethodUPI, rec.PaymentMethod)
}
