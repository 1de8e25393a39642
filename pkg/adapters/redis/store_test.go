package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jas0n325/captone-ui-sub006/pkg/adapters/redis"
	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
	"github.com/jas0n325/captone-ui-sub006/pkg/ports"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunSettingsStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("store7:"))
	ctx := context.Background()

	require.NoError(t, store.SaveTransactionNumber(ctx, "T01", 12))

	assert.True(t, mr.Exists("store7:settings:T01"))
	assert.Equal(t, "12", mr.HGet("store7:settings:T01", "transactionNumber"))
	members, err := mr.Members("store7:terminals")
	require.NoError(t, err)
	assert.Equal(t, []string{"T01"}, members)
}

func TestRedisStore_CorruptValue(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)

	mr.HSet("pos:settings:T01", "transactionNumber", "twelve")
	_, err := store.LoadTransactionNumber(context.Background(), "T01")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSettingNotFound)
}

func TestNew_URL(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := redis.New("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.SaveTransactionNumber(context.Background(), "T01", 1))

	_, err = redis.New("not a url")
	assert.Error(t, err)
}
