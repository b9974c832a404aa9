package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/redis"
)

func TestNewClient_ReturnsErrorWhenAddressEmpty(t *testing.T) {
	t.Parallel()

	client, err := redis.NewClient(context.Background(), redis.Config{})

	require.ErrorIs(t, err, redis.ErrEmptyAddress)
	assert.Nil(t, client)
}

func TestNewClient_ConnectsToRedis(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)

	client, err := redis.NewClient(context.Background(), redis.Config{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNewClient_PingFailure(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	client, err := redis.NewClient(context.Background(), redis.Config{Address: addr})
	require.Error(t, err)
	assert.Nil(t, client)
}
