package redis

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func configFor(t *testing.T, mr *miniredis.Miniredis) Config {
	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)
	return Config{Host: host, Port: port, PoolSize: 2}
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewClient(configFor(t, mr), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
	assert.NoError(t, c.Ping(context.Background()))
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := configFor(t, mr)
	mr.Close()

	_, err := NewClient(cfg, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "failed to connect to Redis at "+cfg.Addr())
}

func TestClient_Check(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := NewClient(configFor(t, mr), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer c.Close()

	check := c.Check(time.Second)
	assert.NoError(t, check())

	mr.Close()
	assert.Error(t, check())
}

func TestConfig_Addr(t *testing.T) {
	assert.Equal(t, "localhost:6379", Config{Host: "localhost", Port: "6379"}.Addr())
}
