package main

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdpnode/internal/pip/history"
	"pdpnode/internal/platform/redis"
)

// silentListener accepts connections and never answers.
func silentListener(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var mu sync.Mutex
	var conns []net.Conn
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	return ln.Addr().String()
}

func TestHealthIsBoundedWhenBackendHangs(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{
		Addr:                  silentListener(t),
		MaxRetries:            -1,
		ReadTimeout:           time.Minute,
		ContextTimeoutEnabled: true,
	})
	t.Cleanup(func() { _ = client.Close() })
	b := &backends{store: history.Unavailable{}, cache: &redis.Client{Client: client}, healthTimeout: 100 * time.Millisecond}

	start := time.Now()
	err := b.Health(context.Background())

	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestHealthWithoutBackends(t *testing.T) {
	b := &backends{store: history.Unavailable{}}
	assert.NoError(t, b.Health(context.Background()))
}
