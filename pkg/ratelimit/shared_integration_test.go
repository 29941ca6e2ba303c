//go:build integration

package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: endpoint,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestSharedWindow_Integration_Consume(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	window := NewSharedWindow(redisClient, "it")
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		adm, err := window.Consume(ctx, "integration-key", 5, time.Minute)
		if err != nil {
			t.Fatalf("Consume() error = %v", err)
		}
		if !adm.Allowed {
			t.Fatalf("Consume() #%d denied, want allowed", i)
		}
		if adm.Uses != int64(i) {
			t.Errorf("Uses = %d, want %d", adm.Uses, i)
		}
	}

	adm, err := window.Consume(ctx, "integration-key", 5, time.Minute)
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if adm.Allowed {
		t.Error("Consume() #6 allowed, want denied")
	}
	if adm.ResetIn <= 0 || adm.ResetIn > time.Minute {
		t.Errorf("ResetIn = %v, want within (0, 1m]", adm.ResetIn)
	}
}

func TestSharedWindow_Integration_WindowExpires(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	window := NewSharedWindow(redisClient, "it")
	ctx := context.Background()

	if _, err := window.Consume(ctx, "short-key", 1, 500*time.Millisecond); err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	adm, _ := window.Consume(ctx, "short-key", 1, 500*time.Millisecond)
	if adm.Allowed {
		t.Fatal("second Consume() allowed within the window")
	}

	time.Sleep(600 * time.Millisecond)

	adm, err := window.Consume(ctx, "short-key", 1, 500*time.Millisecond)
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if !adm.Allowed {
		t.Error("Consume() denied after the window expired")
	}
}

func TestPool_Integration_ConcurrentPoolsShareQuota(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	cfg := DefaultConfig()
	cfg.WindowLimit = 40
	cfg.Shared = NewSharedWindow(redisClient, "it")

	logger := zerolog.Nop()
	pools := make([]*Pool, 4)
	for i := range pools {
		p, err := NewPool([]string{"pooled-key"}, cfg, logger)
		if err != nil {
			t.Fatalf("NewPool() error = %v", err)
		}
		pools[i] = p
	}

	var mu sync.Mutex
	admitted := 0
	var wg sync.WaitGroup
	for _, p := range pools {
		wg.Add(1)
		go func(p *Pool) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				if _, ok, err := p.TryAcquire(context.Background()); err == nil && ok {
					mu.Lock()
					admitted++
					mu.Unlock()
				}
			}
		}(p)
	}
	wg.Wait()

	if admitted != 40 {
		t.Errorf("admitted = %d, want 40", admitted)
	}
}
