//go:build integration

package ratelimit

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
		container.Terminate(ctx)
	})
	return client
}

func TestTracker_Integration_RoundTrip(t *testing.T) {
	tracker := NewTracker(setupRedis(t), zerolog.Nop())
	ctx := context.Background()

	state, err := tracker.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if !state.IsHealthy {
		t.Error("default state should be healthy")
	}

	headers := http.Header{}
	headers.Set(HeaderRemaining, "42")
	headers.Set(HeaderReset, "30")
	if err := tracker.UpdateFromHeaders(ctx, headers); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	state, err = tracker.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.Remaining != 42 {
		t.Errorf("Remaining = %d, want 42", state.Remaining)
	}
	if d := state.TimeUntilReset(); d <= 0 || d > 31*time.Second {
		t.Errorf("TimeUntilReset() = %v, want (0, 31s]", d)
	}
}

func TestTracker_Integration_ShouldAllowRequest(t *testing.T) {
	tests := []struct {
		name      string
		remaining string
		want      bool
	}{
		{name: "healthy", remaining: "100", want: true},
		{name: "warning throttles but allows", remaining: "5", want: true},
		{name: "critical blocks", remaining: "1", want: false},
	}

	tracker := NewTracker(setupRedis(t), zerolog.Nop())
	tracker.throttleDelay = 10 * time.Millisecond
	ctx := context.Background()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			headers.Set(HeaderRemaining, tt.remaining)
			headers.Set(HeaderReset, "60")
			if err := tracker.UpdateFromHeaders(ctx, headers); err != nil {
				t.Fatalf("UpdateFromHeaders() error = %v", err)
			}

			allowed, err := tracker.ShouldAllowRequest(ctx)
			if err != nil {
				t.Fatalf("ShouldAllowRequest() error = %v", err)
			}
			if allowed != tt.want {
				t.Errorf("ShouldAllowRequest() = %v, want %v", allowed, tt.want)
			}
		})
	}
}
