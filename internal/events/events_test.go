package events

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"agentpack/internal/model"
)

func startTestRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(server.Close)
	return server
}

func TestPublishRunEventToRedisStream(t *testing.T) {
	server := startTestRedis(t)

	publisher, err := NewRedisPublisher("redis://"+server.Addr()+"/0", "agentpack-test")
	if err != nil {
		t.Fatalf("create publisher: %v", err)
	}
	t.Cleanup(func() { _ = publisher.Close() })

	event := model.RunEvent{
		RunID:      "run-events-1",
		Agent:      "linkrot",
		Status:     model.RunStatusCompleted,
		ExitCode:   0,
		FinishedAt: time.Now().UTC(),
	}
	if err := publisher.PublishRunEvent(event); err != nil {
		t.Fatalf("publish run event: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	entries, err := client.XRange(context.Background(), "agentpack-test", "-", "+").Result()
	if err != nil {
		t.Fatalf("read stream: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 stream entry, got %d", len(entries))
	}
	if !strings.Contains(fmt.Sprint(entries[0].Values), "run-events-1") {
		t.Fatalf("stream entry missing run id: %v", entries[0].Values)
	}
}

func TestEmptyURLYieldsNopPublisher(t *testing.T) {
	publisher, err := NewPublisher("", "ignored")
	if err != nil {
		t.Fatalf("create publisher: %v", err)
	}
	if _, ok := publisher.(NopPublisher); !ok {
		t.Fatalf("expected NopPublisher, got %T", publisher)
	}
	if err := publisher.PublishRunEvent(model.RunEvent{RunID: "x"}); err != nil {
		t.Fatalf("nop publish: %v", err)
	}
	if err := publisher.Close(); err != nil {
		t.Fatalf("nop close: %v", err)
	}
}

func TestBadRedisURLFails(t *testing.T) {
	if _, err := NewPublisher("not-a-url", "stream"); err == nil {
		t.Fatalf("expected invalid redis url to fail")
	}
}
