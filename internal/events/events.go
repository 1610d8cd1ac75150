// Package events publishes run-completed notifications to a Redis
// stream. Publishing is fire-and-forget from the caller's point of
// view: a failed publish is reported but never affects the run itself.
package events

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"

	"agentpack/internal/model"
)

const DefaultStream = "agentpack-runs"

type Publisher interface {
	PublishRunEvent(event model.RunEvent) error
	Close() error
}

type NopPublisher struct{}

func (NopPublisher) PublishRunEvent(model.RunEvent) error { return nil }

func (NopPublisher) Close() error { return nil }

// NewPublisher returns a Redis-backed publisher when a URL is
// configured and a no-op publisher otherwise, so callers publish
// unconditionally.
func NewPublisher(redisURL string, stream string) (Publisher, error) {
	if strings.TrimSpace(redisURL) == "" {
		return NopPublisher{}, nil
	}
	return NewRedisPublisher(redisURL, stream)
}

type RedisPublisher struct {
	stream    string
	publisher message.Publisher
	client    redis.UniversalClient
}

func NewRedisPublisher(redisURL string, stream string) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(redisURL))
	if err != nil {
		return nil, fmt.Errorf("parse events redis url: %w", err)
	}
	client := redis.NewClient(opts)
	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client:     client,
			Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
		},
		watermill.NopLogger{},
	)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("create events publisher: %w", err)
	}
	if strings.TrimSpace(stream) == "" {
		stream = DefaultStream
	}
	return &RedisPublisher{
		stream:    stream,
		publisher: publisher,
		client:    client,
	}, nil
}

func (p *RedisPublisher) PublishRunEvent(event model.RunEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal run event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := p.publisher.Publish(p.stream, msg); err != nil {
		return fmt.Errorf("publish run event: %w", err)
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	err := p.publisher.Close()
	if cerr := p.client.Close(); err == nil {
		err = cerr
	}
	return err
}
