package queue

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	EmailKindActivation    = "activation"
	EmailKindPasswordReset = "password_reset"
)

// EmailPublisher enqueues outbound e-mail jobs on a Redis stream. Delivery
// happens in the worker; the API only ever appends.
type EmailPublisher struct {
	client *redis.Client
	stream string
}

func NewEmailPublisher(client *redis.Client, stream string) *EmailPublisher {
	return &EmailPublisher{client: client, stream: stream}
}

func (p *EmailPublisher) SendActivation(ctx context.Context, to, token string, expiresAt time.Time) error {
	return p.publish(ctx, map[string]any{
		"kind":       EmailKindActivation,
		"to":         to,
		"token":      token,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
	})
}

func (p *EmailPublisher) SendPasswordReset(ctx context.Context, to, token string) error {
	return p.publish(ctx, map[string]any{
		"kind":  EmailKindPasswordReset,
		"to":    to,
		"token": token,
	})
}

func (p *EmailPublisher) publish(ctx context.Context, values map[string]any) error {
	_, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}).Result()
	return err
}
