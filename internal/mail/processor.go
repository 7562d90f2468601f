package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"authd/internal/queue"
)

// Processor turns queued e-mail jobs into SMTP deliveries.
type Processor struct {
	mailer *Mailer
	log    zerolog.Logger
}

func NewProcessor(mailer *Mailer, log zerolog.Logger) *Processor {
	return &Processor{mailer: mailer, log: log}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	kind, _ := msg.Values["kind"].(string)
	to, _ := msg.Values["to"].(string)
	token, _ := msg.Values["token"].(string)

	if to == "" || token == "" {
		return fmt.Errorf("malformed e-mail job %s: missing to/token", msg.ID)
	}

	switch kind {
	case queue.EmailKindActivation:
		expiresAt := time.Now().UTC()
		if raw, ok := msg.Values["expires_at"].(string); ok {
			if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
				expiresAt = parsed
			}
		}
		if err := p.mailer.SendActivation(to, token, expiresAt); err != nil {
			return err
		}
	case queue.EmailKindPasswordReset:
		if err := p.mailer.SendPasswordReset(to, token); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown e-mail kind %q", kind)
	}

	p.log.Info().
		Str("kind", kind).
		Str("message_id", msg.ID).
		Msg("e-mail sent")
	return nil
}
