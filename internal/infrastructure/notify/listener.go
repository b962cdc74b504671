package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/alderburg/Teste-sub001/pkg/messaging"
)

// Invalidator drops cached data of an account
type Invalidator interface {
	Invalidate(accountID string)
}

// InvalidationListener applies invalidations published by other replicas
type InvalidationListener struct {
	client      messaging.RedisClient
	channel     string
	invalidator Invalidator
	logger      *zap.Logger
}

func NewInvalidationListener(client messaging.RedisClient, channel string, invalidator Invalidator, logger *zap.Logger) *InvalidationListener {
	return &InvalidationListener{
		client:      client,
		channel:     channel,
		invalidator: invalidator,
		logger:      logger,
	}
}

// Run subscribes and blocks until ctx is done
func (l *InvalidationListener) Run(ctx context.Context) error {
	msgs, err := l.client.Subscribe(ctx, l.channel)
	if err != nil {
		return err
	}
	l.logger.Info("Listening for billing invalidations", zap.String("channel", l.channel))

	for msg := range msgs {
		var event InvalidationEvent
		if err := msg.Decode(&event); err != nil {
			l.logger.Warn("Ignoring malformed invalidation",
				zap.String("channel", msg.Channel),
				zap.Error(err))
			continue
		}
		if event.AccountID == "" {
			continue
		}
		l.invalidator.Invalidate(event.AccountID)
	}
	return nil
}
