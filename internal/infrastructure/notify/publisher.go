package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/alderburg/Teste-sub001/internal/usecase"
	"github.com/alderburg/Teste-sub001/pkg/messaging"
)

// InvalidationEvent tells every replica that cached billing data of an account is stale
type InvalidationEvent struct {
	AccountID string    `json:"accountId"`
	Reason    string    `json:"reason"`
	At        time.Time `json:"at"`
}

const reasonSubscriptionChanged = "subscription_changed"

// RedisPublisher publishes flow events on redis channels
type RedisPublisher struct {
	client              messaging.RedisClient
	invalidationChannel string
	notificationChannel string
	logger              *zap.Logger
}

// NewRedisPublisher creates a publisher over an established redis client
func NewRedisPublisher(client messaging.RedisClient, invalidationChannel, notificationChannel string, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{
		client:              client,
		invalidationChannel: invalidationChannel,
		notificationChannel: notificationChannel,
		logger:              logger,
	}
}

func (p *RedisPublisher) PublishInvalidation(ctx context.Context, accountID string) error {
	event := InvalidationEvent{
		AccountID: accountID,
		Reason:    reasonSubscriptionChanged,
		At:        time.Now().UTC(),
	}
	if err := p.client.Publish(ctx, p.invalidationChannel, event); err != nil {
		return fmt.Errorf("publish invalidation: %w", err)
	}
	return nil
}

func (p *RedisPublisher) PublishActivated(ctx context.Context, event usecase.SubscriptionActivated) error {
	if err := p.client.Publish(ctx, p.notificationChannel, event); err != nil {
		return fmt.Errorf("publish activation: %w", err)
	}
	p.logger.Debug("Published subscription activation",
		zap.String("channel", p.notificationChannel),
		zap.String("subscription_id", event.SubscriptionID))
	return nil
}

// LogPublisher only logs; used when redis is disabled
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishInvalidation(_ context.Context, accountID string) error {
	p.logger.Info("Billing data invalidated", zap.String("account_id", accountID))
	return nil
}

func (p *LogPublisher) PublishActivated(_ context.Context, event usecase.SubscriptionActivated) error {
	p.logger.Info("Subscription activated",
		zap.String("account_id", event.AccountID),
		zap.String("subscription_id", event.SubscriptionID),
		zap.String("plan_id", event.PlanID),
		zap.String("charged_now", event.ChargedNow.StringFixed(2)))
	return nil
}
