package display

import (
	"context"
	"encoding/json"
	"log"

	redis "github.com/redis/go-redis/v9"

	"kedaipos/backend/internal/domain"
)

const (
	messageCartUpdate          = "UPDATE_CART"
	messageTransactionComplete = "TRANSACTION_COMPLETE"
)

type message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// RedisNotifier publishes display messages on a Redis pub/sub channel that
// customer-display clients subscribe to.
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

func NewRedisNotifier(addr string, password string, db int, channel string) *RedisNotifier {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if channel == "" {
		channel = "customer_display"
	}

	return &RedisNotifier{client: client, channel: channel}
}

func (n *RedisNotifier) Ping(ctx context.Context) error {
	return n.client.Ping(ctx).Err()
}

func (n *RedisNotifier) Close() error {
	return n.client.Close()
}

func (n *RedisNotifier) NotifyCartUpdate(ctx context.Context, update CartUpdate) {
	n.publish(ctx, message{Type: messageCartUpdate, Payload: update})
}

func (n *RedisNotifier) NotifyTransactionComplete(ctx context.Context, tx domain.Transaction) {
	n.publish(ctx, message{Type: messageTransactionComplete, Payload: tx})
}

func (n *RedisNotifier) publish(ctx context.Context, msg message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[display] WARN: failed to encode %s message: %v", msg.Type, err)
		return
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		log.Printf("[display] WARN: failed to publish %s message: %v", msg.Type, err)
	}
}
