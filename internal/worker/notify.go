package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// 统一的 WebSocket 消息协议（通过 Redis Pub/Sub 转发给前端）。
// 注意：这里的字段名与前端解析保持一致。
type StatusNotifyMessage struct {
	Kind          string `json:"kind"`
	ID            string `json:"id"`
	Status        string `json:"status"`
	CorrelationID string `json:"correlation_id"`
	ErrorCode     int    `json:"error_code"`
	ErrorMessage  string `json:"error_message,omitempty"`
	EmailsSent    *int   `json:"emails_sent,omitempty"`
}

const (
	KindApplication = "application"
	KindCampaign    = "campaign"
)

// NotifyChannel 返回用户的通知频道名。
func NotifyChannel(userID string) string {
	return fmt.Sprintf("user_notify:%s", userID)
}

// Notifier 把状态变化推送给订阅该用户的客户端。
type Notifier interface {
	Notify(ctx context.Context, userID string, msg StatusNotifyMessage) error
}

// RedisNotifier 通过 Redis Pub/Sub 发布通知。
type RedisNotifier struct {
	client *redis.Client
}

// NewRedisNotifier 创建 RedisNotifier。
func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

// Notify 实现 Notifier。
func (n *RedisNotifier) Notify(ctx context.Context, userID string, msg StatusNotifyMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := NotifyChannel(userID)
	if err := n.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}
