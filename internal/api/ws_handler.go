package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"careerPilot/internal/worker"
)

const (
	pingInterval = 30 * time.Second
	pingTimeout  = 5 * time.Second
)

// WsHandler 把用户频道上的投递 / 活动状态通知转发到 WebSocket。
type WsHandler struct {
	redisClient    *redis.Client
	logger         *slog.Logger
	upgrader       websocket.Upgrader
	allowedOrigins []string
}

// NewWsHandler 构造 WebSocket 处理器。
func NewWsHandler(redisClient *redis.Client, logger *slog.Logger, allowedOrigins []string) *WsHandler {
	h := &WsHandler{
		redisClient:    redisClient,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

// 未配置白名单时只接受同源连接。
func (h *WsHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(h.allowedOrigins) == 0 {
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
	for _, allowed := range h.allowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// HandleConnection 升级连接后订阅 user_notify:{user_id}，直到任一方断开。
func (h *WsHandler) HandleConnection(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("user_id"))
	if userID == "" {
		BadRequest(c, "user_id is required")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("upgrade websocket failed", slog.Any("error", err))
		return
	}

	log := h.logger.With(
		slog.String("client_ip", c.ClientIP()),
		slog.String("user_id", userID),
	)

	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error { return drain(conn) })
	g.Go(func() error { return h.relay(ctx, conn, worker.NotifyChannel(userID), log) })
	g.Go(func() error {
		// 关闭连接以唤醒阻塞中的 ReadMessage
		<-ctx.Done()
		return conn.Close()
	})

	if err := g.Wait(); err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		log.Info("websocket connection closed", slog.Any("error", err))
		return
	}
	log.Info("websocket connection closed")
}

// drain 丢弃客户端消息，只用于感知断开。
func drain(conn *websocket.Conn) error {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return err
		}
	}
}

func (h *WsHandler) relay(ctx context.Context, conn *websocket.Conn, channel string, log *slog.Logger) error {
	pubsub := h.redisClient.Subscribe(ctx, channel)
	defer pubsub.Close()
	log.Info("subscribed to redis channel", slog.String("channel", channel))

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return errors.New("pubsub channel closed")
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return fmt.Errorf("write message: %w", err)
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(pingTimeout)); err != nil {
				return fmt.Errorf("write ping: %w", err)
			}
		}
	}
}
