// Package mailer 渲染投递邮件并通过事务邮件服务发送。
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"careerPilot/internal/config"
)

// Message 是一封待发送的 HTML 邮件。
type Message struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Sender 发送邮件并返回服务商的消息 ID。
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Resend 是 Resend HTTP 接口的客户端。
type Resend struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewResend 创建客户端；client 为空时使用 http.DefaultClient。
func NewResend(cfg config.EmailConfig, client *http.Client) *Resend {
	if client == nil {
		client = http.DefaultClient
	}
	return &Resend{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  client,
	}
}

// Send 实现 Sender。
func (r *Resend) Send(ctx context.Context, msg Message) (string, error) {
	if len(msg.To) == 0 {
		return "", errors.New("no recipients")
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return "", errors.Wrap(err, "encode email")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "build email request")
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "send email")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "read email response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := gjson.GetBytes(body, "message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return "", errors.Errorf("email provider status %d: %s", resp.StatusCode, msg)
	}

	id := gjson.GetBytes(body, "id").String()
	if id == "" {
		return "", errors.New("email provider returned no message id")
	}
	return id, nil
}
