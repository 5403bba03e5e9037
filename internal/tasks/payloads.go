package tasks

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeEmailApplication = "email:application"
	TypeCampaignRun      = "campaign:run"
)

// EmailApplicationPayload 描述发送一封投递邮件所需的全部信息。
type EmailApplicationPayload struct {
	ApplicationID string   `json:"application_id"`
	UserID        string   `json:"user_id"`
	ApplicantName string   `json:"applicant_name"`
	CompanyName   string   `json:"company_name"`
	PositionTitle string   `json:"position_title"`
	CoverLetter   string   `json:"cover_letter"`
	Recipients    []string `json:"recipients"`
	CorrelationID string   `json:"correlation_id"`
}

// CampaignRunPayload 描述执行一次邮件活动。
type CampaignRunPayload struct {
	CampaignID    string `json:"campaign_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewEmailApplicationTask 构造投递邮件任务。发送失败不重试。
func NewEmailApplicationTask(p EmailApplicationPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeEmailApplication, payload, asynq.MaxRetry(0)), nil
}

// NewCampaignRunTask 构造邮件活动任务。任务 ID 取活动 ID，队列拒绝同一活动的重复任务。
func NewCampaignRunTask(campaignID, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(CampaignRunPayload{
		CampaignID:    campaignID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeCampaignRun, payload, asynq.MaxRetry(0), asynq.TaskID(campaignRunTaskID(campaignID))), nil
}

func campaignRunTaskID(campaignID string) string {
	return TypeCampaignRun + ":" + campaignID
}

// Enqueuer 将任务提交到队列，调用方不等待任务完成。
type Enqueuer interface {
	EnqueueEmailApplication(ctx context.Context, p EmailApplicationPayload) error
	EnqueueCampaignRun(ctx context.Context, campaignID, correlationID string) error
}

// Client 是基于 asynq.Client 的 Enqueuer。
type Client struct {
	client *asynq.Client
}

// NewClient 包装 asynq.Client。
func NewClient(client *asynq.Client) *Client {
	return &Client{client: client}
}

// EnqueueEmailApplication 实现 Enqueuer。
func (c *Client) EnqueueEmailApplication(ctx context.Context, p EmailApplicationPayload) error {
	task, err := NewEmailApplicationTask(p)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task)
	return err
}

// ErrCampaignQueued 表示该活动已有任务在队列中。
var ErrCampaignQueued = errors.New("campaign run already queued")

// EnqueueCampaignRun 实现 Enqueuer。
func (c *Client) EnqueueCampaignRun(ctx context.Context, campaignID, correlationID string) error {
	task, err := NewCampaignRunTask(campaignID, correlationID)
	if err != nil {
		return err
	}
	if _, err = c.client.EnqueueContext(ctx, task); errors.Is(err, asynq.ErrTaskIDConflict) {
		return ErrCampaignQueued
	}
	return err
}
