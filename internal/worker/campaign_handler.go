package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"careerPilot/internal/database"
	"careerPilot/internal/errcode"
	"careerPilot/internal/metrics"
	"careerPilot/internal/status"
	"careerPilot/internal/store"
	"careerPilot/internal/tasks"
)

// CampaignPause 是每次成功发送后的固定间隔。
const CampaignPause = 2 * time.Second

// CampaignStore 是活动任务依赖的存储能力。
type CampaignStore interface {
	GetCampaign(ctx context.Context, id string) (*database.EmailCampaign, error)
	TransitionCampaign(ctx context.Context, id string, to status.Campaign, fields map[string]any) (*database.EmailCampaign, error)
	FindContactByCompany(ctx context.Context, company string) (*database.CompanyContact, error)
}

// CampaignMailer 发送活动邮件。
type CampaignMailer interface {
	SendCampaign(ctx context.Context, to []string, subject, body string) (string, error)
}

// CampaignTaskHandler 按顺序向目标公司发送活动邮件。
type CampaignTaskHandler struct {
	store    CampaignStore
	mailer   CampaignMailer
	notifier Notifier
	logger   *slog.Logger
	pause    func(ctx context.Context, d time.Duration)
}

// NewCampaignTaskHandler 创建任务处理器。
func NewCampaignTaskHandler(s CampaignStore, m CampaignMailer, n Notifier, logger *slog.Logger) *CampaignTaskHandler {
	return &CampaignTaskHandler{store: s, mailer: m, notifier: n, logger: logger, pause: sleep}
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// ProcessTask 实现 asynq.Handler。
// 缺少联系人的公司直接跳过；单次发送失败只记录日志，不中止活动。
func (h *CampaignTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	log := h.logger

	var payload tasks.CampaignRunPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("campaign_id", payload.CampaignID),
	)

	campaign, err := h.store.GetCampaign(ctx, payload.CampaignID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("campaign not found, skipping task")
			return nil
		}
		log.Error("query campaign failed", slog.Any("error", err))
		return err
	}

	// draft→active 是认领：只有完成这次条件更新的任务才会发送
	if campaign.Status != status.CampaignDraft {
		log.Warn("campaign not in draft, skipping task", slog.String("status", string(campaign.Status)))
		return nil
	}
	campaign, err = h.store.TransitionCampaign(ctx, campaign.ID, status.CampaignActive, nil)
	if err != nil {
		if errors.Is(err, status.ErrInvalidTransition) {
			log.Warn("campaign claimed by another task, skipping")
			return nil
		}
		log.Error("activate campaign failed", slog.Any("error", err))
		return err
	}
	h.notify(ctx, log, campaign, payload.CorrelationID, nil)

	sent := 0
	for _, company := range campaign.TargetCompanies {
		if ctx.Err() != nil {
			log.Warn("campaign interrupted", slog.Any("error", ctx.Err()))
			break
		}

		contact, err := h.store.FindContactByCompany(ctx, company)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				log.Error("lookup company contact failed", slog.String("company", company), slog.Any("error", err))
			}
			metrics.CampaignSend("skipped")
			continue
		}
		if len(contact.EmailAddresses) == 0 {
			metrics.CampaignSend("skipped")
			continue
		}

		emailID, err := h.mailer.SendCampaign(ctx, contact.EmailAddresses, campaign.EmailSubject, campaign.EmailTemplate)
		if err != nil {
			log.Error("send campaign email failed", slog.String("company", company), slog.Any("error", err))
			metrics.CampaignSend("failed")
			continue
		}
		sent++
		metrics.CampaignSend("sent")
		log.Info("campaign email sent", slog.String("company", company), slog.String("email_id", emailID))
		h.pause(ctx, CampaignPause)
	}

	// 进程退出时 ctx 已取消，收尾仍需写入已发送计数
	finalCtx := context.WithoutCancel(ctx)
	done, err := h.store.TransitionCampaign(finalCtx, campaign.ID, status.CampaignCompleted, map[string]any{
		"emails_sent": sent,
	})
	if err != nil {
		log.Error("complete campaign failed", slog.Int("emails_sent", sent), slog.Any("error", err))
		return err
	}
	h.notify(finalCtx, log, done, payload.CorrelationID, &sent)

	log.Info("campaign completed", slog.Int("emails_sent", sent))
	return nil
}

func (h *CampaignTaskHandler) notify(ctx context.Context, log *slog.Logger, c *database.EmailCampaign, correlationID string, sent *int) {
	msg := StatusNotifyMessage{
		Kind:          KindCampaign,
		ID:            c.ID,
		Status:        string(c.Status),
		CorrelationID: correlationID,
		ErrorCode:     errcode.OK,
		EmailsSent:    sent,
	}
	if err := h.notifier.Notify(ctx, c.UserID, msg); err != nil {
		log.Warn("publish status notification failed", slog.Any("error", err))
	}
}
