package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"

	"careerPilot/internal/database"
	"careerPilot/internal/errcode"
	"careerPilot/internal/mailer"
	"careerPilot/internal/metrics"
	"careerPilot/internal/status"
	"careerPilot/internal/store"
	"careerPilot/internal/tasks"
)

// ApplicationStore 是投递邮件任务依赖的存储能力。
type ApplicationStore interface {
	GetApplication(ctx context.Context, id string) (*database.JobApplication, error)
	TransitionApplication(ctx context.Context, id string, to status.Application, fields map[string]any) (*database.JobApplication, error)
}

// ApplicationMailer 发送投递邮件。
type ApplicationMailer interface {
	SendApplication(ctx context.Context, app mailer.Application) (string, error)
}

// EmailTaskHandler 消费投递邮件任务，这是投递记录离开 pending 的唯一入口。
type EmailTaskHandler struct {
	store    ApplicationStore
	mailer   ApplicationMailer
	notifier Notifier
	logger   *slog.Logger
}

// NewEmailTaskHandler 创建任务处理器。
func NewEmailTaskHandler(s ApplicationStore, m ApplicationMailer, n Notifier, logger *slog.Logger) *EmailTaskHandler {
	return &EmailTaskHandler{store: s, mailer: m, notifier: n, logger: logger}
}

// ProcessTask 实现 asynq.Handler。发送失败时记为 failed 并跳过重试。
func (h *EmailTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	log := h.logger

	var payload tasks.EmailApplicationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("application_id", payload.ApplicationID),
	)

	app, err := h.store.GetApplication(ctx, payload.ApplicationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("application not found, skipping task")
			return nil
		}
		log.Error("query application failed", slog.Any("error", err))
		return err
	}
	if app.Status != status.ApplicationPending {
		log.Warn("application already dispatched, skipping task", slog.String("status", string(app.Status)))
		return nil
	}

	emailID, sendErr := h.mailer.SendApplication(ctx, mailer.Application{
		ApplicantName: payload.ApplicantName,
		CompanyName:   payload.CompanyName,
		PositionTitle: payload.PositionTitle,
		CoverLetter:   payload.CoverLetter,
		Recipients:    payload.Recipients,
	})
	if sendErr != nil {
		log.Error("send application email failed",
			slog.Any("recipients", payload.Recipients),
			slog.Any("error", sendErr),
		)
		if err := h.transition(ctx, log, app, status.ApplicationFailed, nil, payload.CorrelationID, sendErr); err != nil {
			log.Error("update application status failed", slog.String("to", string(status.ApplicationFailed)), slog.Any("error", err))
		}
		return fmt.Errorf("send application email: %v: %w", sendErr, asynq.SkipRetry)
	}

	if err := h.transition(ctx, log, app, status.ApplicationSent, map[string]any{
		"email_sent": true,
		"email_id":   emailID,
	}, payload.CorrelationID, nil); err != nil {
		// 邮件已发出但记录仍为 pending，保留 email_id 以便人工对账
		log.Error("email sent but status not recorded",
			slog.String("email_id", emailID),
			slog.Any("error", err),
		)
		return nil
	}

	log.Info("application email sent", slog.String("email_id", emailID))
	return nil
}

func (h *EmailTaskHandler) transition(
	ctx context.Context,
	log *slog.Logger,
	app *database.JobApplication,
	to status.Application,
	fields map[string]any,
	correlationID string,
	cause error,
) error {
	if _, err := h.store.TransitionApplication(ctx, app.ID, to, fields); err != nil {
		return err
	}
	metrics.ApplicationDispatched(string(to))

	msg := StatusNotifyMessage{
		Kind:          KindApplication,
		ID:            app.ID,
		Status:        string(to),
		CorrelationID: correlationID,
		ErrorCode:     errcode.OK,
	}
	if cause != nil {
		msg.ErrorCode = errcode.UpstreamFailure
		msg.ErrorMessage = strings.TrimSpace(cause.Error())
	}
	if err := h.notifier.Notify(ctx, app.UserID, msg); err != nil {
		log.Warn("publish status notification failed", slog.Any("error", err))
	}
	return nil
}
