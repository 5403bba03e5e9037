package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	taskProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "careerpilot",
			Subsystem: "asynq",
			Name:      "tasks_processed_total",
			Help:      "已处理的队列任务总数，按结果区分。",
		},
		[]string{"task_type", "result"},
	)

	taskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "careerpilot",
			Subsystem: "asynq",
			Name:      "task_duration_seconds",
			Help:      "任务处理耗时（秒）。活动任务包含发送间隔。",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"task_type"},
	)

	taskInProgress = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "careerpilot",
			Subsystem: "asynq",
			Name:      "tasks_in_progress",
			Help:      "当前正在处理的任务数量。",
		},
		[]string{"task_type"},
	)

	applicationDispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "careerpilot",
			Subsystem: "email",
			Name:      "application_dispatch_total",
			Help:      "投递邮件发送结果，按最终状态区分。",
		},
		[]string{"status"},
	)

	campaignSendTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "careerpilot",
			Subsystem: "email",
			Name:      "campaign_send_total",
			Help:      "活动邮件的逐公司发送结果（sent / failed / skipped）。",
		},
		[]string{"result"},
	)
)

// AsynqMetricsMiddleware 记录 Asynq 任务处理指标。
func AsynqMetricsMiddleware() asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
			taskType := task.Type()
			taskInProgress.WithLabelValues(taskType).Inc()
			defer taskInProgress.WithLabelValues(taskType).Dec()

			start := time.Now()
			err := next.ProcessTask(ctx, task)
			taskDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())

			taskProcessedTotal.WithLabelValues(taskType, taskResult(err)).Inc()
			return err
		})
	}
}

func taskResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, asynq.SkipRetry):
		return "dropped"
	default:
		return "failed"
	}
}

// ApplicationDispatched 记录一次投递邮件的最终状态。
func ApplicationDispatched(status string) {
	applicationDispatchTotal.WithLabelValues(status).Inc()
}

// CampaignSend 记录活动中对单个公司的处理结果。
func CampaignSend(result string) {
	campaignSendTotal.WithLabelValues(result).Inc()
}
