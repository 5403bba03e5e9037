package worker

import (
	"github.com/hibiken/asynq"

	"careerPilot/internal/metrics"
	"careerPilot/internal/tasks"
)

// NewServeMux 注册全部任务处理器并挂载指标中间件。
func NewServeMux(email *EmailTaskHandler, campaign *CampaignTaskHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeEmailApplication, email)
	mux.Handle(tasks.TypeCampaignRun, campaign)
	return mux
}
