package api

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"careerPilot/internal/ai"
	"careerPilot/internal/apply"
	"careerPilot/internal/database"
	"careerPilot/internal/jobboard"
	"careerPilot/internal/resume"
	"careerPilot/internal/storage"
	"careerPilot/internal/store"
	"careerPilot/internal/tasks"
)

// Advisor 是处理器依赖的 AI 能力。
type Advisor interface {
	Analyze(ctx context.Context, r *database.Resume) (ai.Analysis, error)
	GenerateCoverLetter(ctx context.Context, r *database.Resume, job ai.JobPosting) (string, error)
	ParseDocument(ctx context.Context, up ai.Upload) (resume.Patch, error)
}

// JobSearcher 搜索并入库职位。
type JobSearcher interface {
	Search(ctx context.Context, q jobboard.Query) (jobboard.Result, error)
}

// Applier 执行批量投递。
type Applier interface {
	Apply(ctx context.Context, req apply.Request) (apply.Result, error)
}

// Deps 汇总 HTTP 层的全部依赖，由 main 构造并在退出时统一释放。
type Deps struct {
	Store          *store.Store
	Advisor        Advisor
	Jobs           JobSearcher
	Applier        Applier
	Enqueuer       tasks.Enqueuer
	Archiver       storage.Archiver
	Scanner        storage.Scanner
	Redis          *redis.Client
	Logger         *slog.Logger
	AllowedOrigins []string
}
