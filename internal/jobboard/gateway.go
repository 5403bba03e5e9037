package jobboard

import (
	"context"
	"log/slog"
	"strings"

	"careerPilot/internal/database"
	"careerPilot/internal/errcode"
)

// DefaultLimit 是未指定数量时的结果条数。
const DefaultLimit = 20

// ListingStore 是 Gateway 依赖的存储能力。
type ListingStore interface {
	InsertJobListingIfAbsent(ctx context.Context, j *database.JobListing) (*database.JobListing, bool, error)
}

// Result 是一次搜索的全部归一化结果，包括此前已入库的职位。
type Result struct {
	Jobs  []database.JobListing `json:"jobs"`
	Count int                   `json:"count"`
}

// Gateway 组合 Provider 与存储，按 (external_id, source) 只插入新职位。
type Gateway struct {
	provider Provider
	store    ListingStore
	logger   *slog.Logger
}

// NewGateway 创建 Gateway。
func NewGateway(provider Provider, store ListingStore, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{provider: provider, store: store, logger: logger}
}

// Search 查询职位板并入库。返回的职位均为库中实际记录，其 ID 可直接用于投递。
func (g *Gateway) Search(ctx context.Context, q Query) (Result, error) {
	if strings.TrimSpace(q.Keywords) == "" {
		return Result{}, errcode.Validation("keywords is required")
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}

	listings, err := g.provider.Search(ctx, q)
	if err != nil {
		return Result{}, errcode.Upstream("error searching jobs", err)
	}

	jobs := make([]database.JobListing, 0, len(listings))
	inserted := 0
	for i := range listings {
		stored, isNew, err := g.store.InsertJobListingIfAbsent(ctx, &listings[i])
		if err != nil {
			return Result{}, err
		}
		if isNew {
			inserted++
		}
		jobs = append(jobs, *stored)
	}

	g.logger.Info("job search completed",
		slog.String("keywords", q.Keywords),
		slog.Int("results", len(jobs)),
		slog.Int("inserted", inserted),
	)
	return Result{Jobs: jobs, Count: len(jobs)}, nil
}
