// Package jobboard 查询外部职位板并把结果归一化、去重入库。
package jobboard

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"gorm.io/datatypes"

	"careerPilot/internal/config"
	"careerPilot/internal/database"
)

// SourceAdzuna 是 Adzuna 职位的来源名。
const SourceAdzuna = "adzuna"

// Query 是发往职位板的搜索条件。
type Query struct {
	Keywords  string
	Location  string
	SalaryMin *float64
	SalaryMax *float64
	Limit     int
}

// Provider 执行一次搜索并返回归一化后的职位（尚未入库）。
type Provider interface {
	Search(ctx context.Context, q Query) ([]database.JobListing, error)
}

// Adzuna 是 Adzuna 搜索接口的客户端。
type Adzuna struct {
	cfg    config.JobBoardConfig
	client *http.Client
	now    func() time.Time
}

// NewAdzuna 创建客户端；client 为空时使用 http.DefaultClient。
func NewAdzuna(cfg config.JobBoardConfig, client *http.Client) *Adzuna {
	if client == nil {
		client = http.DefaultClient
	}
	return &Adzuna{cfg: cfg, client: client, now: time.Now}
}

// Search 按发布时间倒序搜索第一页结果。
func (a *Adzuna) Search(ctx context.Context, q Query) ([]database.JobListing, error) {
	params := url.Values{}
	params.Set("app_id", a.cfg.AppID)
	params.Set("app_key", a.cfg.AppKey)
	params.Set("what", q.Keywords)
	if q.Location != "" {
		params.Set("where", q.Location)
	}
	if q.SalaryMin != nil {
		params.Set("salary_min", strconv.FormatFloat(*q.SalaryMin, 'f', -1, 64))
	}
	if q.SalaryMax != nil {
		params.Set("salary_max", strconv.FormatFloat(*q.SalaryMax, 'f', -1, 64))
	}
	params.Set("results_per_page", strconv.Itoa(q.Limit))
	params.Set("sort_by", "date")

	endpoint := fmt.Sprintf("%s/jobs/%s/search/1?%s",
		strings.TrimRight(a.cfg.BaseURL, "/"), url.PathEscape(a.cfg.Country), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build adzuna request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request adzuna")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read adzuna response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Errorf("adzuna status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.New("adzuna returned invalid json")
	}

	results := gjson.GetBytes(body, "results").Array()
	listings := make([]database.JobListing, 0, len(results))
	for _, r := range results {
		listings = append(listings, a.normalize(r))
	}
	return listings, nil
}

// normalize 缺失字段取空串，发布时间缺失或无法解析时取当前时间。
func (a *Adzuna) normalize(r gjson.Result) database.JobListing {
	listing := database.JobListing{
		ExternalID:     r.Get("id").String(),
		Source:         SourceAdzuna,
		Title:          r.Get("title").String(),
		Company:        r.Get("company.display_name").String(),
		Location:       r.Get("location.display_name").String(),
		SalaryCurrency: currencyFor(a.cfg.Country),
		Description:    r.Get("description").String(),
		Requirements:   datatypes.JSONSlice[string]{},
		ApplicationURL: r.Get("redirect_url").String(),
		PostedDate:     a.now().UTC(),
	}

	if v := r.Get("salary_min"); v.Exists() && v.Type == gjson.Number {
		f := v.Float()
		listing.SalaryMin = &f
	}
	if v := r.Get("salary_max"); v.Exists() && v.Type == gjson.Number {
		f := v.Float()
		listing.SalaryMax = &f
	}
	if label := r.Get("category.label").String(); label != "" {
		listing.Requirements = append(listing.Requirements, label)
	}
	if created := r.Get("created").String(); created != "" {
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			listing.PostedDate = t.UTC()
		}
	}
	return listing
}

func currencyFor(country string) string {
	switch strings.ToLower(country) {
	case "gb":
		return "GBP"
	case "de", "fr", "es", "it", "nl", "at", "be":
		return "EUR"
	case "ca":
		return "CAD"
	case "au":
		return "AUD"
	case "in":
		return "INR"
	default:
		return "USD"
	}
}
