// Package store 是文档存储适配层：按 ID 与过滤条件读写各实体，不含业务逻辑。
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"careerPilot/internal/database"
	"careerPilot/internal/status"
)

// ErrNotFound 表示按 ID 或过滤条件未找到记录。
var ErrNotFound = errors.New("record not found")

// MaxListResults 是用户简历列表的上限。
const MaxListResults = 100

// Store 基于 GORM 的实现。
type Store struct {
	db *gorm.DB
}

// New 构造 Store。
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB 暴露底层连接，供迁移与关闭使用。
func (s *Store) DB() *gorm.DB { return s.db }

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxListResults {
		return MaxListResults
	}
	return limit
}

// CreateResume 插入一份新简历。
func (s *Store) CreateResume(ctx context.Context, r *database.Resume) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("create resume: %w", err)
	}
	return nil
}

// GetResume 按 ID 读取简历。
func (s *Store) GetResume(ctx context.Context, id string) (*database.Resume, error) {
	var r database.Resume
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, fmt.Errorf("get resume %s: %w", id, notFound(err))
	}
	return &r, nil
}

// SaveResume 覆盖写入整份简历。
func (s *Store) SaveResume(ctx context.Context, r *database.Resume) error {
	if err := s.db.WithContext(ctx).Save(r).Error; err != nil {
		return fmt.Errorf("save resume %s: %w", r.ID, err)
	}
	return nil
}

// ListResumesByUser 返回用户的简历，最多 limit 条。
func (s *Store) ListResumesByUser(ctx context.Context, userID string, limit int) ([]database.Resume, error) {
	resumes := []database.Resume{}
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Limit(clampLimit(limit)).
		Find(&resumes).Error; err != nil {
		return nil, fmt.Errorf("list resumes for %s: %w", userID, err)
	}
	return resumes, nil
}

// CreateAnalysis 追加一条分析记录。
func (s *Store) CreateAnalysis(ctx context.Context, a *database.ResumeAnalysis) error {
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("create analysis: %w", err)
	}
	return nil
}

// LatestAnalysis 返回简历最近一次的分析。
func (s *Store) LatestAnalysis(ctx context.Context, resumeID string) (*database.ResumeAnalysis, error) {
	var a database.ResumeAnalysis
	if err := s.db.WithContext(ctx).
		Where("resume_id = ?", resumeID).
		Order("created_at DESC").
		First(&a).Error; err != nil {
		return nil, fmt.Errorf("latest analysis for %s: %w", resumeID, notFound(err))
	}
	return &a, nil
}

// CreateCoverLetter 插入求职信。
func (s *Store) CreateCoverLetter(ctx context.Context, cl *database.CoverLetter) error {
	if err := s.db.WithContext(ctx).Create(cl).Error; err != nil {
		return fmt.Errorf("create cover letter: %w", err)
	}
	return nil
}

// GetJobListing 按 ID 读取职位。
func (s *Store) GetJobListing(ctx context.Context, id string) (*database.JobListing, error) {
	var j database.JobListing
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&j).Error; err != nil {
		return nil, fmt.Errorf("get job listing %s: %w", id, notFound(err))
	}
	return &j, nil
}

// InsertJobListingIfAbsent 仅在 (external_id, source) 不存在时插入。
// 返回库中实际存在的那条记录；已存在的记录不会被更新。
func (s *Store) InsertJobListingIfAbsent(ctx context.Context, j *database.JobListing) (*database.JobListing, bool, error) {
	var existing database.JobListing
	err := s.db.WithContext(ctx).
		Where("external_id = ? AND source = ?", j.ExternalID, j.Source).
		First(&existing).Error
	switch {
	case err == nil:
		return &existing, false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, fmt.Errorf("lookup job listing %s/%s: %w", j.Source, j.ExternalID, err)
	}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(j)
	if res.Error != nil {
		return nil, false, fmt.Errorf("insert job listing %s/%s: %w", j.Source, j.ExternalID, res.Error)
	}
	if res.RowsAffected > 0 {
		return j, true, nil
	}

	// 并发插入时冲突，回读已存在的记录
	if err := s.db.WithContext(ctx).
		Where("external_id = ? AND source = ?", j.ExternalID, j.Source).
		First(&existing).Error; err != nil {
		return nil, false, fmt.Errorf("reload job listing %s/%s: %w", j.Source, j.ExternalID, err)
	}
	return &existing, false, nil
}

// RecentJobListings 按入库时间倒序返回最多 limit 条职位；limit <= 0 表示不限。
func (s *Store) RecentJobListings(ctx context.Context, limit int) ([]database.JobListing, error) {
	jobs := []database.JobListing{}
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list recent job listings: %w", err)
	}
	return jobs, nil
}

// CreateApplication 插入投递记录。
func (s *Store) CreateApplication(ctx context.Context, a *database.JobApplication) error {
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

// GetApplication 按 ID 读取投递记录。
func (s *Store) GetApplication(ctx context.Context, id string) (*database.JobApplication, error) {
	var a database.JobApplication
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, fmt.Errorf("get application %s: %w", id, notFound(err))
	}
	return &a, nil
}

// ListApplicationsByUser 按投递时间倒序返回用户的全部投递记录。
func (s *Store) ListApplicationsByUser(ctx context.Context, userID string) ([]database.JobApplication, error) {
	apps := []database.JobApplication{}
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("applied_at DESC").
		Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("list applications for %s: %w", userID, err)
	}
	return apps, nil
}

// TransitionApplication 校验迁移表后更新状态及附加字段。
// 更新以当前状态为条件，若期间被其他写入修改则返回 status.ErrInvalidTransition。
func (s *Store) TransitionApplication(ctx context.Context, id string, to status.Application, fields map[string]any) (*database.JobApplication, error) {
	app, err := s.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := status.CheckApplication(app.Status, to); err != nil {
		return app, err
	}

	updates := map[string]any{"status": to}
	for k, v := range fields {
		updates[k] = v
	}

	res := s.db.WithContext(ctx).
		Model(&database.JobApplication{}).
		Where("id = ? AND status = ?", id, app.Status).
		Updates(updates)
	if res.Error != nil {
		return app, fmt.Errorf("update application %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return app, fmt.Errorf("application %s changed concurrently: %w", id, status.ErrInvalidTransition)
	}

	return s.GetApplication(ctx, id)
}

// CreateContact 插入公司联系人。
func (s *Store) CreateContact(ctx context.Context, c *database.CompanyContact) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create company contact: %w", err)
	}
	return nil
}

// ListContacts 返回全部公司联系人。
func (s *Store) ListContacts(ctx context.Context) ([]database.CompanyContact, error) {
	contacts := []database.CompanyContact{}
	if err := s.db.WithContext(ctx).
		Order("company_name ASC").
		Find(&contacts).Error; err != nil {
		return nil, fmt.Errorf("list company contacts: %w", err)
	}
	return contacts, nil
}

// FindContactByCompany 按公司名精确查找。
func (s *Store) FindContactByCompany(ctx context.Context, company string) (*database.CompanyContact, error) {
	var c database.CompanyContact
	if err := s.db.WithContext(ctx).Where("company_name = ?", company).First(&c).Error; err != nil {
		return nil, fmt.Errorf("find contact for %q: %w", company, notFound(err))
	}
	return &c, nil
}

// CreateCampaign 插入邮件活动。
func (s *Store) CreateCampaign(ctx context.Context, c *database.EmailCampaign) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

// GetCampaign 按 ID 读取邮件活动。
func (s *Store) GetCampaign(ctx context.Context, id string) (*database.EmailCampaign, error) {
	var c database.EmailCampaign
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, fmt.Errorf("get campaign %s: %w", id, notFound(err))
	}
	return &c, nil
}

// TransitionCampaign 校验迁移表后更新活动状态及附加字段。
func (s *Store) TransitionCampaign(ctx context.Context, id string, to status.Campaign, fields map[string]any) (*database.EmailCampaign, error) {
	campaign, err := s.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := status.CheckCampaign(campaign.Status, to); err != nil {
		return campaign, err
	}

	updates := map[string]any{"status": to}
	for k, v := range fields {
		updates[k] = v
	}

	res := s.db.WithContext(ctx).
		Model(&database.EmailCampaign{}).
		Where("id = ? AND status = ?", id, campaign.Status).
		Updates(updates)
	if res.Error != nil {
		return campaign, fmt.Errorf("update campaign %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return campaign, fmt.Errorf("campaign %s changed concurrently: %w", id, status.ErrInvalidTransition)
	}

	return s.GetCampaign(ctx, id)
}
