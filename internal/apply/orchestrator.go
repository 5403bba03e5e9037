// Package apply 实现批量投递：为每个职位生成求职信、记录投递并安排邮件发送。
package apply

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"careerPilot/internal/ai"
	"careerPilot/internal/database"
	"careerPilot/internal/errcode"
	"careerPilot/internal/resume"
	"careerPilot/internal/store"
	"careerPilot/internal/tasks"
)

// Store 是 Orchestrator 依赖的存储能力。
type Store interface {
	GetResume(ctx context.Context, id string) (*database.Resume, error)
	GetJobListing(ctx context.Context, id string) (*database.JobListing, error)
	CreateCoverLetter(ctx context.Context, cl *database.CoverLetter) error
	CreateApplication(ctx context.Context, a *database.JobApplication) error
	FindContactByCompany(ctx context.Context, company string) (*database.CompanyContact, error)
}

// CoverLetterWriter 生成求职信正文。
type CoverLetterWriter interface {
	GenerateCoverLetter(ctx context.Context, r *database.Resume, job ai.JobPosting) (string, error)
}

// Request 是一次批量投递。
type Request struct {
	UserID        string   `json:"user_id"`
	ResumeID      string   `json:"resume_id"`
	JobIDs        []string `json:"job_ids"`
	SendEmails    bool     `json:"send_emails"`
	CorrelationID string   `json:"-"`
}

// Result 是本次创建的投递记录；出错时为出错前已持久化的部分。
type Result struct {
	Applications []database.JobApplication `json:"applications"`
	Count        int                       `json:"count"`
}

// Orchestrator 串联简历、职位、求职信生成与邮件任务。
type Orchestrator struct {
	store    Store
	writer   CoverLetterWriter
	enqueuer tasks.Enqueuer
	logger   *slog.Logger
}

// NewOrchestrator 创建 Orchestrator。
func NewOrchestrator(s Store, writer CoverLetterWriter, enqueuer tasks.Enqueuer, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{store: s, writer: writer, enqueuer: enqueuer, logger: logger}
}

// Apply 按给定顺序处理 job_ids。
// 找不到的职位直接跳过；任一求职信生成失败会中止剩余职位，已写入的记录不回滚。
func (o *Orchestrator) Apply(ctx context.Context, req Request) (Result, error) {
	res := Result{Applications: []database.JobApplication{}}

	r, err := o.store.GetResume(ctx, req.ResumeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return res, errcode.NotFound("Resume not found")
		}
		return res, err
	}
	applicant := resume.ApplicantName(r)

	logger := o.logger.With(
		slog.String("resume_id", r.ID),
		slog.String("user_id", req.UserID),
		slog.String("correlation_id", req.CorrelationID),
	)

	for _, jobID := range req.JobIDs {
		job, err := o.store.GetJobListing(ctx, jobID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return res.done(), err
		}

		app, err := o.applyOne(ctx, req, r, job, applicant, logger)
		if err != nil {
			logger.Error("apply aborted", slog.String("job_id", jobID), slog.Any("error", err))
			return res.done(), err
		}
		res.Applications = append(res.Applications, *app)
	}

	return res.done(), nil
}

func (o *Orchestrator) applyOne(ctx context.Context, req Request, r *database.Resume, job *database.JobListing, applicant string, logger *slog.Logger) (*database.JobApplication, error) {
	letter, err := o.writer.GenerateCoverLetter(ctx, r, ai.JobPosting{
		CompanyName:    job.Company,
		PositionTitle:  job.Title,
		JobDescription: job.Description,
		Requirements:   job.Requirements,
	})
	if err != nil {
		return nil, err
	}

	cl := &database.CoverLetter{
		ResumeID:      r.ID,
		JobPosting:    job.Description,
		CompanyName:   job.Company,
		PositionTitle: job.Title,
		Content:       letter,
	}
	if err := o.store.CreateCoverLetter(ctx, cl); err != nil {
		return nil, err
	}

	app := &database.JobApplication{
		UserID:        req.UserID,
		ResumeID:      r.ID,
		JobID:         job.ID,
		CompanyName:   job.Company,
		PositionTitle: job.Title,
		CoverLetterID: &cl.ID,
	}
	if err := o.store.CreateApplication(ctx, app); err != nil {
		return nil, err
	}

	if req.SendEmails {
		err := o.enqueuer.EnqueueEmailApplication(ctx, tasks.EmailApplicationPayload{
			ApplicationID: app.ID,
			UserID:        req.UserID,
			ApplicantName: applicant,
			CompanyName:   job.Company,
			PositionTitle: job.Title,
			CoverLetter:   letter,
			Recipients:    o.recipients(ctx, job.Company, logger),
			CorrelationID: req.CorrelationID,
		})
		// 入队失败只记录，投递记录保持 pending
		if err != nil {
			logger.Error("enqueue application email failed",
				slog.String("application_id", app.ID),
				slog.Any("error", err),
			)
		}
	}

	return app, nil
}

// recipients 优先使用已登记的公司联系人，否则猜测 hr@ / jobs@ 地址。
func (o *Orchestrator) recipients(ctx context.Context, company string, logger *slog.Logger) []string {
	contact, err := o.store.FindContactByCompany(ctx, company)
	switch {
	case err == nil && len(contact.EmailAddresses) > 0:
		return append([]string(nil), contact.EmailAddresses...)
	case err != nil && !errors.Is(err, store.ErrNotFound):
		logger.Warn("lookup company contact failed", slog.String("company", company), slog.Any("error", err))
	}
	return GuessRecipients(company)
}

// GuessRecipients 以公司名推断通用招聘邮箱。
func GuessRecipients(company string) []string {
	slug := companySlug(company)
	return []string{
		fmt.Sprintf("hr@%s.com", slug),
		fmt.Sprintf("jobs@%s.com", slug),
	}
}

func companySlug(company string) string {
	return strings.NewReplacer(" ", "", ",", "", ".", "").Replace(strings.ToLower(company))
}

func (r Result) done() Result {
	r.Count = len(r.Applications)
	return r
}
