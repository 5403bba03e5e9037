package ai

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"careerPilot/internal/database"
	"careerPilot/internal/errcode"
	"careerPilot/internal/resume"
)

// DefaultMimeType 在上传未声明类型时使用。
const DefaultMimeType = "application/pdf"

var allowedExtensions = map[string]struct{}{
	".pdf":  {},
	".txt":  {},
	".doc":  {},
	".docx": {},
}

// Analysis 是模型返回的简历评估。
type Analysis struct {
	ATSScore            float64            `json:"ats_score"`
	Strengths           []string           `json:"strengths"`
	Weaknesses          []string           `json:"weaknesses"`
	MissingInformation  []string           `json:"missing_information"`
	Suggestions         []string           `json:"suggestions"`
	KeywordOptimization map[string]any     `json:"keyword_optimization"`
	SectionScores       map[string]float64 `json:"section_scores"`
}

// FallbackAnalysis 在模型回复无法解析时返回的固定评估。
func FallbackAnalysis() Analysis {
	return Analysis{
		ATSScore:           75.0,
		Strengths:          []string{"Professional experience listed", "Education included"},
		Weaknesses:         []string{"Missing quantified achievements", "Needs more keywords"},
		MissingInformation: []string{"Contact information", "Professional summary"},
		Suggestions:        []string{"Add quantified achievements", "Include relevant keywords", "Improve formatting"},
		KeywordOptimization: map[string]any{
			"recommended_keywords": []string{"data analysis", "project management", "communication"},
			"keyword_density":      60,
		},
		SectionScores: map[string]float64{
			"personal_info":     80.0,
			"summary":           70.0,
			"experience":        75.0,
			"education":         85.0,
			"skills":            65.0,
			"overall_structure": 70.0,
		},
	}
}

// JobPosting 是生成求职信所需的职位信息。
type JobPosting struct {
	CompanyName    string   `json:"company_name"`
	PositionTitle  string   `json:"position_title"`
	JobDescription string   `json:"job_description"`
	Requirements   []string `json:"requirements"`
}

// Upload 是待解析的上传文件。
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Advisor 为每类任务拼装提示并解释模型回复。
type Advisor struct {
	chat   ChatModel
	logger *slog.Logger
}

// NewAdvisor 创建 Advisor。
func NewAdvisor(chat ChatModel, logger *slog.Logger) *Advisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Advisor{chat: chat, logger: logger}
}

// Analyze 评估简历。回复无法解析时返回 FallbackAnalysis，不视为错误。
func (a *Advisor) Analyze(ctx context.Context, r *database.Resume) (Analysis, error) {
	reply, err := a.chat.Ask(ctx, Request{
		SessionID: "resume-analysis-" + r.ID,
		System:    systemPrompt,
		Prompt:    fmt.Sprintf(analysisPrompt, resume.ToText(r)),
	})
	if err != nil {
		return Analysis{}, errcode.Upstream("error analyzing resume", err)
	}

	var analysis Analysis
	if err := ExtractJSON(reply, &analysis); err != nil {
		a.logger.Warn("analysis reply not parseable, using fallback",
			slog.String("resume_id", r.ID),
			slog.Any("error", err),
		)
		return FallbackAnalysis(), nil
	}
	return analysis, nil
}

// GenerateCoverLetter 返回模型生成的求职信原文。
func (a *Advisor) GenerateCoverLetter(ctx context.Context, r *database.Resume, job JobPosting) (string, error) {
	reply, err := a.chat.Ask(ctx, Request{
		SessionID: "cover-letter-" + r.ID,
		System:    systemPrompt,
		Prompt: fmt.Sprintf(coverLetterPrompt,
			resume.ToSummary(r),
			job.CompanyName,
			job.PositionTitle,
			job.JobDescription,
			strings.Join(job.Requirements, ", "),
		),
	})
	if err != nil {
		return "", errcode.Upstream("error generating cover letter", err)
	}
	if strings.TrimSpace(reply) == "" {
		return "", errcode.Upstream("error generating cover letter", errors.New("empty reply"))
	}
	return reply, nil
}

// CheckUploadName 校验扩展名，只接受 PDF / TXT / DOC / DOCX。
func CheckUploadName(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return errcode.Validation("Only PDF, TXT, DOC, and DOCX files are supported")
	}
	return nil
}

// ParseDocument 让模型从上传文档中抽取结构化简历。与 Analyze 不同，解析失败即返回错误。
func (a *Advisor) ParseDocument(ctx context.Context, up Upload) (resume.Patch, error) {
	if err := CheckUploadName(up.Filename); err != nil {
		return resume.Patch{}, err
	}

	mimeType := up.ContentType
	if mimeType == "" {
		mimeType = DefaultMimeType
	}

	reply, err := a.chat.Ask(ctx, Request{
		SessionID: "parse-resume-" + uuid.NewString(),
		System:    systemPrompt,
		Prompt:    parsePrompt,
		Files:     []File{{Name: up.Filename, MimeType: mimeType, Data: up.Data}},
	})
	if err != nil {
		return resume.Patch{}, errcode.Upstream("error parsing resume", err)
	}

	var patch resume.Patch
	if err := ExtractJSON(reply, &patch); err != nil {
		return resume.Patch{}, errcode.Upstream("Error parsing resume content", err)
	}
	return patch, nil
}
